package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/homebase/internal/model"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	// Public key should be base64url-encoded, 65 bytes uncompressed P-256 point
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	// Private key should be base64url-encoded, 32 bytes P-256 scalar
	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}

func testSubscription(t *testing.T, endpoint string) *model.PushSubscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate client key: %v", err)
	}
	auth := make([]byte, 16)
	rand.Read(auth)
	return &model.PushSubscription{
		Endpoint:  endpoint,
		P256dhKey: base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		AuthKey:   base64.RawURLEncoding.EncodeToString(auth),
	}
}

func TestSendStatusHandling(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}
	svc := NewService(Config{VAPIDPublicKey: pub, VAPIDPrivateKey: priv})

	tests := []struct {
		name    string
		status  int
		wantErr error
		fail    bool
	}{
		{"created", http.StatusCreated, nil, false},
		{"gone", http.StatusGone, ErrExpired, true},
		{"server error", http.StatusInternalServerError, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") == "" {
					t.Error("expected VAPID authorization header")
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := svc.Send(context.Background(), testSubscription(t, srv.URL), Payload{Title: "Chore", Body: "Sweep"})
			if tt.fail && err == nil {
				t.Fatal("expected error")
			}
			if !tt.fail && err != nil {
				t.Fatalf("send: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigEnabled(t *testing.T) {
	if (Config{}).Enabled() {
		t.Error("empty config should be disabled")
	}
	if !(Config{VAPIDPublicKey: "a", VAPIDPrivateKey: "b"}).Enabled() {
		t.Error("config with both keys should be enabled")
	}
}

func TestDeliver(t *testing.T) {
	pub, priv, _ := GenerateVAPIDKeys()
	svc := NewService(Config{VAPIDPublicKey: pub, VAPIDPrivateKey: priv})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	sub := func(path string, userID int64) model.PushSubscription {
		s := testSubscription(t, srv.URL+path)
		s.UserID = userID
		return *s
	}
	subs := []model.PushSubscription{
		sub("/bob", 1),
		sub("/alice", 2),
		sub("/gone", 2),
		sub("/broken", 3),
	}

	r := svc.Deliver(context.Background(), subs, 1, HouseholdMessage(7, "Next task"))
	if r.Sent != 1 {
		t.Errorf("Sent = %d, want 1", r.Sent)
	}
	if r.Failed != 1 || r.Err == nil {
		t.Errorf("Failed = %d, Err = %v, want 1 failure", r.Failed, r.Err)
	}
	if len(r.Expired) != 1 || r.Expired[0] != srv.URL+"/gone" {
		t.Errorf("Expired = %v", r.Expired)
	}
}

func TestHouseholdMessage(t *testing.T) {
	p := HouseholdMessage(7, "hello")
	if p.Tag != "household-7" || p.Body != "hello" || p.Title != "Homebase" {
		t.Errorf("payload = %+v", p)
	}
}
