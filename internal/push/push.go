// Package push delivers Web Push messages to household members' devices.
package push

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/dukerupert/homebase/internal/model"
)

// ErrExpired means the push service no longer knows the subscription.
var ErrExpired = errors.New("push subscription expired")

const (
	defaultSubscriber = "mailto:noreply@homebase.app"
	// Assignments are refreshed daily; an undelivered message older than
	// that is stale.
	defaultTTL = 12 * time.Hour
)

// Payload is the JSON body the service worker receives.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// HouseholdMessage builds the payload for a household announcement. The tag
// lets a newer message replace an older one on the same device.
func HouseholdMessage(householdID int64, text string) Payload {
	return Payload{
		Title: "Homebase",
		Body:  text,
		URL:   "/",
		Tag:   fmt.Sprintf("household-%d", householdID),
	}
}

type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
	TTL             time.Duration
}

func (c Config) Enabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

type Service struct {
	publicKey  string
	privateKey string
	subscriber string
	ttl        int
	client     webpush.HTTPClient
}

func NewService(cfg Config) *Service {
	if cfg.Subscriber == "" {
		cfg.Subscriber = defaultSubscriber
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	return &Service{
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: cfg.VAPIDPrivateKey,
		subscriber: cfg.Subscriber,
		ttl:        int(cfg.TTL / time.Second),
		client:     http.DefaultClient,
	}
}

// VAPIDPublicKey is handed to browsers when they subscribe.
func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// Send delivers one payload to one subscription.
func (s *Service) Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dhKey, Auth: sub.AuthKey},
	}
	resp, err := webpush.SendNotificationWithContext(ctx, body, target, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             s.ttl,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("push to %s: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone, resp.StatusCode == http.StatusNotFound:
		return ErrExpired
	case resp.StatusCode >= 400:
		return fmt.Errorf("push to %s: status %d", sub.Endpoint, resp.StatusCode)
	}
	return nil
}

// Report summarizes a fan-out.
type Report struct {
	Sent    int
	Failed  int
	Expired []string // endpoints to forget
	Err     error
}

// Deliver sends payload to every subscription not owned by excludeUserID
// (0 excludes nobody). Delivery continues past individual failures.
func (s *Service) Deliver(ctx context.Context, subs []model.PushSubscription, excludeUserID int64, payload Payload) Report {
	var (
		r    Report
		errs []error
	)
	for i := range subs {
		sub := &subs[i]
		if excludeUserID != 0 && sub.UserID == excludeUserID {
			continue
		}
		err := s.Send(ctx, sub, payload)
		switch {
		case err == nil:
			r.Sent++
		case errors.Is(err, ErrExpired):
			r.Expired = append(r.Expired, sub.Endpoint)
		default:
			r.Failed++
			errs = append(errs, err)
		}
	}
	r.Err = errors.Join(errs...)
	return r
}

// GenerateVAPIDKeys returns a fresh P-256 key pair, base64url encoded.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate vapid key: %w", err)
	}
	pub := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	return base64.RawURLEncoding.EncodeToString(pub),
		base64.RawURLEncoding.EncodeToString(key.D.FillBytes(make([]byte, 32))), nil
}
