package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/homebase/internal/auth"
	"github.com/dukerupert/homebase/internal/database"
	"github.com/dukerupert/homebase/internal/store"
)

func setupAuthMiddlewareDB(t *testing.T) (*auth.Tokens, *store.HouseholdStore, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return auth.NewTokens("test-secret"), store.NewHouseholdStore(db), store.NewUserStore(db)
}

func TestRequireAuthNoToken(t *testing.T) {
	tokens, _, us := setupAuthMiddlewareDB(t)

	handler := RequireAuth(tokens, us)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/chores", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	tokens, _, us := setupAuthMiddlewareDB(t)
	forged, _ := auth.NewTokens("other-secret").Issue(1, time.Hour)
	ghost, _ := tokens.Issue(999, time.Hour)

	tests := []struct {
		name   string
		header string
	}{
		{"garbage", "Bearer nope"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"forged", "Bearer " + forged},
		{"unknown user", "Bearer " + ghost},
	}
	handler := RequireAuth(tokens, us)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	tokens, hs, us := setupAuthMiddlewareDB(t)
	ctx := context.Background()

	h, _ := hs.Create(ctx, "Home")
	u, _ := us.Create(ctx, "Alice", &h.ID)
	token, _ := tokens.Issue(u.ID, time.Hour)

	var gotAC auth.AuthContext
	handler := RequireAuth(tokens, us)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.UserID != u.ID {
		t.Errorf("UserID = %d, want %d", gotAC.UserID, u.ID)
	}
	if gotAC.HouseholdID != h.ID {
		t.Errorf("HouseholdID = %d, want %d", gotAC.HouseholdID, h.ID)
	}
	if gotAC.TokenID == "" {
		t.Error("expected token id")
	}
}

func TestRequireAuthWebsocketQueryToken(t *testing.T) {
	tokens, _, us := setupAuthMiddlewareDB(t)
	u, _ := us.Create(context.Background(), "Bob", nil)
	token, _ := tokens.Issue(u.ID, time.Hour)

	reached := false
	handler := RequireAuth(tokens, us)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest("GET", "/ws?token="+token, nil)
	req.Header.Set("Upgrade", "websocket")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !reached {
		t.Error("websocket upgrade with query token should pass")
	}

	reached = false
	plain := httptest.NewRequest("GET", "/api/chores?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, plain)
	if reached || rec.Code != http.StatusUnauthorized {
		t.Errorf("query token outside websocket: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireHousehold(t *testing.T) {
	handler := RequireHousehold(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		household int64
		want      int
	}{
		{0, http.StatusForbidden},
		{3, http.StatusOK},
	}
	for _, tt := range tests {
		ctx := auth.WithAuth(context.Background(), auth.AuthContext{UserID: 1, HouseholdID: tt.household})
		req := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("household %d: status = %d, want %d", tt.household, rec.Code, tt.want)
		}
	}
}
