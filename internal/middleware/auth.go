package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/homebase/internal/auth"
	"github.com/dukerupert/homebase/internal/model"
)

// UserLookup resolves the user a token was issued to.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// RequireAuth validates the bearer token and populates AuthContext. The
// household comes from the user record, so membership changes apply to
// existing tokens. Browsers cannot set headers on websocket upgrades, so a
// token query parameter is accepted there.
func RequireAuth(tokens *auth.Tokens, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to load user")
				return
			}
			if user == nil {
				unauthorized(w, "unknown user")
				return
			}

			tagUser(r.Context(), user.ID)
			ac := auth.AuthContext{UserID: user.ID, TokenID: claims.ID}
			if user.HouseholdID != nil {
				ac.HouseholdID = *user.HouseholdID
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// RequireHousehold rejects callers that have not joined a household.
func RequireHousehold(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.HouseholdID(r.Context()) == 0 {
			writeError(w, http.StatusForbidden, "join a household first")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="homebase"`)
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
