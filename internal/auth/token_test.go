package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("secret")
	signed, err := tokens.Issue(12, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 12 {
		t.Errorf("UserID = %d, %v, want 12", id, err)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
}

func TestParseRejects(t *testing.T) {
	tokens := NewTokens("secret")
	good, _ := tokens.Issue(1, time.Hour)

	expiredIssuer := NewTokens("secret")
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredIssuer.Issue(1, time.Hour)

	other, _ := NewTokens("other").Issue(1, time.Hour)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer: issuer, Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong secret", other},
		{"alg none", none},
		{"truncated", good[:len(good)-4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tokens.Parse(tt.token); err != ErrInvalidToken {
				t.Errorf("err = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestClaimsUserIDInvalid(t *testing.T) {
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}
	if _, err := c.UserID(); err == nil {
		t.Error("expected error for non-numeric subject")
	}
}
