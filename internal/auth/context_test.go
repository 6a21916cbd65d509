package auth

import (
	"context"
	"testing"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		UserID:      1,
		HouseholdID: 2,
		TokenID:     "abc",
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got != ac {
		t.Errorf("AuthContext = %+v, want %+v", got, ac)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
}

func TestAccessors(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{UserID: 7, HouseholdID: 42})
	if HouseholdID(ctx) != 42 {
		t.Errorf("HouseholdID = %d, want 42", HouseholdID(ctx))
	}
	if UserID(ctx) != 7 {
		t.Errorf("UserID = %d, want 7", UserID(ctx))
	}
}

func TestAccessorsMissing(t *testing.T) {
	if HouseholdID(context.Background()) != 0 {
		t.Error("expected 0 household for missing context")
	}
	if UserID(context.Background()) != 0 {
		t.Error("expected 0 user for missing context")
	}
}
