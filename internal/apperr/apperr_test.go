package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := E("chore.complete", NotFound, "chore 7")
	wrapped := fmt.Errorf("handler: %w", base)

	if got := KindOf(wrapped); got != NotFound {
		t.Errorf("KindOf = %v, want %v", got, NotFound)
	}
	if !Is(wrapped, NotFound) {
		t.Error("expected Is(NotFound) to be true")
	}
	if Is(nil, NotFound) {
		t.Error("nil error should not match any kind")
	}
}

func TestErrorUnwrap(t *testing.T) {
	sentinel := errors.New("disk gone")
	err := E("store.get", Storage, sentinel)
	if !errors.Is(err, sentinel) {
		t.Error("expected errors.Is to reach wrapped sentinel")
	}
	if got := err.Error(); got != "store.get: storage: disk gone" {
		t.Errorf("Error() = %q", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("x")); got != Other {
		t.Errorf("KindOf = %v, want %v", got, Other)
	}
}
