package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("delete budget: %w", &Error{Status: 404, Detail: "Budget not found"})

	if got := Detail(wrapped); got != "Budget not found" {
		t.Fatalf("Detail() = %q", got)
	}
	if !IsNotFound(wrapped) {
		t.Fatal("expected IsNotFound")
	}
	if IsUnauthorized(wrapped) {
		t.Fatal("did not expect IsUnauthorized")
	}
	if Detail(errors.New("dial tcp: refused")) != "" {
		t.Fatal("plain errors carry no detail")
	}

	if got := (&Error{Status: 401}).Error(); got != "api: 401 Unauthorized" {
		t.Fatalf("Error() = %q", got)
	}
}
