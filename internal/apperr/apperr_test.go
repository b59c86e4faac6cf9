package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{Unauthenticated, http.StatusUnauthorized},
		{Unauthorized, http.StatusForbidden},
		{Validation, http.StatusBadRequest},
		{Conflict, http.StatusConflict},
		{NotFound, http.StatusNotFound},
		{Upstream, http.StatusInternalServerError},
		{Kind("bogus"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.HTTPStatus(); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindOfWrapped(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("handler: %w", Wrap(Conflict, "An account with this email already exists.", cause))

	if KindOf(err) != Conflict {
		t.Errorf("expected conflict, got %s", KindOf(err))
	}
	if HTTPStatus(err) != http.StatusConflict {
		t.Errorf("expected 409, got %d", HTTPStatus(err))
	}
	if MessageOf(err) != "An account with this email already exists." {
		t.Errorf("unexpected message %q", MessageOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
}

func TestUnclassified(t *testing.T) {
	err := errors.New("connection refused")
	if KindOf(err) != Upstream {
		t.Errorf("expected upstream, got %s", KindOf(err))
	}
	if MessageOf(err) == err.Error() {
		t.Error("unclassified errors must not expose their text")
	}
}
