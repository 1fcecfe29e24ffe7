package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Forbidden("x"), http.StatusForbidden},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Internal("x"), http.StatusInternalServerError},
		{Unavailable("x"), http.StatusServiceUnavailable},
		{TooLarge("x"), http.StatusRequestEntityTooLarge},
		{New(KindUnknown, "x"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("kind %d: expected %d, got %d", tc.err.Kind, tc.want, got)
		}
	}
}

func TestIsFindsWrappedKind(t *testing.T) {
	base := Conflict("duplicate lead")
	wrapped := fmt.Errorf("create lead: %w", base)

	if !Is(wrapped, KindConflict) {
		t.Fatal("expected wrapped conflict to be detected")
	}
	if Is(errors.New("plain"), KindConflict) {
		t.Fatal("plain error must not report a kind")
	}
}

func TestErrorIncludesOp(t *testing.T) {
	err := NotFound("lead not found").WithOp("leads.Get")
	if err.Error() != "leads.Get: lead not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
