package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eventcart/backend/domain"
	"github.com/eventcart/backend/pkg/stream"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"stream not found", stream.ErrStreamNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"cart not found", domain.ErrCartNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"product item not found", domain.ErrProductItemNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"opened existing cart", domain.ErrOpenedExistingCart, http.StatusConflict, "CONFLICT"},
		{"cart closed", domain.ErrCartClosed, http.StatusConflict, "CONFLICT"},
		{"invalid payload", domain.ErrInvalidPayload, http.StatusBadRequest, "INVALID"},
		{"unknown event type", domain.ErrUnknownEventType, http.StatusInternalServerError, "INTERNAL"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := mapError(tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.code, code)
		})
	}
}
