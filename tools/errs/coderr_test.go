package errs

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCodeError(t *testing.T) {
	t.Run("should match its base error by code through errors.Is", func(t *testing.T) {
		req := require.New(t)
		err := ErrNotFound.WithDetail("user u1")
		req.ErrorIs(err, ErrNotFound)
		req.NotErrorIs(err, ErrForbidden)
	})

	t.Run("should not mutate the predefined error on WithDetail", func(t *testing.T) {
		req := require.New(t)
		_ = ErrValidation.WithDetail("field chatId")
		req.Empty(ErrValidation.Detail)
	})

	t.Run("should survive wrapping", func(t *testing.T) {
		req := require.New(t)
		wrapped := errors.Wrap(ErrForbidden.WithDetail("chat c1"), "list messages")
		req.Equal(CodeForbidden, CodeOf(wrapped))
		req.Equal("forbidden", MsgOf(wrapped))
	})
}

func TestMsgOf(t *testing.T) {
	t.Run("should collapse non-code errors to the generic internal message", func(t *testing.T) {
		req := require.New(t)
		raw := errors.New("connection refused: 10.0.0.3:27017")
		req.Equal("internal error", MsgOf(raw))
		req.Equal(CodeInternal, CodeOf(raw))
	})

	t.Run("should keep the client-safe message, never the detail", func(t *testing.T) {
		req := require.New(t)
		err := ErrUnauthorized.WithDetail("signature mismatch for key v2")
		req.Equal("unauthorized", MsgOf(err))
	})
}

func TestHTTPStatus(t *testing.T) {
	req := require.New(t)
	req.Equal(http.StatusBadRequest, HTTPStatus(ErrValidation))
	req.Equal(http.StatusUnauthorized, HTTPStatus(ErrUnauthorized))
	req.Equal(http.StatusForbidden, HTTPStatus(ErrForbidden))
	req.Equal(http.StatusNotFound, HTTPStatus(ErrNotFound))
	req.Equal(http.StatusInternalServerError, HTTPStatus(errors.New("anything else")))
}
