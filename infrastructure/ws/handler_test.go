package ws

import (
	"buddychat/auth"
	"buddychat/domain"
	"buddychat/errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubscribeCommand(t *testing.T) {
	t.Run("reads counterpart and cursor", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest(http.MethodGet, "/ws?counterpart=bob&cursor=42", nil)

		cmd, err := subscribeCommand("alice", r)

		req.NoError(err)
		req.Equal(domain.SubscribeCommand{Owner: "alice", Counterpart: "bob", Cursor: 42}, cmd)
	})

	t.Run("missing cursor starts from the beginning", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest(http.MethodGet, "/ws?counterpart=bob", nil)

		cmd, err := subscribeCommand("alice", r)

		req.NoError(err)
		req.Zero(cmd.Cursor)
	})

	t.Run("rejects a cursor that is not a position", func(t *testing.T) {
		for _, raw := range []string{"abc", "-1", "18446744073709551616"} {
			r := httptest.NewRequest(http.MethodGet, "/ws?counterpart=bob&cursor="+raw, nil)

			_, err := subscribeCommand("alice", r)

			require.ErrorIs(t, err, errors.ErrInvalidCommand, raw)
		}
	})
}

func TestHandler_Rejects_Bad_Request_Before_Upgrade(t *testing.T) {
	tokens, err := auth.NewTokens("handler-secret-0123456789")
	require.NoError(t, err)
	token, err := tokens.GenerateToken("alice", time.Minute)
	require.NoError(t, err)
	handler := NewHandler(slog.Default(), tokens, nil)

	for name, tc := range map[string]struct {
		target string
		token  string
		status int
	}{
		"missing token":     {target: "/ws?counterpart=bob", status: http.StatusUnauthorized},
		"bad cursor":        {target: "/ws?counterpart=bob&cursor=abc", token: token, status: http.StatusBadRequest},
		"self conversation": {target: "/ws?counterpart=alice", token: token, status: http.StatusBadRequest},
	} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.token != "" {
				r.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, r)

			require.Equal(t, tc.status, rec.Code)
		})
	}
}
