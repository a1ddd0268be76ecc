package cli

import (
	"errors"

	"github.com/at-ishikawa/mathdrill/internal/api"
	"github.com/at-ishikawa/mathdrill/internal/practice"
	"github.com/at-ishikawa/mathdrill/internal/ranking"
)

var (
	// ErrSessionExpired ends an interactive command after the server rejected the session.
	ErrSessionExpired = errors.New("session expired, please log in again")
	ErrNotLoggedIn    = errors.New("not logged in")
)

// describe turns err into the message shown to the user. Application errors
// show the server message, or fallbackID when the server sent none.
func (cli *InteractiveCLI) describe(err error, fallbackID string) string {
	var apiErr *api.Error
	switch {
	case api.IsSessionExpired(err):
		return cli.T("error.session_expired")
	case errors.Is(err, api.ErrNetwork):
		return cli.T("error.network")
	case errors.Is(err, api.ErrInvalidCredentials):
		return cli.T("error.invalid_credentials")
	case errors.Is(err, api.ErrUsernameExists):
		return cli.T("error.username_exists")
	case errors.Is(err, ErrNotLoggedIn), errors.Is(err, ranking.ErrNotLoggedIn):
		return cli.T("error.not_logged_in")
	case errors.Is(err, practice.ErrInvalidAnswer):
		return cli.T("practice.invalid_answer")
	case errors.As(err, &apiErr) && apiErr.Kind == api.KindApplication:
		if fallbackID == "" {
			return api.ServerMessage(err, cli.Td("error.request_failed", map[string]any{"Status": apiErr.StatusCode}))
		}
		return api.ServerMessage(err, cli.T(fallbackID))
	}
	if fallbackID != "" {
		return cli.T(fallbackID)
	}
	return err.Error()
}
