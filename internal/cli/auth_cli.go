package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/api"
	"github.com/at-ishikawa/mathdrill/internal/session"
	"github.com/dustin/go-humanize"
)

var (
	ErrMissingFields    = errors.New("username and password are required")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

type AuthGateway interface {
	Login(ctx context.Context, username, password string) (api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) error
	Logout(ctx context.Context) error
}

type SessionManager interface {
	SetSession(ctx context.Context, token, username string, role session.Role) error
	ClearSession(ctx context.Context) error
	Current() session.Session
	TokenExpiry() (time.Time, bool)
}

type AuthCLI struct {
	*InteractiveCLI
	gateway  AuthGateway
	sessions SessionManager
	now      func() time.Time
}

func NewAuthCLI(base *InteractiveCLI, gateway AuthGateway, sessions SessionManager) *AuthCLI {
	return &AuthCLI{
		InteractiveCLI: base,
		gateway:        gateway,
		sessions:       sessions,
		now:            time.Now,
	}
}

func (cli *AuthCLI) credentials(username string) (string, string, error) {
	if username == "" {
		var err error
		username, err = cli.prompt(cli.T("auth.username"))
		if err != nil && !errors.Is(err, io.EOF) {
			return "", "", err
		}
	}
	password, err := cli.promptPassword(cli.T("auth.password"))
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", err
	}
	if username == "" || password == "" {
		cli.println(cli.failure, cli.T("auth.missing_fields"))
		return "", "", ErrMissingFields
	}
	return username, password, nil
}

// Login asks for the missing credentials and stores the returned session.
func (cli *AuthCLI) Login(ctx context.Context, username string) error {
	username, password, err := cli.credentials(username)
	if err != nil {
		return err
	}

	response, err := cli.gateway.Login(ctx, username, password)
	if err != nil {
		cli.println(cli.failure, cli.describe(err, "error.invalid_credentials"))
		return fmt.Errorf("gateway.Login() > %w", err)
	}
	if err := cli.sessions.SetSession(ctx, response.Token, response.Username, session.Role(response.Role)); err != nil {
		return fmt.Errorf("sessions.SetSession() > %w", err)
	}
	cli.println(cli.success, cli.Td("auth.login_success", map[string]any{"Username": response.Username}))
	return nil
}

// Register creates an account. The user logs in separately afterwards.
func (cli *AuthCLI) Register(ctx context.Context, username string, role session.Role) error {
	username, password, err := cli.credentials(username)
	if err != nil {
		return err
	}
	confirm, err := cli.promptPassword(cli.T("auth.confirm_password"))
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if confirm != password {
		cli.println(cli.failure, cli.T("auth.password_mismatch"))
		return ErrPasswordMismatch
	}

	if err := cli.gateway.Register(ctx, api.RegisterRequest{
		Username: username,
		Password: password,
		Role:     string(role),
	}); err != nil {
		cli.println(cli.failure, cli.describe(err, ""))
		return fmt.Errorf("gateway.Register() > %w", err)
	}
	cli.println(cli.success, cli.T("auth.register_success"))
	return nil
}

// Logout clears the local session even when the server could not be told.
func (cli *AuthCLI) Logout(ctx context.Context) error {
	if err := cli.gateway.Logout(ctx); err != nil {
		slog.Debug("server logout failed", "error", err)
		if !api.IsSessionExpired(err) {
			cli.println(cli.warning, cli.T("auth.logout_server_failed"))
		}
	}
	if err := cli.sessions.ClearSession(ctx); err != nil {
		return fmt.Errorf("sessions.ClearSession() > %w", err)
	}
	cli.println(nil, cli.T("auth.logout_done"))
	return nil
}

// RequireLogin stops commands that need a session before any request is sent.
func (cli *InteractiveCLI) RequireLogin(current session.Session) error {
	if current.IsAuthenticated() {
		return nil
	}
	cli.println(cli.failure, cli.describe(ErrNotLoggedIn, ""))
	return ErrNotLoggedIn
}

func (cli *AuthCLI) Status() {
	current := cli.sessions.Current()
	if !current.IsAuthenticated() {
		cli.println(nil, cli.T("auth.status_anonymous"))
		return
	}
	cli.println(nil, cli.Td("auth.status_user", map[string]any{
		"Username": current.Username,
		"Role":     current.Role,
	}))
	if expiry, ok := cli.sessions.TokenExpiry(); ok {
		cli.println(cli.faint, cli.Td("auth.status_expiry", map[string]any{
			"When": humanize.RelTime(expiry, cli.now(), "ago", "from now"),
		}))
	}
}
