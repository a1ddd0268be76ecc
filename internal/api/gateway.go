// Package api is the single transport of the client. Every call goes through Gateway.Request,
// which attaches the bearer credential and classifies failures.
package api

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/config"
	"github.com/google/uuid"
	"resty.dev/v3"
)

const requestIDHeader = "X-Request-ID"

// SessionStore is the part of the session manager the gateway depends on.
type SessionStore interface {
	CurrentToken() string
	ClearSession(ctx context.Context) error
}

type Gateway struct {
	httpClient *resty.Client
	session    SessionStore

	mu               sync.RWMutex
	onSessionExpired func()
}

func NewGateway(cfg config.ServerConfig, store SessionStore) (*Gateway, error) {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetHeader("Content-Type", "application/json")
	if cfg.TimeoutSeconds > 0 {
		client.SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	}
	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("os.ReadFile(%s) > %w", cfg.CAFile, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificate found in %s", cfg.CAFile)
		}
		client.SetTLSClientConfig(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12})
	}

	return &Gateway{
		httpClient: client,
		session:    store,
	}, nil
}

func (g *Gateway) Close() error {
	return g.httpClient.Close()
}

// OnSessionExpired registers the hook run after a 401 has cleared the session.
func (g *Gateway) OnSessionExpired(hook func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onSessionExpired = hook
}

// Request sends body as JSON and decodes a successful response into result.
// body and result may be nil. The call is never retried.
func (g *Gateway) Request(ctx context.Context, method, path string, body, result any) error {
	response, err := g.send(ctx, method, path, body, result)
	if err != nil {
		return err
	}
	if response.StatusCode() == http.StatusUnauthorized {
		g.expireSession(ctx)
		return &Error{Kind: KindSessionExpired, StatusCode: http.StatusUnauthorized, err: ErrSessionExpired}
	}
	if response.IsError() {
		return applicationError(response)
	}
	return nil
}

func (g *Gateway) send(ctx context.Context, method, path string, body, result any) (*resty.Response, error) {
	requestID := uuid.NewString()
	request := g.httpClient.R().
		SetContext(ctx).
		SetHeader(requestIDHeader, requestID)
	if token := g.session.CurrentToken(); token != "" {
		request.SetHeader("Authorization", "Bearer "+token)
	}
	if body != nil {
		request.SetBody(body)
	}
	if result != nil {
		request.SetResult(result)
	}

	slog.Debug("api request", "method", method, "path", path, "request_id", requestID)
	response, err := request.Execute(method, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// The transport error is never shown to the user.
		slog.Debug("api transport failure", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, &Error{Kind: KindNetwork, err: ErrNetwork}
	}
	slog.Debug("api response", "method", method, "path", path, "request_id", requestID, "status", response.StatusCode())
	return response, nil
}

func (g *Gateway) expireSession(ctx context.Context) {
	if err := g.session.ClearSession(ctx); err != nil {
		slog.Error("failed to clear the expired session", "error", err)
	}
	g.mu.RLock()
	hook := g.onSessionExpired
	g.mu.RUnlock()
	if hook != nil {
		hook()
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func applicationError(response *resty.Response) *Error {
	var body errorBody
	if err := json.Unmarshal([]byte(response.String()), &body); err != nil {
		slog.Debug("unparsable error body", "status", response.StatusCode(), "body", response.String())
	}
	message := body.Error
	if message == "" {
		message = body.Message
	}
	return &Error{
		Kind:       KindApplication,
		StatusCode: response.StatusCode(),
		Message:    message,
	}
}

// IsSessionExpired reports whether err came from a 401 on an authenticated call.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}
