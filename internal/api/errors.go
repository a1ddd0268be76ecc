package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed request.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindSessionExpired
	KindApplication
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindSessionExpired:
		return "session_expired"
	case KindApplication:
		return "application"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var (
	// ErrNetwork means no response was obtained from the server.
	ErrNetwork = errors.New("network error, check your connection")
	// ErrSessionExpired means the server rejected the credential. The session has already been cleared.
	ErrSessionExpired = errors.New("session expired, please log in again")
	// ErrInvalidCredentials is returned by Login for a 401.
	ErrInvalidCredentials = errors.New("wrong username or password")
	// ErrUsernameExists is returned by Register when the username is taken.
	ErrUsernameExists = errors.New("username already exists")
)

// Error is the failure of a single gateway call.
type Error struct {
	Kind       Kind
	StatusCode int
	// Message is the server supplied error message, empty when the body had none.
	Message string
	err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNetwork, KindSessionExpired:
		return e.err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed: %d", e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.err
}

// ServerMessage returns the message of an application error, or fallback for any other error.
func ServerMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindApplication && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
