package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/config"
	"github.com/at-ishikawa/mathdrill/internal/database"
	mock_session "github.com/at-ishikawa/mathdrill/internal/mocks/session"
	"github.com/at-ishikawa/mathdrill/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestManager_SetAndClearSession(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := mock_session.NewMockBackend(ctrl)

	want := session.Session{Token: "tok", Username: "alice", Role: session.RoleStudent}
	gomock.InOrder(
		backend.EXPECT().Save(gomock.Any(), want).Return(nil),
		backend.EXPECT().Clear(gomock.Any()).Return(nil).Times(2),
	)

	m := session.NewManager(backend)
	assert.False(t, m.IsAuthenticated())
	assert.Equal(t, "", m.CurrentToken())

	require.NoError(t, m.SetSession(ctx, "tok", "alice", session.RoleStudent))
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "tok", m.CurrentToken())
	assert.Equal(t, want, m.Current())

	require.NoError(t, m.ClearSession(ctx))
	assert.False(t, m.IsAuthenticated())
	assert.Equal(t, session.Session{}, m.Current())

	// idempotent
	require.NoError(t, m.ClearSession(ctx))
	assert.False(t, m.IsAuthenticated())
}

func TestManager_SetSession_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty token is rejected before persisting", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		backend := mock_session.NewMockBackend(ctrl)
		m := session.NewManager(backend)

		err := m.SetSession(ctx, "", "alice", session.RoleStudent)
		assert.ErrorIs(t, err, session.ErrEmptyToken)
		assert.False(t, m.IsAuthenticated())
	})

	t.Run("backend failure leaves the session unauthenticated", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		backend := mock_session.NewMockBackend(ctrl)
		backend.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
		m := session.NewManager(backend)

		err := m.SetSession(ctx, "tok", "alice", session.RoleStudent)
		assert.ErrorContains(t, err, "disk full")
		assert.False(t, m.IsAuthenticated())
	})
}

func TestManager_Load(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mock_session.NewMockBackend(ctrl)
	backend.EXPECT().Load(gomock.Any()).Return(session.Session{Token: "stored", Username: "bob", Role: session.RoleTeacher}, nil)

	m := session.NewManager(backend)
	require.NoError(t, m.Load(context.Background()))
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "bob", m.Current().Username)
	assert.Equal(t, session.RoleTeacher, m.Current().Role)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret-unknown-to-the-client"))
	require.NoError(t, err)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}).SignedString([]byte("k"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		want   time.Time
		wantOK bool
	}{
		{name: "jwt with exp", token: signed, want: exp, wantOK: true},
		{name: "jwt without exp", token: noExp},
		{name: "opaque token", token: "7f3a9c"},
		{name: "empty", token: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := session.TokenExpiry(tt.token)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got))
			}
		})
	}
}

func TestBackends(t *testing.T) {
	newBackends := map[string]func(t *testing.T) session.Backend{
		"file": func(t *testing.T) session.Backend {
			return session.NewFileBackend(filepath.Join(t.TempDir(), "conf", "session.yml"))
		},
		"sqlite": func(t *testing.T) session.Backend {
			db, err := database.Connect(context.Background(), config.DatabaseConfig{
				Driver:          database.DriverSQLite,
				Path:            filepath.Join(t.TempDir(), "mathdrill.db"),
				ConnectAttempts: 1,
			})
			require.NoError(t, err)
			t.Cleanup(func() {
				_ = db.Close()
			})
			backend, err := session.NewSQLBackend(context.Background(), db)
			require.NoError(t, err)
			return backend
		},
	}

	for name, newBackend := range newBackends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			backend := newBackend(t)

			got, err := backend.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, session.Session{}, got)

			first := session.Session{Token: "t1", Username: "alice", Role: session.RoleStudent}
			require.NoError(t, backend.Save(ctx, first))
			second := session.Session{Token: "t2", Username: "bob", Role: session.RoleTeacher}
			require.NoError(t, backend.Save(ctx, second))

			got, err = backend.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, second, got)

			require.NoError(t, backend.Clear(ctx))
			require.NoError(t, backend.Clear(ctx))
			got, err = backend.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, session.Session{}, got)
		})
	}
}

func TestFileBackend_SurvivesReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.yml")

	m := session.NewManager(session.NewFileBackend(path))
	require.NoError(t, m.SetSession(ctx, "tok", "alice", session.RoleStudent))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded := session.NewManager(session.NewFileBackend(path))
	require.NoError(t, reloaded.Load(ctx))
	assert.True(t, reloaded.IsAuthenticated())
	assert.Equal(t, "alice", reloaded.Current().Username)
}

func TestFileBackend_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0600))

	_, err := session.NewFileBackend(path).Load(context.Background())
	assert.ErrorContains(t, err, "yaml.Unmarshal")
}
