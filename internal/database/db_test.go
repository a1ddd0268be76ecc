package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/at-ishikawa/mathdrill/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name       string
		cfg        func(t *testing.T) config.DatabaseConfig
		wantDriver string
		wantErr    bool
	}{
		{
			name: "mysql connection with valid config",
			cfg: func(t *testing.T) config.DatabaseConfig {
				return config.DatabaseConfig{
					Driver:   DriverMySQL,
					Host:     "localhost",
					Port:     3306,
					Database: "mathdrill",
					Username: "user",
					Password: "pass",
				}
			},
			wantDriver: "mysql",
		},
		{
			name: "mysql connection with tls and params",
			cfg: func(t *testing.T) config.DatabaseConfig {
				return config.DatabaseConfig{
					Driver:   DriverMySQL,
					Host:     "db.example.com",
					Port:     3307,
					Database: "mathdrill",
					Username: "admin",
					TLS:      true,
					Params:   map[string]string{"charset": "utf8mb4"},
				}
			},
			wantDriver: "mysql",
		},
		{
			name: "sqlite creates the parent directory",
			cfg: func(t *testing.T) config.DatabaseConfig {
				return config.DatabaseConfig{
					Driver: DriverSQLite,
					Path:   filepath.Join(t.TempDir(), "nested", "mathdrill.db"),
				}
			},
			wantDriver: "sqlite",
		},
		{
			name: "sqlite without a path",
			cfg: func(t *testing.T) config.DatabaseConfig {
				return config.DatabaseConfig{Driver: DriverSQLite}
			},
			wantErr: true,
		},
		{
			name: "unknown driver",
			cfg: func(t *testing.T) config.DatabaseConfig {
				return config.DatabaseConfig{Driver: "oracle"}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Open(tt.cfg(t))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer got.Close()

			assert.Equal(t, tt.wantDriver, got.DriverName())
		})
	}
}

func TestConnect_SQLite(t *testing.T) {
	db, err := Connect(context.Background(), config.DatabaseConfig{
		Driver:          DriverSQLite,
		Path:            filepath.Join(t.TempDir(), "mathdrill.db"),
		ConnectAttempts: 2,
	})
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.Get(&one, "SELECT 1"))
	assert.Equal(t, 1, one)
}

func TestConnect_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Connect(ctx, config.DatabaseConfig{
		Driver:          DriverMySQL,
		Host:            "127.0.0.1",
		Port:            1,
		Database:        "mathdrill",
		Username:        "user",
		ConnectAttempts: 3,
	})
	assert.Error(t, err)
}
