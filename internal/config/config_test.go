package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(home string) *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080",
		},
		Session: SessionConfig{
			Backend: "file",
			File:    filepath.Join(home, ".config", "mathdrill", "session.yml"),
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Path:            filepath.Join(home, ".config", "mathdrill", "mathdrill.db"),
			Host:            "localhost",
			Port:            3306,
			Database:        "mathdrill",
			Username:        "mathdrill",
			ConnectAttempts: 3,
		},
		Practice: PracticeConfig{
			APIVariant:          "problem",
			Operations:          []string{"add", "subtract"},
			CountdownTickMillis: 100,
		},
		History: HistoryConfig{PageSize: 10},
		Locale:  LocaleConfig{Language: "en"},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Outputs: OutputsConfig{ReportDirectory: "reports"},
	}
}

func TestConfigLoader_Load(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name              string
		configContent     string
		useExplicitPath   bool
		env               map[string]string
		want              func() *Config
		wantErrorContains []string
	}{
		{
			name: "valid config file with custom values",
			configContent: `server:
  base_url: https://drill.example.com
  timeout_seconds: 5
session:
  backend: sql
database:
  driver: mysql
  host: db.internal
practice:
  api_variant: drill
  difficulty: hard
  operations: [multiply, divide]
history:
  page_size: 20
locale:
  language: zh
`,
			want: func() *Config {
				cfg := defaultConfig(home)
				cfg.Server.BaseURL = "https://drill.example.com"
				cfg.Server.TimeoutSeconds = 5
				cfg.Session.Backend = "sql"
				cfg.Database.Driver = "mysql"
				cfg.Database.Host = "db.internal"
				cfg.Practice.APIVariant = "drill"
				cfg.Practice.Difficulty = "hard"
				cfg.Practice.Operations = []string{"multiply", "divide"}
				cfg.History.PageSize = 20
				cfg.Locale.Language = "zh"
				return cfg
			},
		},
		{
			name: "unknown keys use defaults",
			configContent: `wrong_key:
  some_value: test
`,
			want: func() *Config {
				return defaultConfig(home)
			},
		},
		{
			name:            "explicit config file path",
			useExplicitPath: true,
			configContent: `server:
  base_url: http://127.0.0.1:9000
`,
			want: func() *Config {
				cfg := defaultConfig(home)
				cfg.Server.BaseURL = "http://127.0.0.1:9000"
				return cfg
			},
		},
		{
			name:          "environment overrides server url",
			configContent: "",
			env:           map[string]string{"MATHDRILL_SERVER_URL": "https://env.example.com"},
			want: func() *Config {
				cfg := defaultConfig(home)
				cfg.Server.BaseURL = "https://env.example.com"
				return cfg
			},
		},
		{
			name: "invalid YAML format",
			configContent: `server:
  base_url: http://x
  invalid yaml format here [[[
`,
			wantErrorContains: []string{
				"configuration file found but could not be read",
				"Please check the file format and permissions",
			},
		},
		{
			name: "non http base url is rejected",
			configContent: `server:
  base_url: ftp://drill.example.com
`,
			wantErrorContains: []string{"server.base_url must be an http or https URL"},
		},
		{
			name: "unknown api variant is rejected",
			configContent: `practice:
  api_variant: graphql
`,
			wantErrorContains: []string{"invalid configuration", "api_variant"},
		},
		{
			name: "missing ca file is rejected",
			configContent: `server:
  ca_file: /nonexistent/ca.pem
`,
			wantErrorContains: []string{"server.ca_file must be an existing and readable file"},
		},
		{
			name: "zero page size is rejected",
			configContent: `history:
  page_size: 0
`,
			wantErrorContains: []string{"page_size"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			tempDir := t.TempDir()

			var configPath string
			if tt.useExplicitPath {
				configPath = filepath.Join(tempDir, "custom.yml")
				require.NoError(t, os.WriteFile(configPath, []byte(tt.configContent), 0644))
			} else {
				if tt.configContent != "" {
					require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yml"), []byte(tt.configContent), 0644))
				}
				t.Chdir(tempDir)
			}

			loader, err := NewConfigLoader(configPath)
			require.NoError(t, err)
			got, err := loader.Load()

			if len(tt.wantErrorContains) > 0 {
				require.Error(t, err)
				assert.Nil(t, got)
				for _, wantMsg := range tt.wantErrorContains {
					assert.Contains(t, err.Error(), wantMsg)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want(), got)
		})
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, "a", "b"), expandHome("$HOME/a/b"))
	assert.Equal(t, filepath.Join(home, "c"), expandHome("~/c"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "", expandHome(""))
}
