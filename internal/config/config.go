package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Session  SessionConfig  `mapstructure:"session"`
	Database DatabaseConfig `mapstructure:"database"`
	Practice PracticeConfig `mapstructure:"practice"`
	History  HistoryConfig  `mapstructure:"history"`
	Locale   LocaleConfig   `mapstructure:"locale"`
	Log      LogConfig      `mapstructure:"log"`
	Outputs  OutputsConfig  `mapstructure:"outputs"`
}

type ServerConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,httpurl"`
	// TimeoutSeconds of 0 disables the request timeout.
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"min=0"`
	CAFile         string `mapstructure:"ca_file" validate:"omitempty,file"`
}

type SessionConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=file sql"`
	File    string `mapstructure:"file"`
}

type DatabaseConfig struct {
	Driver          string            `mapstructure:"driver" validate:"oneof=sqlite mysql"`
	Path            string            `mapstructure:"path"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	ConnectAttempts uint              `mapstructure:"connect_attempts" validate:"min=1"`
}

type PracticeConfig struct {
	APIVariant          string   `mapstructure:"api_variant" validate:"oneof=problem drill legacy"`
	Difficulty          string   `mapstructure:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Operations          []string `mapstructure:"operations" validate:"dive,oneof=add subtract multiply divide"`
	CountdownTickMillis int      `mapstructure:"countdown_tick_millis" validate:"min=10"`
}

type HistoryConfig struct {
	PageSize int `mapstructure:"page_size" validate:"min=1"`
}

type LocaleConfig struct {
	Language string `mapstructure:"language" validate:"oneof=en zh"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=1"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
}

type OutputsConfig struct {
	ReportDirectory string `mapstructure:"report_directory"`
	// ReportTemplate overrides the embedded report template when the file exists.
	ReportTemplate string `mapstructure:"report_template"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/mathdrill")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	// .env is optional
	_ = godotenv.Load()

	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.timeout_seconds", 0)
	v.SetDefault("session.backend", "file")
	v.SetDefault("session.file", filepath.Join("$HOME", ".config", "mathdrill", "session.yml"))
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", filepath.Join("$HOME", ".config", "mathdrill", "mathdrill.db"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "mathdrill")
	v.SetDefault("database.username", "mathdrill")
	v.SetDefault("database.connect_attempts", 3)
	v.SetDefault("practice.api_variant", "problem")
	v.SetDefault("practice.operations", []string{"add", "subtract"})
	v.SetDefault("practice.countdown_tick_millis", 100)
	v.SetDefault("history.page_size", 10)
	v.SetDefault("locale.language", "en")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("outputs.report_directory", "reports")

	if err := v.BindEnv("server.base_url", "MATHDRILL_SERVER_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind MATHDRILL_SERVER_URL environment variable: %w", err)
	}
	if err := v.BindEnv("locale.language", "MATHDRILL_LANG"); err != nil {
		return nil, fmt.Errorf("failed to bind MATHDRILL_LANG environment variable: %w", err)
	}
	// Bind database password to environment variable only
	if err := v.BindEnv("database.password", "MATHDRILL_DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind MATHDRILL_DB_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	cfg.Session.File = expandHome(cfg.Session.File)
	cfg.Database.Path = expandHome(cfg.Database.Path)
	cfg.Log.File = expandHome(cfg.Log.File)
	cfg.Outputs.ReportTemplate = expandHome(cfg.Outputs.ReportTemplate)

	if err := loader.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
