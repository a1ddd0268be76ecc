package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileBackend keeps the session in a YAML file readable only by the owner.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Load(_ context.Context) (Session, error) {
	content, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("os.ReadFile(%s) > %w", b.path, err)
	}

	var s Session
	if err := yaml.Unmarshal(content, &s); err != nil {
		return Session{}, fmt.Errorf("yaml.Unmarshal(%s) > %w", b.path, err)
	}
	return s, nil
}

func (b *FileBackend) Save(_ context.Context, s Session) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0700); err != nil {
		return fmt.Errorf("os.MkdirAll(%s) > %w", filepath.Dir(b.path), err)
	}
	content, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("yaml.Marshal() > %w", err)
	}

	// Write then rename so a crash never leaves a half-written token behind.
	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".session-*.yml")
	if err != nil {
		return fmt.Errorf("os.CreateTemp() > %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file.Write > %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file.Chmod > %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file.Close > %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("os.Rename(%s) > %w", b.path, err)
	}
	return nil
}

func (b *FileBackend) Clear(_ context.Context) error {
	if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("os.Remove(%s) > %w", b.path, err)
	}
	return nil
}
