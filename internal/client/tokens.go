package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStore keeps the player token between connections and runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
}

type memoryTokens struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore() TokenStore {
	return &memoryTokens{}
}

func (that *memoryTokens) Load() (string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.token, nil
}

func (that *memoryTokens) Save(token string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.token = token

	return nil
}

type fileTokens struct {
	path string
}

// NewFileTokenStore - token persisted in a file, so a restarted client gets its seat back.
func NewFileTokenStore(path string) TokenStore {
	return &fileTokens{path: path}
}

func (that *fileTokens) Load() (string, error) {
	data, err := os.ReadFile(that.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

func (that *fileTokens) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(that.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}

	if err := os.WriteFile(that.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}
