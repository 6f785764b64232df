package upstream

import (
	"os"
	"strings"
	"sync"
)

// TokenStore supplies the bearer token for upstream requests and clears
// it when the upstream rejects it. There is no refresh flow; once the
// token is cleared, requests fail with ErrUnauthorized until a new token
// is provisioned.
type TokenStore interface {
	Token() (string, error)
	Clear() error
}

// StaticToken is a TokenStore around a fixed token, used when the token
// comes from the environment.
type StaticToken string

func (t StaticToken) Token() (string, error) { return string(t), nil }
func (t StaticToken) Clear() error           { return nil }

// FileTokenStore reads the token from a file and deletes the file on
// Clear. The file holds the bare token, optionally newline-terminated.
type FileTokenStore struct {
	Path string

	mu sync.Mutex
}

func (s *FileTokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.Path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
