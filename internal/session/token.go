package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoToken aborts a session that has no stored token.
var ErrNoToken = errors.New("session: no token")

// TokenSource supplies the bearer token presented when joining.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a token held in memory.
type StaticToken string

func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}

// FileToken reads the token from a file, as left by a sign-in step.
type FileToken string

func (f FileToken) Token() (string, error) {
	raw, err := os.ReadFile(string(f))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoToken, err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
