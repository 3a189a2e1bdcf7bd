package config

import (
	"errors"
	"strings"
)

// TokenSource is a fallback store for the GoLogin token.
type TokenSource interface {
	Get() (string, error)
}

// ResolveToken returns the configured token, falling back to src.
func (c GoLoginConfig) ResolveToken(src TokenSource) (string, error) {
	if t := strings.TrimSpace(c.AccessToken); t != "" {
		return t, nil
	}
	if src != nil {
		t, err := src.Get()
		if err == nil && strings.TrimSpace(t) != "" {
			return strings.TrimSpace(t), nil
		}
		if err != nil && !errors.Is(err, ErrMissingToken) {
			return "", err
		}
	}
	return "", ErrMissingToken
}
