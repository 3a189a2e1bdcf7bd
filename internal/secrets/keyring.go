// Package secrets keeps the GoLogin API token in the OS keyring.
package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"

	"profile_sync/internal/config"
)

const (
	DefaultService = "profile_sync"
	DefaultUser    = "gologin"
)

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
)

type TokenStore struct {
	Service string
	User    string
}

func NewTokenStore() *TokenStore {
	return &TokenStore{Service: DefaultService, User: DefaultUser}
}

// Get returns config.ErrMissingToken when no token is stored.
func (s *TokenStore) Get() (string, error) {
	v, err := keyringGet(s.Service, s.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", config.ErrMissingToken
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *TokenStore) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is empty")
	}
	return keyringSet(s.Service, s.User, token)
}

// Delete removes the stored token. Deleting a missing token is not an error.
func (s *TokenStore) Delete() error {
	err := keyringDelete(s.Service, s.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

var _ config.TokenSource = (*TokenStore)(nil)
