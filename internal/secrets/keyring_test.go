package secrets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"profile_sync/internal/config"
)

func TestTokenStore_RoundTrip(t *testing.T) {
	keyring.MockInit()
	s := NewTokenStore()

	_, err := s.Get()
	assert.ErrorIs(t, err, config.ErrMissingToken)

	require.NoError(t, s.Set("  tok-1 "))
	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, s.Delete())
	require.NoError(t, s.Delete())
	_, err = s.Get()
	assert.ErrorIs(t, err, config.ErrMissingToken)
}

func TestTokenStore_RejectsEmpty(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, NewTokenStore().Set("   "))
}

func TestTokenStore_BackendError(t *testing.T) {
	boom := errors.New("dbus unavailable")
	keyring.MockInitWithError(boom)
	t.Cleanup(keyring.MockInit)

	_, err := NewTokenStore().Get()
	assert.ErrorIs(t, err, boom)
}

func TestResolveTokenFallsBackToKeyring(t *testing.T) {
	keyring.MockInit()
	s := NewTokenStore()
	require.NoError(t, s.Set("from-keyring"))

	tok, err := config.GoLoginConfig{}.ResolveToken(s)
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", tok)
}
