package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile_sync/internal/model"
)

func ptr(s string) *string { return &s }

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_CreatesFileAndTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "accounts.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()

	for _, n := range model.Networks() {
		_, err := s.LookupAccount(context.Background(), n, "nobody")
		assert.ErrorIs(t, err, model.ErrAccountNotFound, n)
	}
}

func TestUpsertAndLookup(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.UpsertAccount(ctx, model.NetworkInstagram, model.AccountRow{
		Login:     "bob",
		Cookies:   ptr("sessionid=abc"),
		ProxyHost: ptr("1.2.3.4"),
		ProxyPort: ptr("8000"),
	}))

	got, err := s.LookupAccount(ctx, model.NetworkInstagram, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Login)
	assert.Equal(t, "sessionid=abc", *got.Cookies)
	assert.Equal(t, "8000", *got.ProxyPort)
	assert.Nil(t, got.ProxyUsername)
	assert.Nil(t, got.ProfileID)

	_, err = s.LookupAccount(ctx, model.NetworkFacebook, "bob")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)

	require.NoError(t, s.UpsertAccount(ctx, model.NetworkInstagram, model.AccountRow{Login: "bob"}))
	got, err = s.LookupAccount(ctx, model.NetworkInstagram, "bob")
	require.NoError(t, err)
	assert.Nil(t, got.Cookies)
}

func TestUpsert_RequiresLogin(t *testing.T) {
	s := openMemory(t)
	assert.Error(t, s.UpsertAccount(context.Background(), model.NetworkTikTok, model.AccountRow{Login: "  "}))
}

func TestSetProfileID(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.UpsertAccount(ctx, model.NetworkTwitter, model.AccountRow{Login: "carol"}))

	require.NoError(t, s.SetProfileID(ctx, model.NetworkTwitter, "carol", "p-9"))
	got, err := s.LookupAccount(ctx, model.NetworkTwitter, "carol")
	require.NoError(t, err)
	require.NotNil(t, got.ProfileID)
	assert.Equal(t, "p-9", *got.ProfileID)

	err = s.SetProfileID(ctx, model.NetworkTwitter, "ghost", "p-9")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestUnsupportedNetwork(t *testing.T) {
	s := openMemory(t)
	_, err := s.LookupAccount(context.Background(), model.Network("orkut"), "x")
	assert.ErrorIs(t, err, model.ErrUnsupportedNetwork)
}
