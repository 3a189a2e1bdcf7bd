package gologin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile_sync/internal/config"
	"profile_sync/internal/model"
	"profile_sync/internal/provider"
	"profile_sync/internal/provider/gologin/gologintest"
)

const testToken = "test-token"

func newTestClient(t *testing.T, handler http.Handler, retry int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.GoLoginConfig{
		BaseURL: srv.URL,
		QPS:     1000,
		Burst:   100,
		Retry:   config.RetryConfig{Count: retry, WaitMs: 1, MaxWaitMs: 5},
	}
	c, err := New(cfg, testToken)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(config.GoLoginConfig{BaseURL: "http://localhost"}, "  ")
	assert.ErrorIs(t, err, config.ErrMissingToken)
}

func TestClient_ProfileLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := gologintest.NewServer(testToken)
	c := newTestClient(t, fake, 0)

	profiles, err := c.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	proxy := &model.Proxy{Mode: model.ProxyModeHTTP, Host: "10.0.0.1", Port: 3128}
	id, err := c.CreateProfile(ctx, NewProfileSpec("facebook_alice", "auto created alice", proxy))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	name := "alice_" + id
	require.NoError(t, c.UpdateProfile(ctx, id, provider.ProfilePatch{Name: &name}))

	got, err := c.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, "auto created alice", got.Notes)
	assert.Equal(t, proxy, got.Proxy)

	exp := 1.7e9
	cookies := []model.Cookie{
		{Name: "c_user", Value: "1", Domain: ".facebook.com", Path: "/", Secure: true, SameSite: model.SameSiteNoRestriction, ExpirationDate: &exp},
		{Name: "presence", Value: "p", Domain: ".facebook.com", Path: "/", HttpOnly: true, Session: true},
	}
	require.NoError(t, c.SetCookies(ctx, id, cookies))

	back, err := c.GetCookies(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(cookies, back); diff != "" {
		t.Errorf("cookies mismatch (-want +got):\n%s", diff)
	}

	profiles, err = c.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, id, profiles[0].ID)

	require.NoError(t, c.DeleteProfile(ctx, id))
	_, err = c.GetProfile(ctx, id)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestClient_CreateSendsFullTemplate(t *testing.T) {
	fake := gologintest.NewServer(testToken)
	c := newTestClient(t, fake, 0)

	id, err := c.CreateProfile(context.Background(), NewProfileSpec("tiktok_bob", "auto created bob", nil))
	require.NoError(t, err)

	p, ok := fake.Profile(id)
	require.True(t, ok)
	assert.Equal(t, "chrome", p.Spec["browserType"])
	assert.Equal(t, "win", p.Spec["os"])
	nav := p.Spec["navigator"].(map[string]any)
	assert.Equal(t, DefaultUserAgent(), nav["userAgent"])
	assert.Equal(t, "1920x1080", nav["resolution"])
	assert.Equal(t, map[string]any{"mode": "disabled"}, p.Spec["webRTC"])
	fonts := p.Spec["fonts"].(map[string]any)
	assert.Len(t, fonts["families"], len(defaultFontFamilies))
	require.NotNil(t, p.Proxy)
	assert.Equal(t, model.ProxyModeNone, p.Proxy.Mode)
}

func TestClient_UnauthorizedIsAPIError(t *testing.T) {
	fake := gologintest.NewServer("another-token")
	c := newTestClient(t, fake, 0)

	_, err := c.ListProfiles(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Body, "Unauthorized")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"profiles":[{"id":"p1","name":"alice_p1"}]}`))
	})
	c := newTestClient(t, handler, 3)

	profiles, err := c.ListProfiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.RemoteProfile{{ID: "p1", Name: "alice_p1"}}, profiles)
	assert.EqualValues(t, 3, hits.Load())
}

func TestClient_CreateIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	c := newTestClient(t, handler, 3)

	_, err := c.CreateProfile(context.Background(), NewProfileSpec("facebook_alice", "", nil))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.EqualValues(t, 1, hits.Load())
}

func TestClient_SetCookiesStillRetried(t *testing.T) {
	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, handler, 3)

	err := c.SetCookies(context.Background(), "p1", []model.Cookie{{Name: "c_user", Value: "1"}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, hits.Load())
}

func TestIsCreate(t *testing.T) {
	cases := map[string]bool{
		"http://h/browser":            true,
		"http://h/browser/":           true,
		"http://h/browser?x=1":        true,
		"http://h/browser/p1/cookies": false,
		"http://h/browser/custom/p1":  false,
	}
	for u, want := range cases {
		assert.Equal(t, want, isCreate(&resty.Request{Method: http.MethodPost, URL: u}), u)
	}
	assert.False(t, isCreate(&resty.Request{Method: http.MethodPut, URL: "http://h/browser"}))
	assert.False(t, isCreate(nil))
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, `{"message":"bad proxy"}`, http.StatusBadRequest)
	})
	c := newTestClient(t, handler, 3)

	err := c.UpdateProfile(context.Background(), "p1", provider.ProfilePatch{Proxy: &model.Proxy{Mode: "http"}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "bad proxy")
	assert.EqualValues(t, 1, hits.Load())
}

func TestClient_CreateWithoutIDFails(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	c := newTestClient(t, handler, 0)

	_, err := c.CreateProfile(context.Background(), NewProfileSpec("n", "", nil))
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_CancelledContext(t *testing.T) {
	c := newTestClient(t, gologintest.NewServer(testToken), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListProfiles(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")
}

func TestNewProfileSpec_CopiesProxyAndFonts(t *testing.T) {
	proxy := &model.Proxy{Mode: model.ProxyModeHTTP, Host: "h", Port: 1}
	a := NewProfileSpec("a", "", proxy)
	proxy.Host = "changed"
	assert.Equal(t, "h", a.Proxy.Host)

	a.Fonts.Families[0] = "mutated"
	b := NewProfileSpec("b", "", nil)
	assert.Equal(t, "AIGDT", b.Fonts.Families[0])
	assert.Equal(t, "Waree", b.Fonts.Families[len(b.Fonts.Families)-1])
	assert.Equal(t, model.NoProxy(), b.Proxy)
}
