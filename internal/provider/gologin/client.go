// Package gologin talks to the GoLogin browser profile REST API.
package gologin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"profile_sync/internal/config"
	"profile_sync/internal/logbus"
	"profile_sync/internal/model"
	"profile_sync/internal/provider"
)

// APIError is a non-2xx answer from the service. Body is kept verbatim.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("gologin %s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("gologin %s %s: status %d: %s", e.Method, e.Path, e.Status, body)
}

type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	bus     *logbus.Bus
	log     *zap.Logger
}

var _ provider.ProfileAPI = (*Client)(nil)

type Option func(*Client)

func WithBus(bus *logbus.Bus) Option {
	return func(c *Client) { c.bus = bus }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a client for cfg. token must be non-empty.
func New(cfg config.GoLoginConfig, token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, config.ErrMissingToken
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("gologin base url: %w", err)
	}

	qps := cfg.QPS
	if qps <= 0 {
		qps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	c := &Client{
		limiter: rate.NewLimiter(rate.Limit(qps), burst),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("gologin")
	c.http = c.newClient(cfg, token)
	return c, nil
}

func (c *Client) newClient(cfg config.GoLoginConfig, token string) *resty.Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout()).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.Retry.Count).
		SetRetryWaitTime(cfg.Retry.Wait()).
		SetRetryMaxWaitTime(cfg.Retry.MaxWait()).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r != nil && isCreate(r.Request) {
				return false
			}
			if err != nil || r == nil {
				return true
			}
			return r.StatusCode() >= 500
		})

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return err
		}
		if c.bus != nil {
			c.bus.Log("debug", "gologin request", map[string]any{
				"method": req.Method,
				"url":    req.URL,
			})
		}
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		c.log.Debug("gologin response",
			zap.String("method", resp.Request.Method),
			zap.String("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("elapsed", resp.Time()))
		return nil
	})
	return client
}

// isCreate reports a profile create. A failed create may still have made the
// profile, so it is never retried.
func isCreate(req *resty.Request) bool {
	if req == nil || req.Method != http.MethodPost {
		return false
	}
	u := req.URL
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	return strings.HasSuffix(strings.TrimRight(u, "/"), "/browser")
}

func (c *Client) check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}
	return &APIError{
		Method: resp.Request.Method,
		Path:   resp.Request.URL,
		Status: resp.StatusCode(),
		Body:   resp.String(),
	}
}

type listResponse struct {
	Profiles []model.RemoteProfile `json:"profiles"`
}

func (c *Client) ListProfiles(ctx context.Context) ([]model.RemoteProfile, error) {
	var out listResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/browser/v2")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	if out.Profiles == nil {
		return []model.RemoteProfile{}, nil
	}
	return out.Profiles, nil
}

func (c *Client) GetProfile(ctx context.Context, id string) (model.RemoteProfile, error) {
	var out model.RemoteProfile
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		Get("/browser/custom/{id}")
	if err := c.check(resp, err); err != nil {
		return model.RemoteProfile{}, err
	}
	return out, nil
}

type createResponse struct {
	ID string `json:"id"`
}

func (c *Client) CreateProfile(ctx context.Context, spec provider.ProfileSpec) (string, error) {
	var out createResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(spec).
		SetResult(&out).
		Post("/browser")
	if err := c.check(resp, err); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("gologin create profile: response has no id: %s", resp.String())
	}
	return out.ID, nil
}

func (c *Client) UpdateProfile(ctx context.Context, id string, patch provider.ProfilePatch) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(patch).
		Put("/browser/{id}")
	return c.check(resp, err)
}

func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete("/browser/custom/{id}")
	return c.check(resp, err)
}

// SetCookies replaces the profile's cookies with the given records.
func (c *Client) SetCookies(ctx context.Context, id string, cookies []model.Cookie) error {
	if cookies == nil {
		cookies = []model.Cookie{}
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(cookies).
		Post("/browser/{id}/cookies")
	return c.check(resp, err)
}

func (c *Client) GetCookies(ctx context.Context, id string) ([]model.Cookie, error) {
	var out []model.Cookie
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		Get("/browser/custom/{id}/cookies")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Cookie{}
	}
	return out, nil
}
