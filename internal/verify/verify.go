// Package verify loads normalized cookies into a local Chromium and checks
// that the network still treats the session as logged in.
package verify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"profile_sync/internal/config"
	"profile_sync/internal/logbus"
	"profile_sync/internal/model"
)

// authCookies are the cookies a logged-in session must keep after loading
// the home page. Networks without an entry pass with any cookie.
var authCookies = map[model.Network][]string{
	model.NetworkFacebook:  {"c_user", "xs"},
	model.NetworkInstagram: {"sessionid"},
}

type Report struct {
	Network  model.Network `json:"network"`
	Username string        `json:"username"`
	URL      string        `json:"url"`
	Loaded   int           `json:"loaded"`
	Present  []string      `json:"present"`
	Missing  []string      `json:"missing,omitempty"`
	OK       bool          `json:"ok"`
}

type Verifier struct {
	cfg config.VerifyConfig
	bus *logbus.Bus
}

func New(cfg config.VerifyConfig, bus *logbus.Bus) *Verifier {
	return &Verifier{cfg: cfg, bus: bus}
}

// Verify launches a browser, sets cookies, opens the network home page and
// reports which auth cookies survived.
func (v *Verifier) Verify(ctx context.Context, network model.Network, username string, cookies []model.Cookie) (Report, error) {
	if !network.Valid() {
		return Report{}, fmt.Errorf("%w: %q", model.ErrUnsupportedNetwork, string(network))
	}
	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout())
	defer cancel()

	l := launcher.New().Headless(v.cfg.Headless)
	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return Report{}, fmt.Errorf("launch browser: %w", err)
	}
	defer l.Kill()

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return Report{}, fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := stealth.Page(browser)
	if err != nil {
		return Report{}, fmt.Errorf("open page: %w", err)
	}
	if params := ToCookieParams(cookies); len(params) > 0 {
		if err := page.SetCookies(params); err != nil {
			return Report{}, fmt.Errorf("set cookies: %w", err)
		}
	}

	home := network.HomeURL()
	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(home); err != nil {
		return Report{}, fmt.Errorf("navigate %s: %w", home, err)
	}
	wait()

	after, err := page.Cookies([]string{home})
	if err != nil {
		return Report{}, fmt.Errorf("read cookies: %w", err)
	}
	names := make([]string, 0, len(after))
	for _, c := range after {
		names = append(names, c.Name)
	}

	rep := Evaluate(network, names)
	rep.Username = username
	rep.URL = home
	rep.Loaded = len(cookies)
	if v.bus != nil {
		v.bus.Log("info", "cookie verification finished", map[string]any{
			"network":  string(network),
			"username": username,
			"ok":       rep.OK,
			"missing":  rep.Missing,
		})
	}
	return rep, nil
}

// Evaluate checks the cookie names a browser reported against the network's
// auth cookies.
func Evaluate(network model.Network, names []string) Report {
	present := append([]string(nil), names...)
	sort.Strings(present)
	rep := Report{Network: network, Present: present}

	required, ok := authCookies[network]
	if !ok {
		rep.OK = len(present) > 0
		return rep
	}
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	for _, name := range required {
		if !have[name] {
			rep.Missing = append(rep.Missing, name)
		}
	}
	rep.OK = len(rep.Missing) == 0
	return rep
}

// ToCookieParams converts cookie records to DevTools cookie parameters.
// Session cookies carry no expiry.
func ToCookieParams(cookies []model.Cookie) []*proto.NetworkCookieParam {
	out := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
			SameSite: sameSite(c.SameSite),
		}
		if !c.Session && c.ExpirationDate != nil {
			p.Expires = proto.TimeSinceEpoch(*c.ExpirationDate)
		}
		out = append(out, p)
	}
	return out
}

func sameSite(v string) proto.NetworkCookieSameSite {
	switch strings.ToLower(v) {
	case model.SameSiteNoRestriction, "none":
		return proto.NetworkCookieSameSiteNone
	case model.SameSiteLax:
		return proto.NetworkCookieSameSiteLax
	case model.SameSiteStrict:
		return proto.NetworkCookieSameSiteStrict
	default:
		return ""
	}
}
