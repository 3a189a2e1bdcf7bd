package model

import "time"

const (
	SameSiteNoRestriction = "no_restriction"
	SameSiteLax           = "lax"
	SameSiteStrict        = "strict"
	SameSiteUnspecified   = "unspecified"
)

// Cookie is a cookie record in the browser extension export format.
// ExpirationDate is unix seconds and is nil for session cookies.
type Cookie struct {
	Name           string   `json:"name" yaml:"name"`
	Value          string   `json:"value" yaml:"value"`
	Domain         string   `json:"domain" yaml:"domain"`
	Path           string   `json:"path" yaml:"path"`
	Secure         bool     `json:"secure" yaml:"secure"`
	HttpOnly       bool     `json:"httpOnly" yaml:"httpOnly"`
	SameSite       string   `json:"sameSite" yaml:"sameSite"`
	Session        bool     `json:"session" yaml:"session"`
	HostOnly       bool     `json:"hostOnly" yaml:"hostOnly"`
	ExpirationDate *float64 `json:"expirationDate,omitempty" yaml:"expirationDate,omitempty"`
}

func (c Cookie) ExpiresAt() (time.Time, bool) {
	if c.ExpirationDate == nil {
		return time.Time{}, false
	}
	sec := int64(*c.ExpirationDate)
	return time.Unix(sec, 0).UTC(), true
}

func CookieNames(in []Cookie) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		out = append(out, c.Name)
	}
	return out
}
