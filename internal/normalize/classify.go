package normalize

import (
	"fmt"
	"strings"
	"time"

	"profile_sync/internal/model"
)

const DefaultTTL = 30 * 24 * time.Hour

type Classifier struct {
	Now func() time.Time
	// TTL is added to Now for persistent cookies.
	TTL time.Duration
}

func New() *Classifier {
	return &Classifier{Now: time.Now, TTL: DefaultTTL}
}

var defaultClassifier = New()

// Classify normalizes blob with the default classifier.
func Classify(blob Blob, network model.Network) ([]model.Cookie, error) {
	return defaultClassifier.Classify(blob, network)
}

// Classify returns the cookie records held by blob. The result is never nil
// for a valid network.
func (c *Classifier) Classify(blob Blob, network model.Network) ([]model.Cookie, error) {
	if !network.Valid() {
		return nil, fmt.Errorf("classify: %w: %q", model.ErrUnsupportedNetwork, network)
	}

	switch blob.Kind() {
	case BlobEmpty:
		return []model.Cookie{}, nil
	case BlobRecords:
		out := make([]model.Cookie, len(blob.records))
		copy(out, blob.records)
		return out, nil
	case BlobJSON:
		if records, ok := decodeRecords(blob.text); ok {
			return records, nil
		}
		return c.parseDelimited(blob.text, network), nil
	default:
		return c.parseDelimited(blob.text, network), nil
	}
}

func (c *Classifier) parseDelimited(raw string, network model.Network) []model.Cookie {
	out := []model.Cookie{}
	expires := float64(c.now().Add(c.ttl()).Unix())
	domain := network.Domain()

	for _, segment := range strings.Split(raw, ";") {
		name, value, ok := splitPair(segment)
		if !ok {
			continue
		}
		ck := model.Cookie{
			Name:     name,
			Value:    value,
			Domain:   domain,
			Path:     "/",
			Secure:   true,
			SameSite: model.SameSiteNoRestriction,
		}
		p := PolicyFor(network, name)
		ck.HttpOnly = p.HTTPOnly
		ck.Session = p.Session
		if !p.Session {
			exp := expires
			ck.ExpirationDate = &exp
		}
		out = append(out, ck)
	}
	return out
}

// splitPair splits on the first '=' only; values may contain '='.
func splitPair(segment string) (string, string, bool) {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "", "", false
	}
	k, v, ok := strings.Cut(segment, "=")
	if !ok {
		return "", "", false
	}
	name := strings.TrimSpace(k)
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(v), true
}

func (c *Classifier) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Classifier) ttl() time.Duration {
	if c.TTL <= 0 {
		return DefaultTTL
	}
	return c.TTL
}
