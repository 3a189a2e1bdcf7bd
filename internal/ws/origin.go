package ws

import "strings"

// OriginAllowed reports whether origin matches an entry of allow. An entry
// is "*", an exact origin, or an origin ending in ":*" which accepts any port
// (e.g. "http://localhost:*").
func OriginAllowed(allow []string, origin string) bool {
	for _, o := range allow {
		switch {
		case o == "*":
			return true
		case strings.EqualFold(o, origin):
			return true
		case strings.HasSuffix(o, ":*"):
			prefix := strings.TrimSuffix(o, "*")
			if len(origin) > len(prefix) && strings.EqualFold(origin[:len(prefix)], prefix) && isPort(origin[len(prefix):]) {
				return true
			}
		}
	}
	return false
}

func isPort(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
