package normalize

import (
	"strconv"
	"strings"

	"profile_sync/internal/model"
)

const DefaultProxyPort = 8080

// BuildProxy returns nil unless both host and port are set. A port that does
// not parse falls back to DefaultProxyPort.
func BuildProxy(host, port, username, password string) *model.Proxy {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	if host == "" || port == "" {
		return nil
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		p = DefaultProxyPort
	}
	return &model.Proxy{
		Mode:     model.ProxyModeHTTP,
		Host:     host,
		Port:     p,
		Username: username,
		Password: password,
	}
}

func ProxyFromRow(row model.AccountRow) *model.Proxy {
	return BuildProxy(deref(row.ProxyHost), deref(row.ProxyPort), deref(row.ProxyUsername), deref(row.ProxyPassword))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
