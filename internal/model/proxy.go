package model

const (
	ProxyModeHTTP = "http"
	ProxyModeNone = "none"
)

type Proxy struct {
	Mode     string `json:"mode" yaml:"mode"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// NoProxy is the explicit "no proxy" descriptor the profile API expects on create.
func NoProxy() Proxy {
	return Proxy{Mode: ProxyModeNone}
}
