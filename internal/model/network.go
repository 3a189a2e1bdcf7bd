package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedNetwork = errors.New("unsupported network")

type Network string

const (
	NetworkFacebook  Network = "facebook"
	NetworkInstagram Network = "instagram"
	NetworkTikTok    Network = "tiktok"
	NetworkTwitter   Network = "twitter"
	NetworkYouTube   Network = "youtube"
)

var networks = []Network{
	NetworkFacebook,
	NetworkInstagram,
	NetworkTikTok,
	NetworkTwitter,
	NetworkYouTube,
}

// Networks returns the supported networks in a stable order.
func Networks() []Network {
	out := make([]Network, len(networks))
	copy(out, networks)
	return out
}

// ParseNetwork resolves an operator supplied name, ignoring case and surrounding space.
func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToLower(strings.TrimSpace(s)))
	if !n.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedNetwork, s)
	}
	return n, nil
}

func (n Network) Valid() bool {
	for _, v := range networks {
		if v == n {
			return true
		}
	}
	return false
}

// Table is the account table holding logins for the network.
func (n Network) Table() string {
	return "cm_social_account_" + string(n) + "_api"
}

// Domain is the leading-dot cookie domain for the network.
func (n Network) Domain() string {
	return "." + string(n) + ".com"
}

// HomeURL is the page a browser opens to check an imported session.
func (n Network) HomeURL() string {
	return "https://www." + string(n) + ".com/"
}

func (n Network) String() string { return string(n) }
