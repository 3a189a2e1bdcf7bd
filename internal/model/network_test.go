package model

import (
	"errors"
	"testing"
)

func TestParseNetwork(t *testing.T) {
	cases := map[string]Network{
		"facebook":    NetworkFacebook,
		" Instagram ": NetworkInstagram,
		"TIKTOK":      NetworkTikTok,
		"twitter":     NetworkTwitter,
		"YouTube":     NetworkYouTube,
	}
	for in, want := range cases {
		got, err := ParseNetwork(in)
		if err != nil {
			t.Fatalf("ParseNetwork(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseNetwork(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseNetwork("myspace"); !errors.Is(err, ErrUnsupportedNetwork) {
		t.Fatalf("want ErrUnsupportedNetwork, got %v", err)
	}
	if _, err := ParseNetwork(""); !errors.Is(err, ErrUnsupportedNetwork) {
		t.Fatalf("want ErrUnsupportedNetwork for empty input, got %v", err)
	}
}

func TestNetworkLookups(t *testing.T) {
	if got := NetworkFacebook.Table(); got != "cm_social_account_facebook_api" {
		t.Fatalf("table = %q", got)
	}
	if got := NetworkInstagram.Domain(); got != ".instagram.com" {
		t.Fatalf("domain = %q", got)
	}
	if len(Networks()) != 5 {
		t.Fatalf("want 5 networks, got %d", len(Networks()))
	}
}
