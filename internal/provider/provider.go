package provider

import (
	"context"

	"profile_sync/internal/model"
)

// ProfileSpec is the full creation payload for a browser profile.
type ProfileSpec struct {
	Name          string        `json:"name"`
	Notes         string        `json:"notes"`
	BrowserType   string        `json:"browserType"`
	OS            string        `json:"os"`
	Navigator     Navigator     `json:"navigator"`
	Proxy         model.Proxy   `json:"proxy"`
	WebGLMetadata WebGLMetadata `json:"webGLMetadata"`
	Timezone      Timezone      `json:"timezone"`
	WebRTC        Mode          `json:"webRTC"`
	Storage       Storage       `json:"storage"`
	Plugins       Plugins       `json:"plugins"`
	Canvas        Mode          `json:"canvas"`
	WebGL         Mode          `json:"webGL"`
	ClientRects   Mode          `json:"clientRects"`
	AudioContext  Mode          `json:"audioContext"`
	MediaDevices  MediaDevices  `json:"mediaDevices"`
	Fonts         Fonts         `json:"fonts"`
}

type Navigator struct {
	UserAgent  string `json:"userAgent"`
	Resolution string `json:"resolution"`
	Language   string `json:"language"`
	Platform   string `json:"platform"`
}

type WebGLMetadata struct {
	Mode     string `json:"mode"`
	Vendor   string `json:"vendor"`
	Renderer string `json:"renderer"`
}

type Timezone struct {
	Enabled       bool   `json:"enabled"`
	FillBasedOnIP bool   `json:"fillBasedOnIp"`
	Timezone      string `json:"timezone"`
}

type Mode struct {
	Mode string `json:"mode"`
}

type Storage struct {
	Local                    bool `json:"local"`
	Extensions               bool `json:"extensions"`
	Bookmarks                bool `json:"bookmarks"`
	History                  bool `json:"history"`
	Passwords                bool `json:"passwords"`
	Session                  bool `json:"session"`
	IndexedDB                bool `json:"indexedDb"`
	EnableExternalExtensions bool `json:"enableExternalExtensions"`
}

type Plugins struct {
	EnableVulnerable bool `json:"enableVulnerable"`
	EnableFlash      bool `json:"enableFlash"`
}

type MediaDevices struct {
	EnableMasking bool `json:"enableMasking"`
	VideoInputs   int  `json:"videoInputs"`
	AudioInputs   int  `json:"audioInputs"`
	AudioOutputs  int  `json:"audioOutputs"`
}

type Fonts struct {
	Families      []string `json:"families"`
	EnableMasking bool     `json:"enableMasking"`
	EnableDomRect bool     `json:"enableDomRect"`
}

// ProfilePatch is a partial update. Nil fields are left untouched remotely.
type ProfilePatch struct {
	Name  *string      `json:"name,omitempty"`
	Proxy *model.Proxy `json:"proxy,omitempty"`
}

// ProfileAPI is the remote browser profile service.
type ProfileAPI interface {
	ListProfiles(ctx context.Context) ([]model.RemoteProfile, error)
	GetProfile(ctx context.Context, id string) (model.RemoteProfile, error)
	CreateProfile(ctx context.Context, spec ProfileSpec) (string, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) error
	DeleteProfile(ctx context.Context, id string) error
	SetCookies(ctx context.Context, id string, cookies []model.Cookie) error
	GetCookies(ctx context.Context, id string) ([]model.Cookie, error)
}
