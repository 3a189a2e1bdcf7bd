package model

import "errors"

// ErrAccountNotFound is returned when a network table has no row for a login.
var ErrAccountNotFound = errors.New("account not found")

type AccountStatus string

const (
	StatusSuccess  AccountStatus = "success"
	StatusNoData   AccountStatus = "no_data"
	StatusNotFound AccountStatus = "not_found"
	StatusError    AccountStatus = "error"
)

// AccountRow is one login row as stored; nil pointers are SQL NULLs.
type AccountRow struct {
	Login         string
	Cookies       *string
	ProxyHost     *string
	ProxyPort     *string
	ProxyUsername *string
	ProxyPassword *string
	ProfileID     *string
}

type AccountResult struct {
	Status  AccountStatus `json:"status" yaml:"status"`
	Cookies []Cookie      `json:"cookies" yaml:"cookies"`
	Proxy   *Proxy        `json:"proxy" yaml:"proxy"`
	Count   int           `json:"count" yaml:"count"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Provisionable reports whether the account row exists, with or without data.
func (r AccountResult) Provisionable() bool {
	return r.Status == StatusSuccess || r.Status == StatusNoData
}

type RemoteProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
	Proxy *Proxy `json:"proxy,omitempty"`
}
