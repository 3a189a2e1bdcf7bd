// Package export writes fetched cookies to files a cookie editor can import.
package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"profile_sync/internal/model"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type Writer struct {
	fs     afero.Fs
	dir    string
	format string
}

func NewWriter(fs afero.Fs, dir, format string) (*Writer, error) {
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Writer{fs: fs, dir: dir, format: format}, nil
}

// Path is where the cookies for username are written.
func (w *Writer) Path(network model.Network, username string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s.%s", network, filepath.Base(username), w.format))
}

// WriteResult writes the cookie array of a success result and returns the
// file path. Other results are skipped and return "".
func (w *Writer) WriteResult(network model.Network, username string, res model.AccountResult) (string, error) {
	if res.Status != model.StatusSuccess {
		return "", nil
	}
	cookies := res.Cookies
	if cookies == nil {
		cookies = []model.Cookie{}
	}

	var (
		b   []byte
		err error
	)
	if w.format == FormatYAML {
		b, err = yaml.Marshal(cookies)
	} else {
		b, err = json.MarshalIndent(cookies, "", "  ")
	}
	if err != nil {
		return "", err
	}

	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return "", err
	}
	path := w.Path(network, username)
	if err := afero.WriteFile(w.fs, path, b, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// WriteAll writes every success result and returns the written paths keyed
// by username.
func (w *Writer) WriteAll(network model.Network, results map[string]model.AccountResult) (map[string]string, error) {
	out := make(map[string]string)
	for username, res := range results {
		path, err := w.WriteResult(network, username, res)
		if err != nil {
			return out, err
		}
		if path != "" {
			out[username] = path
		}
	}
	return out, nil
}
