package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-ini/ini"
)

// DefaultEnvFile is the dotenv style file read before the environment.
const DefaultEnvFile = "config.env"

// LoadEnvFile copies KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		UnescapeValueDoubleQuotes: true,
	}, path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	for _, key := range f.Section(ini.DefaultSection).Keys() {
		name := strings.TrimPrefix(strings.TrimSpace(key.Name()), "export ")
		if name == "" {
			continue
		}
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, strings.Trim(key.String(), "'")); err != nil {
			return err
		}
	}
	return nil
}
