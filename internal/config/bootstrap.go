package config

import (
	"errors"
	"os"

	"github.com/rotisserie/eris"
)

// EnsureUserConfig writes the default configuration into dataDir when no
// config.yaml exists there yet, and returns its path.
func EnsureUserConfig(dataDir string) (string, error) {
	cfg := Default()
	cfg.App.DataDir = dataDir
	userPath := cfg.ConfigPath()

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", eris.Wrap(err, "config: stat user config")
	}

	if err := SaveAtomic(userPath, cfg); err != nil {
		return "", err
	}
	return userPath, nil
}
