package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// DefaultPath returns the directory searched for the configuration file.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".bsh")
}

// Load loads the configuration from the directory. A missing file falls
// back to the embedded defaults; a malformed one is an error. Environment
// variables override values from either source.
func Load(path string) (*Configuration, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs is Load over an arbitrary filesystem.
func LoadFs(fsys afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	out := defaultConfig()

	contents, err := afero.ReadFile(fsys, filepath.Join(path, ConfigurationName))
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Keep the defaults.
	case err != nil:
		return nil, err
	default:
		if err := yaml.UnmarshalStrict(contents, out); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(out); err != nil {
		return nil, err
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}

	return out, nil
}
