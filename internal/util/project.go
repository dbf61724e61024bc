package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	semver "github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ProjectConfigNames are looked up in the root directory, in order.
var ProjectConfigNames = []string{"loq.toml", "loq.yaml", "loq.yml"}

// ProjectConfig is the optional per-project config file.
type ProjectConfig struct {
	SearchPaths []string `toml:"search_paths" yaml:"search_paths"`
	StdlibDB    string   `toml:"stdlib_db" yaml:"stdlib_db"`
	Requires    string   `toml:"requires" yaml:"requires"`

	File string `toml:"-" yaml:"-"`
}

// LoadProjectConfig reads file, or the first of ProjectConfigNames found in
// root when file is empty. A missing default file yields an empty config.
// Relative search paths are made relative to the config file's directory.
func LoadProjectConfig(root, file string) (*ProjectConfig, error) {
	if file == "" {
		for _, name := range ProjectConfigNames {
			candidate := filepath.Join(root, name)
			if _, err := os.Stat(candidate); err == nil {
				file = candidate
				break
			}
		}
		if file == "" {
			return &ProjectConfig{}, nil
		}
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading config '%s': %w", file, err)
	}

	cfg := &ProjectConfig{File: file}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config '%s': %w", file, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config '%s': %w", file, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format '%s'", filepath.Ext(file))
	}

	dir := filepath.Dir(file)
	for i, p := range cfg.SearchPaths {
		if !filepath.IsAbs(p) {
			cfg.SearchPaths[i] = filepath.Join(dir, p)
		}
	}
	return cfg, nil
}

var ErrVersionConstraint = errors.New("version constraint not satisfied")

// CheckRequires validates version against a semver constraint such as
// ">= 0.3, < 1.0". Development builds and an empty constraint always pass.
func CheckRequires(constraint, version string) error {
	if constraint == "" || version == "" || version == "dev" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid requires constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", version, err)
	}
	if ok, errs := c.Validate(v); !ok {
		return fmt.Errorf("%w: loq %s, project requires %s: %w", ErrVersionConstraint, v, constraint, errors.Join(errs...))
	}
	return nil
}
