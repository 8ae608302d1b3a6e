// Package manifest handles waldo.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/waldo/delegate"
)

// Manifest represents a waldo.toml project configuration.
type Manifest struct {
	Project  Project  `toml:"project"`
	Store    Store    `toml:"store"`
	Dispatch Dispatch `toml:"dispatch"`
	Log      Log      `toml:"log"`

	// Dir is the directory containing the waldo.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Store configures the receiver store location.
type Store struct {
	Path string `toml:"path"`
}

// Dispatch configures installation defaults.
type Dispatch struct {
	Collision string `toml:"collision"` // "overwrite" (default) or "reject"
}

// Log configures logging.
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// CollisionPolicy maps the configured collision string to a policy.
func (d Dispatch) CollisionPolicy() (delegate.CollisionPolicy, error) {
	switch d.Collision {
	case "", "overwrite":
		return delegate.CollisionOverwrite, nil
	case "reject":
		return delegate.CollisionReject, nil
	default:
		return delegate.CollisionOverwrite, fmt.Errorf("unknown collision policy %q", d.Collision)
	}
}

// StorePath returns the absolute path of the configured receiver store.
func (m *Manifest) StorePath() string {
	if filepath.IsAbs(m.Store.Path) {
		return m.Store.Path
	}
	return filepath.Join(m.Dir, m.Store.Path)
}

// Load parses a waldo.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "waldo.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Store.Path == "" {
		m.Store.Path = filepath.Join(".waldo", "receivers.db")
	}
	if _, err := m.Dispatch.CollisionPolicy(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a waldo.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "waldo.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}
