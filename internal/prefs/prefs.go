// Package prefs handles squadboard user preferences persistence.
// Preferences are stored in ~/.config/squadboard/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences that survive restarts.
type Prefs struct {
	Theme       string `toml:"theme"`
	Sort        string `toml:"sort"`
	AspectRatio string `toml:"aspect_ratio"`
	Resolution  string `toml:"resolution"`
}

const (
	defaultPrefsPath   = "~/.config/squadboard/prefs.toml"
	defaultTheme       = "Dracula"
	defaultSort        = "newest"
	defaultAspectRatio = "4:3"
	defaultResolution  = "2K"
)

// Default returns the built-in preferences.
func Default() Prefs {
	return Prefs{
		Theme:       defaultTheme,
		Sort:        defaultSort,
		AspectRatio: defaultAspectRatio,
		Resolution:  defaultResolution,
	}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if
// the file is missing or unreadable. Only a path that cannot be resolved is
// an error.
func Load(path string) (Prefs, error) {
	p := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return p, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return p, nil // Graceful degradation
	}

	var stored Prefs
	if err := toml.Unmarshal(bytes, &stored); err != nil {
		return p, nil // Graceful degradation
	}

	p.merge(stored)
	return p, nil
}

func (p *Prefs) merge(stored Prefs) {
	if v := strings.TrimSpace(stored.Theme); v != "" {
		p.Theme = v
	}
	if v := strings.TrimSpace(stored.Sort); v != "" {
		p.Sort = v
	}
	if v := strings.TrimSpace(stored.AspectRatio); v != "" {
		p.AspectRatio = v
	}
	if v := strings.TrimSpace(stored.Resolution); v != "" {
		p.Resolution = v
	}
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
