// Package prefs holds host preferences: the saved search filter and the list
// background color. They are loaded once and injected, never read globally.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// FileName is the preferences file inside the system directory.
const FileName = "prefs.yaml"

// Background colors offered for the note list.
const (
	LightGray   = "light-gray"
	LightBlue   = "light-blue"
	LightGreen  = "light-green"
	LightPink   = "light-pink"
	LightPurple = "light-purple"
)

// Backgrounds lists the valid background colors in menu order.
var Backgrounds = []string{LightGray, LightBlue, LightGreen, LightPink, LightPurple}

// ErrUnknownBackground is returned for colors outside Backgrounds.
var ErrUnknownBackground = errors.New("unknown background color")

// Preferences are the persisted host settings.
type Preferences struct {
	Filter     string `yaml:"filter"`
	Background string `yaml:"background"`
}

// Default returns the preferences of a fresh install.
func Default() Preferences {
	return Preferences{Background: LightGray}
}

// Validate checks the background color.
func (p Preferences) Validate() error {
	if !slices.Contains(Backgrounds, p.Background) {
		return fmt.Errorf("%w: %q", ErrUnknownBackground, p.Background)
	}
	return nil
}

// Path returns the preferences file under systemDir.
func Path(systemDir string) string {
	return filepath.Join(systemDir, FileName)
}

// Load reads preferences from path. A missing file yields Default.
func Load(path string) (Preferences, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to read preferences: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("failed to parse preferences: %w", err)
	}
	if p.Background == "" {
		p.Background = LightGray
	}
	if err := p.Validate(); err != nil {
		return Default(), err
	}
	return p, nil
}

// Save writes preferences to path, creating the directory if needed.
func Save(path string, p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
