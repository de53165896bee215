package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/derailed/tcell/v2"
	"gopkg.in/yaml.v3"
)

// Color is a theme color expressed as a tcell color name or #rrggbb hex
type Color string

// Color resolves the theme color to a tcell color
func (c Color) Color() tcell.Color {
	if c == "" || c == "default" {
		return tcell.ColorDefault
	}
	return tcell.GetColor(string(c))
}

// ColorScheme holds the colors the UI draws with
type ColorScheme struct {
	Background   Color `yaml:"background"`
	Text         Color `yaml:"text"`
	Title        Color `yaml:"title"`
	Border       Color `yaml:"border"`
	UserMessage  Color `yaml:"userMessage"`
	BotMessage   Color `yaml:"botMessage"`
	Accent       Color `yaml:"accent"`
	FlashWarning Color `yaml:"flashWarning"`
}

// DefaultLightScheme returns the built-in light color scheme
func DefaultLightScheme() *ColorScheme {
	return &ColorScheme{
		Background:   "white",
		Text:         "black",
		Title:        "darkblue",
		Border:       "gray",
		UserMessage:  "darkgreen",
		BotMessage:   "black",
		Accent:       "#10b981",
		FlashWarning: "#b45309",
	}
}

// DefaultDarkScheme returns the built-in dark color scheme
func DefaultDarkScheme() *ColorScheme {
	return &ColorScheme{
		Background:   "#111827",
		Text:         "#e5e7eb",
		Title:        "#93c5fd",
		Border:       "#374151",
		UserMessage:  "#34d399",
		BotMessage:   "#e5e7eb",
		Accent:       "#3b82f6",
		FlashWarning: "yellow",
	}
}

// ThemeLoader loads color schemes from YAML theme files
type ThemeLoader struct {
	themesDir string
}

// NewThemeLoader creates a new theme loader
func NewThemeLoader(themesDir string) *ThemeLoader {
	return &ThemeLoader{themesDir: themesDir}
}

// LoadThemeFromFile loads a color scheme from a YAML file, trying the themes
// directory first and then the name as an absolute path
func (tl *ThemeLoader) LoadThemeFromFile(filename string) (*ColorScheme, error) {
	path := filepath.Join(tl.themesDir, filename)
	if !fileExists(path) {
		path = filename
		if !fileExists(path) {
			return nil, fmt.Errorf("theme file not found: %s", filename)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme file: %w", err)
	}

	var theme struct {
		Inboxq *ColorScheme `yaml:"inboxq"`
	}
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return nil, fmt.Errorf("failed to parse theme file: %w", err)
	}
	if theme.Inboxq == nil {
		return nil, fmt.Errorf("invalid theme file: missing inboxq section")
	}

	return theme.Inboxq, nil
}

// SaveThemeToFile writes a color scheme to a YAML file in the themes directory
func (tl *ThemeLoader) SaveThemeToFile(scheme *ColorScheme, filename string) error {
	if err := os.MkdirAll(tl.themesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create themes directory: %w", err)
	}

	themeData := struct {
		Inboxq *ColorScheme `yaml:"inboxq"`
	}{Inboxq: scheme}

	data, err := yaml.Marshal(themeData)
	if err != nil {
		return fmt.Errorf("failed to serialize theme: %w", err)
	}

	return os.WriteFile(filepath.Join(tl.themesDir, filename), data, 0o644)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
