// Package config loads editor settings from YAML. Loading starts from the
// defaults, so fields missing from a file keep their default values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wudi/imagekit/editor"
	"github.com/wudi/imagekit/history"
	"github.com/wudi/imagekit/imagefile"
	"github.com/wudi/imagekit/inpaint"
)

// Config holds the user-tunable settings of the editing engine.
type Config struct {
	// Engine selects the OCR backend: "tesseract" or "paddle".
	Engine string `yaml:"engine"`
	// Languages are BCP-47 or engine-native language hints for OCR.
	Languages []string `yaml:"languages"`
	// FillMode is the default smart-fill mode.
	FillMode string `yaml:"fill_mode"`
	// PreferredFonts are tried first when matching replacement text.
	PreferredFonts []string `yaml:"preferred_fonts"`
	// HistoryDepth bounds the undo stack.
	HistoryDepth int `yaml:"history_depth"`
	// ModelRoot is searched for ONNX models by the paddle engine.
	ModelRoot string `yaml:"model_root"`
	// Workspace is where the setup doctor places config and models.
	Workspace string `yaml:"workspace"`
	// JPEGQuality applies when saving .jpg/.jpeg.
	JPEGQuality int `yaml:"jpeg_quality"`
	// InpaintRadius is the fast-marching neighborhood radius.
	InpaintRadius int `yaml:"inpaint_radius"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Engine:        "tesseract",
		Languages:     []string{"eng"},
		FillMode:      string(editor.FillInpaint),
		HistoryDepth:  history.DefaultLimit,
		ModelRoot:     ".",
		JPEGQuality:   imagefile.DefaultJPEGQuality,
		InpaintRadius: inpaint.DefaultRadius,
	}
}

// Load parses YAML over the defaults and validates the result.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads and parses a YAML config file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Load(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings no component would accept.
func (c Config) Validate() error {
	switch c.Engine {
	case "tesseract", "paddle", "noop":
	default:
		return fmt.Errorf("config: unknown engine %q", c.Engine)
	}
	if _, err := editor.ParseFillMode(c.FillMode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.HistoryDepth < 1 {
		return fmt.Errorf("config: history depth %d, must be at least 1", c.HistoryDepth)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("config: jpeg quality %d, must be in 1..100", c.JPEGQuality)
	}
	if c.InpaintRadius < 1 {
		return fmt.Errorf("config: inpaint radius %d, must be at least 1", c.InpaintRadius)
	}
	return nil
}
