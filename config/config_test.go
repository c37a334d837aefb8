package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Engine != "tesseract" {
		t.Errorf("Engine = %q", cfg.Engine)
	}
	if cfg.HistoryDepth != 20 {
		t.Errorf("HistoryDepth = %d", cfg.HistoryDepth)
	}
}

func TestLoadPreservesDefaults(t *testing.T) {
	cfg, err := Load([]byte("engine: paddle\nlanguages: [zh, en]\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine != "paddle" {
		t.Errorf("Engine = %q", cfg.Engine)
	}
	if len(cfg.Languages) != 2 || cfg.Languages[0] != "zh" {
		t.Errorf("Languages = %v", cfg.Languages)
	}
	// Untouched fields keep defaults.
	if cfg.JPEGQuality != 95 {
		t.Errorf("JPEGQuality = %d, want default 95", cfg.JPEGQuality)
	}
	if cfg.FillMode != "inpaint" {
		t.Errorf("FillMode = %q, want default", cfg.FillMode)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "engine: [", "parse config"},
		{"bad engine", "engine: cloud", "unknown engine"},
		{"bad fill mode", "fill_mode: smear", "fill mode"},
		{"bad history", "history_depth: 0", "history depth"},
		{"bad quality", "jpeg_quality: 150", "jpeg quality"},
		{"bad radius", "inpaint_radius: -1", "inpaint radius"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("Load accepted %q", tt.yaml)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "engine: noop\npreferred_fonts:\n  - SimHei\n  - Arial\nworkspace: /tmp/ws\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Engine != "noop" || len(cfg.PreferredFonts) != 2 || cfg.Workspace != "/tmp/ws" {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
