// Package setup checks and prepares the environment the editor needs: an
// OCR runtime, a workspace directory with a config file, and language
// data. The steps are injectable so every branch of the flow is testable.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wudi/imagekit/config"
	"github.com/wudi/imagekit/observability"
	"github.com/wudi/imagekit/ocr/paddle"
)

// ErrNoRuntime reports that no OCR runtime is available: no tesseract
// binary on PATH and no local ONNX models.
var ErrNoRuntime = errors.New("setup: no OCR runtime found")

// ConfigFileName is the config file written into a fresh workspace.
const ConfigFileName = "config.yaml"

// ModelsDirName is the model directory created under the workspace.
const ModelsDirName = "models"

// Steps are the side-effecting operations the doctor performs. Zero
// fields get real implementations.
type Steps struct {
	// LookPath locates a binary on PATH.
	LookPath func(name string) (string, error)
	// Stat checks for an existing workspace.
	Stat func(path string) (os.FileInfo, error)
	// MkdirAll creates workspace directories.
	MkdirAll func(path string, perm os.FileMode) error
	// WriteFile writes the default config.
	WriteFile func(path string, data []byte, perm os.FileMode) error
	// FetchLanguageData downloads OCR language or model data into the
	// workspace. Failure is a warning, not a hard error.
	FetchLanguageData func(ctx context.Context, workspace string) error
	// DiscoverModels checks for local ONNX models under root.
	DiscoverModels func(root string) error
}

func (s *Steps) fill() {
	if s.LookPath == nil {
		s.LookPath = exec.LookPath
	}
	if s.Stat == nil {
		s.Stat = os.Stat
	}
	if s.MkdirAll == nil {
		s.MkdirAll = os.MkdirAll
	}
	if s.WriteFile == nil {
		s.WriteFile = os.WriteFile
	}
	if s.FetchLanguageData == nil {
		s.FetchLanguageData = func(context.Context, string) error { return nil }
	}
	if s.DiscoverModels == nil {
		s.DiscoverModels = func(root string) error {
			_, err := paddle.DiscoverModels(root)
			return err
		}
	}
}

// Result summarizes a doctor run.
type Result struct {
	// Runtime names the OCR runtime found ("tesseract" or "paddle").
	Runtime string
	// WorkspaceCreated is false when an existing workspace was reused.
	WorkspaceCreated bool
	// Warnings lists non-fatal problems, currently only data fetch
	// failures.
	Warnings []string
}

// Doctor runs the environment checks.
type Doctor struct {
	workspace string
	steps     Steps
	out       io.Writer
	log       observability.Logger
}

// Option configures a Doctor.
type Option func(*Doctor)

// WithSteps overrides individual side-effecting steps.
func WithSteps(steps Steps) Option {
	return func(d *Doctor) { d.steps = steps }
}

// WithOutput sets where user-facing progress lines go.
func WithOutput(w io.Writer) Option {
	return func(d *Doctor) { d.out = w }
}

// WithLogger routes structured events to l.
func WithLogger(l observability.Logger) Option {
	return func(d *Doctor) { d.log = l }
}

// New returns a Doctor for the given workspace directory.
func New(workspace string, opts ...Option) *Doctor {
	d := &Doctor{
		workspace: workspace,
		out:       io.Discard,
		log:       observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.steps.fill()
	return d
}

// Run performs the checks in order. A missing OCR runtime fails before
// anything is created; a data fetch failure is reported as a warning and
// the run still succeeds.
func (d *Doctor) Run(ctx context.Context) (Result, error) {
	var res Result

	runtimeName, err := d.findRuntime()
	if err != nil {
		fmt.Fprintf(d.out, "error: %v\n", err)
		fmt.Fprintln(d.out, "install tesseract, or place ONNX models under the workspace, and rerun")
		return res, err
	}
	res.Runtime = runtimeName
	fmt.Fprintf(d.out, "OCR runtime: %s\n", runtimeName)

	created, err := d.ensureWorkspace()
	if err != nil {
		return res, err
	}
	res.WorkspaceCreated = created
	if created {
		fmt.Fprintf(d.out, "workspace created at %s\n", d.workspace)
	} else {
		fmt.Fprintf(d.out, "workspace %s already exists, skipping creation\n", d.workspace)
	}

	if err := d.steps.FetchLanguageData(ctx, d.workspace); err != nil {
		warning := fmt.Sprintf("language data fetch failed: %v", err)
		res.Warnings = append(res.Warnings, warning)
		fmt.Fprintf(d.out, "warning: %s\n", warning)
		fmt.Fprintf(d.out, "download the data manually into %s\n", filepath.Join(d.workspace, ModelsDirName))
		d.log.Warn("language data fetch failed", observability.Error("error", err))
	}

	fmt.Fprintln(d.out, "setup complete")
	fmt.Fprintln(d.out, "usage: imgedit -h")
	return res, nil
}

// findRuntime prefers the tesseract binary and falls back to local ONNX
// models.
func (d *Doctor) findRuntime() (string, error) {
	if _, err := d.steps.LookPath("tesseract"); err == nil {
		return "tesseract", nil
	}
	if err := d.steps.DiscoverModels(d.workspace); err == nil {
		return "paddle", nil
	}
	return "", ErrNoRuntime
}

// ensureWorkspace creates the workspace skeleton unless it already
// exists. Reports whether anything was created.
func (d *Doctor) ensureWorkspace() (bool, error) {
	if _, err := d.steps.Stat(d.workspace); err == nil {
		return false, nil
	}
	if err := d.steps.MkdirAll(filepath.Join(d.workspace, ModelsDirName), 0o755); err != nil {
		return false, fmt.Errorf("create workspace: %w", err)
	}
	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return false, fmt.Errorf("encode default config: %w", err)
	}
	if err := d.steps.WriteFile(filepath.Join(d.workspace, ConfigFileName), data, 0o644); err != nil {
		return false, fmt.Errorf("write default config: %w", err)
	}
	return true, nil
}
