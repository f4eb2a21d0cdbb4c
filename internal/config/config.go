// Package config handles viewer and diff configuration loading and management.
package config

import (
	"fmt"
	"strings"

	"github.com/Faultbox/meshdiff/internal/diff"
	"github.com/Faultbox/meshdiff/internal/engine/camera"
	"github.com/Faultbox/meshdiff/internal/logger"
	"github.com/Faultbox/meshdiff/internal/worker"
	"github.com/Faultbox/meshdiff/pkg/material"
)

// Config holds all settings.
type Config struct {
	View         ViewConfig        `yaml:"view"`
	Grid         GridConfig        `yaml:"grid"`
	MeshMaterial material.Settings `yaml:"mesh_material"`
	Diff         DiffConfig        `yaml:"diff"`
	Window       WindowConfig      `yaml:"window"`
	Logging      LoggingConfig     `yaml:"logging"`
}

// ViewConfig holds the display helpers and the initial camera.
type ViewConfig struct {
	ShowInfo        bool    `yaml:"show_info"`
	ShowAxes        bool    `yaml:"show_axes"`
	ShowBoundingBox bool    `yaml:"show_bounding_box"`
	ShowViewButtons bool    `yaml:"show_view_buttons"`
	ViewOffset      float32 `yaml:"view_offset"` // Distance kept between mesh and camera
	Preset          string  `yaml:"preset"`
}

// GridConfig holds the ground grid settings.
type GridConfig struct {
	Enable bool   `yaml:"enable"`
	Color  string `yaml:"color"`
}

// Isolation kinds for DiffConfig.Isolation.
const (
	IsolationGoroutine = "goroutine"
	IsolationProcess   = "process"
)

// DiffConfig selects how boolean evaluations run.
type DiffConfig struct {
	Mode      string `yaml:"mode"`      // in-process or isolated
	Isolation string `yaml:"isolation"` // goroutine or process, for isolated mode

	// WorkerCommand overrides the subprocess command line for process
	// isolation. Empty runs this executable with the "worker" argument.
	WorkerCommand []string `yaml:"worker_command"`
}

// WindowConfig holds viewer window settings.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Samples    int  `yaml:"samples"` // MSAA, 0 disables
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		View: ViewConfig{
			ShowInfo:        false,
			ShowAxes:        false,
			ShowBoundingBox: false,
			ShowViewButtons: true,
			ViewOffset:      20,
			Preset:          string(camera.Isometric),
		},
		Grid: GridConfig{
			Enable: true,
			Color:  material.ColorGrid,
		},
		MeshMaterial: material.DefaultSettings(),
		Diff: DiffConfig{
			Mode:      "in-process",
			Isolation: IsolationGoroutine,
		},
		Window: WindowConfig{
			Width:   1280,
			Height:  720,
			VSync:   true,
			Samples: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	if _, err := camera.ParsePreset(c.View.Preset); err != nil {
		return fmt.Errorf("view.preset: %w", err)
	}
	if c.View.ViewOffset < 0 {
		return fmt.Errorf("view.view_offset: must not be negative, got %v", c.View.ViewOffset)
	}
	if c.Grid.Color != "" {
		if _, err := material.ParseColor(c.Grid.Color); err != nil {
			return fmt.Errorf("grid.color: %w", err)
		}
	}
	if _, err := material.ParseKind(string(c.MeshMaterial.Kind)); err != nil {
		return fmt.Errorf("mesh_material.type: %w", err)
	}
	if _, err := material.New(c.MeshMaterial); err != nil {
		return fmt.Errorf("mesh_material.config: %w", err)
	}
	if _, err := diff.ParseMode(c.Diff.Mode); err != nil {
		return fmt.Errorf("diff.mode: %w", err)
	}
	switch c.Diff.Isolation {
	case "", IsolationGoroutine, IsolationProcess:
	default:
		return fmt.Errorf("diff.isolation: unknown isolation %q", c.Diff.Isolation)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window: invalid size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.Samples < 0 || c.Window.Samples > 16 {
		return fmt.Errorf("window.samples: must be between 0 and 16, got %d", c.Window.Samples)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// normalize canonicalizes case-insensitive enumerations.
func (c *Config) normalize() {
	if k, err := material.ParseKind(string(c.MeshMaterial.Kind)); err == nil {
		c.MeshMaterial.Kind = k
	}
	if c.MeshMaterial.Config == nil {
		c.MeshMaterial.Config = material.Params{}
	}
	c.View.Preset = strings.ToLower(strings.TrimSpace(c.View.Preset))
	c.Diff.Isolation = strings.ToLower(strings.TrimSpace(c.Diff.Isolation))
}

// DiffMode returns the parsed diff mode. Call Validate first.
func (c *Config) DiffMode() diff.Mode {
	m, _ := diff.ParseMode(c.Diff.Mode)
	return m
}

// CameraPreset returns the parsed initial preset. Call Validate first.
func (c *Config) CameraPreset() camera.Preset {
	p, _ := camera.ParsePreset(c.View.Preset)
	return p
}

// DiffOptions returns the engine options selected by the diff section.
func (c *Config) DiffOptions() []diff.Option {
	opts := []diff.Option{diff.WithMode(c.DiffMode())}
	if c.DiffMode() == diff.ModeIsolated && c.Diff.Isolation == IsolationProcess {
		opts = append(opts, diff.WithUnitFactory(worker.ProcessFactory(c.Diff.WorkerCommand)))
	}
	return opts
}
