package config

import "flag"

// Flags holds the command-line overrides bound by BindFlags.
type Flags struct {
	config     *string
	debug      *bool
	mode       *string
	isolation  *string
	fullscreen *bool
	width      *int
	height     *int
}

// BindFlags registers the config flags on fs. Parse fs before calling Load.
func BindFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:     fs.String("config", "", "Path to config file"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
		mode:       fs.String("mode", "", "Diff mode: in-process or isolated"),
		isolation:  fs.String("isolation", "", "Isolated worker kind: goroutine or process"),
		fullscreen: fs.Bool("fullscreen", false, "Run in fullscreen mode"),
		width:      fs.Int("width", 0, "Window width"),
		height:     fs.Int("height", 0, "Window height"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
		cfg.View.ShowInfo = true
	}
	if *f.mode != "" {
		cfg.Diff.Mode = *f.mode
	}
	if *f.isolation != "" {
		cfg.Diff.Isolation = *f.isolation
	}
	if *f.fullscreen {
		cfg.Window.Fullscreen = true
	}
	if *f.width > 0 {
		cfg.Window.Width = *f.width
	}
	if *f.height > 0 {
		cfg.Window.Height = *f.height
	}
}
