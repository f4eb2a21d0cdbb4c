// Package app implements the interactive viewer loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshdiff/internal/config"
	"github.com/Faultbox/meshdiff/internal/engine/input"
	"github.com/Faultbox/meshdiff/internal/engine/renderer"
	"github.com/Faultbox/meshdiff/internal/engine/screenshot"
	"github.com/Faultbox/meshdiff/internal/engine/window"
	"github.com/Faultbox/meshdiff/internal/logger"
	"github.com/Faultbox/meshdiff/internal/preview"
	"github.com/Faultbox/meshdiff/internal/viewer"
)

// frameTime caps the loop when VSync is off.
const frameTime = time.Second / 60

// App is the viewer application.
type App struct {
	cfg    *config.Config
	source preview.Source
	watch  bool
	log    *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	viewer   *viewer.Viewer
	capture  *screenshot.Capture

	title   string
	changed chan struct{}
	stopped chan error
}

// New opens the window and loads src. With watch set, the view reloads
// whenever a source file changes and closes when it is deleted.
func New(cfg *config.Config, src preview.Source, watch bool) (*App, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		source:  src,
		watch:   watch,
		log:     logger.Named("app"),
		viewer:  viewer.New(cfg),
		capture: screenshot.New(".", "meshdiff"),
		changed: make(chan struct{}, 1),
		stopped: make(chan error, 1),
	}
	a.log.Info("initializing viewer",
		zap.String("source", src.Name()),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	// Create window (this also creates OpenGL context)
	var err error
	a.window, err = window.New(window.Config{
		Title:      src.Name(),
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Samples:    cfg.Window.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	w, h := a.window.DrawableSize()
	a.renderer, err = renderer.New(renderer.Config{Width: w, Height: h})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.input = input.New()
	return a, nil
}

// Run loads the source and runs the event loop until the window closes,
// ctx ends or a watched file is removed.
func (a *App) Run(ctx context.Context) error {
	if err := a.reload(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if a.watch {
		if err := a.startWatcher(ctx); err != nil {
			return err
		}
	}

	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting viewer loop")
	for {
		start := time.Now()

		// 1. Process input
		if a.input.Update() {
			return nil
		}
		shot := false
		for _, event := range a.input.Events() {
			switch a.handle(event) {
			case viewer.ActionQuit:
				return nil
			case viewer.ActionScreenshot:
				shot = true
			}
		}

		// 2. File changes
		select {
		case <-a.changed:
			if err := a.reload(ctx); err != nil {
				a.log.Warn("reload failed, keeping previous content", zap.Error(err))
			}
		case err := <-a.stopped:
			if errors.Is(err, preview.ErrRemoved) {
				a.log.Info("closing", zap.Error(err))
				return nil
			}
			return err
		case <-ctx.Done():
			return nil
		default:
		}

		// 3. Render
		a.updateTitle()
		a.renderer.Draw(a.viewer.Scene, a.viewer.Camera)
		if shot {
			a.screenshot()
		}

		// 4. Present (swap buffers)
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
		if !a.cfg.Window.VSync {
			if rest := frameTime - time.Since(start); rest > 0 {
				time.Sleep(rest)
			}
		}
	}
}

// handle routes one input event to the viewer.
func (a *App) handle(event input.Event) viewer.Action {
	switch event.Type {
	case input.EventWindowResize:
		a.renderer.Resize(a.window.DrawableSize())
		return viewer.ActionRedraw
	case input.EventKeyDown:
		return a.viewer.HandleKey(event.Rune)
	case input.EventMouseDown:
		a.viewer.PressButton(event.Button == input.ButtonLeft)
	case input.EventMouseUp:
		a.viewer.ReleaseButton(event.Button == input.ButtonLeft)
	case input.EventMouseMove:
		return a.viewer.HandleMotion(event.DeltaX, event.DeltaY)
	case input.EventMouseWheel:
		return a.viewer.HandleWheel(event.DeltaY)
	}
	return viewer.ActionNone
}

func (a *App) reload(ctx context.Context) error {
	data, err := a.source.Load(ctx)
	if err != nil {
		return err
	}
	if err := a.viewer.Load(ctx, data); err != nil {
		return err
	}
	a.renderer.Forget()
	a.log.Debug("loaded", zap.String("source", a.source.Name()), zap.Int("failures", a.viewer.Failures()))
	return nil
}

func (a *App) startWatcher(ctx context.Context) error {
	w, err := preview.NewWatcher(a.source.Paths()...)
	if err != nil {
		return err
	}
	go func() {
		defer w.Close()
		err := w.Run(ctx, func(path string) {
			a.log.Debug("file changed", zap.String("path", path))
			select {
			case a.changed <- struct{}{}:
			default:
			}
		})
		a.stopped <- err
	}()
	return nil
}

func (a *App) updateTitle() {
	title := a.viewer.Title(a.source.Name())
	if title != a.title {
		a.window.SetTitle(title)
		a.title = title
	}
}

func (a *App) screenshot() {
	w, h := a.renderer.Size()
	path, err := a.capture.SavePixels(a.renderer.ReadPixels(), w, h)
	if err != nil {
		a.log.Error("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases the renderer and the window.
func (a *App) Close() {
	a.log.Info("closing viewer")

	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
