package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"render-demo/config"
	"render-demo/core/window"
	"render-demo/game"
	"render-demo/internal/opengl"
	"render-demo/logger"
)

func main() {
	configPath := flag.String("config", "", "YAML settings file (defaults are used when empty)")
	contentRoot := flag.String("content", "", "content root directory (overrides content.root)")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	log, err := logger.New(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(*configPath, *contentRoot, log); err != nil {
		log.Error("demo failed", zap.Error(err))
		log.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(configPath, contentRoot string, log *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if contentRoot != "" {
		cfg.Content.Root = contentRoot
	}

	win, err := window.New(window.Config{
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Title:      cfg.Window.Title,
		Resizable:  cfg.Window.Resizable,
		VSync:      cfg.Window.VSync,
		Fullscreen: cfg.Window.Fullscreen,
	})
	if err != nil {
		return err
	}
	defer win.Destroy()

	fbW, fbH := win.GetFramebufferSize()
	device, err := opengl.NewDevice(fbW, fbH, log)
	if err != nil {
		return err
	}
	defer device.Destroy()

	g := game.New(cfg, device, log)
	if err := g.Load(); err != nil {
		return fmt.Errorf("load content from %q: %w", cfg.Content.Root, err)
	}
	defer g.Destroy()

	win.OnResize(func(width, height int) {
		device.SetBackBufferSize(width, height)
		if err := g.Resize(width, height); err != nil {
			log.Error("resize failed", zap.Error(err))
		}
	})

	log.Info("controls: P toggles post-processing, F12 saves a screenshot, Esc quits")

	// Debounce state for toggle keys
	postKeyWasDown := false
	shotKeyWasDown := false

	start := time.Now()
	last := start
	titleAt := start

	for !win.ShouldClose() {
		win.PollEvents()

		if win.IsKeyPressed(window.KeyEscape) {
			win.Close()
			continue
		}

		pDown := win.IsKeyPressed(window.KeyP)
		if pDown && !postKeyWasDown {
			g.TogglePostProcess()
		}
		postKeyWasDown = pDown

		now := time.Now()
		if err := g.Update(now.Sub(start), now.Sub(last)); err != nil {
			return fmt.Errorf("update: %w", err)
		}
		last = now

		if err := g.Draw(); err != nil {
			return fmt.Errorf("draw: %w", err)
		}

		// Read back before the swap so the image matches what is shown.
		f12Down := win.IsKeyPressed(window.KeyF12)
		if f12Down && !shotKeyWasDown {
			if _, err := g.Screenshot(cfg.Render.ScreenshotDir, now); err != nil {
				log.Warn("screenshot failed", zap.Error(err))
			}
		}
		shotKeyWasDown = f12Down

		win.SwapBuffers()

		if now.Sub(titleAt) >= time.Second {
			win.SetTitle(g.Title())
			titleAt = now
		}
	}

	log.Info("exiting")
	return nil
}
