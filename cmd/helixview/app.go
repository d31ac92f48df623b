package main

import (
	"runtime"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/helixview/helixview/internal/config"
	"github.com/helixview/helixview/internal/gcode"
	"github.com/helixview/helixview/internal/logger"
	"github.com/helixview/helixview/internal/render/viewer"
)

func init() {
	// SDL event handling must stay on the main thread
	runtime.LockOSThread()
}

const frameDelayMS = 16

// app owns the SDL window and drives the interactive render loop. Frames
// come from the software renderer and reach the screen through a
// streaming texture.
type app struct {
	cfg *config.Config

	window      *sdl.Window
	sdlRenderer *sdl.Renderer
	texture     *sdl.Texture
	texW        int
	texH        int

	view   *viewer.Renderer
	view2D *viewer.Renderer2D
	file   *gcode.File
	frame  *viewer.DrawBuffer

	dragging bool
}

func newApp(cfg *config.Config, file *gcode.File) (*app, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "SDL_Init")
	}

	window, err := sdl.CreateWindow(
		"HelixView",
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Graphics.Width),
		int32(cfg.Graphics.Height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE,
	)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "SDL_CreateWindow")
	}

	sdlRenderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, errors.Wrap(err, "SDL_CreateRenderer")
	}

	a := &app{
		cfg:         cfg,
		window:      window,
		sdlRenderer: sdlRenderer,
		file:        file,
	}

	if cfg.Graphics.Mode == config.Mode2D {
		a.view2D = viewer.New2D(cfg)
	} else {
		a.view = viewer.New(cfg)
		a.view.SetGCodeFile(file)
		if config.ShowOverlay() {
			a.view.SetShowOverlay(true)
		}
	}

	logger.Info("viewer window created",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("mode", string(cfg.Graphics.Mode)))
	return a, nil
}

// Run pumps SDL events and renders frames until quit.
func (a *app) Run() error {
	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			if quit := a.handleEvent(event); quit {
				return nil
			}
		}
		if err := a.renderFrame(); err != nil {
			return err
		}
		sdl.Delay(frameDelayMS)
	}
}

func (a *app) handleEvent(event sdl.Event) bool {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return true

	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
			return true
		}

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED && a.view != nil {
			a.view.SetViewportSize(int(e.Data1), int(e.Data2))
		}

	case *sdl.MouseButtonEvent:
		if e.Button == sdl.BUTTON_LEFT {
			a.dragging = e.Type == sdl.MOUSEBUTTONDOWN
		}

	case *sdl.MouseMotionEvent:
		if a.dragging && a.view != nil {
			a.view.Camera().Rotate(float32(e.XRel), float32(e.YRel))
		}

	case *sdl.MouseWheelEvent:
		if a.view != nil {
			a.view.Camera().ZoomBy(float32(e.Y))
		}
	}
	return false
}

func (a *app) renderFrame() error {
	if a.view2D != nil {
		// The 2D projection is static; render it once.
		if a.frame == nil {
			buf, err := a.view2D.Render(a.file)
			if err != nil {
				return err
			}
			a.frame = buf
		}
	} else {
		if err := a.view.Render(); err != nil {
			return err
		}
		a.frame = a.view.DrawBuffer()
	}
	if a.frame == nil {
		// Raster init failed; keep the window alive so the error stays visible.
		return nil
	}
	return a.present(a.frame)
}

// present uploads the frame into the streaming texture and flips it to
// the window. The texture is recreated when the frame size changes.
func (a *app) present(buf *viewer.DrawBuffer) error {
	if a.texture == nil || a.texW != buf.Width || a.texH != buf.Height {
		if a.texture != nil {
			a.texture.Destroy()
		}
		tex, err := a.sdlRenderer.CreateTexture(
			sdl.PIXELFORMAT_ABGR8888,
			sdl.TEXTUREACCESS_STREAMING,
			int32(buf.Width),
			int32(buf.Height),
		)
		if err != nil {
			return errors.Wrap(err, "SDL_CreateTexture")
		}
		a.texture = tex
		a.texW = buf.Width
		a.texH = buf.Height
	}

	if err := a.texture.Update(nil, buf.Pix, buf.Width*4); err != nil {
		return errors.Wrap(err, "SDL_UpdateTexture")
	}
	if err := a.sdlRenderer.Clear(); err != nil {
		return errors.Wrap(err, "SDL_RenderClear")
	}
	dst := sdl.Rect{W: int32(buf.Width), H: int32(buf.Height)}
	if err := a.sdlRenderer.Copy(a.texture, nil, &dst); err != nil {
		return errors.Wrap(err, "SDL_RenderCopy")
	}
	a.sdlRenderer.Present()
	return nil
}

// Close tears down SDL resources in reverse creation order.
func (a *app) Close() {
	if a.view != nil {
		a.view.Close()
	}
	if a.texture != nil {
		a.texture.Destroy()
	}
	if a.sdlRenderer != nil {
		a.sdlRenderer.Destroy()
	}
	if a.window != nil {
		a.window.Destroy()
	}
	sdl.Quit()
}
