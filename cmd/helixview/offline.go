package main

import (
	"image/png"
	"os"

	"github.com/pkg/errors"

	"github.com/helixview/helixview/internal/config"
	"github.com/helixview/helixview/internal/gcode"
	"github.com/helixview/helixview/internal/render/viewer"
)

// renderToPNG renders a single frame without opening a window and writes
// it to path. The render mode from the config selects the pipeline.
func renderToPNG(cfg *config.Config, file *gcode.File, path string) error {
	buf, err := renderFrame(cfg, file)
	if err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer out.Close()

	if err := png.Encode(out, buf.Image()); err != nil {
		return errors.Wrap(err, "encoding png")
	}
	return nil
}

func renderFrame(cfg *config.Config, file *gcode.File) (*viewer.DrawBuffer, error) {
	if cfg.Graphics.Mode == config.Mode2D {
		return viewer.New2D(cfg).Render(file)
	}

	r := viewer.New(cfg)
	defer r.Close()
	r.SetGCodeFile(file)
	if config.ShowOverlay() {
		r.SetShowOverlay(true)
	}
	if err := r.Render(); err != nil {
		return nil, err
	}
	buf := r.DrawBuffer()
	if buf == nil {
		return nil, errors.New("renderer produced no frame")
	}
	return buf, nil
}
