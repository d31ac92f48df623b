package viewer

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/helixview/helixview/internal/config"
	"github.com/helixview/helixview/internal/gcode"
	"github.com/helixview/helixview/internal/logger"
	"github.com/helixview/helixview/internal/render/geometry"
)

// 2D rendering tunables. Lower layers fade toward the background so the
// top of the print stays readable in a flat projection.
const (
	margin2D   = 10 // pixels kept clear around the model
	minOpacity = 0.25
)

// Renderer2D draws a top-down line projection of the toolpath. It is the
// fallback pipeline for hosts where the 3D renderer is too slow, selected
// with the 2d render mode.
type Renderer2D struct {
	width       int
	height      int
	background  uint32
	showTravels bool
	travelColor uint32
}

// New2D builds a 2D renderer configured from cfg.
func New2D(cfg *config.Config) *Renderer2D {
	return &Renderer2D{
		width:       cfg.Graphics.Width,
		height:      cfg.Graphics.Height,
		background:  defaultBackground,
		showTravels: cfg.Render.ShowTravels,
		travelColor: 0x505050,
	}
}

// SetShowTravels toggles travel moves in the projection.
func (r *Renderer2D) SetShowTravels(on bool) { r.showTravels = on }

// Render projects every layer into a fresh draw buffer. Segments are
// colored by the height ramp and faded quadratically with depth, so
// recent layers dominate.
func (r *Renderer2D) Render(file *gcode.File) (*DrawBuffer, error) {
	if file == nil {
		return nil, errors.New("viewer: no g-code file loaded")
	}
	if r.width <= 0 || r.height <= 0 {
		return nil, errors.Errorf("viewer: bad viewport %dx%d", r.width, r.height)
	}

	buf := newDrawBuffer(r.width, r.height)
	fillBuffer(buf, r.background)

	if file.Bounds.IsEmpty() {
		logger.Warn("2d render of empty toolpath", zap.String("file", file.Filename))
		return buf, nil
	}

	// Isotropic fit of the XY bounds into the viewport, Y up.
	size := file.Bounds.Size()
	availW := float32(r.width - 2*margin2D)
	availH := float32(r.height - 2*margin2D)
	scale := float32(0)
	if size.X > 0 {
		scale = availW / size.X
	}
	if size.Y > 0 {
		if sy := availH / size.Y; scale == 0 || sy < scale {
			scale = sy
		}
	}
	if scale <= 0 {
		scale = 1
	}
	cx := (file.Bounds.Min.X + file.Bounds.Max.X) * 0.5
	cy := (file.Bounds.Min.Y + file.Bounds.Max.Y) * 0.5

	toScreen := func(x, y float32) (int, int) {
		sx := (x-cx)*scale + float32(r.width)*0.5
		sy := float32(r.height)*0.5 - (y-cy)*scale
		return int(sx + 0.5), int(sy + 0.5)
	}

	zMin := file.Bounds.Min.Z
	zMax := file.Bounds.Max.Z
	total := len(file.Layers)
	for i := range file.Layers {
		layer := &file.Layers[i]
		// Quadratic fade: layer 0 draws at minOpacity, the top layer at 1.
		t := float32(1)
		if total > 1 {
			t = float32(i) / float32(total-1)
		}
		alpha := minOpacity + (1-minOpacity)*t*t
		color := geometry.HeightColor(layer.ZHeight, zMin, zMax)

		for j := range layer.Segments {
			seg := &layer.Segments[j]
			c := color
			if !seg.IsExtrusion {
				if !r.showTravels {
					continue
				}
				c = r.travelColor
			}
			x0, y0 := toScreen(seg.Start.X, seg.Start.Y)
			x1, y1 := toScreen(seg.End.X, seg.End.Y)
			drawLine2D(buf, x0, y0, x1, y1, c, alpha)
		}
	}
	return buf, nil
}

func fillBuffer(buf *DrawBuffer, rgb uint32) {
	r := byte(rgb >> 16)
	g := byte(rgb >> 8)
	b := byte(rgb)
	for o := 0; o < len(buf.Pix); o += 4 {
		buf.Pix[o+0] = r
		buf.Pix[o+1] = g
		buf.Pix[o+2] = b
		buf.Pix[o+3] = 0xFF
	}
}

// drawLine2D draws a Bresenham line with alpha blending against what is
// already in the buffer. Out-of-viewport pixels are clipped per pixel.
func drawLine2D(buf *DrawBuffer, x0, y0, x1, y1 int, rgb uint32, alpha float32) {
	if alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}
	// Reject lines fully outside the viewport.
	if (x0 < 0 && x1 < 0) || (x0 >= buf.Width && x1 >= buf.Width) ||
		(y0 < 0 && y1 < 0) || (y0 >= buf.Height && y1 >= buf.Height) {
		return
	}

	sr := float32(rgb>>16&0xFF) * alpha
	sg := float32(rgb>>8&0xFF) * alpha
	sb := float32(rgb&0xFF) * alpha
	inv := 1 - alpha

	dx := absInt2D(x1 - x0)
	dy := -absInt2D(y1 - y0)
	stepX := 1
	if x0 > x1 {
		stepX = -1
	}
	stepY := 1
	if y0 > y1 {
		stepY = -1
	}
	errTerm := dx + dy

	for {
		if x0 >= 0 && x0 < buf.Width && y0 >= 0 && y0 < buf.Height {
			o := (y0*buf.Width + x0) * 4
			buf.Pix[o+0] = byte(sr + float32(buf.Pix[o+0])*inv)
			buf.Pix[o+1] = byte(sg + float32(buf.Pix[o+1])*inv)
			buf.Pix[o+2] = byte(sb + float32(buf.Pix[o+2])*inv)
			buf.Pix[o+3] = 0xFF
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errTerm
		if e2 >= dy {
			errTerm += dy
			x0 += stepX
		}
		if e2 <= dx {
			errTerm += dx
			y0 += stepY
		}
	}
}

func absInt2D(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
