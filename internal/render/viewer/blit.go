package viewer

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawBuffer holds the RGBA output of a render pass, ready for display
// or encoding. It is recreated whenever the viewport size changes.
type DrawBuffer struct {
	Width  int
	Height int
	Pix    []byte // RGBA, 4 bytes per pixel, row-major
}

func newDrawBuffer(w, h int) *DrawBuffer {
	return &DrawBuffer{Width: w, Height: h, Pix: make([]byte, w*h*4)}
}

// blitABGR converts the rasterizer's packed ABGR pixels into the RGBA
// byte layout expected by SDL textures and image encoders.
func (b *DrawBuffer) blitABGR(pixels []uint32) {
	n := len(pixels)
	if n > b.Width*b.Height {
		n = b.Width * b.Height
	}
	for i := 0; i < n; i++ {
		px := pixels[i]
		o := i * 4
		b.Pix[o+0] = byte(px)       // r
		b.Pix[o+1] = byte(px >> 8)  // g
		b.Pix[o+2] = byte(px >> 16) // b
		b.Pix[o+3] = 0xFF
	}
}

// Image wraps the buffer in an image.RGBA without copying.
func (b *DrawBuffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// drawOverlay renders the camera readout into the top-left corner.
func (b *DrawBuffer) drawOverlay(azimuth, elevation, zoom float32) {
	text := fmt.Sprintf("az=%.1f el=%.1f zoom=%.2f", azimuth, elevation, zoom)
	d := font.Drawer{
		Dst:  b.Image(),
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, 14),
	}
	d.DrawString(text)
}
