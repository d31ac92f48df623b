package geometry

import (
	stdmath "math"
	"strconv"
	"strings"

	"github.com/helixview/helixview/internal/gcode"
)

// Face colors used when debug face coloring is enabled, to make tube
// orientation visible at a glance.
const (
	debugColorTop      = 0xFF0000 // red
	debugColorBottom   = 0x0000FF // blue
	debugColorLeft     = 0x00FF00 // green
	debugColorRight    = 0xFFFF00 // yellow
	debugColorStartCap = 0xFF00FF // magenta
	debugColorEndCap   = 0x00FFFF // cyan
)

const highlightBrightness = 1.8

// parseHexColor parses "#RRGGBB" or "RRGGBB" into 0xRRGGBB.
// Invalid input yields mid gray.
func parseHexColor(hex string) uint32 {
	s := strings.TrimPrefix(hex, "#")
	if len(s) < 6 {
		return 0x808080
	}
	v, err := strconv.ParseUint(s[:6], 16, 32)
	if err != nil {
		return 0x808080
	}
	return uint32(v)
}

// heightGradientColor maps a Z height to a rainbow ramp, blue at the bottom
// of the model through cyan, green and yellow to red at the top.
func heightGradientColor(z, zMin, zMax float32) uint32 {
	t := float32(0.5)
	if zMax > zMin {
		t = (z - zMin) / (zMax - zMin)
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	// HSV with S=V=1: hue runs 240 (blue) down to 0 (red).
	hue := (1 - t) * 240
	hPrime := hue / 60
	x := 1 - float32(stdmath.Abs(stdmath.Mod(float64(hPrime), 2)-1))

	var r, g, b float32
	switch {
	case hPrime < 1:
		r, g, b = 1, x, 0
	case hPrime < 2:
		r, g, b = x, 1, 0
	case hPrime < 3:
		r, g, b = 0, 1, x
	case hPrime < 4:
		r, g, b = 0, x, 1
	case hPrime < 5:
		r, g, b = x, 0, 1
	default:
		r, g, b = 1, 0, x
	}

	return uint32(r*255)<<16 | uint32(g*255)<<8 | uint32(b*255)
}

// HeightColor exposes the height ramp for callers outside the builder,
// such as the 2D layer renderer.
func HeightColor(z, zMin, zMax float32) uint32 {
	return heightGradientColor(z, zMin, zMax)
}

// segmentColor picks the base color for a segment. Priority: tool palette
// entry, then height gradient, then solid filament color.
func (b *Builder) segmentColor(seg *gcode.ToolpathSegment, zMin, zMax float32) uint32 {
	if len(b.toolColors) > 0 && seg.Tool >= 0 && seg.Tool < len(b.toolColors) {
		if hex := b.toolColors[seg.Tool]; hex != "" {
			return parseHexColor(hex)
		}
	}
	if b.useHeightGradient {
		midZ := (seg.Start.Z + seg.End.Z) * 0.5
		return heightGradientColor(midZ, zMin, zMax)
	}
	return b.filamentColor
}

// brighten scales each channel by highlightBrightness, saturating at 255.
func brighten(rgb uint32) uint32 {
	ch := func(v uint32) uint32 {
		f := float32(v) * highlightBrightness
		if f > 255 {
			f = 255
		}
		return uint32(f)
	}
	return ch(rgb>>16&0xFF)<<16 | ch(rgb>>8&0xFF)<<8 | ch(rgb&0xFF)
}
