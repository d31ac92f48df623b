// Package gcode holds the parsed G-code object model: layers of toolpath
// segments, per-object metadata and bounding volumes.
package gcode

import (
	stdmath "math"

	"github.com/helixview/helixview/pkg/math"
)

// AABB is an axis-aligned bounding box. The zero value from NewAABB is empty
// (min at +Inf, max at -Inf) and grows as points are added.
type AABB struct {
	Min, Max math.Vec3
}

// NewAABB returns an empty bounding box.
func NewAABB() AABB {
	inf := float32(stdmath.Inf(1))
	return AABB{
		Min: math.Vec3{X: inf, Y: inf, Z: inf},
		Max: math.Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmpty reports whether no point has been added yet.
func (b AABB) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Expand grows the box to contain p.
func (b *AABB) Expand(p math.Vec3) {
	if p.X < b.Min.X {
		b.Min.X = p.X
	}
	if p.Y < b.Min.Y {
		b.Min.Y = p.Y
	}
	if p.Z < b.Min.Z {
		b.Min.Z = p.Z
	}
	if p.X > b.Max.X {
		b.Max.X = p.X
	}
	if p.Y > b.Max.Y {
		b.Max.Y = p.Y
	}
	if p.Z > b.Max.Z {
		b.Max.Z = p.Z
	}
}

// ExpandBox grows the box to contain another box.
func (b *AABB) ExpandBox(other AABB) {
	if other.IsEmpty() {
		return
	}
	b.Expand(other.Min)
	b.Expand(other.Max)
}

// Pad grows the box by margin on every side. Empty boxes stay empty.
func (b *AABB) Pad(margin float32) {
	if b.IsEmpty() {
		return
	}
	m := math.Vec3{X: margin, Y: margin, Z: margin}
	b.Min = b.Min.Sub(m)
	b.Max = b.Max.Add(m)
}

// Center returns the box center, or the zero vector for an empty box.
func (b AABB) Center() math.Vec3 {
	if b.IsEmpty() {
		return math.Vec3{}
	}
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extents, or the zero vector for an empty box.
func (b AABB) Size() math.Vec3 {
	if b.IsEmpty() {
		return math.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// MaxExtent returns the largest axis extent.
func (b AABB) MaxExtent() float32 {
	s := b.Size()
	m := s.X
	if s.Y > m {
		m = s.Y
	}
	if s.Z > m {
		m = s.Z
	}
	return m
}

// ToolpathSegment is a single straight move of the nozzle.
type ToolpathSegment struct {
	Start, End      math.Vec3
	IsExtrusion     bool
	ExtrusionAmount float32 // filament consumed over this move, mm
	Width           float32 // track width, mm; 0 means slicer default
	Tool            int
	ObjectName      string // empty outside exclude-object regions
}

// Length returns the segment length in mm.
func (s ToolpathSegment) Length() float32 {
	return s.Start.Distance(s.End)
}

// Layer groups the segments printed at one Z height.
type Layer struct {
	Index    int
	ZHeight  float32
	Segments []ToolpathSegment
	Bounds   AABB
}

// ExtrusionCount returns the number of extrusion segments in the layer.
func (l *Layer) ExtrusionCount() int {
	n := 0
	for i := range l.Segments {
		if l.Segments[i].IsExtrusion {
			n++
		}
	}
	return n
}

// Object is a printable object announced via exclude-object metadata.
type Object struct {
	Name    string
	Center  math.Vec2
	Polygon []math.Vec2
	Bounds  AABB
}

// File is a fully parsed G-code file.
type File struct {
	Filename string
	Layers   []Layer
	Objects  map[string]Object
	Bounds   AABB

	// Slicer metadata harvested from header comments.
	SlicerName         string
	FilamentColorHex   string
	ExtrusionWidthMM   float32
	LayerHeightMM      float32
	FilamentDiameterMM float32
	ToolColors         []string
}

// SegmentCount returns the total number of segments across all layers.
func (f *File) SegmentCount() int {
	n := 0
	for i := range f.Layers {
		n += len(f.Layers[i].Segments)
	}
	return n
}

// ClearSegments drops per-layer segment data while keeping layer heights,
// objects and metadata. Used to release memory once geometry is built.
func (f *File) ClearSegments() {
	for i := range f.Layers {
		f.Layers[i].Segments = nil
	}
}
