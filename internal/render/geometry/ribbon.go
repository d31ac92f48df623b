package geometry

import "github.com/helixview/helixview/pkg/math"

// Vertex is one ribbon vertex: a quantized position plus palette indices.
// 10 bytes per vertex instead of 40 for a naive float layout.
type Vertex struct {
	Position    QuantizedVec3
	NormalIndex uint16
	ColorIndex  uint8
}

// RibbonGeometry is the built mesh for one G-code file. It is immutable once
// Build returns; the renderer only reads from it.
type RibbonGeometry struct {
	Vertices []Vertex

	// Strips holds triangle strip index records. Side faces are 4-index
	// strips (2 triangles); caps are 3-index strips (1 triangle each).
	Strips [][]uint32

	// NormalPalette holds deduplicated unit normals, addressed by
	// Vertex.NormalIndex.
	NormalPalette []math.Vec3

	// ColorPalette holds 0xRRGGBB colors, addressed by Vertex.ColorIndex.
	ColorPalette []uint32

	// Quant maps quantized positions back to model space at render time.
	Quant Quantization

	ExtrusionTriangles int
	TravelTriangles    int
}

// TriangleCount returns the total number of triangles across all strips.
func (g *RibbonGeometry) TriangleCount() int {
	n := 0
	for _, s := range g.Strips {
		if len(s) >= 3 {
			n += len(s) - 2
		}
	}
	return n
}

// IsEmpty reports whether the geometry has nothing to draw.
func (g *RibbonGeometry) IsEmpty() bool {
	return len(g.Strips) == 0
}

// MemoryUsage estimates the retained byte size of the mesh.
func (g *RibbonGeometry) MemoryUsage() int {
	const vertexBytes = 10 // 3*int16 + uint16 + uint8, padded
	bytes := len(g.Vertices) * vertexBytes
	for _, s := range g.Strips {
		bytes += len(s) * 4
	}
	bytes += len(g.NormalPalette) * 12
	bytes += len(g.ColorPalette) * 4
	return bytes
}
