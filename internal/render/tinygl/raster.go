package tinygl

import (
	stdmath "math"

	"github.com/helixview/helixview/pkg/math"
)

// screenVertex is a vertex after projection: pixel coordinates, depth and a
// lit color ready for interpolation.
type screenVertex struct {
	x, y    float32
	z       float32 // depth after perspective divide, smaller is closer
	r, g, b float32
}

const nearW = 0.001

// project transforms a world-space point into screen space. ok is false when
// the point is behind the camera.
func (c *Context) project(p math.Vec3) (screenVertex, bool) {
	clip := c.mvp.MulVec4(math.Vec4{p.X, p.Y, p.Z, 1})
	if clip[3] < nearW {
		return screenVertex{}, false
	}

	inv := 1 / clip[3]
	ndcX := clip[0] * inv
	ndcY := clip[1] * inv
	ndcZ := clip[2] * inv

	return screenVertex{
		x: (ndcX + 1) * 0.5 * float32(c.width),
		y: (1 - ndcY) * 0.5 * float32(c.height),
		z: ndcZ,
	}, true
}

// DrawStrip rasterizes a triangle strip: vertices 012, 132, 243... with the
// usual parity flip to keep winding consistent. Each vertex is lit once;
// triangles interpolate the lit colors.
func (c *Context) DrawStrip(verts []StripVertex) {
	if c.pixels == nil || len(verts) < 3 {
		return
	}

	projected := make([]screenVertex, len(verts))
	visible := make([]bool, len(verts))
	for i, v := range verts {
		sv, ok := c.project(v.Position)
		if ok {
			sv.r, sv.g, sv.b = c.shade(v.Position, v.Normal, v.Color)
		}
		projected[i] = sv
		visible[i] = ok
	}

	for i := 2; i < len(verts); i++ {
		a, b, t := i-2, i-1, i
		if i%2 == 1 {
			a, b = b, a
		}
		if !visible[a] || !visible[b] || !visible[t] {
			continue
		}
		c.fillTriangle(projected[a], projected[b], projected[t])
	}
}

// fillTriangle scans the bounding box of a screen triangle with barycentric
// weights, z-testing each pixel.
func (c *Context) fillTriangle(v0, v1, v2 screenVertex) {
	// Signed doubled area; counter-clockwise is front facing.
	area := (v1.x-v0.x)*(v2.y-v0.y) - (v2.x-v0.x)*(v1.y-v0.y)
	if area == 0 {
		return
	}
	if c.cullBackfaces && area > 0 {
		// Screen Y grows downward, so CCW world winding shows up with
		// negative area here.
		return
	}

	minX := clampInt(int(minf(v0.x, v1.x, v2.x)), 0, c.width-1)
	maxX := clampInt(int(maxf(v0.x, v1.x, v2.x))+1, 0, c.width-1)
	minY := clampInt(int(minf(v0.y, v1.y, v2.y)), 0, c.height-1)
	maxY := clampInt(int(maxf(v0.y, v1.y, v2.y))+1, 0, c.height-1)

	invArea := 1 / area

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			py := float32(y) + 0.5

			w0 := ((v1.x-px)*(v2.y-py) - (v2.x-px)*(v1.y-py)) * invArea
			w1 := ((v2.x-px)*(v0.y-py) - (v0.x-px)*(v2.y-py)) * invArea
			w2 := 1 - w0 - w1

			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*v0.z + w1*v1.z + w2*v2.z
			idx := y*c.width + x
			if z >= c.depth[idx] {
				continue
			}
			c.depth[idx] = z

			r := w0*v0.r + w1*v1.r + w2*v2.r
			g := w0*v0.g + w1*v1.g + w2*v2.g
			b := w0*v0.b + w1*v1.b + w2*v2.b
			c.pixels[idx] = packABGR(packRGB(r, g, b))
		}
	}
}

// lineDepthBias pulls lines slightly toward the viewer so wireframes win
// depth ties against the surfaces they outline.
const lineDepthBias = 0.002

// DrawLine3D draws a depth-tested line between two world-space points.
func (c *Context) DrawLine3D(from, to math.Vec3, rgb uint32) {
	if c.pixels == nil {
		return
	}
	a, okA := c.project(from)
	b, okB := c.project(to)
	if !okA || !okB {
		return
	}

	packed := packABGR(rgb)

	x0, y0 := int(a.x), int(a.y)
	x1, y1 := int(b.x), int(b.y)

	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	steps := dx
	if -dy > steps {
		steps = -dy
	}
	if steps == 0 {
		steps = 1
	}
	total := float32(steps)
	step := 0

	for {
		t := float32(step) / total
		z := a.z + (b.z-a.z)*t - lineDepthBias

		if x0 >= 0 && x0 < c.width && y0 >= 0 && y0 < c.height {
			idx := y0*c.width + x0
			if z < c.depth[idx] {
				c.depth[idx] = z
				c.pixels[idx] = packed
			}
		}

		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
		step++
	}
}

// shade computes the lit color for one vertex: ambient plus per-light
// Lambert diffuse, with a Blinn specular term on lights that carry one.
// Emissive mode returns the color untouched.
func (c *Context) shade(pos, normal math.Vec3, rgb uint32) (r, g, b float32) {
	baseR := float32(rgb >> 16 & 0xFF)
	baseG := float32(rgb >> 8 & 0xFF)
	baseB := float32(rgb & 0xFF)

	if c.emissive {
		return baseR, baseG, baseB
	}

	var intensity, specular float32
	viewDir := c.eye.Sub(pos).Normalize()

	for _, light := range c.lights {
		intensity += light.ambient

		ndotl := normal.Dot(light.dir)
		if ndotl < 0 {
			// Vertex normals can face away from a light that still
			// grazes the surface; two-sided ribbons read better
			// with symmetric diffuse.
			ndotl = -ndotl
		}
		intensity += light.diffuse * ndotl

		if light.specular && c.specularIntensity > 0 {
			half := light.dir.Add(viewDir).Normalize()
			ndoth := normal.Dot(half)
			if ndoth > 0 {
				specular += c.specularIntensity *
					float32(stdmath.Pow(float64(ndoth), float64(c.shininess)))
			}
		}
	}

	if intensity > 1 {
		intensity = 1
	}

	return baseR*intensity + 255*specular,
		baseG*intensity + 255*specular,
		baseB*intensity + 255*specular
}

func packRGB(r, g, b float32) uint32 {
	return clampChannel(r)<<16 | clampChannel(g)<<8 | clampChannel(b)
}

func clampChannel(v float32) uint32 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint32(v)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minf(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func maxf(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
