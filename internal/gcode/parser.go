package gcode

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/helixview/helixview/internal/logger"
	"github.com/helixview/helixview/pkg/math"
)

// parserState tracks machine state while streaming through a file.
type parserState struct {
	pos       math.Vec3
	e         float32
	absolute  bool // G90/G91 for XYZ
	absoluteE bool // M82/M83
	tool      int
	object    string // current exclude-object region
	hasMoved  bool
}

// ParseFile opens and parses a G-code file.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open gcode %s", path)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads G-code from r line by line and builds the object model.
// Only linear moves are handled; arcs are expected to be pre-segmented by the
// slicer or firmware.
func Parse(r io.Reader, filename string) (*File, error) {
	file := &File{
		Filename: filename,
		Objects:  map[string]Object{},
		Bounds:   NewAABB(),
	}
	st := parserState{absolute: true, absoluteE: true}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		code, comment := splitComment(line)
		if comment != "" {
			parseComment(file, &st, comment)
		}
		if code == "" {
			continue
		}
		parseCommand(file, &st, code)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read gcode %s (line %d)", filename, lineNo)
	}

	finalize(file)

	logger.Log.Info("parsed gcode",
		zap.String("file", filename),
		zap.Int("layers", len(file.Layers)),
		zap.Int("segments", file.SegmentCount()),
		zap.Int("objects", len(file.Objects)))

	return file, nil
}

// splitComment separates executable code from the trailing comment.
func splitComment(line string) (code, comment string) {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:])
	}
	return strings.TrimSpace(line), ""
}

func parseCommand(file *File, st *parserState, code string) {
	fields := strings.Fields(code)
	if len(fields) == 0 {
		return
	}
	cmd := strings.ToUpper(fields[0])

	switch cmd {
	case "G0", "G1":
		applyMove(file, st, fields[1:])
	case "G90":
		st.absolute = true
		st.absoluteE = true
	case "G91":
		st.absolute = false
		st.absoluteE = false
	case "G92":
		for _, w := range fields[1:] {
			axis, val, ok := axisWord(w)
			if !ok {
				continue
			}
			switch axis {
			case 'X':
				st.pos.X = val
			case 'Y':
				st.pos.Y = val
			case 'Z':
				st.pos.Z = val
			case 'E':
				st.e = val
			}
		}
	case "M82":
		st.absoluteE = true
	case "M83":
		st.absoluteE = false
	case "EXCLUDE_OBJECT_DEFINE":
		defineObject(file, fields[1:])
	case "EXCLUDE_OBJECT_START":
		st.object = namedParam(fields[1:], "NAME")
	case "EXCLUDE_OBJECT_END":
		st.object = ""
	default:
		if len(cmd) >= 2 && cmd[0] == 'T' {
			if n, err := strconv.Atoi(cmd[1:]); err == nil {
				st.tool = n
			}
		}
	}
}

func applyMove(file *File, st *parserState, words []string) {
	next := st.pos
	nextE := st.e
	sawE := false

	for _, w := range words {
		axis, val, ok := axisWord(w)
		if !ok {
			continue
		}
		switch axis {
		case 'X':
			if st.absolute {
				next.X = val
			} else {
				next.X += val
			}
		case 'Y':
			if st.absolute {
				next.Y = val
			} else {
				next.Y += val
			}
		case 'Z':
			if st.absolute {
				next.Z = val
			} else {
				next.Z += val
			}
		case 'E':
			sawE = true
			if st.absoluteE {
				nextE = val
			} else {
				nextE = st.e + val
			}
		}
	}

	deltaE := nextE - st.e
	moved := next != st.pos

	// First positioning move establishes the start point only.
	if !st.hasMoved {
		st.hasMoved = true
		st.pos = next
		st.e = nextE
		return
	}

	if moved {
		seg := ToolpathSegment{
			Start:       st.pos,
			End:         next,
			IsExtrusion: sawE && deltaE > 0,
			Tool:        st.tool,
			ObjectName:  st.object,
		}
		if seg.IsExtrusion {
			seg.ExtrusionAmount = deltaE
		}
		appendSegment(file, seg)
	}

	st.pos = next
	st.e = nextE
}

// appendSegment routes a segment into the layer at its end Z height,
// starting a new layer when an extrusion happens at a height not seen yet.
func appendSegment(file *File, seg ToolpathSegment) {
	z := seg.End.Z

	if seg.IsExtrusion {
		if len(file.Layers) == 0 || file.Layers[len(file.Layers)-1].ZHeight != z {
			file.Layers = append(file.Layers, Layer{
				Index:   len(file.Layers),
				ZHeight: z,
				Bounds:  NewAABB(),
			})
		}
	} else if len(file.Layers) == 0 {
		// Travel before any extrusion; park it in a layer at the current Z.
		file.Layers = append(file.Layers, Layer{
			Index:   0,
			ZHeight: z,
			Bounds:  NewAABB(),
		})
	}

	layer := &file.Layers[len(file.Layers)-1]
	layer.Segments = append(layer.Segments, seg)

	if seg.IsExtrusion {
		layer.Bounds.Expand(seg.Start)
		layer.Bounds.Expand(seg.End)
		file.Bounds.Expand(seg.Start)
		file.Bounds.Expand(seg.End)

		if seg.ObjectName != "" {
			obj := file.Objects[seg.ObjectName]
			if obj.Name == "" {
				obj.Name = seg.ObjectName
				obj.Bounds = NewAABB()
			}
			obj.Bounds.Expand(seg.Start)
			obj.Bounds.Expand(seg.End)
			file.Objects[seg.ObjectName] = obj
		}
	}
}

// axisWord parses a word like "X12.5" into its letter and value.
func axisWord(w string) (byte, float32, bool) {
	if len(w) < 2 {
		return 0, 0, false
	}
	axis := w[0] &^ 0x20 // uppercase
	val, err := strconv.ParseFloat(w[1:], 32)
	if err != nil {
		return 0, 0, false
	}
	return axis, float32(val), true
}

// defineObject handles EXCLUDE_OBJECT_DEFINE NAME=.. CENTER=x,y POLYGON=[[..]].
func defineObject(file *File, params []string) {
	obj := Object{Bounds: NewAABB()}
	for _, p := range params {
		key, val, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		switch strings.ToUpper(key) {
		case "NAME":
			obj.Name = val
		case "CENTER":
			if c, ok := parseVec2(val); ok {
				obj.Center = c
			}
		case "POLYGON":
			obj.Polygon = parsePolygon(val)
		}
	}
	if obj.Name == "" {
		return
	}
	for _, p := range obj.Polygon {
		obj.Bounds.Expand(math.Vec3{X: p.X, Y: p.Y})
	}
	file.Objects[obj.Name] = obj
}

func parseVec2(s string) (math.Vec2, bool) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return math.Vec2{}, false
	}
	x, err1 := strconv.ParseFloat(strings.TrimSpace(xs), 32)
	y, err2 := strconv.ParseFloat(strings.TrimSpace(ys), 32)
	if err1 != nil || err2 != nil {
		return math.Vec2{}, false
	}
	return math.Vec2{X: float32(x), Y: float32(y)}, true
}

// parsePolygon parses "[[x,y],[x,y],...]".
func parsePolygon(s string) []math.Vec2 {
	s = strings.Trim(s, "[]")
	var pts []math.Vec2
	for _, pair := range strings.Split(s, "],[") {
		if v, ok := parseVec2(strings.Trim(pair, "[]")); ok {
			pts = append(pts, v)
		}
	}
	return pts
}

func namedParam(params []string, name string) string {
	for _, p := range params {
		key, val, ok := strings.Cut(p, "=")
		if ok && strings.EqualFold(key, name) {
			return val
		}
	}
	return ""
}

// parseComment harvests slicer metadata and exclude-object markers that some
// slicers emit in comment form.
func parseComment(file *File, st *parserState, comment string) {
	switch {
	case strings.HasPrefix(comment, "EXCLUDE_OBJECT_DEFINE"):
		defineObject(file, strings.Fields(comment)[1:])
		return
	case strings.HasPrefix(comment, "EXCLUDE_OBJECT_START"):
		st.object = namedParam(strings.Fields(comment)[1:], "NAME")
		return
	case strings.HasPrefix(comment, "EXCLUDE_OBJECT_END"):
		st.object = ""
		return
	}

	if strings.HasPrefix(comment, "generated by ") {
		file.SlicerName = strings.TrimPrefix(comment, "generated by ")
		return
	}

	key, val, ok := strings.Cut(comment, "=")
	if !ok {
		return
	}
	key = strings.TrimSpace(key)
	val = strings.TrimSpace(val)

	switch key {
	case "filament_colour", "filament_color", "extruder_colour":
		colors := strings.Split(val, ";")
		for i := range colors {
			colors[i] = strings.TrimSpace(colors[i])
		}
		if len(colors) > 0 && colors[0] != "" {
			file.FilamentColorHex = colors[0]
		}
		if len(colors) > 1 {
			file.ToolColors = colors
		}
	case "extrusion_width":
		if f, err := strconv.ParseFloat(val, 32); err == nil {
			file.ExtrusionWidthMM = float32(f)
		}
	case "layer_height":
		if f, err := strconv.ParseFloat(val, 32); err == nil {
			file.LayerHeightMM = float32(f)
		}
	case "filament_diameter":
		if f, err := strconv.ParseFloat(val, 32); err == nil {
			file.FilamentDiameterMM = float32(f)
		}
	}
}

// finalize fills metadata defaults after the stream ends.
func finalize(file *File) {
	if file.LayerHeightMM == 0 {
		file.LayerHeightMM = 0.2
	}
	if file.ExtrusionWidthMM == 0 {
		file.ExtrusionWidthMM = 0.4
	}
	if file.FilamentDiameterMM == 0 {
		file.FilamentDiameterMM = 1.75
	}
}
