package geometry

import (
	"github.com/helixview/helixview/internal/gcode"
	"github.com/helixview/helixview/pkg/math"
)

// SimplificationOptions controls collinear segment merging before geometry
// generation.
type SimplificationOptions struct {
	// ToleranceMM is the maximum point-to-line deviation allowed when
	// merging a chain of segments.
	ToleranceMM float32

	// MinSegmentLengthMM drops segments shorter than this after merging.
	MinSegmentLengthMM float32

	EnableMerging bool
}

// DefaultSimplification returns the options used by the viewer unless
// overridden.
func DefaultSimplification() SimplificationOptions {
	return SimplificationOptions{
		ToleranceMM:        0.15,
		MinSegmentLengthMM: 0.01,
		EnableMerging:      true,
	}
}

// Validate clamps out-of-range values to usable ones.
func (o *SimplificationOptions) Validate() {
	if o.ToleranceMM < 0.01 {
		o.ToleranceMM = 0.01
	}
	if o.ToleranceMM > 5.0 {
		o.ToleranceMM = 5.0
	}
	if o.MinSegmentLengthMM < 0.0001 {
		o.MinSegmentLengthMM = 0.0001
	}
}

// endpoint connection threshold, squared mm
const connectEpsilonSq = 0.0001

// simplifySegments merges runs of collinear segments of the same move type
// and object into single longer segments.
func simplifySegments(segments []gcode.ToolpathSegment, opts SimplificationOptions) []gcode.ToolpathSegment {
	if len(segments) == 0 {
		return nil
	}

	simplified := make([]gcode.ToolpathSegment, 0, len(segments))
	current := segments[0]

	for i := 1; i < len(segments); i++ {
		next := segments[i]

		sameType := current.IsExtrusion == next.IsExtrusion
		connects := current.End.DistanceSq(next.Start) < connectEpsilonSq
		sameObject := current.ObjectName == next.ObjectName

		if sameType && connects && sameObject &&
			areCollinear(current.Start, current.End, next.End, opts.ToleranceMM) {
			current.End = next.End
			current.ExtrusionAmount += next.ExtrusionAmount
			continue
		}

		simplified = append(simplified, current)
		current = next
	}
	simplified = append(simplified, current)

	return simplified
}

// areCollinear reports whether p3 lies within tolerance of the line through
// p1 and p2. Degenerate spans count as collinear.
func areCollinear(p1, p2, p3 math.Vec3, tolerance float32) bool {
	v1 := p2.Sub(p1)
	v2 := p3.Sub(p1)

	len1Sq := v1.LengthSq()
	len2Sq := v2.LengthSq()
	if len1Sq < 1e-8 || len2Sq < 1e-8 {
		return true
	}

	// Point-to-line distance = |v1 x v2| / |v1|.
	cross := v1.Cross(v2)
	distance := cross.Length() / v1.Length()

	return distance <= tolerance
}
