package geometry

import (
	"time"

	"go.uber.org/zap"

	"github.com/helixview/helixview/internal/logger"
)

// BuildStats summarizes one geometry build.
type BuildStats struct {
	InputSegments       int
	OutputSegments      int
	SimplificationRatio float32 // fraction of segments removed by merging
	VerticesGenerated   int
	TrianglesGenerated  int
	MemoryBytes         int
	BuildDuration       time.Duration
}

// Log writes the build summary to the global logger.
func (s BuildStats) Log() {
	logger.Log.Info("geometry build stats",
		zap.Int("input_segments", s.InputSegments),
		zap.Int("output_segments", s.OutputSegments),
		zap.Float32("reduction_pct", s.SimplificationRatio*100),
		zap.Int("vertices", s.VerticesGenerated),
		zap.Int("triangles", s.TrianglesGenerated),
		zap.Int("memory_kb", s.MemoryBytes/1024),
		zap.Duration("duration", s.BuildDuration))

	if s.InputSegments > 0 {
		logger.Log.Debug("geometry build density",
			zap.Float32("bytes_per_segment", float32(s.MemoryBytes)/float32(s.InputSegments)))
	}
}
