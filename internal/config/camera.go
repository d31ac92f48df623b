package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCameraSpec parses a camera override of the form
// "az:90.5,el:4.0,zoom:15.5". Keys may appear in any order; all three are
// required.
func ParseCameraSpec(spec string) (Camera, error) {
	cam := Camera{Zoom: 1.0}
	seen := map[string]bool{}

	for _, part := range strings.Split(spec, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return Camera{}, fmt.Errorf("camera spec %q: missing ':' in %q", spec, part)
		}
		f, err := strconv.ParseFloat(val, 32)
		if err != nil {
			return Camera{}, fmt.Errorf("camera spec %q: bad value %q", spec, val)
		}
		switch key {
		case "az":
			cam.Azimuth = float32(f)
		case "el":
			cam.Elevation = float32(f)
		case "zoom":
			cam.Zoom = float32(f)
		default:
			return Camera{}, fmt.Errorf("camera spec %q: unknown key %q", spec, key)
		}
		seen[key] = true
	}

	if !seen["az"] || !seen["el"] || !seen["zoom"] {
		return Camera{}, fmt.Errorf("camera spec %q: need az, el and zoom", spec)
	}
	cam.Set = true
	return cam, nil
}
