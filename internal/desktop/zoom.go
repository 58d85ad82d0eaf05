package desktop

import "fmt"

// Zoom levels index a fixed factor table, the way desktop webviews step
// zoom. Level 0 is reserved so a zero value from a fresh state database
// reads as unset.
const (
	MinZoomLevel    = 1
	ActualSizeLevel = 3
	MaxZoomLevel    = 5
)

var zoomFactors = map[int]float64{
	1: 0.5,
	2: 0.75,
	3: 1.0,
	4: 1.25,
	5: 1.5,
}

// ClampZoom snaps a level into the valid range; unset falls back to
// actual size.
func ClampZoom(level int) int {
	if level == 0 {
		return ActualSizeLevel
	}
	if level < MinZoomLevel {
		return MinZoomLevel
	}
	if level > MaxZoomLevel {
		return MaxZoomLevel
	}
	return level
}

// ZoomFactor returns the CSS zoom factor for a level.
func ZoomFactor(level int) float64 {
	return zoomFactors[ClampZoom(level)]
}

// ZoomScript applies a zoom level to the current page.
func ZoomScript(level int) string {
	return fmt.Sprintf("document.documentElement.style.zoom = '%g';", ZoomFactor(level))
}
