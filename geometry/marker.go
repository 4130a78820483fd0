package geometry

import "fmt"

// Marker describes the arrowhead drawn at the end of every edge path
type Marker struct {
	ID      string
	ViewBox string
	RefX    float64
	RefY    float64
	Width   float64
	Height  float64
	Orient  string
	Path    string
}

// ArrowMarker returns the shared arrowhead. It is anchored a little before
// the path end so the tip clears the node image, and it follows the path
// tangent.
func ArrowMarker(width, height float64) Marker {
	if width <= 0 {
		width = 6
	}
	if height <= 0 {
		height = 6
	}
	return Marker{
		ID:      "arrow",
		ViewBox: "0 -5 10 10",
		RefX:    15,
		RefY:    -0.5,
		Width:   width,
		Height:  height,
		Orient:  "auto",
		Path:    "M0,-5L10,0L0,5",
	}
}

// URL is the reference used in a marker-end attribute
func (m Marker) URL() string {
	return fmt.Sprintf("url(#%s)", m.ID)
}
