package render

import (
	"encoding/json"
	"fmt"

	"github.com/TFMV/forcegraph/geometry"
)

// JSONRenderer outputs raw JSON format
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

// Description returns a description of the renderer
func (r *JSONRenderer) Description() string {
	return "Renders the current frame as JSON for the browser client or custom visualizations"
}

// FrameNode is one node of a JSON frame
type FrameNode struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	URL      string  `json:"url,omitempty"`
	ImageURL string  `json:"imageUrl,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pinned   bool    `json:"pinned,omitempty"`
}

// FrameEdge is one edge of a JSON frame
type FrameEdge struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Label  string  `json:"label"`
	Path   string  `json:"path"`
	LabelX float64 `json:"labelX"`
	LabelY float64 `json:"labelY"`
}

// FrameMarker is the arrowhead definition of a JSON frame
type FrameMarker struct {
	ID      string  `json:"id"`
	ViewBox string  `json:"viewBox"`
	RefX    float64 `json:"refX"`
	RefY    float64 `json:"refY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Path    string  `json:"path"`
}

// FrameDocument is the JSON projection of a scene
type FrameDocument struct {
	Tick   uint64      `json:"tick"`
	Alpha  float64     `json:"alpha"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Nodes  []FrameNode `json:"nodes"`
	Edges  []FrameEdge `json:"edges"`
	Marker FrameMarker `json:"marker"`
}

// Document builds the JSON projection of scene. Nodes are listed bottom to
// top in scene order.
func Document(scene Scene, options *OutputOptions) (FrameDocument, error) {
	m := geometry.ArrowMarker(options.MarkerWidth, options.MarkerHeight)
	doc := FrameDocument{
		Tick:   scene.Frame.Tick,
		Alpha:  scene.Frame.Alpha,
		Width:  scene.Width,
		Height: scene.Height,
		Nodes:  make([]FrameNode, 0, len(scene.Order)),
		Edges:  make([]FrameEdge, 0, len(scene.Edges)),
		Marker: FrameMarker{
			ID:      m.ID,
			ViewBox: m.ViewBox,
			RefX:    m.RefX,
			RefY:    m.RefY,
			Width:   m.Width,
			Height:  m.Height,
			Path:    m.Path,
		},
	}

	for _, id := range scene.Order {
		node, err := scene.Graph.FindNodeByID(id)
		if err != nil {
			return FrameDocument{}, fmt.Errorf("frame node %s: %w", id, err)
		}
		body, ok := scene.Frame.Body(id)
		if !ok {
			continue
		}
		doc.Nodes = append(doc.Nodes, FrameNode{
			ID:       node.ID,
			Label:    node.Label,
			URL:      node.URL,
			ImageURL: node.ImageURL,
			X:        body.Position.X,
			Y:        body.Position.Y,
			Pinned:   body.Pinned,
		})
	}

	for _, e := range scene.Edges {
		doc.Edges = append(doc.Edges, FrameEdge{
			ID:     e.EdgeID,
			Source: e.Source,
			Target: e.Target,
			Label:  e.Label,
			Path:   e.Arc.Path(),
			LabelX: e.Anchor.X,
			LabelY: e.Anchor.Y,
		})
	}
	return doc, nil
}

// Render creates a JSON representation of the scene
func (r *JSONRenderer) Render(scene Scene, options *OutputOptions) ([]byte, error) {
	doc, err := Document(scene, options)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
