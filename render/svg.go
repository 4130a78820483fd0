package render

import (
	"bytes"
	"fmt"
	"html"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/TFMV/forcegraph/geometry"
)

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

// Description returns a description of the renderer
func (r *SVGRenderer) Description() string {
	return "Renders the current frame as SVG with curved edges, arrowheads and node images"
}

// Render creates an SVG representation of the scene. Edges are drawn
// below nodes; nodes are drawn bottom to top in scene order.
func (r *SVGRenderer) Render(scene Scene, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer
	canvas := svg.New(&buf)

	width := int(math.Ceil(scene.Width))
	height := int(math.Ceil(scene.Height))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %vx%v", scene.Width, scene.Height)
	}
	canvas.Start(width, height)
	canvas.Title(scene.Graph.Name())

	marker := geometry.ArrowMarker(options.MarkerWidth, options.MarkerHeight)
	canvas.Def()
	writeMarker(canvas, marker, options.EdgeColor)
	canvas.DefEnd()

	if options.Background != "" {
		canvas.Rect(0, 0, width, height, "fill:"+options.Background)
	}

	canvas.Group(`class="links"`, fmt.Sprintf("fill:none;stroke-width:%s", num(options.EdgeWidth)))
	for _, e := range scene.Edges {
		canvas.Path(e.Arc.Path(),
			attr("data-id", e.EdgeID),
			attr("stroke", options.EdgeColor),
			attr("marker-end", marker.URL()),
		)
	}
	canvas.Gend()

	if options.ShowEdgeLabels {
		canvas.Group(`class="link-labels"`, fmt.Sprintf("font-size:%spx;text-anchor:middle", num(options.FontSize)))
		for _, e := range scene.Edges {
			canvas.Text(0, 0, e.Label, translate(e.Anchor.X, e.Anchor.Y))
		}
		canvas.Gend()
	}

	half := int(options.ImageSize / 2)
	size := int(options.ImageSize)
	canvas.Group(`class="nodes"`)
	for _, id := range scene.Order {
		node, err := scene.Graph.FindNodeByID(id)
		if err != nil {
			return nil, fmt.Errorf("render node %s: %w", id, err)
		}
		pos, ok := scene.Frame.Position(id)
		if !ok {
			continue
		}

		canvas.Group(attr("data-id", node.ID), translate(pos.X, pos.Y))
		if node.ImageURL != "" {
			canvas.Image(-half, -half, size, size, node.ImageURL)
		}
		if options.ShowLabels {
			canvas.Text(0, 0, node.Label,
				attr("dy", num(options.LabelOffset)+"px"),
				fmt.Sprintf("font-size:%spx;text-anchor:middle", num(options.FontSize)),
			)
		}
		canvas.Gend()
	}
	canvas.Gend()

	canvas.End()
	return buf.Bytes(), nil
}

// writeMarker emits the arrowhead definition. svgo's Marker only takes
// integer reference points, so the element is written directly.
func writeMarker(canvas *svg.SVG, m geometry.Marker, fill string) {
	fmt.Fprintf(canvas.Writer,
		`<marker id="%s" viewBox="%s" refX="%s" refY="%s" markerWidth="%s" markerHeight="%s" orient="%s">`+"\n",
		m.ID, m.ViewBox, num(m.RefX), num(m.RefY), num(m.Width), num(m.Height), m.Orient)
	canvas.Path(m.Path, attr("fill", fill))
	canvas.MarkerEnd()
}

func attr(name, value string) string {
	return fmt.Sprintf(`%s="%s"`, name, html.EscapeString(value))
}

func translate(x, y float64) string {
	return fmt.Sprintf(`transform="translate(%s,%s)"`, num(x), num(y))
}
