package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/TFMV/forcegraph/geometry"
	"github.com/TFMV/forcegraph/models"
	"github.com/TFMV/forcegraph/physics"
)

// OutputOptions defines rendering configuration options
type OutputOptions struct {
	Format         string  // Output format (svg, json)
	Width          float64 // Width of the surface
	Height         float64 // Height of the surface
	Background     string  // Background color, empty for transparent
	MarkerWidth    float64 // Arrowhead width
	MarkerHeight   float64 // Arrowhead height
	ImageSize      float64 // Side of the square node image
	LabelOffset    float64 // Vertical offset of node labels below the node center
	EdgeColor      string  // Stroke of edge paths and arrowheads
	EdgeWidth      float64 // Stroke width of edge paths
	FontSize       float64 // Font size for labels
	ShowLabels     bool    // Show node labels
	ShowEdgeLabels bool    // Show edge labels
}

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render projects one scene into output bytes
	Render(scene Scene, options *OutputOptions) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// Description returns a description of the renderer
	Description() string
}

// NewDefaultOptions creates a default set of output options
func NewDefaultOptions(format string) *OutputOptions {
	return &OutputOptions{
		Format:         format,
		Width:          800,
		Height:         600,
		Background:     "",
		MarkerWidth:    6,
		MarkerHeight:   6,
		ImageSize:      40,
		LabelOffset:    30,
		EdgeColor:      "#999",
		EdgeWidth:      1.5,
		FontSize:       12,
		ShowLabels:     true,
		ShowEdgeLabels: true,
	}
}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg":
		return &SVGRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Scene is everything one tick needs to be drawn
type Scene struct {
	Graph  *models.Graph
	Frame  physics.Frame
	Order  []string
	Edges  []geometry.EdgeGeometry
	Width  float64
	Height float64
}

// NewScene derives edge geometry from frame. A nil order draws nodes in
// graph order.
func NewScene(graph *models.Graph, frame physics.Frame, order []string, width, height float64) Scene {
	if order == nil {
		order = graph.NodeIDs()
	}
	return Scene{
		Graph:  graph,
		Frame:  frame,
		Order:  order,
		Edges:  geometry.Layout(graph, frame),
		Width:  width,
		Height: height,
	}
}

// Generate lays out graph headlessly and renders the settled result.
// maxTicks bounds the run; zero runs until the simulation comes to rest.
func Generate(ctx context.Context, graph *models.Graph, layout physics.Options, options *OutputOptions, maxTicks int, logger *zap.Logger) ([]byte, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer, err := GetRenderer(options.Format)
	if err != nil {
		return nil, err
	}
	if maxTicks <= 0 {
		maxTicks = 10000
	}

	errChan := make(chan error, 1)
	resultChan := make(chan []byte, 1)

	go func() {
		sim := physics.NewForGraph(graph, options.Width, options.Height, layout, logger)

		ticks := 0
		for ticks < maxTicks && ctx.Err() == nil && sim.Step() {
			ticks++
		}
		logger.Debug("layout finished",
			zap.Int("ticks", ticks),
			zap.Float64("alpha", sim.Alpha()),
			zap.Bool("at_rest", !sim.Running()),
		)

		scene := NewScene(graph, sim.Frame(), nil, options.Width, options.Height)
		output, err := renderer.Render(scene, options)
		if err != nil {
			errChan <- fmt.Errorf("render %s: %w", renderer.Name(), err)
			return
		}
		resultChan <- output
	}()

	select {
	case out := <-resultChan:
		return out, nil
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("rendering aborted: %w", ctx.Err())
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
