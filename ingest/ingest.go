package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TFMV/forcegraph/models"
)

// DataProcessor defines the interface that all data processors must implement
type DataProcessor interface {
	// ProcessData takes raw data bytes and returns a validated graph
	ProcessData(data []byte) (*models.Graph, error)

	// GetName returns the name of the processor
	GetName() string
}

// document is the shape shared by JSON and YAML inputs. Edges may be
// given under either "edges" or "links".
type document struct {
	Name  string `json:"name" yaml:"name"`
	Nodes []struct {
		ID       string `json:"id" yaml:"id"`
		Label    string `json:"label" yaml:"label"`
		URL      string `json:"url" yaml:"url"`
		ImageURL string `json:"imageUrl" yaml:"imageUrl"`
	} `json:"nodes" yaml:"nodes"`
	Edges []documentEdge `json:"edges" yaml:"edges"`
	Links []documentEdge `json:"links" yaml:"links"`
}

type documentEdge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Label  string `json:"label" yaml:"label"`
}

func (d *document) graph(fallbackName string) (*models.Graph, error) {
	name := d.Name
	if name == "" {
		name = fallbackName
	}

	nodes := make([]models.Node, len(d.Nodes))
	for i, n := range d.Nodes {
		nodes[i] = models.Node{ID: n.ID, Label: n.Label, URL: n.URL, ImageURL: n.ImageURL}
	}

	raw := append(append([]documentEdge{}, d.Edges...), d.Links...)
	edges := make([]models.Edge, len(raw))
	for i, e := range raw {
		edges[i] = models.Edge{ID: e.ID, Source: e.Source, Target: e.Target, Label: e.Label}
	}

	return models.NewGraph(name, nodes, edges)
}

// JSONProcessor handles JSON data
type JSONProcessor struct{}

// NewJSONProcessor creates a new JSON processor
func NewJSONProcessor() *JSONProcessor {
	return &JSONProcessor{}
}

// GetName returns the name of the processor
func (p *JSONProcessor) GetName() string {
	return "JSON Processor"
}

// ProcessData processes JSON data
func (p *JSONProcessor) ProcessData(data []byte) (*models.Graph, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}
	return doc.graph("JSON Import")
}

// YAMLProcessor handles YAML data
type YAMLProcessor struct{}

// NewYAMLProcessor creates a new YAML processor
func NewYAMLProcessor() *YAMLProcessor {
	return &YAMLProcessor{}
}

// GetName returns the name of the processor
func (p *YAMLProcessor) GetName() string {
	return "YAML Processor"
}

// ProcessData processes YAML data
func (p *YAMLProcessor) ProcessData(data []byte) (*models.Graph, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}
	return doc.graph("YAML Import")
}

// edgeList collects nodes in first-seen order from a stream of edges
type edgeList struct {
	nodes []models.Node
	seen  map[string]bool
	edges []models.Edge
}

func newEdgeList() *edgeList {
	return &edgeList{seen: make(map[string]bool)}
}

func (l *edgeList) node(id string) {
	if l.seen[id] {
		return
	}
	l.seen[id] = true
	l.nodes = append(l.nodes, models.Node{ID: id})
}

func (l *edgeList) add(source, target, label string) {
	l.node(source)
	l.node(target)
	l.edges = append(l.edges, models.Edge{Source: source, Target: target, Label: label})
}

// CSVProcessor handles CSV edge lists
type CSVProcessor struct{}

// NewCSVProcessor creates a new CSV processor
func NewCSVProcessor() *CSVProcessor {
	return &CSVProcessor{}
}

// GetName returns the name of the processor
func (p *CSVProcessor) GetName() string {
	return "CSV Processor"
}

// ProcessData processes CSV data. The header must name a source and a
// target column; a label column is optional.
func (p *CSVProcessor) ProcessData(data []byte) (*models.Graph, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	sourceIdx, targetIdx, labelIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "source", "from", "src":
			sourceIdx = i
		case "target", "to", "dst":
			targetIdx = i
		case "label", "name", "title", "relation":
			labelIdx = i
		}
	}
	if sourceIdx == -1 || targetIdx == -1 {
		return nil, fmt.Errorf("CSV must contain source and target columns")
	}

	list := newEdgeList()
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row: %w", err)
		}
		if sourceIdx >= len(row) || targetIdx >= len(row) {
			return nil, fmt.Errorf("CSV line %d: missing source or target", line)
		}

		label := ""
		if labelIdx >= 0 && labelIdx < len(row) {
			label = row[labelIdx]
		}
		list.add(strings.TrimSpace(row[sourceIdx]), strings.TrimSpace(row[targetIdx]), label)
	}

	return models.NewGraph("CSV Import", list.nodes, list.edges)
}

// LogProcessor handles plain-text edge lists
type LogProcessor struct{}

// NewLogProcessor creates a new edge-list processor
func NewLogProcessor() *LogProcessor {
	return &LogProcessor{}
}

// GetName returns the name of the processor
func (p *LogProcessor) GetName() string {
	return "Edge List Processor"
}

var connectors = []string{
	" -> ",
	" => ",
	" connects to ",
	" links to ",
}

// ProcessData processes one relationship per line, e.g. "A -> B" or
// "A -> B : label". Blank lines and lines starting with # are skipped, as
// are lines with no recognized connector.
func (p *LogProcessor) ProcessData(data []byte) (*models.Graph, error) {
	list := newEdgeList()

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		label := ""
		if i := strings.LastIndex(line, " : "); i >= 0 {
			label = strings.TrimSpace(line[i+3:])
			line = strings.TrimSpace(line[:i])
		}

		for _, sep := range connectors {
			parts := strings.Split(line, sep)
			if len(parts) != 2 {
				continue
			}
			source := strings.TrimSpace(parts[0])
			target := strings.TrimSpace(parts[1])
			if source != "" && target != "" {
				list.add(source, target, label)
			}
			break
		}
	}

	if len(list.nodes) == 0 {
		return nil, fmt.Errorf("no relationships found")
	}
	return models.NewGraph("Edge List Import", list.nodes, list.edges)
}

// GetProcessor returns the appropriate processor for the given format
func GetProcessor(format string) (DataProcessor, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONProcessor(), nil
	case "yaml", "yml":
		return NewYAMLProcessor(), nil
	case "csv":
		return NewCSVProcessor(), nil
	case "log", "txt", "edges":
		return NewLogProcessor(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatForPath infers the input format from a file extension
func FormatForPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// ProcessFile reads path and processes it with format, or with the format
// implied by the file extension when format is empty.
func ProcessFile(path, format string) (*models.Graph, error) {
	if format == "" {
		format = FormatForPath(path)
	}
	processor, err := GetProcessor(format)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading input file: %w", err)
	}

	graph, err := processor.ProcessData(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", processor.GetName(), err)
	}
	return graph, nil
}
