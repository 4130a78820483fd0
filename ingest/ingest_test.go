package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/forcegraph/models"
)

const sampleJSON = `{
  "name": "Stack",
  "nodes": [
    {"id": "Next", "label": "Next.js", "url": "https://nextjs.org"},
    {"id": "React"}
  ],
  "links": [
    {"source": "Next", "target": "React", "label": "builds on"}
  ]
}`

const sampleYAML = `
name: Stack
nodes:
  - id: Vite
    imageUrl: https://vitejs.dev/logo.svg
  - id: Rollup
edges:
  - id: v-r
    source: Vite
    target: Rollup
    label: bundles with
`

func TestJSONProcessor(t *testing.T) {
	g, err := NewJSONProcessor().ProcessData([]byte(sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, "Stack", g.Name())
	assert.Equal(t, 2, g.NodeCount())
	require.Equal(t, 1, g.EdgeCount())

	next, err := g.FindNodeByID("Next")
	require.NoError(t, err)
	assert.Equal(t, "Next.js", next.Label)
	assert.Equal(t, "https://nextjs.org", next.URL)

	react, err := g.FindNodeByID("React")
	require.NoError(t, err)
	assert.Equal(t, "React", react.Label, "label defaults to id")

	e := g.Edges()[0]
	assert.Equal(t, "builds on", e.Label)
	assert.NotEmpty(t, e.ID)
}

func TestJSONProcessor_UnknownEndpoint(t *testing.T) {
	_, err := NewJSONProcessor().ProcessData([]byte(`{"nodes":[{"id":"a"}],"edges":[{"id":"e1","source":"a","target":"b"}]}`))
	var invalid *models.InvalidGraphError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "e1", invalid.EdgeID)
	assert.Equal(t, "b", invalid.NodeID)
}

func TestJSONProcessor_Malformed(t *testing.T) {
	_, err := NewJSONProcessor().ProcessData([]byte(`{"nodes": [`))
	assert.Error(t, err)
}

func TestYAMLProcessor(t *testing.T) {
	g, err := NewYAMLProcessor().ProcessData([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"Vite", "Rollup"}, g.NodeIDs())
	e, err := g.FindEdgeByID("v-r")
	require.NoError(t, err)
	assert.Equal(t, "bundles with", e.Label)

	vite, _ := g.FindNodeByID("Vite")
	assert.Equal(t, "https://vitejs.dev/logo.svg", vite.ImageURL)
}

func TestCSVProcessor(t *testing.T) {
	data := "from,to,relation\nApple,Samsung,rival\nApple, Next ,none\nSamsung,Vite,\n"
	g, err := NewCSVProcessor().ProcessData([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Apple", "Samsung", "Next", "Vite"}, g.NodeIDs())
	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, "rival", g.Edges()[0].Label)
	assert.Equal(t, 2, g.Degree("Apple"))
}

func TestCSVProcessor_MissingColumns(t *testing.T) {
	_, err := NewCSVProcessor().ProcessData([]byte("a,b\n1,2\n"))
	assert.Error(t, err)
}

func TestLogProcessor(t *testing.T) {
	data := `
# sample
Apple -> Samsung : rival
Apple => Next
Vite connects to Apple : new
not a relationship
`
	g, err := NewLogProcessor().ProcessData([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Apple", "Samsung", "Next", "Vite"}, g.NodeIDs())
	edges := g.Edges()
	require.Len(t, edges, 3)
	assert.Equal(t, "rival", edges[0].Label)
	assert.Equal(t, "", edges[1].Label)
	assert.Equal(t, "Vite", edges[2].Source)
	assert.Equal(t, "new", edges[2].Label)
}

func TestLogProcessor_Empty(t *testing.T) {
	_, err := NewLogProcessor().ProcessData([]byte("\n# nothing\n"))
	assert.Error(t, err)
}

func TestGetProcessor(t *testing.T) {
	for format, name := range map[string]string{
		"json":  "JSON Processor",
		"YAML":  "YAML Processor",
		"yml":   "YAML Processor",
		"csv":   "CSV Processor",
		"edges": "Edge List Processor",
	} {
		p, err := GetProcessor(format)
		require.NoError(t, err, format)
		assert.Equal(t, name, p.GetName())
	}

	_, err := GetProcessor("xml")
	assert.Error(t, err)
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	g, err := ProcessFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, 2, g.NodeCount())

	_, err = ProcessFile(filepath.Join(dir, "missing.json"), "")
	assert.Error(t, err)

	_, err = ProcessFile(path, "json")
	assert.Error(t, err, "explicit format overrides the extension")
}
