// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package viz

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/visual-medicine/pkg/types"
)

func sampleRanked() []types.WordCount {
	return []types.WordCount{
		{Word: "disease", Count: 4},
		{Word: "asthma", Count: 2},
		{Word: "airway", Count: 2},
		{Word: "cure", Count: 1},
	}
}

// --- Build ---

func TestBuildScenario(t *testing.T) {
	ranked := []types.WordCount{{Word: "disease", Count: 2}, {Word: "cure", Count: 1}}

	doc := Build(ranked, 1, 100)
	assert.Equal(t, RootName, doc.Name)
	assert.Equal(t, []Node{{Name: "disease", Size: 200}}, doc.Children)
}

func TestBuildLimitLongerThanList(t *testing.T) {
	doc := Build(sampleRanked(), 50, 625)
	require.Len(t, doc.Children, 4)
	assert.Equal(t, Node{Name: "disease", Size: 2500}, doc.Children[0])
	assert.Equal(t, Node{Name: "cure", Size: 625}, doc.Children[3])
}

func TestBuildDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		ranked []types.WordCount
		limit  int
	}{
		{"limit zero", sampleRanked(), 0},
		{"negative limit", sampleRanked(), -3},
		{"empty ranked", []types.WordCount{}, 10},
		{"nil ranked", nil, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Build(tt.ranked, tt.limit, 625)
			assert.Equal(t, RootName, doc.Name)
			assert.NotNil(t, doc.Children)
			assert.Empty(t, doc.Children)

			data, err := Marshal(doc)
			require.NoError(t, err)
			assert.JSONEq(t, `{"name": "Visual Medicine", "children": []}`, string(data))
		})
	}
}

func TestBuildGrouped(t *testing.T) {
	doc := BuildGrouped(sampleRanked(), 4, 10)
	require.Len(t, doc.Children, 3)

	assert.Equal(t, "disease", doc.Children[0].Name)
	assert.Equal(t, []Node{{Name: "disease", Size: 40}}, doc.Children[0].Children)

	assert.Equal(t, "asthma", doc.Children[1].Name)
	assert.Equal(t, []Node{{Name: "asthma", Size: 20}, {Name: "airway", Size: 20}}, doc.Children[1].Children)

	assert.Equal(t, 4, doc.Leaves())
}

func TestBuildGroupedEmpty(t *testing.T) {
	doc := BuildGrouped(nil, 10, 10)
	assert.NotNil(t, doc.Children)
	assert.Empty(t, doc.Children)
}

func TestBuildLayout(t *testing.T) {
	flat, err := BuildLayout(types.LayoutFlat, sampleRanked(), 4, 1)
	require.NoError(t, err)
	assert.Len(t, flat.Children, 4)

	def, err := BuildLayout("", sampleRanked(), 4, 1)
	require.NoError(t, err)
	assert.Equal(t, flat, def)

	grouped, err := BuildLayout(types.LayoutGrouped, sampleRanked(), 4, 1)
	require.NoError(t, err)
	assert.Len(t, grouped.Children, 3)

	_, err = BuildLayout("spiral", sampleRanked(), 4, 1)
	require.Error(t, err)
}

// --- Serialization ---

func TestMarshalShape(t *testing.T) {
	data, err := Marshal(Build(sampleRanked(), 2, 100))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Visual Medicine",
		"children": [
			{"name": "disease", "size": 400},
			{"name": "asthma", "size": 200}
		]
	}`, string(data))
}

func TestMarshalNilChildren(t *testing.T) {
	data, err := Marshal(Document{Name: RootName})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "Visual Medicine", "children": []}`, string(data))
}

func TestMarshalDeterministic(t *testing.T) {
	doc := Build(sampleRanked(), 4, 625)
	a, err := Marshal(doc)
	require.NoError(t, err)
	b, err := Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRoundTrip(t *testing.T) {
	const factor = 825
	ranked := sampleRanked()
	doc := Build(ranked, len(ranked), factor)

	data, err := Marshal(doc)
	require.NoError(t, err)
	got, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, doc, got)
	for i, c := range got.Children {
		assert.Equal(t, ranked[i].Word, c.Name)
		assert.Equal(t, ranked[i].Count*factor, c.Size)
	}
}

func TestLeafWithZeroSizeKeepsSizeField(t *testing.T) {
	data, err := json.Marshal(Node{Name: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "x", "size": 0}`, string(data))
}

// --- WriteFile ---

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	doc := Build(sampleRanked(), 3, 625)

	require.NoError(t, WriteFile(path, doc))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWriteFileOverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than the new document"), 0o644))

	require.NoError(t, WriteFile(path, Build(nil, 0, 1)))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, got.Children)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must be cleaned up")
}

func TestWriteFileConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, WriteFile(path, Build(sampleRanked(), n%4+1, n)))
		}(i)
	}
	wg.Wait()

	// Whatever writer won, the file is a complete document.
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, RootName, got.Name)
	assert.NotEmpty(t, got.Children)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
