// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package viz turns a ranked word list into the hierarchical JSON document
// consumed by the treemap and bubble-chart front ends.
//
// The document shape is a compatibility contract:
//
//	{"name": "Visual Medicine", "children": [{"name": "disease", "size": 1250}, ...]}
package viz

import (
	"encoding/json"
	"fmt"

	"github.com/pdiddy/visual-medicine/pkg/types"
)

// RootName is the name of the document's root node.
const RootName = "Visual Medicine"

// Document is the root of the visualization tree.
type Document struct {
	Name     string `json:"name"`
	Children []Node `json:"children"`
}

// Node is either a leaf (Name, Size) or, in the grouped layout, a group
// (Name, Children).
type Node struct {
	Name     string `json:"name"`
	Size     int    `json:"size,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// MarshalJSON emits a leaf as {name, size} and a group as {name, children},
// so a leaf always carries its size even when it is zero.
func (n Node) MarshalJSON() ([]byte, error) {
	if n.Children != nil {
		return json.Marshal(struct {
			Name     string `json:"name"`
			Children []Node `json:"children"`
		}{n.Name, n.Children})
	}
	return json.Marshal(struct {
		Name string `json:"name"`
		Size int    `json:"size"`
	}{n.Name, n.Size})
}

// Build takes the first limit entries of ranked (fewer if ranked is
// shorter, none if limit <= 0) and emits one leaf per word with
// size = count * sizeFactor under the root node.
func Build(ranked []types.WordCount, limit, sizeFactor int) Document {
	top := head(ranked, limit)
	children := make([]Node, 0, len(top))
	for _, wc := range top {
		children = append(children, leaf(wc, sizeFactor))
	}
	return Document{Name: RootName, Children: children}
}

// BuildGrouped is the legacy layout: the first limit entries are split into
// runs of equal count, and each run becomes a group node named after its
// first word with the run's leaves as children.
func BuildGrouped(ranked []types.WordCount, limit, sizeFactor int) Document {
	top := head(ranked, limit)
	children := make([]Node, 0)
	for i := 0; i < len(top); {
		j := i + 1
		for j < len(top) && top[j].Count == top[i].Count {
			j++
		}
		group := Node{Name: top[i].Word, Children: make([]Node, 0, j-i)}
		for _, wc := range top[i:j] {
			group.Children = append(group.Children, leaf(wc, sizeFactor))
		}
		children = append(children, group)
		i = j
	}
	return Document{Name: RootName, Children: children}
}

// BuildLayout dispatches to Build or BuildGrouped.
func BuildLayout(layout types.Layout, ranked []types.WordCount, limit, sizeFactor int) (Document, error) {
	switch layout {
	case types.LayoutFlat, "":
		return Build(ranked, limit, sizeFactor), nil
	case types.LayoutGrouped:
		return BuildGrouped(ranked, limit, sizeFactor), nil
	default:
		return Document{}, fmt.Errorf("unknown layout %q", layout)
	}
}

// Marshal serializes doc as indented JSON. A nil Children slice is written
// as an empty array.
func Marshal(doc Document) ([]byte, error) {
	if doc.Children == nil {
		doc.Children = []Node{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling visualization: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal parses a document written by Marshal.
func Unmarshal(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parsing visualization: %w", err)
	}
	return doc, nil
}

// Leaves returns the number of leaf nodes in doc.
func (d Document) Leaves() int {
	n := 0
	var walk func([]Node)
	walk = func(nodes []Node) {
		for _, c := range nodes {
			if c.Children != nil {
				walk(c.Children)
				continue
			}
			n++
		}
	}
	walk(d.Children)
	return n
}

func leaf(wc types.WordCount, sizeFactor int) Node {
	return Node{Name: wc.Word, Size: wc.Count * sizeFactor}
}

func head(ranked []types.WordCount, limit int) []types.WordCount {
	if limit <= 0 {
		return nil
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}
	return ranked[:limit]
}
