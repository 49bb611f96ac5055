package hierarchy

import (
	"fmt"
	"regexp"
	"strings"

	"vocabhub/internal/domain"
)

// MarkerKind is the type of a rendered tree marker
type MarkerKind string

const (
	MarkerOpen  MarkerKind = "open"  // start of a collapsible level
	MarkerEntry MarkerKind = "entry" // a labeled, linkable concept
	MarkerClose MarkerKind = "close" // end of a collapsible level
)

// DepthSeparator prefixes display labels once per level below the first
const DepthSeparator = "- - - "

// Marker is one element of a rendered tree. Entry markers carry the concept;
// open and close markers only carry their indentation.
type Marker struct {
	Kind      MarkerKind `json:"kind"`
	Indent    int        `json:"indent"`
	Depth     int        `json:"depth,omitempty"`
	ID        string     `json:"id,omitempty"`
	URI       string     `json:"uri,omitempty"`
	Label     string     `json:"label,omitempty"`
	Display   string     `json:"display,omitempty"`
	ParentURI string     `json:"parent_uri,omitempty"`
}

// Tree is the rendered form of a hierarchy: a marker stream wrapped in one
// top-level container
type Tree struct {
	Markers []Marker `json:"markers"`
}

// Render converts a flat depth-tagged sequence into a marker stream in a
// single forward pass. A level is opened before an entry whose successor is
// deeper, and after each entry every level from its depth down to the next
// entry's depth plus one is closed, so a 4 -> 1 step closes three levels at
// once. The last entry is followed by a virtual entry at depth 1.
//
// seq must satisfy ValidateSequence.
func Render(seq []domain.ConceptNode) *Tree {
	t := &Tree{Markers: make([]Marker, 0, 2*len(seq))}

	for i, node := range seq {
		nextDepth := 1
		if i < len(seq)-1 {
			nextDepth = seq[i+1].Depth
		}

		if nextDepth > node.Depth {
			t.Markers = append(t.Markers, Marker{Kind: MarkerOpen, Indent: node.Depth})
		}

		t.Markers = append(t.Markers, Marker{
			Kind:      MarkerEntry,
			Indent:    node.Depth,
			Depth:     node.Depth,
			ID:        AnchorID(node.URI),
			URI:       node.URI,
			Label:     node.Label,
			Display:   DisplayLabel(node.Label, node.Depth),
			ParentURI: node.ParentURI,
		})

		for level := node.Depth; level > nextDepth; level-- {
			t.Markers = append(t.Markers, Marker{Kind: MarkerClose, Indent: level - 1})
		}
	}

	return t
}

var lastSegment = regexp.MustCompile(`/([^/]+)/*$`)

// AnchorID returns the element identifier for a concept: its last path
// segment, or the whole URI when it has none
func AnchorID(uri string) string {
	if m := lastSegment.FindStringSubmatch(uri); m != nil {
		return m[1]
	}
	return uri
}

// DisplayLabel prefixes label with one separator per level below the first
func DisplayLabel(label string, depth int) string {
	return strings.Repeat(DepthSeparator, max(depth-1, 0)) + label
}

// ValidateSequence reports whether seq can be rendered: it must start at
// depth 1 and never descend more than one level between neighbours
func ValidateSequence(seq []domain.ConceptNode) error {
	prev := 0
	for i, node := range seq {
		if node.Depth < 1 {
			return fmt.Errorf("node %d (%s): depth %d is below 1", i, node.URI, node.Depth)
		}
		if node.Depth > prev+1 {
			return fmt.Errorf("node %d (%s): depth jumps from %d to %d", i, node.URI, prev, node.Depth)
		}
		prev = node.Depth
	}
	return nil
}

// Item is a node of the nested tree view. A collapsible item is a concept
// with narrower concepts.
type Item struct {
	ID          string  `json:"id"`
	URI         string  `json:"uri"`
	Label       string  `json:"label"`
	Display     string  `json:"display"`
	ParentURI   string  `json:"parent_uri,omitempty"`
	Collapsible bool    `json:"collapsible"`
	Children    []*Item `json:"children,omitempty"`
}

// Items folds the marker stream into nested items
func (t *Tree) Items() []*Item {
	roots := make([]*Item, 0)
	var open []*Item
	pending := false

	for _, m := range t.Markers {
		switch m.Kind {
		case MarkerOpen:
			pending = true
		case MarkerEntry:
			item := &Item{
				ID:          m.ID,
				URI:         m.URI,
				Label:       m.Label,
				Display:     m.Display,
				ParentURI:   m.ParentURI,
				Collapsible: pending,
			}
			pending = false
			if len(open) == 0 {
				roots = append(roots, item)
			} else {
				parent := open[len(open)-1]
				parent.Children = append(parent.Children, item)
			}
			if item.Collapsible {
				open = append(open, item)
			}
		case MarkerClose:
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		}
	}
	return roots
}

// Sequence re-extracts the flat depth-tagged sequence from the nested items.
// Depth comes from nesting, not from the entry markers.
func (t *Tree) Sequence() []domain.ConceptNode {
	nodes := make([]domain.ConceptNode, 0)
	var walk func(items []*Item, depth int, parentURI string)
	walk = func(items []*Item, depth int, parentURI string) {
		for _, item := range items {
			parent := parentURI
			if depth == 1 {
				parent = item.ParentURI
			}
			nodes = append(nodes, domain.ConceptNode{
				Depth:     depth,
				URI:       item.URI,
				Label:     item.Label,
				ParentURI: parent,
			})
			walk(item.Children, depth+1, item.URI)
		}
	}
	walk(t.Items(), 1, "")
	return nodes
}

// CloseCounts returns, per entry, the number of levels closed directly after it
func (t *Tree) CloseCounts() []int {
	counts := make([]int, 0)
	for _, m := range t.Markers {
		switch m.Kind {
		case MarkerEntry:
			counts = append(counts, 0)
		case MarkerClose:
			if len(counts) > 0 {
				counts[len(counts)-1]++
			}
		}
	}
	return counts
}

// Balanced reports whether every opened level is closed
func (t *Tree) Balanced() bool {
	depth := 0
	for _, m := range t.Markers {
		switch m.Kind {
		case MarkerOpen:
			depth++
		case MarkerClose:
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
