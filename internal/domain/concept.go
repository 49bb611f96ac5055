package domain

import "strings"

// ConceptNode is one entry of a flattened hierarchy
type ConceptNode struct {
	Depth     int    `json:"depth"`
	URI       string `json:"uri"`
	Label     string `json:"label"`
	ParentURI string `json:"parent_uri"`
}

// Concept is a node of a resolved hierarchy with its ordered narrower concepts
type Concept struct {
	URI       string     `json:"uri"`
	Label     string     `json:"label"`
	ParentURI string     `json:"parent_uri,omitempty"`
	Depth     int        `json:"depth"`
	Children  []*Concept `json:"children,omitempty"`
}

// NewConcept creates a concept with its label derived from the URI
func NewConcept(uri, parentURI string, depth int) *Concept {
	return &Concept{
		URI:       uri,
		Label:     LabelFromURI(uri),
		ParentURI: parentURI,
		Depth:     depth,
	}
}

// Node returns the flat form of the concept
func (c *Concept) Node() ConceptNode {
	return ConceptNode{
		Depth:     c.Depth,
		URI:       c.URI,
		Label:     c.Label,
		ParentURI: c.ParentURI,
	}
}

// Size returns the number of descendants, excluding the concept itself
func (c *Concept) Size() int {
	n := 0
	for _, child := range c.Children {
		n += 1 + child.Size()
	}
	return n
}

// Flatten returns the descendants of root in pre-order. Every concept is
// followed directly by the contiguous block of its own descendants. The root
// itself is not included.
func Flatten(root *Concept) []ConceptNode {
	if root == nil {
		return []ConceptNode{}
	}
	nodes := make([]ConceptNode, 0, root.Size())
	var walk func(c *Concept)
	walk = func(c *Concept) {
		for _, child := range c.Children {
			nodes = append(nodes, child.Node())
			walk(child)
		}
	}
	walk(root)
	return nodes
}

// LabelFromURI derives a display label from a concept URI: the text after the
// last '#', then after the last '/', with underscores replaced by spaces.
// A URI that yields no segment is returned unchanged.
func LabelFromURI(uri string) string {
	s := uri
	if i := strings.LastIndex(s, "#"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.ReplaceAll(s, "_", " ")
	if strings.TrimSpace(s) == "" {
		return uri
	}
	return s
}
