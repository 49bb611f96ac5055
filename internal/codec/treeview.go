package codec

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"vocabhub/internal/hierarchy"
)

// TreeviewClass is the class of the top-level treeview container
const TreeviewClass = "treeview"

// WriteTreeview renders a hierarchy as an HTML fragment: one container div
// holding a collapsible <details> element per concept with narrower concepts
// and a plain <div> per leaf. Every concept is linked by its URI and carries
// its anchor ID. A concept reached through more than one parent keeps its
// plain ID on first occurrence; later occurrences are suffixed with the
// parent's anchor so ids stay unique within the fragment.
func WriteTreeview(t *hierarchy.Tree, w io.Writer) error {
	root := element(atom.Div, html.Attribute{Key: "class", Val: TreeviewClass})
	used := make(map[string]bool)
	for _, item := range t.Items() {
		root.AppendChild(treeviewItem(item, used))
	}
	if err := html.Render(w, root); err != nil {
		return fmt.Errorf("failed to render treeview: %w", err)
	}
	return nil
}

func treeviewItem(item *hierarchy.Item, used map[string]bool) *html.Node {
	id := uniqueID(item, used)
	link := element(atom.A, html.Attribute{Key: "href", Val: item.URI})
	link.AppendChild(&html.Node{Type: html.TextNode, Data: item.Display})

	if !item.Collapsible {
		leaf := element(atom.Div,
			html.Attribute{Key: "class", Val: "concept"},
			html.Attribute{Key: "id", Val: id})
		leaf.AppendChild(link)
		return leaf
	}

	details := element(atom.Details)
	summary := element(atom.Summary, html.Attribute{Key: "id", Val: id})
	summary.AppendChild(link)
	details.AppendChild(summary)
	for _, child := range item.Children {
		details.AppendChild(treeviewItem(child, used))
	}
	return details
}

func uniqueID(item *hierarchy.Item, used map[string]bool) string {
	id := item.ID
	if used[id] && item.ParentURI != "" {
		id = item.ID + "-" + hierarchy.AnchorID(item.ParentURI)
	}
	for n := 2; used[id]; n++ {
		id = fmt.Sprintf("%s-%d", item.ID, n)
	}
	used[id] = true
	return id
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}
