package domain

// Well-known vocabulary IRIs
const (
	RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

	SKOSNamespace     = "http://www.w3.org/2004/02/skos/core#"
	SKOSBroader       = SKOSNamespace + "broader"
	SKOSNarrower      = SKOSNamespace + "narrower"
	SKOSTopConceptOf  = SKOSNamespace + "topConceptOf"
	SKOSHasTopConcept = SKOSNamespace + "hasTopConcept"
	SKOSConcept       = SKOSNamespace + "Concept"
	SKOSConceptScheme = SKOSNamespace + "ConceptScheme"
	SKOSPrefLabel     = SKOSNamespace + "prefLabel"
	SKOSDefinition    = SKOSNamespace + "definition"

	DCTermsTitle = "http://purl.org/dc/terms/title"
)

// TermKind distinguishes IRIs, blank nodes and literals
type TermKind string

const (
	TermIRI     TermKind = "iri"
	TermBlank   TermKind = "blank"
	TermLiteral TermKind = "literal"
)

// Term is a node or literal in an RDF graph
type Term struct {
	Kind  TermKind `json:"kind"`
	Value string   `json:"value"`
	Lang  string   `json:"lang,omitempty"`
}

// IRI returns an IRI term
func IRI(value string) Term {
	return Term{Kind: TermIRI, Value: value}
}

// Literal returns a plain or language-tagged literal term
func Literal(value, lang string) Term {
	return Term{Kind: TermLiteral, Value: value, Lang: lang}
}

// IsIRI reports whether the term is an IRI with the given value
func (t Term) IsIRI(value string) bool {
	return t.Kind == TermIRI && t.Value == value
}

// Triple is a single RDF statement
type Triple struct {
	Subject   Term `json:"subject"`
	Predicate Term `json:"predicate"`
	Object    Term `json:"object"`
}

// Graph is an ordered collection of triples
type Graph struct {
	Triples []Triple `json:"triples"`
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{Triples: make([]Triple, 0)}
}

// Add appends a triple
func (g *Graph) Add(t Triple) {
	g.Triples = append(g.Triples, t)
}

// Len returns the number of triples
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Triples)
}

// Match returns the triples matching the pattern. A nil component matches
// anything.
func (g *Graph) Match(subject, predicate, object *Term) []Triple {
	if g == nil {
		return nil
	}
	var out []Triple
	for _, t := range g.Triples {
		if subject != nil && t.Subject != *subject {
			continue
		}
		if predicate != nil && t.Predicate != *predicate {
			continue
		}
		if object != nil && t.Object != *object {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Subjects returns the distinct IRI subjects of (?, predicate, object) in
// graph order
func (g *Graph) Subjects(predicate, object string) []string {
	p, o := IRI(predicate), IRI(object)
	seen := make(map[string]struct{})
	var out []string
	for _, t := range g.Match(nil, &p, &o) {
		if t.Subject.Kind != TermIRI {
			continue
		}
		if _, ok := seen[t.Subject.Value]; ok {
			continue
		}
		seen[t.Subject.Value] = struct{}{}
		out = append(out, t.Subject.Value)
	}
	return out
}

// SubjectsOfType returns the distinct subjects typed with class
func (g *Graph) SubjectsOfType(class string) []string {
	return g.Subjects(RDFType, class)
}

// Objects returns the objects of (subject, predicate, ?)
func (g *Graph) Objects(subject, predicate string) []Term {
	s, p := IRI(subject), IRI(predicate)
	var out []Term
	for _, t := range g.Match(&s, &p, nil) {
		out = append(out, t.Object)
	}
	return out
}

// NarrowerGraph returns every hierarchy assertion of g anchored at uri,
// normalized to (narrower, skos:broader, uri) triples. Inverse narrower and
// top-concept links are folded in so a concept scheme can serve as a root.
// A self-loop on uri is kept so the resolver can report it as a cycle.
func NarrowerGraph(g *Graph, uri string) *Graph {
	out := NewGraph()
	if g == nil {
		return out
	}
	seen := make(map[string]struct{})
	add := func(child Term) {
		if child.Kind != TermIRI {
			return
		}
		if _, ok := seen[child.Value]; ok {
			return
		}
		seen[child.Value] = struct{}{}
		out.Add(Triple{Subject: child, Predicate: IRI(SKOSBroader), Object: IRI(uri)})
	}

	for _, t := range g.Triples {
		switch {
		case t.Object.IsIRI(uri) && (t.Predicate.IsIRI(SKOSBroader) || t.Predicate.IsIRI(SKOSTopConceptOf)):
			add(t.Subject)
		case t.Subject.IsIRI(uri) && (t.Predicate.IsIRI(SKOSNarrower) || t.Predicate.IsIRI(SKOSHasTopConcept)):
			add(t.Object)
		}
	}
	return out
}

// PreferredLabel returns the first literal of predicate on subject, preferring
// the given language and then untagged literals
func (g *Graph) PreferredLabel(subject, predicate, lang string) string {
	var untagged, other string
	for _, o := range g.Objects(subject, predicate) {
		if o.Kind != TermLiteral {
			continue
		}
		switch {
		case o.Lang == lang:
			return o.Value
		case o.Lang == "" && untagged == "":
			untagged = o.Value
		case other == "":
			other = o.Value
		}
	}
	if untagged != "" {
		return untagged
	}
	return other
}
