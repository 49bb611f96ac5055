package codec

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/knakk/rdf"

	"vocabhub/internal/domain"
)

// RDFCodec handles Turtle and N-Triples import/export
type RDFCodec struct {
	format    rdf.Format
	name      string
	mediaType string
}

// NewTurtleCodec creates a Turtle codec
func NewTurtleCodec() *RDFCodec {
	return &RDFCodec{format: rdf.Turtle, name: "turtle", mediaType: MediaTurtle}
}

// NewNTriplesCodec creates an N-Triples codec
func NewNTriplesCodec() *RDFCodec {
	return &RDFCodec{format: rdf.NTriples, name: "ntriples", mediaType: MediaNTriples}
}

// Format returns the codec format identifier
func (c *RDFCodec) Format() string {
	return c.name
}

// MediaType returns the content type of the format
func (c *RDFCodec) MediaType() string {
	return c.mediaType
}

// Parse reads every triple from r
func (c *RDFCodec) Parse(r io.Reader) (*domain.Graph, error) {
	dec := rdf.NewTripleDecoder(r, c.format)
	g := domain.NewGraph()
	for {
		t, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", c.name, err)
		}
		g.Add(domain.Triple{
			Subject:   fromTerm(t.Subj),
			Predicate: fromTerm(t.Pred),
			Object:    fromTerm(t.Obj),
		})
	}
	return g, nil
}

// Export writes every triple of g to w
func (c *RDFCodec) Export(g *domain.Graph, w io.Writer) error {
	enc := rdf.NewTripleEncoder(w, c.format)
	for i, t := range g.Triples {
		rt, err := toTriple(t)
		if err != nil {
			return fmt.Errorf("triple %d: %w", i, err)
		}
		if err := enc.Encode(rt); err != nil {
			return fmt.Errorf("failed to encode %s: %w", c.name, err)
		}
	}
	return enc.Close()
}

func fromTerm(t rdf.Term) domain.Term {
	switch t.Type() {
	case rdf.TermBlank:
		return domain.Term{Kind: domain.TermBlank, Value: "_:" + strings.TrimPrefix(t.String(), "_:")}
	case rdf.TermLiteral:
		lit := domain.Term{Kind: domain.TermLiteral, Value: t.String()}
		if l, ok := t.(rdf.Literal); ok {
			lit.Lang = l.Lang()
		}
		return lit
	default:
		return domain.IRI(t.String())
	}
}

func toTriple(t domain.Triple) (rdf.Triple, error) {
	subj, err := toTerm(t.Subject)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("subject: %w", err)
	}
	pred, err := rdf.NewIRI(t.Predicate.Value)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("predicate: %w", err)
	}
	obj, err := toTerm(t.Object)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("object: %w", err)
	}

	s, ok := subj.(rdf.Subject)
	if !ok {
		return rdf.Triple{}, fmt.Errorf("subject: %s cannot be a subject", t.Subject.Kind)
	}
	return rdf.Triple{Subj: s, Pred: pred, Obj: obj.(rdf.Object)}, nil
}

func toTerm(t domain.Term) (rdf.Term, error) {
	switch t.Kind {
	case domain.TermBlank:
		return rdf.NewBlank(strings.TrimPrefix(t.Value, "_:"))
	case domain.TermLiteral:
		if t.Lang != "" {
			return rdf.NewLangLiteral(t.Value, t.Lang)
		}
		return rdf.NewLiteral(t.Value)
	default:
		return rdf.NewIRI(t.Value)
	}
}
