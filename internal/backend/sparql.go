package backend

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"vocabhub/internal/codec"
	"vocabhub/internal/domain"
	"vocabhub/internal/httpclient"
)

const narrowerQuery = `PREFIX skos: <http://www.w3.org/2004/02/skos/core#>
CONSTRUCT { ?c skos:broader <%[1]s> . }
%[2]sWHERE {
  { ?c skos:broader <%[1]s> . }
  UNION { <%[1]s> skos:narrower ?c . }
  UNION { ?c skos:topConceptOf <%[1]s> . }
  UNION { <%[1]s> skos:hasTopConcept ?c . }
}`

// SPARQLBackend queries a SPARQL endpoint with a CONSTRUCT query per concept
type SPARQLBackend struct {
	endpoint string
	graph    string
	client   *httpclient.Client
}

// SPARQLOption configures a SPARQLBackend
type SPARQLOption func(*SPARQLBackend)

// WithNamedGraph restricts queries to one named graph
func WithNamedGraph(iri string) SPARQLOption {
	return func(b *SPARQLBackend) {
		b.graph = iri
	}
}

// NewSPARQLBackend creates a backend for endpoint. A nil client gets defaults.
func NewSPARQLBackend(endpoint string, client *httpclient.Client, opts ...SPARQLOption) *SPARQLBackend {
	if client == nil {
		client = httpclient.New()
	}
	b := &SPARQLBackend{endpoint: endpoint, client: client}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Kind implements Backend
func (b *SPARQLBackend) Kind() domain.SourceKind {
	return domain.SourceSPARQL
}

// Query returns the CONSTRUCT query sent for uri
func (b *SPARQLBackend) Query(uri string) (string, error) {
	if err := checkIRI(uri); err != nil {
		return "", err
	}
	from := ""
	if b.graph != "" {
		if err := checkIRI(b.graph); err != nil {
			return "", err
		}
		from = "FROM <" + b.graph + ">\n"
	}
	return fmt.Sprintf(narrowerQuery, uri, from), nil
}

// FetchNarrower implements Backend
func (b *SPARQLBackend) FetchNarrower(ctx context.Context, uri string) (*domain.Graph, error) {
	query, err := b.Query(uri)
	if err != nil {
		return nil, err
	}

	body, ctype, err := b.client.PostForm(ctx, b.endpoint, codec.MediaNTriples, url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}

	return parseResponse(body, ctype, codec.NewNTriplesCodec(), uri)
}

// checkIRI rejects values that cannot be embedded in an IRIREF
func checkIRI(iri string) error {
	if iri == "" || strings.ContainsAny(iri, "<>\"{}|^`\\ \t\r\n") {
		return fmt.Errorf("invalid IRI %q", iri)
	}
	return nil
}

// parseResponse decodes an RDF response by its content type, falling back to
// the expected codec, and keeps only hierarchy assertions anchored at uri
func parseResponse(body []byte, contentType string, fallback codec.Codec, uri string) (*domain.Graph, error) {
	c := codec.ForMediaType(contentType)
	if c == nil || c.Format() == "json" {
		c = fallback
	}
	g, err := c.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s response for %s: %w", c.Format(), uri, err)
	}
	return domain.NarrowerGraph(g, uri), nil
}
