package codec

import (
	"io"
	"path/filepath"
	"strings"

	"vocabhub/internal/domain"
)

// Importer interface for parsing RDF graphs from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.Graph, error)
	Format() string
	MediaType() string
}

// Exporter interface for serializing RDF graphs to various formats
type Exporter interface {
	Export(g *domain.Graph, w io.Writer) error
	Format() string
	MediaType() string
}

// Codec both parses and serializes
type Codec interface {
	Importer
	Exporter
}

// Media types served and accepted
const (
	MediaTurtle   = "text/turtle"
	MediaNTriples = "application/n-triples"
	MediaJSON     = "application/json"
	MediaHTML     = "text/html"
)

// ForMediaType returns the RDF codec for a media type, or nil
func ForMediaType(mediaType string) Codec {
	mt := strings.TrimSpace(strings.ToLower(mediaType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch mt {
	case MediaTurtle, "application/x-turtle":
		return NewTurtleCodec()
	case MediaNTriples, "text/plain":
		return NewNTriplesCodec()
	case MediaJSON:
		return NewJSONCodec()
	}
	return nil
}

// ForPath returns the RDF codec for a file extension, or nil
func ForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttl":
		return NewTurtleCodec()
	case ".nt":
		return NewNTriplesCodec()
	}
	return nil
}
