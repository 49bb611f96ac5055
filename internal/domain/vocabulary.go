package domain

import "time"

// SourceKind identifies the backend that serves a vocabulary
type SourceKind string

const (
	SourceFile     SourceKind = "file"     // RDF files in the vocabulary directory
	SourceSPARQL   SourceKind = "sparql"   // SPARQL endpoint
	SourceRegistry SourceKind = "registry" // Linked-data vocabulary registry
)

// Valid reports whether the kind is one of the known backends
func (k SourceKind) Valid() bool {
	switch k {
	case SourceFile, SourceSPARQL, SourceRegistry:
		return true
	}
	return false
}

// Vocabulary is a published concept scheme. Root is the hierarchy root URI,
// Endpoint the SPARQL endpoint and Download an RDF download URL.
type Vocabulary struct {
	ID        string            `json:"id" yaml:"id"`
	Title     string            `json:"title" yaml:"title"`
	Source    SourceKind        `json:"source" yaml:"source"`
	Root      string            `json:"root,omitempty" yaml:"root,omitempty"`
	Endpoint  string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Download  string            `json:"download,omitempty" yaml:"download,omitempty"`
	Settings  map[string]string `json:"settings,omitempty" yaml:"settings,omitempty"`
	UpdatedAt time.Time         `json:"updated_at,omitempty" yaml:"-"`
}

// Setting returns a backend setting or the fallback
func (v *Vocabulary) Setting(key, fallback string) string {
	if v.Settings != nil {
		if val, ok := v.Settings[key]; ok && val != "" {
			return val
		}
	}
	return fallback
}
