// Package domain defines the core types of the vocabhub vocabulary publisher.
//
// # Concepts
//
// Concept is one node of a resolved narrower-than tree. It owns its ordered
// children; the tree is flattened into a depth-tagged sequence of ConceptNode
// values only where a flat form is needed (the tree renderer).
//
// # Graphs
//
// Term, Triple and Graph are a minimal RDF model. Backends return a Graph for
// a concept URI; NarrowerGraph normalizes the hierarchy assertions of a graph
// (broader, narrower, topConceptOf, hasTopConcept) into skos:broader triples
// anchored at that URI.
//
// # Vocabularies
//
// Vocabulary describes a published concept scheme and the backend kind
// (file, SPARQL endpoint, registry) that serves it.
//
// # Design Principles
//
// - No database or network dependencies
// - Labels derive from URIs with a pure string transform
package domain
