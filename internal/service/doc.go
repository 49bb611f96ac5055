// Package service implements the vocabhub use cases on top of the catalog,
// the backends and the hierarchy resolver.
//
// # Services
//
// VocabularyService keeps the catalog and the backend registry in step with
// the configuration and the vocabulary files on disk, and owns the graph
// cache lifecycle.
//
// HierarchyService resolves and renders the concept hierarchy of a
// vocabulary. A resolution that cannot complete is reported as
// ErrHierarchyUnavailable; partial hierarchies are never returned.
//
// # Event System
//
// Catalog changes are published on an EventBus, which the server forwards to
// connected clients as Server-Sent Events.
package service
