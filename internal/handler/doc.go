// Package handler implements the vocabhub HTTP API.
//
// Vocabulary catalog:
//
//	GET /vocabularies
//	GET /vocabularies/{id}
//
// Hierarchies are content negotiated from the Accept header, or from the
// _mediatype query parameter when present. text/html yields a treeview
// fragment of nested <details> elements; application/json yields the nested
// items together with the flat depth-tagged node list:
//
//	GET /vocabularies/{id}/hierarchy[?uri=<root>]
//	GET /vocabularies/{id}/narrower?uri=<concept>
//
// A hierarchy that cannot be resolved, because a fetch kept failing or the
// data contains a cycle, is reported as 502 {"error":"hierarchy unavailable"}.
//
// Errors are returned as JSON with an {error, details} structure.
package handler
