// Package hierarchy resolves and renders concept hierarchies.
//
// Resolver walks the narrower-than relation from a root concept, fetching one
// graph per concept through a Fetcher. Each fetch is retried up to a fixed
// budget; exhausting it, or meeting a concept that is narrower than one of its
// own ancestors, fails the whole resolution.
//
// Render turns the resolved depth-tagged sequence into a collapsible tree of
// open, entry and close markers using a single forward pass with one-step
// lookahead.
package hierarchy
