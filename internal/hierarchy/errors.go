package hierarchy

import (
	"fmt"
	"strings"
)

// FetchError is a terminal failure to load the narrower graph of a concept.
// The whole resolution is abandoned when one occurs.
type FetchError struct {
	URI      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load graph from %s: maximum attempts exceeded (%d): %v", e.URI, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CycleError reports a concept that is narrower than one of its own ancestors
type CycleError struct {
	URI  string
	Path []string // root first, ending with the revisited URI
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected at %s: %s", e.URI, strings.Join(e.Path, " -> "))
}
