package service

import "errors"

var (
	// ErrNotFound is returned for vocabularies missing from the catalog
	ErrNotFound = errors.New("not found")
	// ErrNoRoot is returned when neither the request nor the vocabulary names
	// a hierarchy root
	ErrNoRoot = errors.New("no hierarchy root")
	// ErrHierarchyUnavailable wraps every terminal resolution failure
	ErrHierarchyUnavailable = errors.New("hierarchy unavailable")
)
