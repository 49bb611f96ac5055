// Package repository defines the data access interfaces for vocabhub.
//
// Two concerns are persisted: the vocabulary catalog, mirrored from the config
// file and discovered vocabulary files, and a cache of narrower graphs fetched
// from remote backends. Resolved hierarchies are always recomputed and never
// stored.
//
// # SQLite Implementation
//
// The sqlite subpackage implements Repository on a single SQLite file in WAL
// mode, using the pure-Go modernc driver. The schema is migrated on open, and
// ":memory:" databases are used by the tests.
package repository
