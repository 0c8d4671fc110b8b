// Package simdoc reads and edits YAML-backed simulation documents.
//
// A simulation file holds a list of elements, each carrying a large
// prompt string with named sections (thoughts, memories, communication
// guidelines). Document exposes typed accessors into the YAML node
// tree, so edits round-trip without disturbing unrelated keys, and
// section rewrites are bounded by explicit markers with hard errors
// instead of silent substring misses.
package simdoc
