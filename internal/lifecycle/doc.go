// Package lifecycle defines the ModelLifecycle abstraction the manager
// drives to actually load and unload model versions, plus two
// implementations: an in-memory fake used by tests and as a default, and
// a go-llama.cpp-backed adapter gated behind the "llama" build tag so a
// CGO-free binary can still be built.
//
// ModelLifecycle owns no dependency knowledge; the Dependency Graph and
// Manager decide what to load and in what order, this package only
// answers "load/unload this (identifier, version)" and reports current
// state back.
package lifecycle
