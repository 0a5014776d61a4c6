// Package graph implements the dependency graph that sits at the core of
// the model repository manager: one DependencyNode per known model,
// directed edges from an ensemble to the models it composes, and the
// bookkeeping (name index, missing-upstream index) needed to resolve
// references as models come and go.
//
// The graph is not safe for concurrent use on its own; callers (the
// manager package) are expected to serialize access with their own mutex,
// matching the "Shared resources" note in the design this package follows.
package graph
