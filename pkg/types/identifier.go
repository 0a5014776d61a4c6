package types

import "strings"

// ModelIdentifier names a model within the repository. Namespace is empty
// when namespacing is disabled; two identifiers are equal iff both fields
// match exactly. Name alone is used for fuzzy cross-namespace lookup.
type ModelIdentifier struct {
	Namespace string
	Name      string
}

// NewIdentifier builds a plain, non-namespaced identifier.
func NewIdentifier(name string) ModelIdentifier {
	return ModelIdentifier{Name: name}
}

// String renders "namespace/name" when namespaced, otherwise just "name".
func (id ModelIdentifier) String() string {
	if id.Namespace == "" {
		return id.Name
	}
	return id.Namespace + "/" + id.Name
}

// Empty reports whether the identifier carries no name.
func (id ModelIdentifier) Empty() bool {
	return id.Name == ""
}

// ParseIdentifier splits a "namespace/name" string. A string without a
// slash is treated as an unnamespaced name.
func ParseIdentifier(s string) ModelIdentifier {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return ModelIdentifier{Namespace: s[:i], Name: s[i+1:]}
	}
	return ModelIdentifier{Name: s}
}
