//go:build !windows

package session

// Interactive desktop sessions are a Windows concept here. Other
// platforms expose a single pseudo-session so the supervisor loop can
// be exercised in development.

const pseudoSessionID ID = 0

type staticEnumerator struct{}

// New returns the single-pseudo-session enumerator.
func New() Enumerator {
	return &staticEnumerator{}
}

func (e *staticEnumerator) Sessions(includeRDP bool) ([]Descriptor, error) {
	return []Descriptor{{ID: pseudoSessionID, Name: "Console"}}, nil
}

func (e *staticEnumerator) Active(shareRDP bool) (ID, bool) {
	return pseudoSessionID, true
}
