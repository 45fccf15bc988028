// Package session enumerates interactive desktop sessions and reports
// which one the OS currently considers active.
package session

import "fmt"

// ID identifies an interactive desktop session.
type ID uint32

// Descriptor describes one enumerable session. Name is for display
// only; consumers make decisions on ID alone.
type Descriptor struct {
	ID   ID
	Name string
}

// Enumerator is the session-enumeration collaborator consumed by the
// supervisor.
type Enumerator interface {
	// Sessions returns the currently available interactive sessions.
	// includeRDP adds remote-desktop-style sessions to the set.
	Sessions(includeRDP bool) ([]Descriptor, error)
	// Active returns the OS's auto-detected active session. shareRDP
	// widens detection to remote-desktop sessions. ok is false when no
	// session is active (e.g. console detached).
	Active(shareRDP bool) (ID, bool)
}

// Contains reports whether descs includes sid.
func Contains(descs []Descriptor, sid ID) bool {
	for _, d := range descs {
		if d.ID == sid {
			return true
		}
	}
	return false
}

// IDs extracts just the session ids from descs.
func IDs(descs []Descriptor) []ID {
	out := make([]ID, len(descs))
	for i, d := range descs {
		out[i] = d.ID
	}
	return out
}

// label builds a display name from a station name and the session
// user, falling back to the station when the user is unknown.
func label(station, user string) string {
	if user == "" {
		return station
	}
	return fmt.Sprintf("%s: %s", station, user)
}

// disambiguate appends the session id to names that occur more than
// once, so identical "Console: alice" entries stay tellable apart.
func disambiguate(descs []Descriptor) []Descriptor {
	counts := make(map[string]int, len(descs))
	for _, d := range descs {
		counts[d.Name]++
	}
	out := make([]Descriptor, len(descs))
	for i, d := range descs {
		if counts[d.Name] > 1 {
			d.Name = fmt.Sprintf("%s (sid = %d)", d.Name, d.ID)
		}
		out[i] = d
	}
	return out
}
