package supervisor

import "github.com/farview/farview-agent/internal/session"

// State is the loop's view of which session is being served. It has
// exactly one writer, the supervision loop itself; the transition
// rules below are pure functions so they can be tested without OS
// calls.
type State struct {
	Current      session.ID
	HaveCurrent  bool
	Override     session.ID
	HaveOverride bool
}

// reconcileActive is the pre-wait check: it returns the session to
// adopt when the served session is unset, has left the available set,
// or sharing is disabled and auto-detection points elsewhere. While
// the served session remains available and sharing is on, the answer
// is always "stay put" — this is what keeps a client override from
// being reverted here.
func (st State) reconcileActive(available []session.Descriptor, active session.ID, activeOK, sharing bool) (session.ID, bool) {
	if st.HaveCurrent && sharing && session.Contains(available, st.Current) {
		return 0, false
	}
	if !activeOK {
		return 0, false
	}
	if st.HaveCurrent && st.Current == active {
		return 0, false
	}
	return active, true
}

// timeoutSwitch is the idle-path check: adopt the re-queried active
// session unless it already matches, or the served session was
// client-overridden. An override is sticky — auto-detection never
// reverts the session it selected.
func (st State) timeoutSwitch(active session.ID, activeOK bool) (session.ID, bool) {
	if !activeOK {
		return 0, false
	}
	if st.HaveCurrent && st.Current == active {
		return 0, false
	}
	if st.HaveOverride && st.HaveCurrent && st.Override == st.Current {
		return 0, false
	}
	return active, true
}

// applyOverride records a client-requested session and reports whether
// the worker must be relaunched (the request differs from the served
// session).
func (st *State) applyOverride(sid session.ID) bool {
	if st.HaveCurrent && st.Current == sid {
		return false
	}
	st.Override = sid
	st.HaveOverride = true
	st.adopt(sid)
	return true
}

// adopt makes sid the served session.
func (st *State) adopt(sid session.ID) {
	st.Current = sid
	st.HaveCurrent = true
}

// adoptAuto makes sid the served session as a result of auto-detection
// and drops any override. Auto-detection only reaches this point when
// the overridden session is no longer viable, so the override must not
// keep pinning future decisions.
func (st *State) adoptAuto(sid session.ID) {
	st.HaveOverride = false
	st.adopt(sid)
}
