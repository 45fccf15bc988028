//go:build windows

package session

import (
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// invalidSessionID is what WTSGetActiveConsoleSessionId returns when
// no session is attached to the physical console.
const invalidSessionID = 0xFFFFFFFF

// WTSQuerySessionInformation info class for the session username.
const wtsUserName = 5

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	wtsapi32 = windows.NewLazySystemDLL("wtsapi32.dll")

	procWTSGetActiveConsoleSessionId = kernel32.NewProc("WTSGetActiveConsoleSessionId")
	procWTSQuerySessionInformation   = wtsapi32.NewProc("WTSQuerySessionInformationW")
)

type wtsEnumerator struct{}

// New returns the WTS-backed session enumerator.
func New() Enumerator {
	return &wtsEnumerator{}
}

// Sessions lists the physical console session plus any enumerable
// interactive sessions. Remote-desktop stations are filtered out
// unless includeRDP is set.
func (e *wtsEnumerator) Sessions(includeRDP bool) ([]Descriptor, error) {
	var descs []Descriptor

	if console, ok := consoleSession(); ok {
		name := label("Console", sessionUsername(uint32(console)))
		descs = append(descs, Descriptor{ID: console, Name: name})
	}

	stations, err := enumerateStations()
	if err != nil {
		return nil, err
	}
	for _, st := range stations {
		if Contains(descs, st.ID) {
			continue
		}
		if !includeRDP && strings.HasPrefix(st.Name, "RDP-") {
			continue
		}
		st.Name = label(st.Name, sessionUsername(uint32(st.ID)))
		descs = append(descs, st.Descriptor)
	}

	return disambiguate(descs), nil
}

// Active returns the session the OS considers current. With shareRDP
// the first active enumerated session (console or RDP) wins; otherwise
// only the physical console counts.
func (e *wtsEnumerator) Active(shareRDP bool) (ID, bool) {
	if shareRDP {
		stations, err := enumerateStations()
		if err == nil {
			for _, st := range stations {
				if st.active {
					return st.ID, true
				}
			}
		}
	}
	return consoleSession()
}

func consoleSession() (ID, bool) {
	r1, _, _ := procWTSGetActiveConsoleSessionId.Call()
	if uint32(r1) == invalidSessionID {
		return 0, false
	}
	return ID(uint32(r1)), true
}

type station struct {
	Descriptor
	active bool
}

func (s station) String() string {
	return fmt.Sprintf("%s:%d", s.Name, s.ID)
}

// enumerateStations lists interactive window stations via
// WTSEnumerateSessions, skipping session 0 services.
func enumerateStations() ([]station, error) {
	var info *windows.WTS_SESSION_INFO
	var count uint32
	if err := windows.WTSEnumerateSessions(0, 0, 1, &info, &count); err != nil {
		return nil, fmt.Errorf("enumerating sessions: %w", err)
	}
	defer windows.WTSFreeMemory(uintptr(unsafe.Pointer(info)))

	entries := unsafe.Slice(info, count)
	var out []station
	for _, e := range entries {
		name := windows.UTF16PtrToString(e.WindowStationName)
		if e.SessionID == 0 || strings.EqualFold(name, "Services") {
			continue
		}
		switch e.State {
		case windows.WTSActive, windows.WTSConnected, windows.WTSDisconnected:
		default:
			continue
		}
		out = append(out, station{
			Descriptor: Descriptor{ID: ID(e.SessionID), Name: name},
			active:     e.State == windows.WTSActive,
		})
	}
	return out, nil
}

// sessionUsername resolves the logged-in username of a session, empty
// when nobody is logged in.
func sessionUsername(sid uint32) string {
	var buf *uint16
	var n uint32
	r1, _, _ := procWTSQuerySessionInformation.Call(
		0, // WTS_CURRENT_SERVER_HANDLE
		uintptr(sid),
		wtsUserName,
		uintptr(unsafe.Pointer(&buf)),
		uintptr(unsafe.Pointer(&n)),
	)
	if r1 == 0 || buf == nil {
		return ""
	}
	defer windows.WTSFreeMemory(uintptr(unsafe.Pointer(buf)))
	return windows.UTF16PtrToString(buf)
}
