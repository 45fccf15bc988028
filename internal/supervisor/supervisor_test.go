package supervisor

import (
	"log/slog"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/farview/farview-agent/internal/ipc"
	"github.com/farview/farview-agent/internal/session"
)

type fakeEnum struct {
	mu        sync.Mutex
	available []session.Descriptor
	active    session.ID
	activeOK  bool
}

func (f *fakeEnum) Sessions(includeRDP bool) ([]session.Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]session.Descriptor, len(f.available))
	copy(out, f.available)
	return out, nil
}

func (f *fakeEnum) Active(shareRDP bool) (session.ID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, f.activeOK
}

func (f *fakeEnum) set(available []session.Descriptor, active session.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available = available
	f.active = active
	f.activeOK = true
}

type fakeProc struct {
	mu       sync.Mutex
	pid      int
	running  bool
	released int
}

func (p *fakeProc) Pid() int { return p.pid }

func (p *fakeProc) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *fakeProc) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
	return nil
}

func (p *fakeProc) kill() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
}

func (p *fakeProc) releaseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

type fakeLauncher struct {
	mu    sync.Mutex
	sids  []session.ID
	procs []*fakeProc
}

func (f *fakeLauncher) Launch(sid session.ID) (WorkerProcess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	proc := &fakeProc{pid: 1000 + len(f.procs), running: true}
	f.sids = append(f.sids, sid)
	f.procs = append(f.procs, proc)
	return proc, nil
}

func (f *fakeLauncher) launches() []session.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]session.ID, len(f.sids))
	copy(out, f.sids)
	return out
}

func (f *fakeLauncher) proc(i int) *fakeProc {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.procs[i]
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// startSupervisor runs a supervisor over a loopback control listener
// with fakes for sessions and worker processes.
func startSupervisor(t *testing.T, enum *fakeEnum) (*fakeLauncher, string, chan error) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	listener := ipc.NewListener(l)
	t.Cleanup(func() { listener.Close() })

	launcher := &fakeLauncher{}
	sup := New(Config{
		PollInterval:    10 * time.Millisecond,
		ReadTimeout:     200 * time.Millisecond,
		WorkerWait:      2 * time.Millisecond,
		ShareRDP:        true,
		ServiceEndpoint: l.Addr().String(),
		WorkerEndpoint:  filepath.Join(t.TempDir(), "worker.sock"),
	}, slog.Default(), enum, launcher, listener)

	done := make(chan error, 1)
	go func() { done <- sup.Run() }()
	return launcher, l.Addr().String(), done
}

func sendMsg(t *testing.T, addr string, msg *ipc.Message) {
	t.Helper()
	raw, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	conn := ipc.NewConn(raw)
	defer conn.Close()
	if err := conn.Send(msg); err != nil {
		t.Fatal(err)
	}
}

func stop(t *testing.T, addr string, done chan error) {
	t.Helper()
	sendMsg(t, addr, &ipc.Message{Type: ipc.MsgClose})
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}
}

func TestFollowsActiveSession(t *testing.T) {
	enum := &fakeEnum{}
	enum.set(descs(1, 2), 1)
	launcher, addr, done := startSupervisor(t, enum)

	waitFor(t, func() bool { return len(launcher.launches()) == 1 }, "initial launch")
	if got := launcher.launches()[0]; got != 1 {
		t.Fatalf("launched for sid %d, want 1", got)
	}

	// The active session moves; the worker follows and the old one is
	// released exactly once.
	enum.set(descs(1, 2), 2)
	waitFor(t, func() bool { return len(launcher.launches()) == 2 }, "relaunch after switch")
	if got := launcher.launches()[1]; got != 2 {
		t.Fatalf("relaunched for sid %d, want 2", got)
	}
	waitFor(t, func() bool { return launcher.proc(0).releaseCount() == 1 }, "old worker release")

	stop(t, addr, done)
	if n := launcher.proc(0).releaseCount(); n != 1 {
		t.Fatalf("old worker released %d times, want 1", n)
	}
	if n := launcher.proc(1).releaseCount(); n != 1 {
		t.Fatalf("final worker released %d times, want 1", n)
	}
}

func TestOverridePinsSession(t *testing.T) {
	enum := &fakeEnum{}
	enum.set(descs(1, 2, 7), 1)
	launcher, addr, done := startSupervisor(t, enum)
	waitFor(t, func() bool { return len(launcher.launches()) == 1 }, "initial launch")

	msg, err := ipc.NewOverrideMessage(7)
	if err != nil {
		t.Fatal(err)
	}
	sendMsg(t, addr, msg)
	waitFor(t, func() bool { return len(launcher.launches()) == 2 }, "launch for override")
	if got := launcher.launches()[1]; got != 7 {
		t.Fatalf("override launched sid %d, want 7", got)
	}

	// Auto-detection must not revert the override while session 7 is
	// still available.
	enum.set(descs(1, 2, 7), 2)
	time.Sleep(100 * time.Millisecond)
	if n := len(launcher.launches()); n != 2 {
		t.Fatalf("override reverted, %d launches", n)
	}

	// Once the overridden session disappears, auto-detection resumes.
	enum.set(descs(1, 2), 2)
	waitFor(t, func() bool { return len(launcher.launches()) == 3 }, "adoption after override session left")
	if got := launcher.launches()[2]; got != 2 {
		t.Fatalf("adopted sid %d, want 2", got)
	}

	stop(t, addr, done)
}

func TestRelaunchesDeadWorker(t *testing.T) {
	enum := &fakeEnum{}
	enum.set(descs(1), 1)
	launcher, addr, done := startSupervisor(t, enum)
	waitFor(t, func() bool { return len(launcher.launches()) == 1 }, "initial launch")

	launcher.proc(0).kill()
	waitFor(t, func() bool { return len(launcher.launches()) == 2 }, "relaunch after death")
	if got := launcher.launches()[1]; got != 1 {
		t.Fatalf("relaunched sid %d, want 1", got)
	}

	stop(t, addr, done)
}

func TestCloseStopsAndReleasesOnce(t *testing.T) {
	enum := &fakeEnum{}
	enum.set(descs(1), 1)
	launcher, addr, done := startSupervisor(t, enum)
	waitFor(t, func() bool { return len(launcher.launches()) == 1 }, "initial launch")

	stop(t, addr, done)
	if n := launcher.proc(0).releaseCount(); n != 1 {
		t.Fatalf("worker released %d times, want 1", n)
	}
}

func TestWorkerStopIdempotent(t *testing.T) {
	proc := &fakeProc{running: true}
	w := newWorker(slog.Default(), filepath.Join(t.TempDir(), "w.sock"), time.Millisecond)
	w.Replace(proc)
	w.Stop()
	w.Stop()
	if n := proc.releaseCount(); n != 1 {
		t.Fatalf("released %d times, want 1", n)
	}
	if w.Alive() {
		t.Fatal("stopped worker reported alive")
	}
}
