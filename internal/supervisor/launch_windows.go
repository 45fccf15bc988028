//go:build windows

package supervisor

import (
	"fmt"
	"log/slog"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/farview/farview-agent/internal/session"
)

// ProcessLauncher starts the agent binary in worker mode inside a
// target session. With asUser set the worker runs under the session
// user's token; otherwise it runs under the service's own token moved
// into the target session, which survives the logon screen where no
// user token exists.
type ProcessLauncher struct {
	logger *slog.Logger
	asUser bool
}

func NewProcessLauncher(logger *slog.Logger, asUser bool) *ProcessLauncher {
	return &ProcessLauncher{logger: logger, asUser: asUser}
}

func (pl *ProcessLauncher) Launch(sid session.ID) (WorkerProcess, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolving executable: %w", err)
	}
	pl.logger.Debug("launching worker", "sid", sid, "as_user", pl.asUser)

	token, err := pl.sessionToken(uint32(sid))
	if err != nil {
		return nil, err
	}
	defer token.Close()

	var envBlock *uint16
	if err := windows.CreateEnvironmentBlock(&envBlock, token, false); err != nil {
		return nil, fmt.Errorf("CreateEnvironmentBlock: %w", err)
	}
	defer windows.DestroyEnvironmentBlock(envBlock)

	cmdLine, err := windows.UTF16PtrFromString(fmt.Sprintf(`"%s" --server`, exe))
	if err != nil {
		return nil, err
	}

	var si windows.StartupInfo
	si.Cb = uint32(unsafe.Sizeof(si))
	si.Desktop, _ = windows.UTF16PtrFromString(`winsta0\default`)

	var pi windows.ProcessInformation
	err = windows.CreateProcessAsUser(
		token,
		nil,
		cmdLine,
		nil,
		nil,
		false,
		windows.CREATE_UNICODE_ENVIRONMENT|windows.CREATE_NO_WINDOW,
		envBlock,
		nil,
		&si,
		&pi,
	)
	if err != nil {
		return nil, fmt.Errorf("CreateProcessAsUser: %w", err)
	}
	windows.CloseHandle(pi.Thread)

	return &workerProc{handle: pi.Process, pid: int(pi.ProcessId)}, nil
}

// sessionToken builds a primary token bound to the target session. The
// user-token path fails on sessions with nobody logged in (the logon
// screen), so the service-token path is the default for lock-screen
// coverage.
func (pl *ProcessLauncher) sessionToken(sid uint32) (windows.Token, error) {
	if pl.asUser {
		var userToken windows.Token
		if err := windows.WTSQueryUserToken(sid, &userToken); err != nil {
			return 0, fmt.Errorf("WTSQueryUserToken(%d): %w", sid, err)
		}
		defer userToken.Close()
		return duplicatePrimary(userToken, false, sid)
	}

	var procToken windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(),
		windows.TOKEN_DUPLICATE|windows.TOKEN_QUERY|windows.TOKEN_ASSIGN_PRIMARY,
		&procToken)
	if err != nil {
		return 0, fmt.Errorf("OpenProcessToken: %w", err)
	}
	defer procToken.Close()
	return duplicatePrimary(procToken, true, sid)
}

// duplicatePrimary makes a primary token from src, optionally retagged
// to the target session.
func duplicatePrimary(src windows.Token, setSession bool, sid uint32) (windows.Token, error) {
	var dup windows.Token
	err := windows.DuplicateTokenEx(src, windows.MAXIMUM_ALLOWED, nil,
		windows.SecurityImpersonation, windows.TokenPrimary, &dup)
	if err != nil {
		return 0, fmt.Errorf("DuplicateTokenEx: %w", err)
	}
	if setSession {
		err = windows.SetTokenInformation(dup, windows.TokenSessionId,
			(*byte)(unsafe.Pointer(&sid)), uint32(unsafe.Sizeof(sid)))
		if err != nil {
			dup.Close()
			return 0, fmt.Errorf("SetTokenInformation: %w", err)
		}
	}
	return dup, nil
}

// workerProc tracks a launched worker by process handle.
type workerProc struct {
	handle windows.Handle
	pid    int
}

func (p *workerProc) Pid() int { return p.pid }

func (p *workerProc) Running() bool {
	var code uint32
	if err := windows.GetExitCodeProcess(p.handle, &code); err != nil {
		return false
	}
	// STILL_ACTIVE is defined as STATUS_PENDING (0x103) in the SDK;
	// x/sys/windows only exports the latter name.
	return code == uint32(windows.STATUS_PENDING)
}

func (p *workerProc) Release() error {
	return windows.CloseHandle(p.handle)
}
