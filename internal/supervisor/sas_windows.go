//go:build windows

package supervisor

import "golang.org/x/sys/windows"

var (
	sasDLL      = windows.NewLazySystemDLL("sas.dll")
	procSendSAS = sasDLL.NewProc("SendSAS")
)

// sendSAS injects the secure attention sequence (ctrl-alt-del) on
// behalf of a client. Requires the SoftwareSASGeneration policy to
// permit services.
func sendSAS() error {
	if err := procSendSAS.Find(); err != nil {
		return err
	}
	procSendSAS.Call(uintptr(0)) // FALSE: calling as a service
	return nil
}
