//go:build !windows

package supervisor

import "errors"

func sendSAS() error {
	return errors.New("secure attention sequence not supported on this platform")
}
