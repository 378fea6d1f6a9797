//go:build windows

package procreg

import "os"

func terminateSignal() os.Signal {
	return os.Kill
}
