//go:build linux

package supervisor

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcAttr asks the kernel to terminate the renderer when the host dies.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.Signal(unix.SIGTERM)}
}

func terminate(p *os.Process) error {
	return p.Signal(syscall.Signal(unix.SIGTERM))
}
