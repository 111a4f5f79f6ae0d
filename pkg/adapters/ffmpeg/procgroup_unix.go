//go:build linux || darwin || freebsd || netbsd || openbsd

package ffmpeg

import (
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup starts the child in its own process group so a terminal
// Ctrl-C reaches only us; we then end the child by closing its input.
func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

func signalGroup(p *os.Process, sig syscall.Signal) error {
	if err := syscall.Kill(-p.Pid, sig); err != nil {
		if err == syscall.ESRCH {
			return nil
		}
		return p.Signal(sig)
	}
	return nil
}

func interruptProcess(p *os.Process) error {
	return signalGroup(p, syscall.SIGTERM)
}

func killProcess(p *os.Process) error {
	return signalGroup(p, syscall.SIGKILL)
}
