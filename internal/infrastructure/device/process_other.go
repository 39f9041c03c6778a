//go:build !unix

package device

import (
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

// без сигналов штатной остановки нет, процесс сразу убивается
func interruptProcess(p *os.Process) error {
	return p.Kill()
}

func killProcess(p *os.Process) error {
	return p.Kill()
}
