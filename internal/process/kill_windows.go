//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup force-kills Chrome and its child processes through
// taskkill's tree mode. The engine calls it on shutdown; pid 0 or below
// is a no-op.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is numeric
}
