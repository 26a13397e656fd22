//go:build !windows

package process

import "syscall"

// KillProcessGroup kills every process in the group Chrome leads. The
// engine calls it after closing the CDP connection, before the launcher
// removes its user-data dir. pid 0 or below is a no-op since a negative
// zero would address our own group.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
