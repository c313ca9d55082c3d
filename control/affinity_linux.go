// affinity_linux.go - Linux CPU affinity via sched_setaffinity(2)

//go:build linux

package control

import "golang.org/x/sys/unix"

// setAffinity pins the current thread to the given core.
func setAffinity(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
