// affinity_stub.go - no-op CPU affinity where sched_setaffinity(2) is missing

//go:build !linux

package control

// setAffinity is a no-op; the thread stays locked but unpinned.
func setAffinity(int) error {
	return nil
}
