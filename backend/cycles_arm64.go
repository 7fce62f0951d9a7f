//go:build arm64 && !purego

package backend

import "golang.org/x/sys/cpu"

// No user-space cycle counter is portable across arm64 kernels; the monotonic clock stands in
func hwCycles() uint64 { return monotonicCycles() }

func cpuSupported() bool { return cpu.ARM64.HasASIMD }
