//go:build !amd64 && !arm64 && !purego

package backend

func hwCycles() uint64 { return monotonicCycles() }

func cpuSupported() bool { return true }
