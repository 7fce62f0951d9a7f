//go:build amd64 && !purego

package backend

import "golang.org/x/sys/cpu"

// rdtsc reads the CPU timestamp counter, implemented in cycles_amd64.s
func rdtsc() uint64

func hwCycles() uint64 { return rdtsc() }

func cpuSupported() bool { return cpu.X86.HasSSE2 }
