//go:build purego

package backend

// The purego build compiles out every accelerated routine
func accelerated() Backend { return nil }

func KernelName() string { return "none" }
