//go:build !amd64 && !purego

package backend

import "github.com/lixenwraith/detphys/vmath"

func KernelName() string { return "go" }

func addVec2s(a, b, out []vmath.Vec2) { addVec2sGo(a, b, out) }
