//go:build amd64 && !purego

package backend

import (
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/lixenwraith/detphys/vmath"
)

// Implemented in kernels_amd64.s; n counts int32 words, not vectors

//go:noescape
func addWordsAVX2(out, a, b *int32, n int)

//go:noescape
func addWordsSSE2(out, a, b *int32, n int)

type addKernel struct {
	name string
	fn   func(out, a, b *int32, n int)
}

// addKernels lists the kernels this CPU can run, widest first
func addKernels() []addKernel {
	var ks []addKernel
	if cpu.X86.HasAVX2 {
		ks = append(ks, addKernel{"avx2", addWordsAVX2})
	}
	if cpu.X86.HasSSE2 {
		ks = append(ks, addKernel{"sse2", addWordsSSE2})
	}
	return ks
}

var activeAdd = func() addKernel {
	if ks := addKernels(); len(ks) > 0 {
		return ks[0]
	}
	return addKernel{"go", nil}
}()

// KernelName reports the vector kernel the accelerated backend picked for this CPU
func KernelName() string { return activeAdd.name }

// words views a Vec2 slice as its 2*len raw int32 words
func words(v []vmath.Vec2) *int32 {
	return (*int32)(unsafe.Pointer(unsafe.SliceData(v)))
}

// addVec2s expects equal-length slices
func addVec2s(a, b, out []vmath.Vec2) {
	if len(out) == 0 {
		return
	}
	if activeAdd.fn == nil {
		addVec2sGo(a, b, out)
		return
	}
	activeAdd.fn(words(out), words(a), words(b), 2*len(out))
}
