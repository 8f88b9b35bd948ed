//go:build amd64

package vecmath

import (
	"fmt"

	"golang.org/x/sys/cpu"
)

func init() {
	hasWideLoads = cpu.X86.HasAVX2 && cpu.X86.HasFMA
	cpuFeatures = fmt.Sprintf("avx2=%v fma=%v avx512f=%v", cpu.X86.HasAVX2, cpu.X86.HasFMA, cpu.X86.HasAVX512F)
	initCapabilities()
}
