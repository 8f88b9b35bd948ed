//go:build arm64

package vecmath

import (
	"fmt"

	"golang.org/x/sys/cpu"
)

func init() {
	hasWideLoads = cpu.ARM64.HasASIMD
	cpuFeatures = fmt.Sprintf("asimd=%v sve2=%v", cpu.ARM64.HasASIMD, cpu.ARM64.HasSVE2)
	initCapabilities()
}
