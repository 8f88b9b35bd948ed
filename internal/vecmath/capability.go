package vecmath

import (
	"os"
	"strings"
)

// Kernel identifies a kernel set.
type Kernel uint8

const (
	// Generic is the scalar loop.
	Generic Kernel = iota
	// Unrolled is the 4-way unrolled loop.
	Unrolled
)

// String returns the string representation of a Kernel.
func (k Kernel) String() string {
	switch k {
	case Generic:
		return "generic"
	case Unrolled:
		return "unrolled"
	default:
		return "unknown"
	}
}

// ParseKernel parses a kernel name.
func ParseKernel(s string) (Kernel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "unrolled":
		return Unrolled, true
	default:
		return Generic, false
	}
}

var (
	activeKernel Kernel
	hasOverride  bool

	// set by platform-specific init
	hasWideLoads bool
	cpuFeatures  string
)

// initCapabilities is called from platform-specific init functions
// after CPU features are detected.
func initCapabilities() {
	if override := os.Getenv("RECGO_KERNEL"); override != "" {
		if k, ok := ParseKernel(override); ok {
			hasOverride = true
			use(k)
			return
		}
	}

	if hasWideLoads {
		use(Unrolled)
		return
	}
	use(Generic)
}

func use(k Kernel) {
	activeKernel = k
	switch k {
	case Unrolled:
		dotImpl = dotUnrolled
		squaredL2Impl = squaredL2Unrolled
		axpyImpl = axpyUnrolled
	default:
		dotImpl = dotGeneric
		squaredL2Impl = squaredL2Generic
		axpyImpl = axpyGeneric
	}
}

// ActiveKernel returns the selected kernel set.
func ActiveKernel() Kernel {
	return activeKernel
}

// IsOverridden returns true if RECGO_KERNEL was set to a valid kernel.
func IsOverridden() bool {
	return hasOverride
}

// CPUFeatures describes the detected features relevant to kernel selection.
func CPUFeatures() string {
	return cpuFeatures
}
