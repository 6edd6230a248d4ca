// Package cpuspec sizes worker pools from the host CPU
package cpuspec

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec contains information about CPU specifications
type CPUSpec struct {
	BrandName     string
	PhysicalCores int
	LogicalCores  int
}

// GetCPUSpec returns the specifications of the host CPU
func GetCPUSpec() CPUSpec {
	return CPUSpec{
		BrandName:     cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
	}
}

// Workers returns the number of CPU bound decode workers to run. SMT
// siblings are not counted and the result never exceeds runtime.NumCPU,
// which honours affinity masks.
func (c CPUSpec) Workers() int {
	n := c.PhysicalCores
	if n <= 0 {
		n = c.LogicalCores
	}
	return min(max(n, 1), runtime.NumCPU())
}
