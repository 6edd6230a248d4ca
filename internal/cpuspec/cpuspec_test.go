package cpuspec

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec CPUSpec
		want int
	}{
		{"unknown cpu", CPUSpec{}, 1},
		{"physical cores preferred", CPUSpec{PhysicalCores: 1, LogicalCores: 2}, 1},
		{"logical fallback", CPUSpec{LogicalCores: 1}, 1},
		{"capped by runtime", CPUSpec{PhysicalCores: runtime.NumCPU() + 64}, runtime.NumCPU()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.spec.Workers())
		})
	}

	assert.GreaterOrEqual(t, GetCPUSpec().Workers(), 1)
}
