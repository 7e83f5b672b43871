package util

import "runtime"

// PoolBounds derives a pool size from the CPU count: PerCPU workers per core,
// clamped to [Min, Max].
type PoolBounds struct {
	Min    int
	Max    int
	PerCPU int
}

// DefaultPoolBounds sizes both the worker pool and the per-dialect parser
// pools. Tree-sitter parsing runs in cgo, so two workers per core keep the
// cores busy while one of them is blocked in C.
var DefaultPoolBounds = PoolBounds{Min: 4, Max: 32, PerCPU: 2}

var numCPU = runtime.NumCPU

// Size returns override when it is positive, otherwise the clamped CPU-based
// size.
func (b PoolBounds) Size(override int) int {
	if override > 0 {
		return override
	}
	n := numCPU() * b.PerCPU
	if n < b.Min {
		n = b.Min
	}
	if b.Max > 0 && n > b.Max {
		n = b.Max
	}
	return n
}

// PoolSize is DefaultPoolBounds.Size.
func PoolSize(override int) int {
	return DefaultPoolBounds.Size(override)
}
