package randutil

import (
	rand "math/rand/v2"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand derived deterministically from a single seed.
// rand/v2's PCG wants two 64-bit seeds; centralising the derivation keeps
// every seeded agent reproducible from one number.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(mix(seed), mix(seed+goldenRatio64)))
}

// FromTime returns a *rand.Rand seeded from the current time, for callers
// that want variety rather than reproducibility.
func FromTime() *rand.Rand {
	return New(uint64(time.Now().UnixNano()))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
