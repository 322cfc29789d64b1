package geno

import (
	"github.com/aead/chacha20/chacha"
	"github.com/hhcho/frand"
)

const randBufferSize = 1024

// Random is an owned uniform pseudo-random source. Each Random instance
// carries its own buffered generator, so repeated runs with the same seed
// reproduce the same stream and independent instances never share state.
type Random struct {
	rng *frand.RNG
}

// NewRandom returns a generator seeded with seed. The seed is copied into a
// fixed-size key; a nil or short seed is zero-padded.
func NewRandom(seed []byte) *Random {
	key := make([]byte, chacha.KeySize)
	copy(key, seed)
	return &Random{rng: frand.NewCustom(key, randBufferSize, 20)}
}

// Next returns a uniform value in [0, 1).
func (r *Random) Next() float64 {
	return r.rng.Float64()
}
