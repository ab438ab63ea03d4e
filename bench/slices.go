package bench

import (
	"encoding/binary"
	"math/rand/v2"
)

// SliceSeed seeds the generator that splits the payload into write sizes.
const SliceSeed = 42023241994

// maxSlice bounds write sizes to 1..19 bytes.
const maxSlice = 20

// Slices splits data into consecutive slices of 1 to 19 bytes drawn from a
// generator seeded with seed. The split depends only on len(data) and seed.
func Slices(data []byte, seed uint64) [][]byte {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([][]byte, 0, len(data)/(maxSlice/2)+1)
	for start := 0; start < len(data); {
		end := min(len(data), start+1+rng.IntN(maxSlice-1))
		out = append(out, data[start:end])
		start = end
	}
	return out
}

// SeededPayload returns n bytes from a generator seeded with seed, for
// benchmarks that need the same data on every run.
func SeededPayload(n int, seed uint64) []byte {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([]byte, n+7)
	for i := 0; i < n; i += 8 {
		binary.LittleEndian.PutUint64(out[i:], rng.Uint64())
	}
	return out[:n:n]
}
