package explore

import "github.com/cespare/xxhash/v2"

// HashSeed maps a string to the stable 64-bit hash used for seed
// derivation. The same mixer feeds both exploration sampling and the
// logged-ordering PRF so reruns are reproducible.
func HashSeed(s string) uint64 {
	return xxhash.Sum64String(s)
}

// EventSeed combines an event id with the application's seed shift:
// hash(app_id) + hash(event_id), independent of call order.
func EventSeed(eventID string, seedShift uint64) uint64 {
	return HashSeed(eventID) + seedShift
}

// UniformDraw maps a seed to a uniform value in [0,1) through a fixed
// splitmix64 finalizer, so the draw depends only on the seed.
func UniformDraw(seed uint64) float64 {
	z := seed + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	// Keep the top 53 bits so the result is an exact float64.
	return float64(z>>11) / (1 << 53)
}
