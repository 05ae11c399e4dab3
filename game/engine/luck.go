package engine

import "github.com/cespare/xxhash/v2"

// LuckFunc maps a seed string to a value in [0,1). Implementations must be
// pure: the same seed always yields the same value.
type LuckFunc func(seed string) float64

// Luck hashes seed with xxHash64 and keeps the top 53 bits as the mantissa
// of a float in [0,1). The result is stable across processes and platforms.
func Luck(seed string) float64 {
	return float64(xxhash.Sum64String(seed)>>11) / (1 << 53)
}
