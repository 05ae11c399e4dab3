package engine

// ChebyshevDistance returns the number of king moves between two cells
func ChebyshevDistance(from, to Cell) int {
	di := abs(from.I - to.I)
	dj := abs(from.J - to.J)
	if di > dj {
		return di
	}
	return dj
}

// FindRichestCache returns the visible cache with the most coins.
// Ties go to the closest cache, then to the first in row-major order.
func FindRichestCache(caches []CacheView) (CacheView, bool) {
	var best CacheView
	found := false
	for _, c := range caches {
		if !found || c.Coins > best.Coins || (c.Coins == best.Coins && c.Distance < best.Distance) {
			best = c
			found = true
		}
	}
	return best, found
}

// CountCoins sums the coins of the given caches
func CountCoins(caches []CacheView) int {
	total := 0
	for _, c := range caches {
		total += c.Coins
	}
	return total
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
