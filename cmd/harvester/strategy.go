package main

import (
	"sort"

	"github.com/wricardo/mcp-training/geocoin/game/engine"
)

// spiralDirections is the turning order of the square spiral
var spiralDirections = []string{"east", "north", "west", "south"}

// SpiralStrategy walks outward from the start cell in a square spiral so every
// neighborhood is eventually swept, and picks which visible caches to drain.
type SpiralStrategy struct {
	perCache int // coins to take from a single cache, 0 means all

	dirIdx  int
	legLen  int
	stepped int // steps taken on the current leg
	legs    int // legs finished at the current length

	taken map[engine.Cell]int
}

func NewSpiralStrategy(perCache int) *SpiralStrategy {
	s := &SpiralStrategy{perCache: perCache}
	s.Reset()
	return s
}

// Reset restarts the spiral and forgets what was taken
func (s *SpiralStrategy) Reset() {
	s.dirIdx = 0
	s.legLen = 1
	s.stepped = 0
	s.legs = 0
	s.taken = make(map[engine.Cell]int)
}

// NextMove returns the next direction of the spiral: legs of length
// 1, 1, 2, 2, 3, 3, ... turning east, north, west, south.
func (s *SpiralStrategy) NextMove() string {
	direction := spiralDirections[s.dirIdx]
	s.stepped++
	if s.stepped == s.legLen {
		s.stepped = 0
		s.dirIdx = (s.dirIdx + 1) % len(spiralDirections)
		s.legs++
		if s.legs == 2 {
			s.legs = 0
			s.legLen++
		}
	}
	return direction
}

// NextLeg returns the remaining moves of the current leg, at most max
func (s *SpiralStrategy) NextLeg(max int) []string {
	remaining := s.legLen - s.stepped
	if max > 0 && remaining > max {
		remaining = max
	}
	moves := make([]string, 0, remaining)
	for i := 0; i < remaining; i++ {
		moves = append(moves, s.NextMove())
	}
	return moves
}

// Targets lists the visible caches still worth collecting from, nearest first
// and richest first among equals
func (s *SpiralStrategy) Targets(state *engine.GameState) []engine.CacheView {
	var targets []engine.CacheView
	for _, cache := range state.Caches {
		if cache.Coins == 0 {
			continue
		}
		if s.perCache > 0 && s.taken[cache.Cell] >= s.perCache {
			continue
		}
		targets = append(targets, cache)
	}

	sort.SliceStable(targets, func(a, b int) bool {
		if targets[a].Distance != targets[b].Distance {
			return targets[a].Distance < targets[b].Distance
		}
		return targets[a].Coins > targets[b].Coins
	})
	return targets
}

// Take records a coin collected from cell
func (s *SpiralStrategy) Take(cell engine.Cell) {
	s.taken[cell]++
}

// Quota returns how many coins may still be taken from cache
func (s *SpiralStrategy) Quota(cache engine.CacheView) int {
	if s.perCache == 0 {
		return cache.Coins
	}
	left := s.perCache - s.taken[cache.Cell]
	if left > cache.Coins {
		left = cache.Coins
	}
	if left < 0 {
		return 0
	}
	return left
}
