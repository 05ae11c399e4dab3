package engine

import (
	"math"

	"github.com/paulmach/orb"
)

// Board converts geographic coordinates into canonical grid cells and
// decides which cells near a point hold a geocache.
type Board struct {
	TileWidth        float64
	VisibilityRadius int
	SpawnProbability float64

	luck       LuckFunc
	knownCells map[string]*Cell
}

// BoardOption customizes a Board at construction time
type BoardOption func(*Board)

// WithSpawnProbability overrides DefaultSpawnProbability
func WithSpawnProbability(p float64) BoardOption {
	return func(b *Board) {
		b.SpawnProbability = p
	}
}

// WithLuck replaces the default Luck function
func WithLuck(fn LuckFunc) BoardOption {
	return func(b *Board) {
		if fn != nil {
			b.luck = fn
		}
	}
}

// NewBoard creates a board with the given cell edge (in degrees) and
// visibility radius (in cells)
func NewBoard(tileWidth float64, visibilityRadius int, opts ...BoardOption) *Board {
	b := &Board{
		TileWidth:        tileWidth,
		VisibilityRadius: visibilityRadius,
		SpawnProbability: DefaultSpawnProbability,
		luck:             Luck,
		knownCells:       make(map[string]*Cell),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// canonical returns the interned cell for (i, j), creating it on first use
func (b *Board) canonical(i, j int) *Cell {
	cell := Cell{I: i, J: j}
	key := cell.String()
	if known, ok := b.knownCells[key]; ok {
		return known
	}
	b.knownCells[key] = &cell
	return &cell
}

// GetCellForPoint returns the canonical cell containing point.
// Indices are rounded, not truncated.
func (b *Board) GetCellForPoint(point orb.Point) *Cell {
	i := int(math.Round(point.Lat() / b.TileWidth))
	j := int(math.Round(point.Lon() / b.TileWidth))
	return b.canonical(i, j)
}

// GetCellBounds returns the rectangle from (i, j)·TileWidth to (i+1, j+1)·TileWidth
func (b *Board) GetCellBounds(cell Cell) orb.Bound {
	return orb.Bound{
		Min: orb.Point{float64(cell.J) * b.TileWidth, float64(cell.I) * b.TileWidth},
		Max: orb.Point{float64(cell.J+1) * b.TileWidth, float64(cell.I+1) * b.TileWidth},
	}
}

// GetCellsNearPoint returns the cells holding a cache in the square
// neighborhood of point. The ranges are half-open: [origin-r, origin+r).
// Cells are returned row-major, by i then j.
func (b *Board) GetCellsNearPoint(point orb.Point) []*Cell {
	var result []*Cell
	origin := b.GetCellForPoint(point)
	r := b.VisibilityRadius
	for di := -r; di < r; di++ {
		for dj := -r; dj < r; dj++ {
			i, j := origin.I+di, origin.J+dj
			if b.HasCache(Cell{I: i, J: j}) {
				result = append(result, b.canonical(i, j))
			}
		}
	}
	return result
}

// HasCache reports whether the generator places a cache in cell
func (b *Board) HasCache(cell Cell) bool {
	return b.luck(cell.String()) < b.SpawnProbability
}

// InitialCoins returns the generated starting coin count for cell, in [0, maxCoins)
func (b *Board) InitialCoins(cell Cell, maxCoins int) int {
	return int(math.Floor(b.luck(cell.String()+","+initialValueSuffix) * float64(maxCoins)))
}

// KnownCell returns the canonical instance for cell if the board has seen it
func (b *Board) KnownCell(cell Cell) (*Cell, bool) {
	known, ok := b.knownCells[cell.String()]
	return known, ok
}

// Len returns the number of canonical cells in the registry
func (b *Board) Len() int {
	return len(b.knownCells)
}

// Clear empties the canonical-cell registry
func (b *Board) Clear() {
	b.knownCells = make(map[string]*Cell)
}
