package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

const (
	// Validation constants
	MinTileWidth        = 1e-7
	MaxTileWidth        = 1.0
	MinVisibilityRadius = 1
	MaxVisibilityRadius = 64
	MaxInitialCoins     = 1000000

	// DefaultSpawnProbability is the chance that any given cell holds a cache.
	DefaultSpawnProbability = 0.1
	// DefaultMaxInitialCoins bounds the generated coin count (exclusive).
	DefaultMaxInitialCoins = 100

	initialValueSuffix = "initialValue"
)

// LatLng is a geographic coordinate in degrees
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts the coordinate into an orb.Point (lng, lat order)
func (p LatLng) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// LatLngFromPoint converts an orb.Point back into a LatLng
func LatLngFromPoint(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

// Valid reports whether the coordinate lies within the usual lat/lng ranges
func (p LatLng) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Cell identifies one grid square by its integer indices.
// Cells compare by value; two cells with equal indices are the same cell.
type Cell struct {
	I int `json:"i"`
	J int `json:"j"`
}

// String returns the composite key "i,j" used by the registry and as the luck seed
func (c Cell) String() string {
	return strconv.Itoa(c.I) + "," + strconv.Itoa(c.J)
}

// ParseCell parses a key produced by Cell.String
func ParseCell(key string) (Cell, error) {
	parts := strings.Split(strings.TrimSpace(key), ",")
	if len(parts) != 2 {
		return Cell{}, fmt.Errorf("invalid cell key %q: want \"i,j\"", key)
	}
	i, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Cell{}, fmt.Errorf("invalid cell key %q: %w", key, err)
	}
	j, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Cell{}, fmt.Errorf("invalid cell key %q: %w", key, err)
	}
	return Cell{I: i, J: j}, nil
}

// Bounds is the JSON form of a cell's geographic rectangle
type Bounds struct {
	SouthWest LatLng `json:"south_west"`
	NorthEast LatLng `json:"north_east"`
}

// BoundsFromOrb converts an orb.Bound into Bounds
func BoundsFromOrb(b orb.Bound) Bounds {
	return Bounds{
		SouthWest: LatLngFromPoint(b.Min),
		NorthEast: LatLngFromPoint(b.Max),
	}
}

// Token is the receipt for one collected coin
type Token struct {
	Cell   Cell `json:"cell"`
	Serial int  `json:"serial"`
}

// String renders the token as "i,j#serial"
func (t Token) String() string {
	return fmt.Sprintf("%s#%d", t.Cell, t.Serial)
}

// CacheView is a read-only snapshot of a visible geocache
type CacheView struct {
	Cell     Cell   `json:"cell"`
	Bounds   Bounds `json:"bounds"`
	Coins    int    `json:"coins"`
	Distance int    `json:"distance"` // Chebyshev distance in cells from the player
}

// CellDescription reports everything the engine knows about a single cell
type CellDescription struct {
	Cell         Cell   `json:"cell"`
	Bounds       Bounds `json:"bounds"`
	Known        bool   `json:"known"`
	HasCache     bool   `json:"has_cache"`
	Visible      bool   `json:"visible"`
	Coins        int    `json:"coins"`
	InitialCoins int    `json:"initial_coins"`
	Memento      string `json:"memento,omitempty"`
}

// GameState represents the complete game state as seen by a client
type GameState struct {
	ConfigName   string      `json:"config_name"`
	PlayerPos    LatLng      `json:"player_pos"`
	PlayerCell   Cell        `json:"player_cell"`
	Caches       []CacheView `json:"caches"`
	Inventory    []Token     `json:"inventory"` // top of the stack first
	Points       int         `json:"points"`
	TotalCoins   int         `json:"total_coins"`
	MementoCount int         `json:"memento_count"`
	Message      string      `json:"message"`

	MoveHistory []HistoryEntry `json:"move_history"`
	TotalMoves  int            `json:"total_moves"`

	// CurrentMoves tracks only the actions since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []HistoryEntry `json:"current_moves"`
	CurrentMovesCount int            `json:"current_moves_count"`
}

// HistoryEntry represents a single player action in the game history
type HistoryEntry struct {
	Action     string `json:"action"`
	From       LatLng `json:"from"`
	To         LatLng `json:"to"`
	Cell       *Cell  `json:"cell,omitempty"` // target cache for collect/deposit
	Points     int    `json:"points"`
	Timestamp  int64  `json:"timestamp"`
	Success    bool   `json:"success"`
	MoveNumber int    `json:"move_number"`
}
