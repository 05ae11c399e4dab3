// Package engine implements the Geocoin game: a grid of square cells laid over
// latitude and longitude, some of which hold geocaches full of coins.
//
// The engine package implements:
//   - Board: point to cell conversion, cell bounds and canonical cell instances
//   - Deterministic cache placement and initial coins from a LuckFunc
//   - Geocaches whose state round-trips through a memento string
//   - A player inventory that is a stack of tokens (last in, first out)
//   - Pluggable serial numbering of tokens (per cell or per visit)
//   - Movement, teleport, collect, deposit and reset with a move history
//
// Cells:
//
// A point maps to cell (round(lat/w), round(lng/w)) for tile width w, so cell
// (i, j) holds the points within half a cell width of (i*w, j*w).
// GetCellBounds reports the rectangle from (i*w, j*w) to ((i+1)*w, (j+1)*w),
// which is offset half a cell north-east of that rounding region. North
// increases i, east increases j. The visible neighborhood of a player is the
// half-open square [-r, r) around the player's cell in both axes.
//
// Caches:
//
// A cell holds a cache when Luck("i,j") is below the spawn probability. Its
// starting coins are floor(Luck("i,j,initialValue") * max). Luck hashes the
// seed with xxHash64, so the same world appears in every process.
//
// When a cache leaves view its coin count is saved as a memento and the live
// object is dropped. Coming back restores the saved count instead of
// regenerating it.
//
// Usage:
//
//	eng, err := engine.NewEngine(engine.DefaultGameConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := eng.Move("north"); err != nil {
//		log.Printf("move: %v", err)
//	}
//	state := eng.GetState()
//	token, err := eng.Collect(state.Caches[0].Cell)
//
// Errors:
//
// Failures wrap the package sentinels (ErrEmptyCache, ErrInventoryEmpty,
// ErrCacheNotVisible, ErrUnknownCell, ErrUnknownDirection, ...) so callers
// can test them with errors.Is.
package engine
