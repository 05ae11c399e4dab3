package engine

import (
	"fmt"
	"strings"

	"github.com/zyedidia/generic/mapset"
)

// Directions accepted by Move. Up/down/left/right are aliases.
var directionSteps = map[string][2]int{
	"north": {1, 0},
	"south": {-1, 0},
	"east":  {0, 1},
	"west":  {0, -1},
	"up":    {1, 0},
	"down":  {-1, 0},
	"right": {0, 1},
	"left":  {0, -1},
}

// Directions lists the canonical direction names
func Directions() []string {
	return []string{"north", "south", "east", "west"}
}

// Move steps the player one cell width in direction
func (e *GameEngine) Move(direction string) error {
	name := strings.ToLower(strings.TrimSpace(direction))
	step, ok := directionSteps[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDirection, direction)
	}

	from := e.playerPos
	to := LatLng{
		Lat: from.Lat + float64(step[0])*e.config.TileWidth,
		Lng: from.Lng + float64(step[1])*e.config.TileWidth,
	}
	return e.moveTo(name, from, to)
}

// MoveTo places the player at pos, as a geolocation update would
func (e *GameEngine) MoveTo(pos LatLng) error {
	return e.moveTo("teleport", e.playerPos, pos)
}

func (e *GameEngine) moveTo(action string, from, to LatLng) error {
	if !to.Valid() {
		e.recordAction(action, from, nil, false)
		return fmt.Errorf("%w: (%g, %g)", ErrInvalidPosition, to.Lat, to.Lng)
	}

	e.playerPos = to
	if err := e.respawn(); err != nil {
		e.playerPos = from
		e.recordAction(action, from, nil, false)
		return err
	}

	if e.config.Messages.Moved != "" {
		e.message = fmt.Sprintf(e.config.Messages.Moved, len(e.visible))
	}
	e.recordAction(action, from, nil, true)
	return nil
}

// respawn brings the active cache set in line with the player position.
// Caches that left the neighborhood are flushed to the memento store and
// dropped; newly visible cells are restored from a memento when one exists
// and generated otherwise. Calling it twice for the same position changes
// nothing. On error the previous cache set is left untouched.
func (e *GameEngine) respawn() error {
	near := e.board.GetCellsNearPoint(e.playerPos.Point())

	next := make(map[Cell]*Geocache, len(near))
	for _, cell := range near {
		if cache, ok := e.caches[*cell]; ok {
			next[*cell] = cache
			continue
		}
		cache, err := e.materialize(cell)
		if err != nil {
			return err
		}
		next[*cell] = cache
	}

	inView := mapset.New[Cell]()
	for cell := range next {
		inView.Put(cell)
	}
	for cell, cache := range e.caches {
		if inView.Has(cell) {
			continue
		}
		e.mementos.Save(cell, cache.ToMemento())
		e.serials.Forget(cell)
	}

	e.caches = next
	e.visible = near
	return nil
}

// materialize creates the cache object for a newly visible cell
func (e *GameEngine) materialize(cell *Cell) (*Geocache, error) {
	cache := NewGeocache(cell)
	if memento, ok := e.mementos.Load(*cell); ok {
		if err := cache.FromMemento(memento); err != nil {
			return nil, fmt.Errorf("restore cache %s: %w", cell, err)
		}
		return cache, nil
	}

	cache.NumCoins = e.board.InitialCoins(*cell, e.config.MaxInitialCoins)
	e.mementos.Save(*cell, cache.ToMemento())
	return cache, nil
}
