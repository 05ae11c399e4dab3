package engine

import "strconv"

// Geocache holds the mutable coin count of one cell
type Geocache struct {
	Cell     *Cell
	NumCoins int
}

// NewGeocache creates an empty cache for cell
func NewGeocache(cell *Cell) *Geocache {
	return &Geocache{Cell: cell}
}

// ToMemento serializes the coin count as decimal text
func (g *Geocache) ToMemento() string {
	return strconv.Itoa(g.NumCoins)
}

// FromMemento restores the coin count from text produced by ToMemento.
// Anything other than a plain non-negative decimal integer is rejected and
// leaves the cache unchanged.
func (g *Geocache) FromMemento(memento string) error {
	if memento == "" {
		return &InvalidMementoError{Memento: memento}
	}
	for i := 0; i < len(memento); i++ {
		if memento[i] < '0' || memento[i] > '9' {
			return &InvalidMementoError{Memento: memento}
		}
	}
	n, err := strconv.Atoi(memento)
	if err != nil {
		return &InvalidMementoError{Memento: memento}
	}
	g.NumCoins = n
	return nil
}

// CollectOne removes a coin, failing when the cache is empty
func (g *Geocache) CollectOne() error {
	if g.NumCoins <= 0 {
		return &EmptyCacheError{Cell: *g.Cell}
	}
	g.NumCoins--
	return nil
}

// DepositOne adds a coin
func (g *Geocache) DepositOne() {
	g.NumCoins++
}
