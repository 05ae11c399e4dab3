package engine

import "sort"

// MementoStore keeps the serialized state of caches that may be evicted.
// It is owned by the session, not by the Board or the caches themselves.
type MementoStore struct {
	mementos map[Cell]string
}

// NewMementoStore creates an empty store
func NewMementoStore() *MementoStore {
	return &MementoStore{mementos: make(map[Cell]string)}
}

// Save records the memento for cell, replacing any previous one
func (s *MementoStore) Save(cell Cell, memento string) {
	s.mementos[cell] = memento
}

// Load returns the memento for cell
func (s *MementoStore) Load(cell Cell) (string, bool) {
	memento, ok := s.mementos[cell]
	return memento, ok
}

// Delete drops the memento for cell
func (s *MementoStore) Delete(cell Cell) {
	delete(s.mementos, cell)
}

// Clear drops every memento
func (s *MementoStore) Clear() {
	s.mementos = make(map[Cell]string)
}

// Len returns the number of stored mementos
func (s *MementoStore) Len() int {
	return len(s.mementos)
}

// Cells returns the cells that have a memento, ordered by i then j
func (s *MementoStore) Cells() []Cell {
	cells := make([]Cell, 0, len(s.mementos))
	for cell := range s.mementos {
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(a, b int) bool {
		if cells[a].I != cells[b].I {
			return cells[a].I < cells[b].I
		}
		return cells[a].J < cells[b].J
	})
	return cells
}
