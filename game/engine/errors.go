package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMemento   = errors.New("invalid memento")
	ErrEmptyCache       = errors.New("cache is empty")
	ErrUnknownCell      = errors.New("unknown cell")
	ErrNoMemento        = errors.New("no memento for cell")
	ErrCacheNotVisible  = errors.New("no visible cache at cell")
	ErrInventoryEmpty   = errors.New("no coins to deposit")
	ErrUnknownDirection = errors.New("unknown direction")
	ErrInvalidPosition  = errors.New("invalid position")
)

// InvalidMementoError is returned when memento text is not a non-negative integer
type InvalidMementoError struct {
	Memento string
}

func (e *InvalidMementoError) Error() string {
	return fmt.Sprintf("invalid memento %q: want a non-negative integer", e.Memento)
}

func (e *InvalidMementoError) Unwrap() error { return ErrInvalidMemento }

// EmptyCacheError is returned when collecting from a cache with no coins
type EmptyCacheError struct {
	Cell Cell
}

func (e *EmptyCacheError) Error() string {
	return fmt.Sprintf("cache at %s has no coins left", e.Cell)
}

func (e *EmptyCacheError) Unwrap() error { return ErrEmptyCache }

// UnknownCellError is returned when an operation names a cell the board never canonicalized
type UnknownCellError struct {
	Cell Cell
}

func (e *UnknownCellError) Error() string {
	return fmt.Sprintf("cell %s is not known to the grid", e.Cell)
}

func (e *UnknownCellError) Unwrap() error { return ErrUnknownCell }
