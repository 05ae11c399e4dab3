package engine

import (
	"fmt"

	"github.com/zyedidia/generic/stack"
)

// Serial policy names accepted in GameConfig.SerialPolicy
const (
	SerialPerCell  = "per-cell"
	SerialPerVisit = "per-visit"
)

// Inventory is the player's carried coins, last in first out
type Inventory struct {
	tokens *stack.Stack[Token]
}

// NewInventory creates an empty inventory
func NewInventory() *Inventory {
	return &Inventory{tokens: stack.New[Token]()}
}

// Push adds a token on top
func (inv *Inventory) Push(token Token) {
	inv.tokens.Push(token)
}

// Pop removes and returns the top token
func (inv *Inventory) Pop() (Token, bool) {
	if inv.tokens.Size() == 0 {
		return Token{}, false
	}
	return inv.tokens.Pop(), true
}

// Peek returns the top token without removing it
func (inv *Inventory) Peek() (Token, bool) {
	if inv.tokens.Size() == 0 {
		return Token{}, false
	}
	return inv.tokens.Peek(), true
}

// Len returns the number of carried tokens
func (inv *Inventory) Len() int {
	return inv.tokens.Size()
}

// Tokens lists the carried tokens, top of the stack first
func (inv *Inventory) Tokens() []Token {
	tokens := make([]Token, 0, inv.tokens.Size())
	for inv.tokens.Size() > 0 {
		tokens = append(tokens, inv.tokens.Pop())
	}
	for i := len(tokens) - 1; i >= 0; i-- {
		inv.tokens.Push(tokens[i])
	}
	return tokens
}

// Reset empties the inventory
func (inv *Inventory) Reset() {
	inv.tokens = stack.New[Token]()
}

// SerialPolicy assigns serial numbers to tokens collected from a cell
type SerialPolicy interface {
	// Next returns the serial for the next token taken from cell
	Next(cell Cell) int
	// Forget is called when the cache at cell is evicted from memory
	Forget(cell Cell)
	// Reset is called on a full game reset
	Reset()
}

// serialCounter hands out increasing serials per cell
type serialCounter struct {
	next map[Cell]int
}

func (c *serialCounter) Next(cell Cell) int {
	if c.next == nil {
		c.next = make(map[Cell]int)
	}
	serial := c.next[cell]
	c.next[cell] = serial + 1
	return serial
}

func (c *serialCounter) Reset() {
	c.next = nil
}

// PerCellSerials numbers tokens per cell for the whole game, across evictions
type PerCellSerials struct {
	serialCounter
}

func (p *PerCellSerials) Forget(Cell) {}

// PerVisitSerials restarts numbering each time a cache is brought back into view
type PerVisitSerials struct {
	serialCounter
}

func (p *PerVisitSerials) Forget(cell Cell) {
	delete(p.next, cell)
}

// NewSerialPolicy resolves a policy by name; an empty name selects per-cell
func NewSerialPolicy(name string) (SerialPolicy, error) {
	switch name {
	case "", SerialPerCell:
		return &PerCellSerials{}, nil
	case SerialPerVisit:
		return &PerVisitSerials{}, nil
	default:
		return nil, fmt.Errorf("unknown serial policy %q", name)
	}
}
