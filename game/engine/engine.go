package engine

import (
	"fmt"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() *GameState
	Refresh() error
	GetPlayerPosition() LatLng
	GetPoints() int
	GetInventory() []Token

	// Movement operations
	Move(direction string) error
	MoveTo(pos LatLng) error

	// Cache operations
	Collect(cell Cell) (Token, error)
	Deposit(cell Cell) (Token, error)
	GetVisibleCaches() []CacheView
	DescribeCell(cell Cell) CellDescription
	RestoreCache(cell Cell) (*Geocache, error)

	// Configuration
	GetConfig() *GameConfig

	// History
	GetMoveHistory() []HistoryEntry
	GetLastMove() *HistoryEntry
}

// GameEngine implements the Engine interface. It owns every piece of
// mutable state of one game and is not safe for concurrent use.
type GameEngine struct {
	config    *GameConfig
	board     *Board
	mementos  *MementoStore
	caches    map[Cell]*Geocache
	visible   []*Cell
	inventory *Inventory
	serials   SerialPolicy

	playerPos LatLng
	message   string

	history       []HistoryEntry
	totalMoves    int
	current       []HistoryEntry
	currentMovesN int
}

// NewEngine creates a new game engine with the provided configuration and
// places the player at the configured anchor
func NewEngine(config *GameConfig) (*GameEngine, error) {
	return NewEngineWithLuck(config, Luck)
}

// NewEngineWithLuck creates a game engine that uses luck for cache placement
func NewEngineWithLuck(config *GameConfig, luck LuckFunc) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	serials, err := NewSerialPolicy(config.SerialPolicy)
	if err != nil {
		return nil, err
	}

	e := &GameEngine{
		config:    config,
		board:     newBoardFromConfig(config, luck),
		mementos:  NewMementoStore(),
		caches:    make(map[Cell]*Geocache),
		inventory: NewInventory(),
		serials:   serials,
		playerPos: config.Anchor,
		message:   config.Messages.Welcome,
		history:   []HistoryEntry{},
		current:   []HistoryEntry{},
	}
	if err := e.respawn(); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with DefaultGameConfig
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(DefaultGameConfig())
	if err != nil {
		panic(fmt.Sprintf("default config rejected: %v", err))
	}
	return e
}

// GetState returns a fresh snapshot of the game state
func (e *GameEngine) GetState() *GameState {
	caches := e.GetVisibleCaches()

	return &GameState{
		ConfigName:        e.config.Name,
		PlayerPos:         e.playerPos,
		PlayerCell:        e.playerCell(),
		Caches:            caches,
		Inventory:         e.inventory.Tokens(),
		Points:            e.inventory.Len(),
		TotalCoins:        CountCoins(caches),
		MementoCount:      e.mementos.Len(),
		Message:           e.message,
		MoveHistory:       append([]HistoryEntry(nil), e.history...),
		TotalMoves:        e.totalMoves,
		CurrentMoves:      append([]HistoryEntry(nil), e.current...),
		CurrentMovesCount: e.currentMovesN,
	}
}

// Reset forgets every cache, memento and carried coin and returns the player
// to the anchor. No cache is regenerated until the next move or Refresh.
// Cumulative history survives; the current segment is cleared.
func (e *GameEngine) Reset() *GameState {
	e.mementos.Clear()
	e.board.Clear()
	e.caches = make(map[Cell]*Geocache)
	e.visible = nil
	e.inventory.Reset()
	e.serials.Reset()

	e.playerPos = e.config.Anchor
	e.current = []HistoryEntry{}
	e.currentMovesN = 0

	e.message = e.config.Messages.Reset
	if e.message == "" {
		e.message = e.config.Messages.Welcome
	}
	return e.GetState()
}

// Refresh re-evaluates the caches around the current position
func (e *GameEngine) Refresh() error {
	return e.respawn()
}

// GetPlayerPosition returns the current player position
func (e *GameEngine) GetPlayerPosition() LatLng {
	return e.playerPos
}

// GetPoints returns the number of carried coins
func (e *GameEngine) GetPoints() int {
	return e.inventory.Len()
}

// GetInventory returns the carried tokens, top of the stack first
func (e *GameEngine) GetInventory() []Token {
	return e.inventory.Tokens()
}

// Collect takes one coin from the visible cache at cell
func (e *GameEngine) Collect(cell Cell) (Token, error) {
	cache, err := e.visibleCache(cell)
	if err != nil {
		e.recordAction("collect", e.playerPos, &cell, false)
		return Token{}, err
	}
	if err := cache.CollectOne(); err != nil {
		e.recordAction("collect", e.playerPos, &cell, false)
		return Token{}, err
	}

	token := Token{Cell: cell, Serial: e.serials.Next(cell)}
	e.inventory.Push(token)
	e.mementos.Save(cell, cache.ToMemento())

	e.message = e.format(e.config.Messages.Collected, token)
	e.recordAction("collect", e.playerPos, &cell, true)
	return token, nil
}

// Deposit moves the top carried coin into the visible cache at cell
func (e *GameEngine) Deposit(cell Cell) (Token, error) {
	cache, err := e.visibleCache(cell)
	if err != nil {
		e.recordAction("deposit", e.playerPos, &cell, false)
		return Token{}, err
	}
	token, ok := e.inventory.Pop()
	if !ok {
		e.recordAction("deposit", e.playerPos, &cell, false)
		return Token{}, ErrInventoryEmpty
	}

	cache.DepositOne()
	e.mementos.Save(cell, cache.ToMemento())

	e.message = e.format(e.config.Messages.Deposited, token)
	e.recordAction("deposit", e.playerPos, &cell, true)
	return token, nil
}

// GetVisibleCaches returns the caches currently in view, row-major
func (e *GameEngine) GetVisibleCaches() []CacheView {
	player := e.playerCell()
	views := make([]CacheView, 0, len(e.visible))
	for _, cell := range e.visible {
		cache := e.caches[*cell]
		views = append(views, CacheView{
			Cell:     *cell,
			Bounds:   BoundsFromOrb(e.board.GetCellBounds(*cell)),
			Coins:    cache.NumCoins,
			Distance: ChebyshevDistance(player, *cell),
		})
	}
	return views
}

// DescribeCell reports what the engine knows about cell without changing anything
func (e *GameEngine) DescribeCell(cell Cell) CellDescription {
	desc := CellDescription{
		Cell:         cell,
		Bounds:       BoundsFromOrb(e.board.GetCellBounds(cell)),
		HasCache:     e.board.HasCache(cell),
		InitialCoins: e.board.InitialCoins(cell, e.config.MaxInitialCoins),
	}
	_, desc.Known = e.board.KnownCell(cell)
	if !desc.HasCache {
		return desc
	}

	desc.Coins = desc.InitialCoins
	if cache, ok := e.caches[cell]; ok {
		desc.Visible = true
		desc.Coins = cache.NumCoins
	} else if restored, err := e.RestoreCache(cell); err == nil {
		desc.Coins = restored.NumCoins
	}
	desc.Memento, _ = e.mementos.Load(cell)
	return desc
}

// RestoreCache rebuilds a detached copy of the cache at cell from its memento
func (e *GameEngine) RestoreCache(cell Cell) (*Geocache, error) {
	canonical, ok := e.board.KnownCell(cell)
	if !ok {
		return nil, &UnknownCellError{Cell: cell}
	}
	memento, ok := e.mementos.Load(cell)
	if !ok {
		return nil, fmt.Errorf("%s: %w", cell, ErrNoMemento)
	}
	cache := NewGeocache(canonical)
	if err := cache.FromMemento(memento); err != nil {
		return nil, err
	}
	return cache, nil
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetBoard exposes the underlying grid
func (e *GameEngine) GetBoard() *Board {
	return e.board
}

// GetMoveHistory returns the complete action history
func (e *GameEngine) GetMoveHistory() []HistoryEntry {
	return e.history
}

// GetLastMove returns the last recorded action, or nil if there is none
func (e *GameEngine) GetLastMove() *HistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

// visibleCache resolves cell to an active cache, distinguishing cells the
// grid has never seen from known cells without a cache in view
func (e *GameEngine) visibleCache(cell Cell) (*Geocache, error) {
	if _, ok := e.board.KnownCell(cell); !ok {
		return nil, &UnknownCellError{Cell: cell}
	}
	cache, ok := e.caches[cell]
	if !ok {
		return nil, fmt.Errorf("%s: %w", cell, ErrCacheNotVisible)
	}
	return cache, nil
}

func (e *GameEngine) playerCell() Cell {
	return *e.board.GetCellForPoint(e.playerPos.Point())
}

func (e *GameEngine) format(template string, token Token) string {
	if template == "" {
		return token.String()
	}
	return fmt.Sprintf(template, token)
}

// recordAction appends to both the cumulative history and the current segment
func (e *GameEngine) recordAction(action string, from LatLng, cell *Cell, success bool) {
	entry := HistoryEntry{
		Action:     action,
		From:       from,
		To:         e.playerPos,
		Cell:       cell,
		Points:     e.inventory.Len(),
		Timestamp:  time.Now().Unix(),
		Success:    success,
		MoveNumber: e.totalMoves + 1,
	}
	e.history = append(e.history, entry)
	e.totalMoves++

	e.current = append(e.current, entry)
	e.currentMovesN++
}
