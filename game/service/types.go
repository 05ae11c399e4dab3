package service

import (
	"errors"
	"time"

	"github.com/wricardo/mcp-training/geocoin/game/engine"
)

// MaxBulkMoves caps the number of steps executed by one BulkMove call
const MaxBulkMoves = 64

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a move or teleport
type MoveResult struct {
	Success   bool              `json:"success"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
	Step      *StepInfo         `json:"step,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"` // 1-based index of the move that failed
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	StartPos  engine.LatLng `json:"start_pos"`
	EndPos    engine.LatLng `json:"end_pos"`
	StartCell engine.Cell   `json:"start_cell"`
	EndCell   engine.Cell   `json:"end_cell"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Richest cache in view at the end of the walk
	Richest *engine.CacheView `json:"richest,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx           int           `json:"idx"`
	Dir           string        `json:"dir"`
	From          engine.LatLng `json:"from"`
	To            engine.LatLng `json:"to"`
	FromCell      engine.Cell   `json:"from_cell"`
	ToCell        engine.Cell   `json:"to_cell"`
	VisibleCaches int           `json:"visible_caches"`
	Appeared      int           `json:"appeared"`
	Evicted       int           `json:"evicted"`
	Success       bool          `json:"success"`
}

// CacheActionResult is returned by Collect and Deposit
type CacheActionResult struct {
	Success    bool              `json:"success"`
	Token      engine.Token      `json:"token"`
	Cell       engine.Cell       `json:"cell"`
	CacheCoins int               `json:"cache_coins"`
	Points     int               `json:"points"`
	Message    string            `json:"message"`
	GameState  *engine.GameState `json:"game_state"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string       `json:"type"` // "move", "cache_appeared", "cache_evicted", "collect", "deposit", "reset"
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Cell      *engine.Cell `json:"cell,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.HistoryEntry `json:"moves"`
	TotalMoves  int                   `json:"total_moves"`
	Page        int                   `json:"page"`
	PageSize    int                   `json:"page_size"`
	TotalPages  int                   `json:"total_pages"`
	HasNext     bool                  `json:"has_next"`
	HasPrevious bool                  `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename         string        `json:"filename"`
	ConfigID         string        `json:"config_id"` // The identifier to use for session creation
	Name             string        `json:"name"`      // Display name
	Description      string        `json:"description"`
	TileWidth        float64       `json:"tile_width"`
	VisibilityRadius int           `json:"visibility_radius"`
	SpawnProbability float64       `json:"spawn_probability"`
	Anchor           engine.LatLng `json:"anchor"`
}

// NewConfigInfo summarizes config under the given identifier
func NewConfigInfo(id string, config *engine.GameConfig) *ConfigInfo {
	return &ConfigInfo{
		Filename:         id + ".json",
		ConfigID:         id,
		Name:             config.Name,
		Description:      config.Description,
		TileWidth:        config.TileWidth,
		VisibilityRadius: config.VisibilityRadius,
		SpawnProbability: config.SpawnProbability,
		Anchor:           config.Anchor,
	}
}
