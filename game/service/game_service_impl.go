package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/mcp-training/geocoin/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	// Engines are not safe for concurrent use, not even for reads, since
	// every state query interns the player's cell. One lock covers them all.
	mu sync.Mutex
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate the ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Engine.GetState(),
		GameConfig:     session.Config,
	}, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     s.getConfigID(session.Config.Name),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Engine.GetState(),
		GameConfig:     session.Config,
	}, nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		result = append(result, &SessionInfo{
			ID:             sess.ID,
			ConfigName:     s.getConfigID(sess.Config.Name),
			CreatedAt:      sess.CreatedAt,
			LastAccessedAt: sess.LastAccessedAt,
			GameState:      sess.Engine.GetState(),
			GameConfig:     sess.Config,
		})
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Move executes a single move for a session. A rejected direction is an
// error; the result always reflects a move that happened.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}
	if reset {
		events = append(events, s.reset(sess)...)
	}

	step, stepEvents, err := s.step(sess, 1, direction, func() error {
		return sess.Engine.Move(direction)
	})
	if err != nil {
		return nil, err
	}

	state := sess.Engine.GetState()
	return &MoveResult{
		Success:   true,
		GameState: state,
		Message:   state.Message,
		Events:    append(events, stepEvents...),
		Step:      step,
	}, nil
}

// BulkMove executes multiple moves in sequence, stopping at the first failure
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		result.Events = append(result.Events, s.reset(sess)...)
	}

	start := sess.Engine.GetState()
	result.StartPos = start.PlayerPos
	result.StartCell = start.PlayerCell

	// Limit moves to prevent abuse
	if len(moves) > MaxBulkMoves {
		result.Truncated = true
		result.Limit = MaxBulkMoves
		moves = moves[:MaxBulkMoves]
	}

	for i, move := range moves {
		if err := ctx.Err(); err != nil {
			result.Success = false
			result.StoppedReason = err.Error()
			result.StoppedOnMove = i + 1
			break
		}

		step, events, err := s.step(sess, i+1, move, func() error {
			return sess.Engine.Move(move)
		})
		if err != nil {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d rejected: %v", i+1, err)
			result.StoppedOnMove = i + 1
			break
		}
		result.MovesExecuted++
		result.Steps = append(result.Steps, *step)
		result.Events = append(result.Events, events...)
	}

	end := sess.Engine.GetState()
	result.GameState = end
	result.EndPos = end.PlayerPos
	result.EndCell = end.PlayerCell
	if richest, ok := engine.FindRichestCache(end.Caches); ok {
		result.Richest = &richest
	}

	return result, nil
}

// Teleport places the player at an arbitrary position
func (s *gameServiceImpl) Teleport(ctx context.Context, sessionID string, pos engine.LatLng) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	step, events, err := s.step(sess, 1, "teleport", func() error {
		return sess.Engine.MoveTo(pos)
	})
	if err != nil {
		return nil, err
	}

	state := sess.Engine.GetState()
	return &MoveResult{
		Success:   true,
		GameState: state,
		Message:   state.Message,
		Events:    events,
		Step:      step,
	}, nil
}

// Collect takes one coin from the cache at cell
func (s *gameServiceImpl) Collect(ctx context.Context, sessionID string, cell engine.Cell) (*CacheActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	token, err := sess.Engine.Collect(cell)
	if err != nil {
		return nil, err
	}
	return s.cacheActionResult(sess, cell, token), nil
}

// Deposit puts the most recently collected coin into the cache at cell
func (s *gameServiceImpl) Deposit(ctx context.Context, sessionID string, cell engine.Cell) (*CacheActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	token, err := sess.Engine.Deposit(cell)
	if err != nil {
		return nil, err
	}
	return s.cacheActionResult(sess, cell, token), nil
}

// DescribeCell reports what the session knows about cell
func (s *gameServiceImpl) DescribeCell(ctx context.Context, sessionID string, cell engine.Cell) (*engine.CellDescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	desc := sess.Engine.DescribeCell(cell)
	return &desc, nil
}

// Reset resets a game session to initial state and regenerates the caches
// around the anchor
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.reset(sess)
	return sess.Engine.GetState(), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.HistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// session looks up a session and marks it as accessed. Callers hold s.mu.
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// reset clears the engine and brings the anchor neighborhood back into view
func (s *gameServiceImpl) reset(sess *Session) []GameEvent {
	sess.Engine.Reset()
	if err := sess.Engine.Refresh(); err != nil {
		// The engine only fails to refresh on a corrupt memento, and reset just cleared them
		return []GameEvent{{Type: "reset", Message: err.Error(), Timestamp: time.Now()}}
	}
	return []GameEvent{{
		Type:      "reset",
		Message:   "Game reset to initial state",
		Timestamp: time.Now(),
	}}
}

// step runs one position change and describes which caches came into or
// left view because of it
func (s *gameServiceImpl) step(sess *Session, idx int, dir string, apply func() error) (*StepInfo, []GameEvent, error) {
	before := sess.Engine.GetState()
	if err := apply(); err != nil {
		return nil, nil, err
	}
	after := sess.Engine.GetState()

	appeared, evicted := diffCaches(before.Caches, after.Caches)
	now := time.Now()

	events := []GameEvent{{
		Type:      "move",
		Message:   fmt.Sprintf("Moved %s to cell %s", dir, after.PlayerCell),
		Timestamp: now,
		Cell:      &after.PlayerCell,
	}}
	for i := range appeared {
		events = append(events, GameEvent{
			Type:      "cache_appeared",
			Message:   fmt.Sprintf("Cache %s in view with %d coins", appeared[i].Cell, appeared[i].Coins),
			Timestamp: now,
			Cell:      &appeared[i].Cell,
		})
	}
	for i := range evicted {
		events = append(events, GameEvent{
			Type:      "cache_evicted",
			Message:   fmt.Sprintf("Cache %s out of view", evicted[i].Cell),
			Timestamp: now,
			Cell:      &evicted[i].Cell,
		})
	}

	return &StepInfo{
		Idx:           idx,
		Dir:           dir,
		From:          before.PlayerPos,
		To:            after.PlayerPos,
		FromCell:      before.PlayerCell,
		ToCell:        after.PlayerCell,
		VisibleCaches: len(after.Caches),
		Appeared:      len(appeared),
		Evicted:       len(evicted),
		Success:       true,
	}, events, nil
}

func (s *gameServiceImpl) cacheActionResult(sess *Session, cell engine.Cell, token engine.Token) *CacheActionResult {
	state := sess.Engine.GetState()
	result := &CacheActionResult{
		Success:   true,
		Token:     token,
		Cell:      cell,
		Points:    state.Points,
		Message:   state.Message,
		GameState: state,
	}
	for _, c := range state.Caches {
		if c.Cell == cell {
			result.CacheCoins = c.Coins
			break
		}
	}
	return result
}

// diffCaches returns the caches only present in after, and those only present in before
func diffCaches(before, after []engine.CacheView) (appeared, evicted []engine.CacheView) {
	was := mapset.New[engine.Cell]()
	for _, c := range before {
		was.Put(c.Cell)
	}
	is := mapset.New[engine.Cell]()
	for _, c := range after {
		is.Put(c.Cell)
		if !was.Has(c.Cell) {
			appeared = append(appeared, c)
		}
	}
	for _, c := range before {
		if !is.Has(c.Cell) {
			evicted = append(evicted, c)
		}
	}
	return appeared, evicted
}
