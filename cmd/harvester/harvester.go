package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/wricardo/mcp-training/geocoin/game/engine"
	"github.com/wricardo/mcp-training/geocoin/game/service"
)

// Options controls a harvesting run
type Options struct {
	ConfigID    string
	SessionID   string // resume this session instead of creating one
	SessionFile string // remembers the session between runs, empty disables
	Target      int    // points to reach
	PerCache    int    // coins taken from one cache, 0 drains it
	MaxMoves    int
	Bulk        bool // send whole spiral legs through bulk-move
	Reset       bool
	Delay       time.Duration
	Verbose     bool
}

// Result summarizes a harvesting run
type Result struct {
	SessionID string
	Moves     int
	Collected int
	Points    int
	Reached   bool
	FinalCell engine.Cell
}

// Harvest walks a spiral around the anchor collecting coins from every
// visible cache until the target is reached or the move budget runs out
func Harvest(ctx context.Context, client *Client, opts Options) (*Result, error) {
	if opts.Target <= 0 {
		return nil, fmt.Errorf("target must be positive, got %d", opts.Target)
	}

	state, err := openSession(ctx, client, opts)
	if err != nil {
		return nil, err
	}

	if opts.Reset {
		log.Printf("🔄 Resetting game state...")
		if state, err = client.Reset(ctx); err != nil {
			return nil, err
		}
	}

	log.Printf("Starting at cell %s with %d caches in sight, %d points",
		state.PlayerCell, len(state.Caches), state.Points)

	strategy := NewSpiralStrategy(opts.PerCache)
	result := &Result{SessionID: client.SessionID()}

	for {
		state, err = collectVisible(ctx, client, strategy, state, opts.Target, result)
		if err != nil {
			return result, err
		}
		if state.Points >= opts.Target {
			result.Reached = true
			break
		}
		if result.Moves >= opts.MaxMoves {
			break
		}

		if opts.Bulk {
			moves := strategy.NextLeg(min(service.MaxBulkMoves, opts.MaxMoves-result.Moves))
			bulk, err := client.BulkMove(ctx, moves)
			if err != nil {
				return result, err
			}
			result.Moves += bulk.MovesExecuted
			state = bulk.GameState
			if !bulk.Success {
				return result, fmt.Errorf("bulk move stopped on move %d: %s", bulk.StoppedOnMove, bulk.StoppedReason)
			}
		} else {
			move, err := client.Move(ctx, strategy.NextMove())
			if err != nil {
				return result, err
			}
			result.Moves++
			state = move.GameState
		}

		if opts.Verbose && result.Moves%50 == 0 {
			log.Printf("Cell %s, moves %d, caches %d, points %d/%d",
				state.PlayerCell, result.Moves, len(state.Caches), state.Points, opts.Target)
		}

		if opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}

	result.Points = state.Points
	result.FinalCell = state.PlayerCell
	return result, nil
}

// collectVisible takes coins from the visible caches until the target is met
// or the strategy has nothing left here
func collectVisible(ctx context.Context, client *Client, strategy *SpiralStrategy, state *engine.GameState, target int, result *Result) (*engine.GameState, error) {
	for _, cache := range strategy.Targets(state) {
		for n := strategy.Quota(cache); n > 0; n-- {
			if state.Points >= target {
				result.Points = state.Points
				return state, nil
			}

			collected, err := client.Collect(ctx, cache.Cell)
			if err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
					// drained or out of sight, move on
					break
				}
				return state, err
			}

			strategy.Take(cache.Cell)
			result.Collected++
			state = collected.GameState
		}
	}
	result.Points = state.Points
	return state, nil
}

// openSession resumes the requested or remembered session, falling back to a
// new one
func openSession(ctx context.Context, client *Client, opts Options) (*engine.GameState, error) {
	sessionID := opts.SessionID
	if sessionID == "" && opts.SessionFile != "" {
		if data, err := os.ReadFile(opts.SessionFile); err == nil {
			sessionID = string(bytes.TrimSpace(data))
		}
	}

	if sessionID != "" {
		log.Printf("🔄 Resuming session: %s", sessionID)
		state, err := client.Resume(ctx, sessionID)
		if err == nil {
			return state, nil
		}
		log.Printf("⚠️  Failed to resume session (may be expired): %v", err)
	}

	state, err := client.CreateSession(ctx, opts.ConfigID)
	if err != nil {
		return nil, err
	}
	log.Printf("✨ Session created: %s", client.SessionID())

	if opts.SessionFile != "" {
		if err := os.WriteFile(opts.SessionFile, []byte(client.SessionID()), 0644); err != nil {
			log.Printf("Warning: Failed to save session ID: %v", err)
		}
	}
	return state, nil
}
