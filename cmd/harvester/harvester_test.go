package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/geocoin/api"
	"github.com/wricardo/mcp-training/geocoin/game/config"
	"github.com/wricardo/mcp-training/geocoin/game/engine"
	"github.com/wricardo/mcp-training/geocoin/game/service"
	"github.com/wricardo/mcp-training/geocoin/game/session"
)

func setupGameServer(t *testing.T) *httptest.Server {
	t.Helper()
	configMgr, err := config.NewManager("../../configs")
	require.NoError(t, err)

	gameService := service.NewGameService(session.NewManager(), configMgr)
	ts := httptest.NewServer(api.NewServer(gameService, nil))
	t.Cleanup(ts.Close)
	return ts
}

func TestClientSession(t *testing.T) {
	ts := setupGameServer(t)
	ctx := context.Background()
	client := NewClient(ts.URL)

	state, err := client.CreateSession(ctx, "null_island")
	require.NoError(t, err)
	assert.NotEmpty(t, client.SessionID())
	assert.Equal(t, engine.Cell{I: 0, J: 0}, state.PlayerCell)
	assert.Len(t, state.Caches, 31)

	collected, err := client.Collect(ctx, engine.Cell{I: 0, J: 1})
	require.NoError(t, err)
	assert.Equal(t, "0,1#0", collected.Token.String())
	assert.Equal(t, 94, collected.CacheCoins)

	deposited, err := client.Deposit(ctx, engine.Cell{I: -8, J: 1})
	require.NoError(t, err)
	assert.Equal(t, 99, deposited.CacheCoins)
	assert.Equal(t, 0, deposited.Points)

	moved, err := client.Move(ctx, "north")
	require.NoError(t, err)
	assert.Equal(t, engine.Cell{I: 1, J: 0}, moved.GameState.PlayerCell)

	bulk, err := client.BulkMove(ctx, []string{"south", "east"})
	require.NoError(t, err)
	assert.Equal(t, 2, bulk.MovesExecuted)
	assert.Equal(t, engine.Cell{I: 0, J: 1}, bulk.GameState.PlayerCell)

	reset, err := client.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.Cell{I: 0, J: 0}, reset.PlayerCell)
	assert.Len(t, reset.Caches, 31)
}

func TestClientAPIError(t *testing.T) {
	ts := setupGameServer(t)
	ctx := context.Background()
	client := NewClient(ts.URL)

	_, err := client.Resume(ctx, "missing")
	require.Error(t, err)
	assert.Empty(t, client.SessionID())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	_, err = client.CreateSession(ctx, "null_island")
	require.NoError(t, err)

	_, err = client.Collect(ctx, engine.Cell{I: 0, J: 0})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	_, err = client.Move(ctx, "sideways")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestHarvestWithoutMoving(t *testing.T) {
	ts := setupGameServer(t)

	result, err := Harvest(context.Background(), NewClient(ts.URL), Options{
		ConfigID: "null_island",
		Target:   5,
		PerCache: 1,
		MaxMoves: 10,
	})
	require.NoError(t, err)

	assert.True(t, result.Reached)
	assert.Equal(t, 0, result.Moves)
	assert.Equal(t, 5, result.Collected)
	assert.Equal(t, 5, result.Points)
	assert.Equal(t, engine.Cell{I: 0, J: 0}, result.FinalCell)
}

func TestHarvestWalksSpiral(t *testing.T) {
	for _, bulk := range []bool{false, true} {
		name := "single"
		if bulk {
			name = "bulk"
		}
		t.Run(name, func(t *testing.T) {
			ts := setupGameServer(t)

			result, err := Harvest(context.Background(), NewClient(ts.URL), Options{
				ConfigID: "null_island",
				Target:   40,
				PerCache: 1,
				MaxMoves: 200,
				Bulk:     bulk,
			})
			require.NoError(t, err)

			assert.True(t, result.Reached)
			assert.Greater(t, result.Moves, 0)
			assert.Equal(t, 40, result.Points)
			assert.Equal(t, 40, result.Collected)
		})
	}
}

func TestHarvestDrainsCaches(t *testing.T) {
	ts := setupGameServer(t)
	ctx := context.Background()

	fresh, err := NewClient(ts.URL).CreateSession(ctx, "null_island")
	require.NoError(t, err)

	result, err := Harvest(ctx, NewClient(ts.URL), Options{
		ConfigID: "null_island",
		Target:   150,
		PerCache: 0,
		MaxMoves: 0,
	})
	require.NoError(t, err)
	assert.True(t, result.Reached)
	assert.Equal(t, 0, result.Moves)
	assert.Equal(t, 150, result.Points)

	client := NewClient(ts.URL)
	state, err := client.Resume(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, fresh.TotalCoins-150, state.TotalCoins)

	drained := 0
	for _, cache := range state.Caches {
		if cache.Coins == 0 {
			drained++
		}
	}
	assert.Greater(t, drained, 0, "the nearest cache is emptied before moving on")
}

func TestHarvestMoveBudget(t *testing.T) {
	ts := setupGameServer(t)

	result, err := Harvest(context.Background(), NewClient(ts.URL), Options{
		ConfigID: "null_island",
		Target:   100000,
		PerCache: 1,
		MaxMoves: 3,
	})
	require.NoError(t, err)
	assert.False(t, result.Reached)
	assert.Equal(t, 3, result.Moves)
	assert.Less(t, result.Points, 100000)
}

func TestHarvestRejectsNonPositiveTarget(t *testing.T) {
	_, err := Harvest(context.Background(), NewClient("http://unused"), Options{Target: 0})
	assert.Error(t, err)
}

func TestHarvestSessionFile(t *testing.T) {
	ts := setupGameServer(t)
	sessionFile := filepath.Join(t.TempDir(), ".session")
	opts := Options{
		ConfigID:    "null_island",
		SessionFile: sessionFile,
		Target:      1,
		PerCache:    1,
	}

	first, err := Harvest(context.Background(), NewClient(ts.URL), opts)
	require.NoError(t, err)

	saved, err := os.ReadFile(sessionFile)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, string(saved))

	// The resumed session already holds a point
	second, err := Harvest(context.Background(), NewClient(ts.URL), opts)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 0, second.Collected)

	// Reset returns the coin, so it is collected again
	opts.Reset = true
	third, err := Harvest(context.Background(), NewClient(ts.URL), opts)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, third.SessionID)
	assert.Equal(t, 1, third.Collected)
}

func TestHarvestFallsBackToNewSession(t *testing.T) {
	ts := setupGameServer(t)

	result, err := Harvest(context.Background(), NewClient(ts.URL), Options{
		ConfigID:  "null_island",
		SessionID: "expired",
		Target:    1,
		PerCache:  1,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "expired", result.SessionID)
	assert.True(t, result.Reached)
}

func TestAppOptions(t *testing.T) {
	var got Options
	fake := func(ctx context.Context, client *Client, opts Options) (*Result, error) {
		got = opts
		return &Result{SessionID: "abc", Reached: true, Points: opts.Target}, nil
	}

	err := newApp(fake).Run(context.Background(), []string{
		"harvester", "--url", "http://example.test", "--config", "sparse",
		"--target", "7", "--per-cache", "0", "--max-moves", "12", "--bulk", "--session-file", "",
	})
	require.NoError(t, err)

	assert.Equal(t, Options{
		ConfigID: "sparse",
		Target:   7,
		PerCache: 0,
		MaxMoves: 12,
		Bulk:     true,
	}, got)
}

func TestAppDefaults(t *testing.T) {
	var got Options
	fake := func(ctx context.Context, client *Client, opts Options) (*Result, error) {
		got = opts
		return &Result{Reached: true}, nil
	}

	require.NoError(t, newApp(fake).Run(context.Background(), []string{"harvester"}))

	assert.Equal(t, ".session", got.SessionFile)
	assert.Equal(t, 100, got.Target)
	assert.Equal(t, 1, got.PerCache)
	assert.Equal(t, 3000, got.MaxMoves)
	assert.False(t, got.Bulk)
}
