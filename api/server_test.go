package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/geocoin/game/config"
	"github.com/wricardo/mcp-training/geocoin/game/engine"
	"github.com/wricardo/mcp-training/geocoin/game/service"
	"github.com/wricardo/mcp-training/geocoin/game/session"
	"github.com/wricardo/mcp-training/geocoin/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	MoveFunc         func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error)
	BulkMoveFunc     func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error)
	TeleportFunc     func(ctx context.Context, sessionID string, pos engine.LatLng) (*service.MoveResult, error)
	CollectFunc      func(ctx context.Context, sessionID string, cell engine.Cell) (*service.CacheActionResult, error)
	DepositFunc      func(ctx context.Context, sessionID string, cell engine.Cell) (*service.CacheActionResult, error)
	DescribeCellFunc func(ctx context.Context, sessionID string, cell engine.Cell) (*engine.CellDescription, error)
	ResetFunc        func(ctx context.Context, sessionID string) (*engine.GameState, error)

	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Move(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, direction, reset)
	}
	return &service.MoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
	if m.BulkMoveFunc != nil {
		return m.BulkMoveFunc(ctx, sessionID, moves, reset)
	}
	return &service.BulkMoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Teleport(ctx context.Context, sessionID string, pos engine.LatLng) (*service.MoveResult, error) {
	if m.TeleportFunc != nil {
		return m.TeleportFunc(ctx, sessionID, pos)
	}
	return &service.MoveResult{Success: true, GameState: &engine.GameState{PlayerPos: pos}}, nil
}

func (m *MockGameService) Collect(ctx context.Context, sessionID string, cell engine.Cell) (*service.CacheActionResult, error) {
	if m.CollectFunc != nil {
		return m.CollectFunc(ctx, sessionID, cell)
	}
	return &service.CacheActionResult{Success: true, Cell: cell, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Deposit(ctx context.Context, sessionID string, cell engine.Cell) (*service.CacheActionResult, error) {
	if m.DepositFunc != nil {
		return m.DepositFunc(ctx, sessionID, cell)
	}
	return &service.CacheActionResult{Success: true, Cell: cell, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) DescribeCell(ctx context.Context, sessionID string, cell engine.Cell) (*engine.CellDescription, error) {
	if m.DescribeCellFunc != nil {
		return m.DescribeCellFunc(ctx, sessionID, cell)
	}
	return &engine.CellDescription{Cell: cell}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.HistoryEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{Name: configName, Description: "Test config"}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService) *Server {
	t.Helper()
	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func TestStatusForError(t *testing.T) {
	cell := engine.Cell{I: 1, J: 2}
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: abc", service.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: nope", service.ErrConfigNotFound), http.StatusNotFound},
		{&engine.UnknownCellError{Cell: cell}, http.StatusNotFound},
		{&engine.EmptyCacheError{Cell: cell}, http.StatusConflict},
		{engine.ErrInventoryEmpty, http.StatusConflict},
		{fmt.Errorf("%s: %w", cell, engine.ErrCacheNotVisible), http.StatusConflict},
		{fmt.Errorf("%w: %q", engine.ErrUnknownDirection, "sideways"), http.StatusBadRequest},
		{engine.ErrInvalidPosition, http.StatusBadRequest},
		{fmt.Errorf("%w: bad", service.ErrInvalidConfig), http.StatusBadRequest},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		wantConfig     string
		createErr      error
		expectedStatus int
	}{
		{name: "default config", expectedStatus: http.StatusCreated},
		{name: "config_id", requestBody: map[string]string{"config_id": "sparse"}, wantConfig: "sparse", expectedStatus: http.StatusCreated},
		{name: "deprecated config_name", requestBody: map[string]string{"config_name": "null_island"}, wantConfig: "null_island", expectedStatus: http.StatusCreated},
		{name: "unknown config", requestBody: map[string]string{"config_id": "mars"}, wantConfig: "mars", createErr: fmt.Errorf("%w: 'mars'", service.ErrConfigNotFound), expectedStatus: http.StatusNotFound},
		{name: "service error", createErr: fmt.Errorf("service error"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				CreateSessionFunc: func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					assert.Equal(t, tt.wantConfig, configName)
					if tt.createErr != nil {
						return nil, tt.createErr
					}
					return &service.SessionInfo{ID: "sess-123", ConfigName: configName, CreatedAt: time.Now()}, nil
				},
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions", tt.requestBody))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.createErr == nil {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				assert.Equal(t, "sess-123", resp.ID)
			} else {
				var resp map[string]string
				parseResponse(t, w, &resp)
				assert.Equal(t, tt.createErr.Error(), resp["error"])
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now},
				{ID: "new", CreatedAt: now, LastAccessedAt: now.Add(-time.Hour)},
				{ID: "mid", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	ids := func(t *testing.T, w *httptest.ResponseRecorder) []string {
		var resp struct {
			Count    int                    `json:"count"`
			Total    int                    `json:"total"`
			Sessions []*service.SessionInfo `json:"sessions"`
		}
		parseResponse(t, w, &resp)
		assert.Equal(t, 3, resp.Total)
		assert.Equal(t, len(resp.Sessions), resp.Count)
		var out []string
		for _, s := range resp.Sessions {
			out = append(out, s.ID)
		}
		return out
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"old", "new", "mid"}},
		{"?sort=created", []string{"new", "mid", "old"}},
		{"?sort=created&order=asc", []string{"old", "mid", "new"}},
		{"?sort=created&limit=2", []string{"new", "mid"}},
		{"?limit=0", []string{"old", "new", "mid"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, ids(t, w))
		})
	}
}

func TestGetAndDeleteSessionNotFound(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			return service.ErrSessionNotFound
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteSession(t *testing.T) {
	var deleted string
	server := setupTestServer(t, &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			deleted = sessionID
			return nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/abc", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", deleted)
	assert.Contains(t, w.Body.String(), "Session abc deleted")
}

// Game Operation Tests

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		moveErr        error
		expectedStatus int
	}{
		{name: "valid move", body: map[string]interface{}{"direction": "north"}, expectedStatus: http.StatusOK},
		{name: "move with reset", body: map[string]interface{}{"direction": "n", "reset": true}, expectedStatus: http.StatusOK},
		{name: "unknown direction", body: map[string]interface{}{"direction": "sideways"}, moveErr: fmt.Errorf("%w: %q", engine.ErrUnknownDirection, "sideways"), expectedStatus: http.StatusBadRequest},
		{name: "unknown session", body: map[string]interface{}{"direction": "north"}, moveErr: service.ErrSessionNotFound, expectedStatus: http.StatusNotFound},
		{name: "invalid body", body: "not json", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(t, &MockGameService{
				MoveFunc: func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
					assert.Equal(t, "sess", sessionID)
					if tt.moveErr != nil {
						return nil, tt.moveErr
					}
					return &service.MoveResult{
						Success:   true,
						GameState: &engine.GameState{PlayerCell: engine.Cell{I: 1, J: 0}},
						Step:      &service.StepInfo{Idx: 1, Dir: direction, ToCell: engine.Cell{I: 1, J: 0}, Success: true},
					}, nil
				},
			})

			var req *http.Request
			if s, ok := tt.body.(string); ok {
				req = httptest.NewRequest("POST", "/api/sessions/sess/move", strings.NewReader(s))
			} else {
				req = makeRequest("POST", "/api/sessions/sess/move", tt.body)
			}
			w := httptest.NewRecorder()
			server.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				assert.True(t, resp.Success)
				assert.Equal(t, engine.Cell{I: 1, J: 0}, resp.Step.ToCell)
			}
		})
	}
}

func TestBulkMove(t *testing.T) {
	server := setupTestServer(t, &MockGameService{
		BulkMoveFunc: func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
			assert.Equal(t, []string{"n", "e", "x"}, moves)
			assert.True(t, reset)
			return &service.BulkMoveResult{
				RequestedMoves: 3,
				MovesExecuted:  2,
				StoppedReason:  "move 3 rejected",
				StoppedOnMove:  3,
				GameState:      &engine.GameState{},
			}, nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess/bulk-move", map[string]interface{}{
		"moves": []string{"n", "e", "x"},
		"reset": true,
	}))

	require.Equal(t, http.StatusOK, w.Code)
	var resp service.BulkMoveResult
	parseResponse(t, w, &resp)
	assert.Equal(t, 2, resp.MovesExecuted)
	assert.Equal(t, 3, resp.StoppedOnMove)
}

func TestTeleport(t *testing.T) {
	var got engine.LatLng
	server := setupTestServer(t, &MockGameService{
		TeleportFunc: func(ctx context.Context, sessionID string, pos engine.LatLng) (*service.MoveResult, error) {
			got = pos
			return &service.MoveResult{Success: true, GameState: &engine.GameState{PlayerPos: pos}}, nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess/teleport", map[string]float64{"lat": 0, "lng": -122.5}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.LatLng{Lat: 0, Lng: -122.5}, got)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess/teleport", map[string]float64{"lat": 1}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCollectAndDepositErrors(t *testing.T) {
	cell := engine.Cell{I: 3, J: -4}
	tests := []struct {
		name   string
		path   string
		body   interface{}
		err    error
		status int
	}{
		{"collect ok", "collect", map[string]int{"i": 3, "j": -4}, nil, http.StatusOK},
		{"collect empty cache", "collect", map[string]int{"i": 3, "j": -4}, &engine.EmptyCacheError{Cell: cell}, http.StatusConflict},
		{"collect unknown cell", "collect", map[string]int{"i": 3, "j": -4}, &engine.UnknownCellError{Cell: cell}, http.StatusNotFound},
		{"collect missing j", "collect", map[string]int{"i": 3}, nil, http.StatusBadRequest},
		{"deposit ok", "deposit", map[string]int{"i": 3, "j": -4}, nil, http.StatusOK},
		{"deposit empty inventory", "deposit", map[string]int{"i": 3, "j": -4}, engine.ErrInventoryEmpty, http.StatusConflict},
		{"deposit not visible", "deposit", map[string]int{"i": 3, "j": -4}, engine.ErrCacheNotVisible, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := func(ctx context.Context, sessionID string, c engine.Cell) (*service.CacheActionResult, error) {
				assert.Equal(t, cell, c)
				if tt.err != nil {
					return nil, tt.err
				}
				return &service.CacheActionResult{
					Success:   true,
					Token:     engine.Token{Cell: c, Serial: 0},
					Cell:      c,
					GameState: &engine.GameState{},
				}, nil
			}
			server := setupTestServer(t, &MockGameService{CollectFunc: action, DepositFunc: action})

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess/"+tt.path, tt.body))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestDescribeCell(t *testing.T) {
	server := setupTestServer(t, &MockGameService{
		DescribeCellFunc: func(ctx context.Context, sessionID string, cell engine.Cell) (*engine.CellDescription, error) {
			return &engine.CellDescription{Cell: cell, HasCache: true, Coins: 7}, nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess/cells/-8/1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var desc engine.CellDescription
	parseResponse(t, w, &desc)
	assert.Equal(t, engine.Cell{I: -8, J: 1}, desc.Cell)
	assert.Equal(t, 7, desc.Coins)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess/cells/a/1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHistoryParsesQuery(t *testing.T) {
	var got service.HistoryOptions
	server := setupTestServer(t, &MockGameService{
		GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{Page: opts.Page, PageSize: opts.Limit}, nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess/history?page=2&limit=5&order=asc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.HistoryOptions{Page: 2, Limit: 5, Order: "asc"}, got)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess/history?page=-1&order=sideways", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}, got)
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	var saved *engine.GameConfig
	server := setupTestServer(t, &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classroom"}, {ConfigID: "sparse"}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			if configName != "classroom" {
				return nil, service.ErrConfigNotFound
			}
			return engine.DefaultGameConfig(), nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, cfg *engine.GameConfig) error {
			if cfg.TileWidth == 0 {
				return fmt.Errorf("%w: tile_width", service.ErrInvalidConfig)
			}
			saved = cfg
			return nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []service.ConfigInfo
	parseResponse(t, w, &list)
	assert.Len(t, list, 2)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/classroom.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/mars", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs", map[string]interface{}{"description": "no name"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs", map[string]interface{}{"name": "bad", "tile_width": 0}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs", map[string]interface{}{"name": "tiny", "tile_width": 0.001}))
	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, saved)
	assert.Equal(t, "tiny", saved.Name)
	assert.Equal(t, 0.001, saved.TileWidth)
}

func TestCreateConfigFillsDefaults(t *testing.T) {
	var saved *engine.GameConfig
	server := setupTestServer(t, &MockGameService{
		SaveConfigFunc: func(ctx context.Context, configName string, cfg *engine.GameConfig) error {
			if err := engine.ValidateGameConfig(cfg); err != nil {
				return fmt.Errorf("%w: %v", service.ErrInvalidConfig, err)
			}
			saved = cfg
			return nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs", map[string]interface{}{
		"name":              "tiny",
		"description":       "d",
		"visibility_radius": 2,
	}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, saved)

	defaults := engine.DefaultGameConfig()
	assert.Equal(t, "tiny", saved.Name)
	assert.Equal(t, 2, saved.VisibilityRadius)
	assert.Equal(t, defaults.TileWidth, saved.TileWidth)
	assert.Equal(t, defaults.SpawnProbability, saved.SpawnProbability)
	assert.Equal(t, defaults.Messages, saved.Messages)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs", "not an object"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnifiedSessions(t *testing.T) {
	server := setupTestServer(t, &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "a", ConfigName: "classroom", GameState: &engine.GameState{Points: 2}},
				{ID: "b", ConfigName: "sparse", GameState: &engine.GameState{Points: 5}},
				{ID: "c", ConfigName: "classroom", GameState: &engine.GameState{Points: 1}},
			}, nil
		},
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID == "b" {
				return &service.SessionInfo{ID: "b", ConfigName: "sparse", GameState: &engine.GameState{Points: 5}}, nil
			}
			return nil, service.ErrSessionNotFound
		},
	})

	type unified struct {
		ConfigName  string                   `json:"config_name"`
		TotalPoints int                      `json:"total_points"`
		Sessions    []map[string]interface{} `json:"sessions"`
	}

	tests := []struct {
		query  string
		count  int
		points int
	}{
		{"", 3, 8},
		{"?configName=classroom", 2, 3},
		{"?sessionIds=b,%20zz,", 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/unified"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var resp unified
			parseResponse(t, w, &resp)
			assert.Len(t, resp.Sessions, tt.count)
			assert.Equal(t, tt.points, resp.TotalPoints)
		})
	}
}

func TestHealthAndWebSocketParams(t *testing.T) {
	server := setupTestServer(t, &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, service.ErrSessionNotFound
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/ws", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/ws?session=ghost", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	noHub := NewServer(&MockGameService{}, nil)
	w = httptest.NewRecorder()
	noHub.ServeHTTP(w, makeRequest("GET", "/ws?session=x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// End-to-end tests over the real service, session and config packages

func newRealServer(t *testing.T) (*httptest.Server, *websocket.Hub) {
	t.Helper()
	configMgr, err := config.NewManager("../configs")
	require.NoError(t, err)
	gameService := service.NewGameService(session.NewManager(), configMgr)

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	ts := httptest.NewServer(NewServer(gameService, hub))
	t.Cleanup(ts.Close)
	return ts, hub
}

func doJSON(t *testing.T, method, url string, body interface{}, target interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if target != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}
	return resp.StatusCode
}

func TestEndToEndCollectDeposit(t *testing.T) {
	ts, _ := newRealServer(t)

	var sess service.SessionInfo
	require.Equal(t, http.StatusCreated, doJSON(t, "POST", ts.URL+"/api/sessions", map[string]string{"config_id": "null_island"}, &sess))
	require.NotEmpty(t, sess.ID)
	require.Len(t, sess.GameState.Caches, 31)

	base := ts.URL + "/api/sessions/" + sess.ID

	var collected service.CacheActionResult
	require.Equal(t, http.StatusOK, doJSON(t, "POST", base+"/collect", map[string]int{"i": 0, "j": 1}, &collected))
	assert.Equal(t, "0,1#0", collected.Token.String())
	assert.Equal(t, 94, collected.CacheCoins)
	assert.Equal(t, 1, collected.Points)
	assert.Equal(t, "Picked up 0,1#0", collected.Message)

	// (0,0) holds no cache
	var errResp map[string]string
	assert.Equal(t, http.StatusConflict, doJSON(t, "POST", base+"/collect", map[string]int{"i": 0, "j": 0}, &errResp))
	assert.NotEmpty(t, errResp["error"])

	// Never seen
	assert.Equal(t, http.StatusNotFound, doJSON(t, "POST", base+"/collect", map[string]int{"i": 1000, "j": 1000}, nil))

	var deposited service.CacheActionResult
	require.Equal(t, http.StatusOK, doJSON(t, "POST", base+"/deposit", map[string]int{"i": -8, "j": 1}, &deposited))
	assert.Equal(t, "0,1#0", deposited.Token.String())
	assert.Equal(t, 99, deposited.CacheCoins)
	assert.Equal(t, 0, deposited.Points)

	assert.Equal(t, http.StatusConflict, doJSON(t, "POST", base+"/deposit", map[string]int{"i": -8, "j": 1}, nil))

	var desc engine.CellDescription
	require.Equal(t, http.StatusOK, doJSON(t, "GET", base+"/cells/0/1", nil, &desc))
	assert.True(t, desc.HasCache)
	assert.Equal(t, 94, desc.Coins)
	assert.Equal(t, 95, desc.InitialCoins)
}

func TestEndToEndMoveAndReset(t *testing.T) {
	ts, _ := newRealServer(t)

	var sess service.SessionInfo
	require.Equal(t, http.StatusCreated, doJSON(t, "POST", ts.URL+"/api/sessions", map[string]string{"config_id": "null_island"}, &sess))
	base := ts.URL + "/api/sessions/" + sess.ID

	var moved service.MoveResult
	require.Equal(t, http.StatusOK, doJSON(t, "POST", base+"/move", map[string]string{"direction": "north"}, &moved))
	assert.Equal(t, engine.Cell{I: 1, J: 0}, moved.GameState.PlayerCell)
	assert.Len(t, moved.GameState.Caches, 32)
	assert.Equal(t, 3, moved.Step.Appeared)
	assert.Equal(t, 2, moved.Step.Evicted)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, "POST", base+"/move", map[string]string{"direction": "sideways"}, nil))

	var reset struct {
		State engine.GameState `json:"state"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, "POST", base+"/reset", nil, &reset))
	assert.Equal(t, engine.Cell{I: 0, J: 0}, reset.State.PlayerCell)
	assert.Len(t, reset.State.Caches, 31)

	assert.Equal(t, http.StatusNotFound, doJSON(t, "GET", ts.URL+"/api/sessions/zzzzzzzz/state", nil, nil))
}

func TestEndToEndWebSocketPush(t *testing.T) {
	ts, hub := newRealServer(t)

	var sess service.SessionInfo
	require.Equal(t, http.StatusCreated, doJSON(t, "POST", ts.URL+"/api/sessions", map[string]string{"config_id": "null_island"}, &sess))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + sess.ID
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.ClientCount(sess.ID) == 1
	}, time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusOK, doJSON(t, "POST", ts.URL+"/api/sessions/"+sess.ID+"/move", map[string]string{"direction": "east"}, nil))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg websocket.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, websocket.EventStateUpdate, msg.Event)
	require.NotNil(t, msg.GameState)
	assert.Equal(t, engine.Cell{I: 0, J: 1}, msg.GameState.PlayerCell)
}
