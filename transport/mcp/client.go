package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/geocoin/game/engine"
	"github.com/wricardo/mcp-training/geocoin/game/service"
)

// Number of caches listed by formatGameState
const maxListedCaches = 12

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Geocoin",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Geocoin - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Walk a lat/lng grid, find geocaches near you, collect their coins and deposit them elsewhere.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage games
- game_state: position, carried coins and the caches in sight
- move / bulk_move: step one cell north, south, east or west
- teleport: jump to any lat/lng
- collect / deposit: take a coin from, or drop your newest coin into, a visible cache
- describe_cell: what is known about one cell
- reset_game: back to the anchor with every cache restored
- move_history: past actions
- list_configs: available worlds
- game_instructions: full rules

NOTE: The 'intent' parameter on movement tools is for explaining your reasoning.`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func cellProps() map[string]interface{} {
	return map[string]interface{}{
		"session_id": sessionProp(),
		"i": map[string]interface{}{
			"type":        "integer",
			"description": "Row index of the cell (latitude / tile width, rounded)",
		},
		"j": map[string]interface{}{
			"type":        "integer",
			"description": "Column index of the cell (longitude / tile width, rounded)",
		},
	}
}

var directionEnum = []string{"north", "south", "east", "west"}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the player one cell in a direction",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        directionEnum,
					"description": "Direction to move",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d moves in sequence, stopping at the first rejected one", service.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": directionEnum,
					},
					"description": "Array of moves",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "teleport",
		Description: "Move the player to an arbitrary latitude and longitude",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"lat":        map[string]interface{}{"type": "number", "description": "Latitude in degrees"},
				"lng":        map[string]interface{}{"type": "number", "description": "Longitude in degrees"},
			},
			Required: []string{"session_id", "lat", "lng"},
		},
	}, c.handleTeleport)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "collect",
		Description: "Take one coin from a visible cache",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: cellProps(),
			Required:   []string{"session_id", "i", "j"},
		},
	}, c.handleCollect)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "deposit",
		Description: "Put the most recently collected coin into a visible cache",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: cellProps(),
			Required:   []string{"session_id", "i", "j"},
		},
	}, c.handleDeposit)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the game to initial state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one grid cell: bounds, whether it holds a cache, its coins and saved memento",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: cellProps(),
			Required:   []string{"session_id", "i", "j"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// arguments returns the tool call arguments, or an empty map when there are none
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// cellArg reads the integer cell indices i and j
func cellArg(args map[string]interface{}) (engine.Cell, error) {
	i, okI := args["i"].(float64)
	j, okJ := args["j"].(float64)
	if !okI || !okJ {
		return engine.Cell{}, fmt.Errorf("i and j are required integers")
	}
	if i != float64(int(i)) || j != float64(int(j)) {
		return engine.Cell{}, fmt.Errorf("i and j must be whole numbers, got %g and %g", i, j)
	}
	return engine.Cell{I: int(i), J: int(j)}, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)
	if configID == "" {
		configID, _ = args["config_name"].(string)
	}

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		points := 0
		if s.GameState != nil {
			points = s.GameState.Points
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Coins carried: %d, Created: %s)\n",
			s.ID, s.ConfigName, points, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	reset, _ := args["reset"].(bool)

	body := map[string]interface{}{
		"direction": direction,
		"reset":     reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	movesRaw, _ := args["moves"].([]interface{})
	reset, _ := args["reset"].(bool)

	moves := make([]string, 0, len(movesRaw))
	for _, m := range movesRaw {
		if move, ok := m.(string); ok {
			moves = append(moves, move)
		}
	}

	body := map[string]interface{}{
		"moves": moves,
		"reset": reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleTeleport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	lat, okLat := args["lat"].(float64)
	lng, okLng := args["lng"].(float64)
	if !okLat || !okLng {
		return mcp.NewToolResultError("lat and lng are required numbers"), nil
	}

	var result service.MoveResult
	body := map[string]float64{"lat": lat, "lng": lng}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/teleport"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleCollect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.cacheAction(ctx, request, "collect")
}

func (c *Client) handleDeposit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.cacheAction(ctx, request, "deposit")
}

func (c *Client) cacheAction(ctx context.Context, request mcp.CallToolRequest, action string) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	cell, err := cellArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.CacheActionResult
	body := map[string]int{"i": cell.I, "j": cell.J}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/"+action), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCacheAction(action, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHistory(&history)

	// The current segment comes from live state; history alone is still useful
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err == nil {
		result += "\n" + formatCurrentSegment(&state)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Anchor: %.6f, %.6f  Tile: %g°  Radius: %d  Spawn: %g\n\n",
			config.ConfigID, config.Name, config.Description,
			config.Anchor.Lat, config.Anchor.Lng, config.TileWidth, config.VisibilityRadius, config.SpawnProbability)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Geocoin - Complete Instructions

GAME OBJECTIVE:
The world is a grid of square cells laid over latitude and longitude. Some cells hold a geocache
with coins. Walk around, collect coins, and deposit them into other caches.

THE GRID:
• A cell is identified by (i, j): i = round(lat / tile_width), j = round(lng / tile_width)
• You see every cell within the visibility radius of your cell (a square, not a circle)
• Whether a cell has a cache, and how many coins it starts with, never changes for a given config

MOVEMENT:
• move: north, south, east or west by exactly one cell (up/down/right/left also work)
• bulk_move: several moves in one call; stops at the first rejected move
• teleport: jump to any valid latitude/longitude

COINS:
• collect takes one coin from a visible cache and gives you a token like "369995,-1220533#3"
  (the cell it came from, then its serial number)
• deposit puts your most recently collected token into a visible cache (last in, first out)
• Points are the number of coins you carry

MEMORY:
• Caches that leave your view are saved; walking back restores exactly the coins you left
• reset_game restores every cache to its original coins and returns you to the anchor

ERRORS YOU MAY SEE:
• "cache is empty" - nothing left to collect there
• "no coins to deposit" - collect something first
• "no visible cache at cell" - the cell is out of range or has no cache
• "unknown cell" - you have never been near that cell

TIPS:
• game_state lists the nearest caches with their coin counts and distance in cells
• describe_cell shows the saved memento for caches you walked away from

Good luck hunting geocoins!`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	cell, err := cellArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var desc engine.CellDescription
	path := sessionPath(sessionID, fmt.Sprintf("/cells/%d/%d", cell.I, cell.J))
	if err := c.apiCall(ctx, "GET", path, nil, &desc); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCellDescription(&desc)), nil
}

// Formatters

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nLast accessed: %s\n\n",
		session.ID, session.ConfigName,
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339))
	return result + formatGameState(session.GameState)
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "Game state unavailable"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Position: %.6f, %.6f (cell %s)\n", state.PlayerPos.Lat, state.PlayerPos.Lng, state.PlayerCell)
	fmt.Fprintf(&b, "Coins carried: %d\n", state.Points)
	if len(state.Inventory) > 0 {
		fmt.Fprintf(&b, "Next deposit: %s\n", state.Inventory[0])
	}
	fmt.Fprintf(&b, "Caches in sight: %d (%d coins)\n", len(state.Caches), state.TotalCoins)

	caches := append([]engine.CacheView(nil), state.Caches...)
	sort.SliceStable(caches, func(i, j int) bool {
		if caches[i].Distance != caches[j].Distance {
			return caches[i].Distance < caches[j].Distance
		}
		return caches[i].Coins > caches[j].Coins
	})
	for i, cache := range caches {
		if i == maxListedCaches {
			fmt.Fprintf(&b, "  ... %d more\n", len(caches)-maxListedCaches)
			break
		}
		fmt.Fprintf(&b, "  %s: %d coins, %d away\n", cache.Cell, cache.Coins, cache.Distance)
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s\n", state.Message)
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if st := result.Step; st != nil {
		fmt.Fprintf(&b, "%s: %s -> %s, %d caches in sight (+%d appeared, -%d out of view)\n\n",
			st.Dir, st.FromCell, st.ToCell, st.VisibleCaches, st.Appeared, st.Evicted)
	}
	for _, ev := range result.Events {
		if ev.Type == "cache_appeared" {
			fmt.Fprintf(&b, "• %s\n", ev.Message)
		}
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s: executed %d of %d moves\n", sessionID, result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&b, "Only the first %d moves were attempted\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s\n", result.StoppedOnMove, result.StoppedReason)
	}
	fmt.Fprintf(&b, "Path: %s -> %s\n", result.StartCell, result.EndCell)

	for _, st := range result.Steps {
		fmt.Fprintf(&b, "  %d. %s -> %s (+%d/-%d)\n", st.Idx, st.Dir, st.ToCell, st.Appeared, st.Evicted)
	}
	if result.Richest != nil {
		fmt.Fprintf(&b, "Richest cache in sight: %s with %d coins\n", result.Richest.Cell, result.Richest.Coins)
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatCacheAction(action string, result *service.CacheActionResult) string {
	verb := "Collected"
	if action == "deposit" {
		verb = "Deposited"
	}
	return fmt.Sprintf("%s %s\nCache %s now holds %d coins\nCoins carried: %d\n",
		verb, result.Token, result.Cell, result.CacheCoins, result.Points)
}

func formatCellDescription(desc *engine.CellDescription) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cell %s\n", desc.Cell)
	fmt.Fprintf(&b, "Bounds: %.6f,%.6f to %.6f,%.6f\n",
		desc.Bounds.SouthWest.Lat, desc.Bounds.SouthWest.Lng, desc.Bounds.NorthEast.Lat, desc.Bounds.NorthEast.Lng)
	if !desc.HasCache {
		b.WriteString("No cache here\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Cache: %d coins (started with %d)\n", desc.Coins, desc.InitialCoins)
	switch {
	case desc.Visible:
		b.WriteString("In sight\n")
	case desc.Memento != "":
		fmt.Fprintf(&b, "Out of sight, saved as %q\n", desc.Memento)
	default:
		b.WriteString("Never visited\n")
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d), total: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for i, move := range history.Moves {
		num := (history.Page-1)*history.PageSize + i + 1
		b.WriteString(formatHistoryLine(num, move))
	}

	return b.String()
}

func formatCurrentSegment(state *engine.GameState) string {
	if state == nil {
		return "Current Segment: unavailable"
	}
	header := fmt.Sprintf("Current Segment (since last reset), moves: %d\n\n", state.CurrentMovesCount)
	if len(state.CurrentMoves) == 0 {
		return header + "(no moves in current segment)"
	}
	var b strings.Builder
	b.WriteString(header)
	for i, move := range state.CurrentMoves {
		b.WriteString(formatHistoryLine(i+1, move))
	}
	return b.String()
}

func formatHistoryLine(num int, move engine.HistoryEntry) string {
	status := "✓"
	if !move.Success {
		status = "✗"
	}
	target := ""
	if move.Cell != nil {
		target = " " + move.Cell.String()
	}
	return fmt.Sprintf("%d. %s%s %s [Coins: %d]\n", num, move.Action, target, status, move.Points)
}
