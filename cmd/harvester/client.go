package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wricardo/mcp-training/geocoin/game/engine"
	"github.com/wricardo/mcp-training/geocoin/game/service"
)

// Client talks to the Geocoin REST API on behalf of a single session
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client is playing
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) CreateSession(ctx context.Context, configID string) (*engine.GameState, error) {
	var body interface{}
	if configID != "" {
		body = map[string]string{"config_id": configID}
	}

	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.sessionID = session.ID
	return session.GameState, nil
}

// Resume attaches the client to an existing session
func (c *Client) Resume(ctx context.Context, sessionID string) (*engine.GameState, error) {
	c.sessionID = sessionID
	state, err := c.GetState(ctx)
	if err != nil {
		c.sessionID = ""
		return nil, err
	}
	return state, nil
}

func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &state, nil
}

func (c *Client) Move(ctx context.Context, direction string) (*service.MoveResult, error) {
	var result service.MoveResult
	req := map[string]string{"direction": direction}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/move"), req, &result); err != nil {
		return nil, fmt.Errorf("move %s: %w", direction, err)
	}
	return &result, nil
}

func (c *Client) BulkMove(ctx context.Context, directions []string) (*service.BulkMoveResult, error) {
	var result service.BulkMoveResult
	req := map[string][]string{"moves": directions}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/bulk-move"), req, &result); err != nil {
		return nil, fmt.Errorf("bulk move: %w", err)
	}
	return &result, nil
}

func (c *Client) Collect(ctx context.Context, cell engine.Cell) (*service.CacheActionResult, error) {
	var result service.CacheActionResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/collect"), cell, &result); err != nil {
		return nil, fmt.Errorf("collect %s: %w", cell, err)
	}
	return &result, nil
}

func (c *Client) Deposit(ctx context.Context, cell engine.Cell) (*service.CacheActionResult, error) {
	var result service.CacheActionResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/deposit"), cell, &result); err != nil {
		return nil, fmt.Errorf("deposit %s: %w", cell, err)
	}
	return &result, nil
}

type resetResponse struct {
	Message string            `json:"message"`
	State   *engine.GameState `json:"state"`
}

func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp resetResponse
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return resp.State, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

// do sends body as JSON and decodes a successful response into result.
// Error responses carry an "error" field which becomes the returned error.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}
