// Package mcp exposes the Geocoin REST API as Model Context Protocol tools.
//
// The Client does not touch game state directly. Every tool call becomes an
// HTTP request against a running api.Server, and the JSON response is
// rendered as plain text for the agent.
//
// Tools:
//   - create_session, get_session, list_sessions
//   - game_state, move, bulk_move, teleport
//   - collect, deposit, describe_cell
//   - reset_game, move_history
//   - list_configs, game_instructions
//
// REST errors come back as tool results with IsError set, carrying the
// server's error message; the Go error return is reserved for protocol
// failures.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
