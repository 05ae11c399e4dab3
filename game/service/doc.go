// Package service provides the business logic layer for the Geocoin game.
//
// The service package implements:
//   - Multi-session game management
//   - Configuration listing and loading
//   - Movement, teleport and cache operations
//   - Move history pagination
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own GameEngine; engines are not safe
// for concurrent use, so the service serializes every call that touches one.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classroom")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, "north", false)
//	_, err = gameService.Collect(ctx, info.ID, engine.Cell{I: 369996, J: -1220533})
//
// Errors:
//
// Lookups fail with ErrSessionNotFound or ErrConfigNotFound. Game rule
// violations are returned unchanged from the engine so callers can test them
// with errors.Is against the engine sentinels.
package service
