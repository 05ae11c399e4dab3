// Package config provides configuration management for the Geocoin game.
//
// Two kinds of settings live here:
//   - Game configurations: JSON files in a directory, one per world
//     (grid size, visibility radius, spawn probability, anchor, messages)
//   - Server settings: process-level values read from the environment
//
// Configuration Format:
//
// A game configuration only needs the fields that differ from
// engine.DefaultGameConfig. For example:
//
//	{
//	  "name": "Null Island",
//	  "description": "Caches around 0,0",
//	  "anchor": {"lat": 0, "lng": 0},
//	  "serial_policy": "per-visit"
//	}
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	gameConfig, err := manager.LoadConfig("classroom")
//	configs, err := manager.ListConfigs()
//
//	settings, err := config.LoadServerSettings()
//	log.Printf("listening on %s", settings.Addr())
//
// Defaults:
//
// The manager prefers classroom.json as its default, then the first valid
// file in the directory, then the built-in configuration.
package config
