// Package session provides in-memory session management for the Geocoin game.
//
// Manager stores one service.Session per player. Each session owns an
// independent engine.GameEngine, so coins collected in one session never
// affect another. Nothing is written to disk: a session and its memento
// store vanish when the process exits or the session expires.
//
// Session Identifiers:
//
// Generated IDs are the first eight hex characters of a random UUID. Lookups
// are case-insensitive. Callers may also supply their own ID.
//
// Usage:
//
//	manager := session.NewManager()
//	manager.StartCleanup(ctx, time.Minute, 24*time.Hour)
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	sess, err = manager.Get(sess.ID)
package session
