// Package websocket pushes live Geocoin game updates to browsers.
//
// The package uses a hub-and-spoke model: a central Hub goroutine owns the
// per-session client sets, and every connection gets a read pump and a write
// pump. Registration, broadcasts and client counts all go through channels
// served by Hub.Run, so the session map is never touched from another goroutine.
//
// Message Protocol:
//
// The server only sends. Every message is a JSON Message:
//   - {"session_id": "...", "event": "state_update", "game_state": {...}} after any state change
//   - {"session_id": "...", "event": "collect", "data": {"cell": {...}, "serial": 0}} for coin pickups
//   - "deposit" and "reset" events follow the same shape
//
// Incoming frames are read and discarded; reading keeps the ping/pong deadline alive.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Slow clients whose send buffer is full are dropped rather than blocking the
// hub. After Stop, broadcasts are discarded and ClientCount reports zero.
package websocket
