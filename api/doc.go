// Package api exposes the Geocoin game service over HTTP.
//
// Endpoints (all JSON):
//
//	POST   /api/sessions                      create a session {"config_id":"classroom"}
//	GET    /api/sessions                      list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//	GET    /api/sessions/unified              sessions grouped for a multi-session view
//	GET    /api/sessions/{id}                 session info and state
//	DELETE /api/sessions/{id}                 delete a session
//	GET    /api/sessions/{id}/state           current game state
//	POST   /api/sessions/{id}/move            {"direction":"north","reset":false}
//	POST   /api/sessions/{id}/bulk-move       {"moves":["north","east"],"reset":false}
//	POST   /api/sessions/{id}/teleport        {"lat":36.9995,"lng":-122.0533}
//	POST   /api/sessions/{id}/collect         {"i":369996,"j":-1220533}
//	POST   /api/sessions/{id}/deposit         {"i":369996,"j":-1220533}
//	POST   /api/sessions/{id}/reset           reset to the anchor with fresh caches
//	GET    /api/sessions/{id}/history         paginated history (?page=1&limit=20&order=desc)
//	GET    /api/sessions/{id}/cells/{i}/{j}   what the session knows about one cell
//	GET    /api/configs                       list configurations
//	POST   /api/configs                       save a configuration
//	GET    /api/configs/{name}                one configuration
//	GET    /ws?session={id}                   live state updates
//	GET    /health
//
// Errors are returned as {"error":"..."}. Missing sessions, configs and
// cells map to 404; an empty cache, an empty inventory or a cache outside
// the visible neighborhood map to 409; malformed input maps to 400.
package api
