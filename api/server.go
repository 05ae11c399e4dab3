package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/mcp-training/geocoin/game/engine"
	"github.com/wricardo/mcp-training/geocoin/game/service"
	"github.com/wricardo/mcp-training/geocoin/transport/websocket"
)

// DefaultStaticDir is served at / when no other route matches
const DefaultStaticDir = "./static/"

// Server represents the REST API server
type Server struct {
	service   service.GameService
	hub       *websocket.Hub
	router    *mux.Router
	staticDir string
}

// NewServer creates a new API server. hub may be nil, in which case no
// updates are pushed and /ws is unavailable.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service:   gameService,
		hub:       hub,
		router:    mux.NewRouter(),
		staticDir: DefaultStaticDir,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	// Must be registered before the {id} pattern
	api.HandleFunc("/sessions/unified", s.handleUnifiedSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/bulk-move", s.handleBulkMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/teleport", s.handleTeleport).Methods("POST")
	api.HandleFunc("/sessions/{id}/collect", s.handleCollect).Methods("POST")
	api.HandleFunc("/sessions/{id}/deposit", s.handleDeposit).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/cells/{i}/{j}", s.handleDescribeCell).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError picks the status code for an error coming out of the
// service or engine
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrConfigNotFound),
		errors.Is(err, engine.ErrUnknownCell):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrEmptyCache),
		errors.Is(err, engine.ErrInventoryEmpty),
		errors.Is(err, engine.ErrCacheNotVisible):
		return http.StatusConflict
	case errors.Is(err, engine.ErrUnknownDirection),
		errors.Is(err, engine.ErrInvalidPosition),
		errors.Is(err, service.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) broadcastState(sessionID string, state *engine.GameState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}
}

func (s *Server) broadcastEvent(sessionID, event string, data interface{}) {
	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, event, data)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}

	// An empty body selects the default config
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	session, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[SESSION] created %s config=%s", session.ID, session.ConfigName)
	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default)
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < total {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Direction string `json:"direction"`
		Reset     bool   `json:"reset,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Move(r.Context(), sessionID, req.Direction, req.Reset)
	if err != nil {
		log.Printf("[MOVE] session=%s dir=%q status=FAIL err=%v", sessionID, req.Direction, err)
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, result.GameState)

	if st := result.Step; st != nil {
		log.Printf("[MOVE] session=%s %s %s->%s caches=%d +%d -%d status=OK",
			sessionID, st.Dir, st.FromCell, st.ToCell, st.VisibleCaches, st.Appeared, st.Evicted)
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulkMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Moves []string `json:"moves"`
		Reset bool     `json:"reset,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.BulkMove(r.Context(), sessionID, req.Moves, req.Reset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, result.GameState)

	stop := "none"
	if result.StoppedReason != "" {
		stop = fmt.Sprintf("move%d", result.StoppedOnMove)
	}
	log.Printf("[BULK] session=%s exec=%d/%d stop=%s end=%s caches=%d",
		sessionID, result.MovesExecuted, result.RequestedMoves, stop, result.EndCell, len(result.GameState.Caches))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleTeleport(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		respondError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	result, err := s.service.Teleport(r.Context(), sessionID, engine.LatLng{Lat: *req.Lat, Lng: *req.Lng})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, result.GameState)
	log.Printf("[TELEPORT] session=%s to=%s caches=%d", sessionID, result.GameState.PlayerCell, len(result.GameState.Caches))

	respondJSON(w, http.StatusOK, result)
}

// decodeCell reads a {"i":..,"j":..} body
func decodeCell(r *http.Request) (engine.Cell, error) {
	var req struct {
		I *int `json:"i"`
		J *int `json:"j"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return engine.Cell{}, fmt.Errorf("invalid request body")
	}
	if req.I == nil || req.J == nil {
		return engine.Cell{}, fmt.Errorf("i and j are required")
	}
	return engine.Cell{I: *req.I, J: *req.J}, nil
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	cell, err := decodeCell(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Collect(r.Context(), sessionID, cell)
	if err != nil {
		log.Printf("[COLLECT] session=%s cell=%s status=FAIL err=%v", sessionID, cell, err)
		respondServiceError(w, err)
		return
	}

	log.Printf("[COLLECT] session=%s token=%s left=%d points=%d", sessionID, result.Token, result.CacheCoins, result.Points)
	s.broadcastEvent(sessionID, websocket.EventCollect, result.Token)
	s.broadcastState(sessionID, result.GameState)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	cell, err := decodeCell(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Deposit(r.Context(), sessionID, cell)
	if err != nil {
		log.Printf("[DEPOSIT] session=%s cell=%s status=FAIL err=%v", sessionID, cell, err)
		respondServiceError(w, err)
		return
	}

	log.Printf("[DEPOSIT] session=%s token=%s cache=%d points=%d", sessionID, result.Token, result.CacheCoins, result.Points)
	s.broadcastEvent(sessionID, websocket.EventDeposit, result.Token)
	s.broadcastState(sessionID, result.GameState)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDescribeCell(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	i, errI := strconv.Atoi(vars["i"])
	j, errJ := strconv.Atoi(vars["j"])
	if errI != nil || errJ != nil {
		respondError(w, http.StatusBadRequest, "cell indices must be integers")
		return
	}

	desc, err := s.service.DescribeCell(r.Context(), sessionID, engine.Cell{I: i, J: j})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, desc)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastEvent(sessionID, websocket.EventReset, nil)
	s.broadcastState(sessionID, state)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Game reset successfully",
		"state":   state,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMoveHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	config, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, config)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var named struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &named); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if named.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	// Same overlay as config files: omitted fields keep their defaults
	gameConfig := engine.DefaultGameConfig()
	if err := json.Unmarshal(data, gameConfig); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.service.SaveConfig(r.Context(), gameConfig.Name, gameConfig); err != nil {
		respondError(w, statusForError(err), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": gameConfig.Name,
	})
}

// Unified Sessions Handler

func (s *Server) handleUnifiedSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var sessions []*service.SessionInfo

	if sessionIDs := query.Get("sessionIds"); sessionIDs != "" {
		for _, id := range strings.Split(sessionIDs, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			// Unknown IDs are skipped
			if session, err := s.service.GetSession(r.Context(), id); err == nil {
				sessions = append(sessions, session)
			}
		}
	} else {
		allSessions, err := s.service.ListSessions(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		configName := query.Get("configName")
		for _, session := range allSessions {
			if configName == "" || session.ConfigName == configName {
				sessions = append(sessions, session)
			}
		}
	}

	configName := ""
	if len(sessions) > 0 {
		configName = sessions[0].ConfigName
	}

	totalPoints := 0
	entries := make([]map[string]interface{}, 0, len(sessions))
	for _, session := range sessions {
		if session.GameState != nil {
			totalPoints += session.GameState.Points
		}
		entries = append(entries, map[string]interface{}{
			"session_id":    session.ID,
			"config_name":   session.ConfigName,
			"game_state":    session.GameState,
			"created_at":    session.CreatedAt,
			"last_accessed": session.LastAccessedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"config_name":  configName,
		"total_points": totalPoints,
		"sessions":     entries,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live updates disabled", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
