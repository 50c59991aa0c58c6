package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// Controller starts and stops sessions. *app.Controller implements it.
type Controller interface {
	Start(mode gesture.Mode) (app.SessionInfo, error)
	Stop(mode gesture.Mode) error
	Running() []app.SessionInfo
	LastAction() string
}

// SessionHandler handles HTTP requests for session resources.
type SessionHandler struct {
	controller Controller
	store      *store.Store
}

// NewSessionHandler creates a handler. The store may be nil, in which case
// only running sessions are reported.
func NewSessionHandler(c Controller, s *store.Store) *SessionHandler {
	return &SessionHandler{controller: c, store: s}
}

// ServeHTTP routes requests to the appropriate method.
//
// Paths:
//
//	GET    /api/sessions
//	POST   /api/sessions
//	DELETE /api/sessions/{mode}
//	GET    /api/sessions/{id}
//	GET    /api/sessions/{id}/dispatches
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.start(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/dispatches"); ok {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.dispatches(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, path)
	case http.MethodDelete:
		h.stop(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type startSessionRequest struct {
	Mode string `json:"mode"`
}

type sessionResponse struct {
	ID               string `json:"id"`
	Mode             string `json:"mode"`
	ConfirmThreshold int    `json:"confirm_threshold"`
	CooldownMs       int64  `json:"cooldown_ms"`
	StartedAt        string `json:"started_at"`
	EndedAt          string `json:"ended_at,omitempty"`
	EndReason        string `json:"end_reason,omitempty"`
	Dispatched       *int   `json:"dispatched,omitempty"`
	Failed           *int   `json:"failed,omitempty"`
}

type listSessionsResponse struct {
	Running  []app.SessionInfo `json:"running"`
	Sessions []sessionResponse `json:"sessions"`
}

type dispatchResponse struct {
	ID        string `json:"id"`
	Gesture   string `json:"gesture"`
	Source    string `json:"source"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

type listDispatchesResponse struct {
	Dispatches []dispatchResponse `json:"dispatches"`
}

// toSessionResponse converts a store.Session to a sessionResponse.
func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:               s.ID,
		Mode:             s.Mode,
		ConfirmThreshold: s.ConfirmThreshold,
		CooldownMs:       s.Cooldown.Milliseconds(),
		StartedAt:        s.StartedAt.Format(time.RFC3339),
		EndReason:        s.EndReason,
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	return resp
}

// list handles GET /api/sessions and returns running sessions plus the journal.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	response := listSessionsResponse{
		Running:  h.controller.Running(),
		Sessions: []sessionResponse{},
	}

	if h.store != nil {
		sessions, err := h.store.Sessions().List(50)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list sessions")
			return
		}
		for _, s := range sessions {
			response.Sessions = append(response.Sessions, toSessionResponse(s))
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// start handles POST /api/sessions and starts a session for the requested mode.
func (h *SessionHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	mode, err := gesture.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.controller.Start(mode)
	if err != nil {
		if errors.Is(err, app.ErrSessionRunning) {
			writeError(w, http.StatusConflict, "Session already running for "+mode.Title())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to start session: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, info)
}

// stop handles DELETE /api/sessions/{mode} and stops that mode's session.
func (h *SessionHandler) stop(w http.ResponseWriter, r *http.Request, name string) {
	mode, err := gesture.ParseMode(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.controller.Stop(mode); err != nil {
		if errors.Is(err, app.ErrSessionNotRunning) {
			writeError(w, http.StatusNotFound, "No session running for "+mode.Title())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to stop session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// get handles GET /api/sessions/{id} and returns one journal session.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	ok, failed, err := h.store.Dispatches().CountBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count dispatches")
		return
	}

	resp := toSessionResponse(sess)
	resp.Dispatched = &ok
	resp.Failed = &failed
	writeJSON(w, http.StatusOK, resp)
}

// dispatches handles GET /api/sessions/{id}/dispatches.
func (h *SessionHandler) dispatches(w http.ResponseWriter, r *http.Request, id string) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	records, err := h.store.Dispatches().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list dispatches")
		return
	}

	response := listDispatchesResponse{
		Dispatches: make([]dispatchResponse, 0, len(records)),
	}
	for _, d := range records {
		response.Dispatches = append(response.Dispatches, dispatchResponse{
			ID:        d.ID,
			Gesture:   d.Gesture,
			Source:    d.Source,
			Success:   d.Success,
			Error:     d.Error,
			CreatedAt: d.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
