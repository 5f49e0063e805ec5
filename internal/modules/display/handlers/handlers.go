// Package handlers provides HTTP handlers for the flip tracker.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/flipper/internal/domain"
	"github.com/aristath/flipper/internal/modules/display"
	"github.com/aristath/flipper/internal/modules/market"
	"github.com/aristath/flipper/internal/modules/session"
	"github.com/aristath/flipper/internal/modules/watchlist"
	"github.com/rs/zerolog"
)

// MarketLookup is the part of the market service the handlers need.
type MarketLookup interface {
	Resolve(query string) domain.Resolution
	ResolveProfiles(ctx context.Context, username string) (*market.PlayerProfiles, error)
}

// Handler handles tracker HTTP requests
type Handler struct {
	loop       *display.Loop
	market     MarketLookup
	watchlist  *watchlist.Store
	autoAccept bool
	log        zerolog.Logger
}

// NewHandler creates a new tracker handler.
// autoAccept decides approximate matches when a request does not say.
func NewHandler(
	loop *display.Loop,
	market MarketLookup,
	watchlist *watchlist.Store,
	autoAccept bool,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		loop:       loop,
		market:     market,
		watchlist:  watchlist,
		autoAccept: autoAccept,
		log:        log.With().Str("handler", "display").Logger(),
	}
}

type startSessionRequest struct {
	Query            string `json:"query"`
	AcceptCorrection *bool  `json:"accept_correction"`
}

type budgetRequest struct {
	Budget string `json:"budget"`
}

type watchlistRequest struct {
	Item string `json:"item"`
}

// HandleGetSession handles GET /api/session
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	view := h.loop.State().Snapshot()
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"state":      h.loop.Controller().State(),
		"generation": h.loop.Controller().Generation(),
		"view":       view,
	}))
}

// HandleStartSession handles POST /api/session
// Starting while a session runs supersedes it.
func (h *Handler) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	accept := h.autoAccept
	if req.AcceptCorrection != nil {
		accept = *req.AcceptCorrection
	}
	confirm := session.RejectAll
	if accept {
		confirm = session.AcceptAll
	}

	sess, plan, err := h.loop.StartTracking(r.Context(), req.Query, confirm)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrEmptyQuery):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrRecipeNotFound):
			h.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, display.ErrLoopStopped):
			h.writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			h.log.Error().Err(err).Str("query", req.Query).Msg("Failed to start session")
			h.writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope(map[string]interface{}{
		"session":     sess,
		"resolution":  plan.Resolution,
		"corrected":   plan.Corrected,
		"ingredients": plan.Recipe.Map(),
	}))
}

// HandleStopSession handles DELETE /api/session
func (h *Handler) HandleStopSession(w http.ResponseWriter, r *http.Request) {
	err := h.loop.StopTracking(r.Context())
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
			"state": session.StateIdle,
		}))
	case errors.Is(err, domain.ErrSessionNotRunning):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	}
}

// HandleSetBudget handles PUT /api/budget
// Text that does not parse is kept and counts as a budget of 0.
func (h *Handler) HandleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	budget, err := h.loop.SetBudget(r.Context(), req.Budget)
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"budget_text": req.Budget,
		"budget":      budget,
	}))
}

// HandleGetProfiles handles GET /api/profiles?username=
func (h *Handler) HandleGetProfiles(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		h.writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	profiles, err := h.market.ResolveProfiles(r.Context(), username)
	if err != nil {
		var lookupErr *domain.LookupError
		switch {
		case errors.Is(err, domain.ErrCredentialMissing):
			h.writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.As(err, &lookupErr):
			h.writeError(w, http.StatusNotFound, err.Error())
		default:
			h.log.Warn().Err(err).Str("username", username).Msg("Profile lookup failed")
			h.writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(profiles))
}

// HandleLinkProfile handles POST /api/profiles/link
// An empty profile_id unlinks.
func (h *Handler) HandleLinkProfile(w http.ResponseWriter, r *http.Request) {
	var ref domain.ProfileRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var link *domain.ProfileRef
	if !ref.IsZero() {
		link = &ref
	}
	if err := h.loop.LinkProfile(r.Context(), link); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"linked":  link != nil,
		"profile": link,
	}))
}

// HandleGetHistory handles GET /api/history
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	points, stats, bounds := h.loop.State().History()
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"points": points,
		"stats":  stats,
		"bounds": bounds,
	}))
}

// HandleGetWatchlist handles GET /api/watchlist
func (h *Handler) HandleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"items": h.watchlist.Items(),
	}))
}

// HandleAddWatchlist handles POST /api/watchlist
func (h *Handler) HandleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	var req watchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Item) == "" {
		h.writeError(w, http.StatusBadRequest, "item is required")
		return
	}

	added, err := h.watchlist.Add(req.Item)
	if err != nil {
		h.log.Error().Err(err).Str("item", req.Item).Msg("Failed to save watchlist")
		h.writeError(w, http.StatusInternalServerError, "Failed to save watchlist")
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, envelope(map[string]interface{}{
		"added": added,
		"items": h.watchlist.Items(),
	}))
}

// HandleRemoveWatchlist handles DELETE /api/watchlist?item=
func (h *Handler) HandleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	item := r.URL.Query().Get("item")
	if strings.TrimSpace(item) == "" {
		h.writeError(w, http.StatusBadRequest, "item is required")
		return
	}

	removed, err := h.watchlist.Remove(item)
	if err != nil {
		h.log.Error().Err(err).Str("item", item).Msg("Failed to save watchlist")
		h.writeError(w, http.StatusInternalServerError, "Failed to save watchlist")
		return
	}
	if !removed {
		h.writeError(w, http.StatusNotFound, "item not in watchlist")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"items": h.watchlist.Items(),
	}))
}

// HandleResolve handles GET /api/resolve?q=
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		h.writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(h.market.Resolve(query)))
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
