package server

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/aristath/flipper/internal/database"
	"github.com/aristath/flipper/internal/modules/market"
	"github.com/aristath/flipper/internal/modules/session"
	"github.com/aristath/flipper/internal/modules/watchlist"
	"github.com/aristath/flipper/internal/scheduler"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// CatalogSource exposes the loaded item catalog.
type CatalogSource interface {
	Catalog() *market.Catalog
}

// SystemHandlers handles system-wide HTTP requests
type SystemHandlers struct {
	log        zerolog.Logger
	startedAt  time.Time
	controller *session.Controller
	catalog    CatalogSource
	cacheDB    *database.DB
	watchlist  *watchlist.Store
	scheduler  *scheduler.Scheduler
	jobs       map[string]scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance. Any dependency may be nil.
func NewSystemHandlers(
	log zerolog.Logger,
	controller *session.Controller,
	catalog CatalogSource,
	cacheDB *database.DB,
	watchlist *watchlist.Store,
	sched *scheduler.Scheduler,
	jobs ...scheduler.Job,
) *SystemHandlers {
	byName := make(map[string]scheduler.Job, len(jobs))
	for _, job := range jobs {
		if job != nil {
			byName[job.Name()] = job
		}
	}
	return &SystemHandlers{
		log:        log.With().Str("handler", "system").Logger(),
		startedAt:  time.Now(),
		controller: controller,
		catalog:    catalog,
		cacheDB:    cacheDB,
		watchlist:  watchlist,
		scheduler:  sched,
		jobs:       byName,
	}
}

// SystemStatusResponse represents the system status
type SystemStatusResponse struct {
	Status        string   `json:"status"` // "healthy" or "degraded"
	StartedAt     string   `json:"started_at"`
	Uptime        string   `json:"uptime"`
	SessionState  string   `json:"session_state"`
	Target        string   `json:"target,omitempty"`
	Generation    uint64   `json:"generation"`
	CatalogSize   int      `json:"catalog_size"`
	CacheSize     string   `json:"cache_size,omitempty"` // Human readable size of the client-data cache
	WatchlistSize int      `json:"watchlist_size"`
	Jobs          []string `json:"jobs"`
	CPUPercent    float64  `json:"cpu_percent"`
	RAMPercent    float64  `json:"ram_percent"`
	Goroutines    int      `json:"goroutines"`
}

// GetSystemStatusSnapshot returns a snapshot of the current system status.
func (h *SystemHandlers) GetSystemStatusSnapshot(r *http.Request) SystemStatusResponse {
	response := SystemStatusResponse{
		Status:     "healthy",
		StartedAt:  h.startedAt.Format(time.RFC3339),
		Uptime:     strings.TrimSpace(humanize.RelTime(h.startedAt, time.Now(), "", "")),
		Jobs:       []string{},
		Goroutines: runtime.NumGoroutine(),
	}

	if h.controller != nil {
		response.SessionState = string(h.controller.State())
		response.Generation = h.controller.Generation()
		if sess := h.controller.Current(); sess != nil {
			response.Target = sess.Target.String()
		}
	}

	if h.catalog != nil {
		response.CatalogSize = h.catalog.Catalog().Len()
	}

	if h.cacheDB != nil {
		if err := h.cacheDB.QuickCheck(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("Client data cache unreachable")
			response.Status = "degraded"
		}
		if info, err := os.Stat(h.cacheDB.Path()); err == nil {
			response.CacheSize = humanize.Bytes(uint64(info.Size()))
		}
	}

	if h.watchlist != nil {
		response.WatchlistSize = len(h.watchlist.Items())
	}

	if h.scheduler != nil {
		response.Jobs = h.scheduler.Jobs()
	}

	response.CPUPercent, response.RAMPercent = h.getSystemStats()

	return response
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	response := h.GetSystemStatusSnapshot(r)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode system status")
	}
}

// HandleRunJob handles POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok || h.scheduler == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{
			"status":  "error",
			"message": "Unknown job: " + name,
		})
		return
	}

	if err := h.scheduler.RunNow(job); err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": name + " completed",
	})
}

// getSystemStats calculates CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the request fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
