package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/analytics/internal/database"
	"github.com/aristath/analytics/internal/scheduler"
	"github.com/aristath/analytics/internal/utils"
)

// JobLister reports scheduled jobs
type JobLister interface {
	Status() []scheduler.JobStatus
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string          `json:"status"`
	UptimeSeconds float64         `json:"uptime_seconds"`
	GoVersion     string          `json:"go_version"`
	Goroutines    int             `json:"goroutines"`
	CPUPercent    float64         `json:"cpu_percent"`
	MemoryPercent float64         `json:"memory_percent"`
	HeapAllocMB   float64         `json:"heap_alloc_mb"`
	DataDirMB     float64         `json:"data_dir_mb"`
	HistoryCache  *database.Stats `json:"history_cache,omitempty"`
	CacheEnabled  bool            `json:"cache_enabled"`
}

// SystemHandlers serves health and status endpoints
type SystemHandlers struct {
	log     zerolog.Logger
	dataDir string
	db      *database.DB
	jobs    JobLister
	started time.Time
}

// NewSystemHandlers creates system handlers. db and jobs may be nil.
func NewSystemHandlers(log zerolog.Logger, dataDir string, db *database.DB, jobs JobLister) *SystemHandlers {
	return &SystemHandlers{
		log:     log.With().Str("handler", "system").Logger(),
		dataDir: dataDir,
		db:      db,
		jobs:    jobs,
		started: time.Now(),
	}
}

// HandleHealth handles GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.HealthCheck(ctx); err != nil {
			h.log.Error().Err(err).Msg("History cache health check failed")
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	utils.WriteResponse(w, r, code, map[string]interface{}{
		"status":  status,
		"service": "analytics",
	}, h.log)
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	cpuPercent, memPercent := h.getSystemStats()
	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.started).Seconds(),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		HeapAllocMB:   float64(memStats.HeapAlloc) / 1024 / 1024,
		DataDirMB:     h.dirSizeMB(h.dataDir),
		CacheEnabled:  h.db != nil,
	}

	if h.db != nil {
		stats, err := h.db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to get history cache stats")
		} else {
			response.HistoryCache = stats
		}
	}

	utils.WriteResponse(w, r, http.StatusOK, utils.Envelope(response), h.log)
}

// HandleJobsStatus handles GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	jobs := []scheduler.JobStatus{}
	if h.jobs != nil {
		jobs = h.jobs.Status()
	}
	utils.WriteResponse(w, r, http.StatusOK, utils.Envelope(map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	}), h.log)
}

// getSystemStats returns CPU and RAM usage percentages. CPU is sampled over
// 100ms to keep the call fast.
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

func (h *SystemHandlers) dirSizeMB(dirPath string) float64 {
	if dirPath == "" {
		return 0
	}
	var totalSize int64
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}
	return float64(totalSize) / 1024 / 1024
}
