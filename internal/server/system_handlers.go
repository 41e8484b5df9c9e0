package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/hedgefund/internal/httpx"
	"github.com/aristath/hedgefund/internal/modules/agents"
)

// SystemHandlers handles host and runtime monitoring endpoints
type SystemHandlers struct {
	log                    zerolog.Logger
	startupTime            time.Time
	registry               *agents.Registry
	agentServiceConfigured bool

	// Replaced in tests
	cpuPercent    func() (float64, error)
	memoryPercent func() (float64, error)
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(registry *agents.Registry, agentServiceConfigured bool, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		log:                    log.With().Str("handler", "system").Logger(),
		startupTime:            time.Now(),
		registry:               registry,
		agentServiceConfigured: agentServiceConfigured,
		cpuPercent:             sampleCPU,
		memoryPercent:          sampleMemory,
	}
}

// SystemStatusResponse is the response of GET /api/v1/system/status
type SystemStatusResponse struct {
	Status                 string  `json:"status"`
	Version                string  `json:"version"`
	UptimeSeconds          float64 `json:"uptime_seconds"`
	Goroutines             int     `json:"goroutines"`
	CPUPercent             float64 `json:"cpu_percent"`
	MemoryPercent          float64 `json:"memory_percent"`
	Agents                 int     `json:"agents"`
	AgentServiceConfigured bool    `json:"agent_service_configured"`
}

// HandleSystemStatus returns host and runtime status. Sampling failures are
// logged and reported as zero.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuAvg, err := h.cpuPercent()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	}
	memUsed, err := h.memoryPercent()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}

	status := "healthy"
	if !h.agentServiceConfigured {
		status = "degraded"
	}

	agentCount := 0
	if h.registry != nil {
		agentCount = len(h.registry.IDs())
	}

	httpx.WriteSuccess(w, r, http.StatusOK, SystemStatusResponse{
		Status:                 status,
		Version:                ServiceVersion,
		UptimeSeconds:          time.Since(h.startupTime).Seconds(),
		Goroutines:             runtime.NumGoroutine(),
		CPUPercent:             cpuAvg,
		MemoryPercent:          memUsed,
		Agents:                 agentCount,
		AgentServiceConfigured: h.agentServiceConfigured,
	}, h.log)
}

// sampleCPU averages CPU usage over 100ms
func sampleCPU() (float64, error) {
	percent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		return 0, err
	}
	if len(percent) == 0 {
		return 0, nil
	}
	return percent[0], nil
}

func sampleMemory() (float64, error) {
	stat, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return stat.UsedPercent, nil
}
