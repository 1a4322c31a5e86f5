package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"
)

type HealthHandler struct {
	version         string
	modelConfigured bool
	startTime       time.Time
	memory          func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Memory    *MemoryStatus     `json:"memory,omitempty"`
}

type MemoryStatus struct {
	TotalBytes  uint64  `json:"total_bytes"`
	UsedBytes   uint64  `json:"used_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

func NewHealthHandler(version string, modelConfigured bool) *HealthHandler {
	return &HealthHandler{
		version:         version,
		modelConfigured: modelConfigured,
		startTime:       time.Now(),
		memory:          mem.VirtualMemoryWithContext,
	}
}

// HealthCheck reports degraded with 503 when the model credential is missing,
// since every analysis would fail.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	services := map[string]string{
		"market_data": "external",
	}

	overallStatus := "healthy"
	if h.modelConfigured {
		services["model"] = "healthy"
	} else {
		services["model"] = "unhealthy: OPENAI_API_KEY not set"
		overallStatus = "degraded"
	}

	response := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Services:  services,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	if h.memory != nil {
		if vm, err := h.memory(c.Request.Context()); err == nil && vm != nil {
			response.Memory = &MemoryStatus{
				TotalBytes:  vm.Total,
				UsedBytes:   vm.Used,
				UsedPercent: vm.UsedPercent,
			}
		}
	}

	status := http.StatusOK
	if overallStatus != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}

// LivenessCheck only confirms the process is serving requests.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
