package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/logging"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/manifest"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/shared/id"
)

// ScenarioInfo is the API view of one loaded workload manifest.
type ScenarioInfo struct {
	ID          id.ScenarioID `json:"id"`
	Scenario    string        `json:"scenario"`
	Description string        `json:"description,omitempty"`
	Path        string        `json:"path"`
	Workloads   int           `json:"workloads"`
}

// Scenarios builds the API catalog from loaded manifests.
func Scenarios(manifests []*manifest.Manifest) []ScenarioInfo {
	out := make([]ScenarioInfo, 0, len(manifests))
	for _, m := range manifests {
		out = append(out, ScenarioInfo{
			ID:          id.NewScenarioID(),
			Scenario:    m.Scenario,
			Description: m.Description,
			Path:        m.Path,
			Workloads:   len(m.Workloads),
		})
	}
	return out
}

// threadListing is one row of the flattened thread view.
type threadListing struct {
	PID kernel.PID `json:"pid"`
	kernel.ThreadInfo
}

// Handlers serves the kernel introspection routes.
type Handlers struct {
	kernel    *kernel.Kernel
	scenarios []ScenarioInfo
	log       *logging.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(k *kernel.Kernel, scenarios []ScenarioInfo, log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handlers{kernel: k, scenarios: scenarios, log: log.Named("api")}
}

// Health reports liveness plus the kernel census.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"boot_id": h.kernel.BootID(),
		"counts":  h.kernel.Counts(),
	})
}

// ListProcesses returns every registered process.
func (h *Handlers) ListProcesses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"processes": h.kernel.Processes()})
}

// GetProcess returns one process by pid.
func (h *Handlers) GetProcess(c *gin.Context) {
	pid, err := strconv.ParseInt(c.Param("pid"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pid"})
		return
	}

	info, err := h.kernel.Process(kernel.PID(pid))
	if errors.Is(err, kernel.ErrNoSuchProcess) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// ListThreads returns every live thread descriptor across all
// processes.
func (h *Handlers) ListThreads(c *gin.Context) {
	var threads []threadListing
	for _, p := range h.kernel.Processes() {
		for _, t := range p.Threads {
			threads = append(threads, threadListing{PID: p.PID, ThreadInfo: t})
		}
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads, "count": len(threads)})
}

// ListScenarios returns the loaded workload catalog.
func (h *Handlers) ListScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scenarios": h.scenarios})
}
