package report

import (
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/shared/id"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/trace"
)

// Stats summarizes one latency sample set, in seconds.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
}

// ScenarioResult is the outcome of one executed scenario.
type ScenarioResult struct {
	Scenario  string        `json:"scenario"`
	Workloads int           `json:"workloads"`
	Status    int           `json:"status"`
	Error     string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// Report is the full run summary.
type Report struct {
	ID          id.ReportID       `json:"id"`
	Run         id.RunID          `json:"run"`
	GeneratedAt time.Time         `json:"generated_at"`
	Scenarios   []ScenarioResult  `json:"scenarios"`
	Events      map[string]uint64 `json:"events"`
	Counts      kernel.Counts     `json:"counts"`
	JoinWait    Stats             `json:"join_wait"`
	Cascade     Stats             `json:"cascade"`
	Trace       *trace.Summary    `json:"trace,omitempty"`
}

// Encode renders the report as indented JSON.
func (r *Report) Encode() ([]byte, error) {
	return sonic.MarshalIndent(r, "", "  ")
}

// Collector accumulates run data. It is safe to use as a kernel event
// sink while the runner adds scenario results from another goroutine.
type Collector struct {
	mu        sync.Mutex
	events    map[string]uint64
	joinWaits []float64
	cascades  []float64
	scenarios []ScenarioResult
}

var _ kernel.EventSink = (*Collector)(nil)

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{events: make(map[string]uint64)}
}

// Record tallies one kernel event and samples its latency when the
// event carries one.
func (c *Collector) Record(ev kernel.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events[string(ev.Type)]++
	switch ev.Type {
	case kernel.EventThreadJoined:
		if ev.Elapsed > 0 {
			c.joinWaits = append(c.joinWaits, ev.Elapsed.Seconds())
		}
	case kernel.EventCascade:
		c.cascades = append(c.cascades, ev.Elapsed.Seconds())
	}
}

// AddScenario records the outcome of one finished scenario.
func (c *Collector) AddScenario(res ScenarioResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scenarios = append(c.scenarios, res)
}

// Build assembles the report from everything collected so far.
func (c *Collector) Build(run id.RunID, counts kernel.Counts, traceSum *trace.Summary) *Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	events := make(map[string]uint64, len(c.events))
	for k, v := range c.events {
		events[k] = v
	}
	scenarios := append([]ScenarioResult(nil), c.scenarios...)

	return &Report{
		ID:          id.NewReportID(),
		Run:         run,
		GeneratedAt: time.Now(),
		Scenarios:   scenarios,
		Events:      events,
		Counts:      counts,
		JoinWait:    computeStats(c.joinWaits),
		Cascade:     computeStats(c.cascades),
		Trace:       traceSum,
	}
}

// computeStats summarizes samples; an empty set yields zeroes.
func computeStats(samples []float64) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	// Sample stddev is undefined for a single observation; report 0
	// rather than NaN, which JSON cannot carry.
	stddev := 0.0
	if len(sorted) > 1 {
		stddev = stat.StdDev(sorted, nil)
	}

	return Stats{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		StdDev: stddev,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P50:    stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:    stat.Quantile(0.90, stat.Empirical, sorted, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
}
