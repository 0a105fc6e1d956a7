// Package id provides centralized ID generation for the simulator.
//
// All identifiers are ULIDs: lexicographically sortable, so trace files
// and reports order by creation time without extra timestamps. Each ID
// domain carries a short prefix (run_*, ev_*, scn_*, rep_*) so a bare
// string in a log line is self-describing, and separate Go types keep
// the domains from mixing at compile time.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// RunID identifies one simulator run
type RunID string

// EventID identifies one trace event
type EventID string

// ScenarioID identifies a workload scenario loaded from a manifest
type ScenarioID string

// ReportID identifies a generated run report
type ReportID string

// ============================================================================
// ID Prefixes
// ============================================================================

const (
	RunPrefix      = "run"
	EventPrefix    = "ev"
	ScenarioPrefix = "scn"
	ReportPrefix   = "rep"
)

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand entropy
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy
// source, useful for deterministic tests
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewRunID generates a new run ID
func NewRunID() RunID {
	return RunID(Default().GenerateWithPrefix(RunPrefix))
}

// NewEventID generates a new trace event ID
func NewEventID() EventID {
	return EventID(Default().GenerateWithPrefix(EventPrefix))
}

// NewScenarioID generates a new scenario ID
func NewScenarioID() ScenarioID {
	return ScenarioID(Default().GenerateWithPrefix(ScenarioPrefix))
}

// NewReportID generates a new report ID
func NewReportID() ReportID {
	return ReportID(Default().GenerateWithPrefix(ReportPrefix))
}

// ============================================================================
// Type Conversion and Validation
// ============================================================================

// String methods for ID types
func (id RunID) String() string      { return string(id) }
func (id EventID) String() string    { return string(id) }
func (id ScenarioID) String() string { return string(id) }
func (id ReportID) String() string   { return string(id) }

// Parse parses an ID string, prefixed or bare, into its ULID
func Parse(id string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	return ulid.Parse(id)
}

// IsValid checks whether an ID string carries a valid ULID
func IsValid(id string) bool {
	_, err := Parse(id)
	return err == nil
}

// Timestamp extracts the creation time from an ID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
