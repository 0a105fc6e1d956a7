package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// ErrUnknownFormat is returned for a manifest extension with no parser.
var ErrUnknownFormat = errors.New("unknown manifest format")

// ErrNoWorkloads is returned for a manifest that declares no workloads.
var ErrNoWorkloads = errors.New("manifest declares no workloads")

// Workload is one unit of kernel load inside a scenario. Kind selects
// the generator; the remaining fields parameterize it and unused ones
// are ignored.
type Workload struct {
	Kind      string `json:"kind" yaml:"kind" toml:"kind"`
	Name      string `json:"name" yaml:"name" toml:"name"`
	Threads   int    `json:"threads" yaml:"threads" toml:"threads"`
	Depth     int    `json:"depth" yaml:"depth" toml:"depth"`
	Fanout    int    `json:"fanout" yaml:"fanout" toml:"fanout"`
	ExitValue int    `json:"exit_value" yaml:"exit_value" toml:"exit_value"`
	Script    string `json:"script" yaml:"script" toml:"script"`
}

// Manifest is one scenario file.
type Manifest struct {
	Scenario    string     `json:"scenario" yaml:"scenario" toml:"scenario"`
	Description string     `json:"description" yaml:"description" toml:"description"`
	Workloads   []Workload `json:"workloads" yaml:"workloads" toml:"workloads"`

	// Path is where the manifest was loaded from; set by Load.
	Path string `json:"-" yaml:"-" toml:"-"`
}

// Discover walks root and returns the relative paths matching the
// doublestar pattern, sorted. The walk callback runs concurrently, so
// the match list is guarded.
func Discover(root, pattern string) ([]string, error) {
	var (
		mu      sync.Mutex
		matches []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("bad manifest pattern %q: %w", pattern, err)
		}
		if ok {
			mu.Lock()
			matches = append(matches, rel)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover manifests under %s: %w", root, err)
	}

	sort.Strings(matches)
	return matches, nil
}

// Load parses one manifest file, picking the parser by extension.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	case ".toml":
		err = toml.Unmarshal(data, &m)
	case ".json":
		err = sonic.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if m.Scenario == "" {
		base := filepath.Base(path)
		m.Scenario = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if len(m.Workloads) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoWorkloads)
	}
	for i, w := range m.Workloads {
		if w.Kind == "" {
			return nil, fmt.Errorf("%s: workload %d: kind required", path, i)
		}
	}

	m.Path = path
	return &m, nil
}

// LoadAll discovers and parses every manifest under root.
func LoadAll(root, pattern string) ([]*Manifest, error) {
	paths, err := Discover(root, pattern)
	if err != nil {
		return nil, err
	}

	manifests := make([]*Manifest, 0, len(paths))
	for _, rel := range paths {
		m, err := Load(filepath.Join(root, rel))
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}
