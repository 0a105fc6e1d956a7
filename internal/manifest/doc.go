// Package manifest discovers and parses workload scenario files.
//
// Scenario files live under a configured root and are discovered by a
// doublestar pattern over a fastwalk traversal, so nested scenario
// collections work without listing every file. A file's extension picks
// its parser: .yaml/.yml (goccy/go-yaml), .toml (go-toml/v2), or .json
// (sonic). All formats decode into the same Manifest shape.
//
// Example Usage:
//
//	manifests, err := manifest.LoadAll("./manifests", "**/*.{yaml,yml,toml,json}")
//	for _, m := range manifests {
//	    fmt.Println(m.Scenario, len(m.Workloads))
//	}
package manifest
