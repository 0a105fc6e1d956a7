package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const yamlManifest = `scenario: fanin-demo
description: fifty joiners on one target
workloads:
  - kind: join-fanin
    name: wide
    threads: 50
    exit_value: 7
  - kind: tree
    name: deep
    depth: 3
    fanout: 2
`

const tomlManifest = `scenario = "detach-demo"

[[workloads]]
kind = "detach-race"
name = "racy"
threads = 8
`

const jsonManifest = `{
  "scenario": "script-demo",
  "workloads": [
    {"kind": "script", "name": "custom", "script": "exit(0);"}
  ]
}`

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		m, err := Load(writeFile(t, dir, "fanin.yaml", yamlManifest))
		require.NoError(t, err)
		assert.Equal(t, "fanin-demo", m.Scenario)
		require.Len(t, m.Workloads, 2)
		assert.Equal(t, "join-fanin", m.Workloads[0].Kind)
		assert.Equal(t, 50, m.Workloads[0].Threads)
		assert.Equal(t, 7, m.Workloads[0].ExitValue)
		assert.Equal(t, 3, m.Workloads[1].Depth)
		assert.Equal(t, 2, m.Workloads[1].Fanout)
	})

	t.Run("toml", func(t *testing.T) {
		m, err := Load(writeFile(t, dir, "detach.toml", tomlManifest))
		require.NoError(t, err)
		assert.Equal(t, "detach-demo", m.Scenario)
		require.Len(t, m.Workloads, 1)
		assert.Equal(t, "detach-race", m.Workloads[0].Kind)
		assert.Equal(t, 8, m.Workloads[0].Threads)
	})

	t.Run("json", func(t *testing.T) {
		m, err := Load(writeFile(t, dir, "script.json", jsonManifest))
		require.NoError(t, err)
		assert.Equal(t, "script-demo", m.Scenario)
		require.Len(t, m.Workloads, 1)
		assert.Equal(t, "exit(0);", m.Workloads[0].Script)
	})
}

func TestLoadDefaultsScenarioToFilename(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(writeFile(t, dir, "nightly.yml", "workloads:\n  - kind: tree\n"))
	require.NoError(t, err)
	assert.Equal(t, "nightly", m.Scenario)
}

func TestLoadRejectsBadManifests(t *testing.T) {
	dir := t.TempDir()

	t.Run("unknown extension", func(t *testing.T) {
		_, err := Load(writeFile(t, dir, "scenario.ini", "kind=nope"))
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})

	t.Run("no workloads", func(t *testing.T) {
		_, err := Load(writeFile(t, dir, "empty.yaml", "scenario: hollow\n"))
		assert.ErrorIs(t, err, ErrNoWorkloads)
	})

	t.Run("missing kind", func(t *testing.T) {
		_, err := Load(writeFile(t, dir, "nokind.yaml", "workloads:\n  - name: anon\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kind required")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, dir, "broken.yaml", "workloads: ["))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestDiscoverMatchesNestedManifests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.yaml", yamlManifest)
	writeFile(t, dir, "nightly/deep.toml", tomlManifest)
	writeFile(t, dir, "nightly/sub/leaf.json", jsonManifest)
	writeFile(t, dir, "notes/readme.md", "not a manifest")

	paths, err := Discover(dir, "**/*.{yaml,yml,toml,json}")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("nightly", "deep.toml"),
		filepath.Join("nightly", "sub", "leaf.json"),
		"top.yaml",
	}, paths)
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", yamlManifest)
	writeFile(t, dir, "b/b.json", jsonManifest)

	ms, err := LoadAll(dir, "**/*.{yaml,yml,toml,json}")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "fanin-demo", ms[0].Scenario)
	assert.Equal(t, "script-demo", ms[1].Scenario)
	assert.NotEmpty(t, ms[0].Path)
}
