package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersion(t *testing.T) {
	assert.Contains(t, run(t, "version"), "pathquiz version ")
}

func TestValidate(t *testing.T) {
	assert.Contains(t, run(t, "validate"), `Quiz "learning-path" is valid`)
}

func TestResult(t *testing.T) {
	out := run(t, "--env-file", filepath.Join(t.TempDir(), "none.env"), "result", "--answers", "3,0,3")
	assert.Contains(t, out, "# Career Advancement Track")
}

func TestInitThenGraph(t *testing.T) {
	dir := t.TempDir()
	run(t, "init", dir)

	out := run(t,
		"--definition", filepath.Join(dir, "learning-path.yaml"),
		"--catalog-db", filepath.Join(dir, "catalog.db"),
		"graph")
	assert.Contains(t, out, "graph TD")
}
