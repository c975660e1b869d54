package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToDefaultsWhenNoFileFound(t *testing.T) {
	t.Setenv("TC_CONFIG_PATH", "")
	spec, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, 4, spec.Compiler.GraphDepth)
	assert.True(t, spec.Resolver.Cache)
}

func TestLoadExplicitPathTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("compiler:\n  graph_depth: 9\n"), 0o644))

	spec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, spec.Compiler.GraphDepth)
}

func TestResolveSandboxPrecedence(t *testing.T) {
	e := Environment{Sandbox: "envsandbox"}
	assert.Equal(t, "override", e.ResolveSandbox("override"))
	assert.Equal(t, "envsandbox", e.ResolveSandbox(""))

	e2 := Environment{}
	assert.Equal(t, "stable", e2.ResolveSandbox(""))
}
