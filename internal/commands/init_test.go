package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conciliar-dev/conciliar/internal/commands"
	"github.com/conciliar-dev/conciliar/internal/config"
)

// runConciliar executes the CLI in-process and returns combined output.
func runConciliar(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runConciliar(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized conciliar workspace")

	for _, d := range []string{
		filepath.Join("data", "input"),
		filepath.Join("data", "input", "processed"),
		filepath.Join("data", "output"),
	} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runConciliar(t, "init", dir)
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, err := runConciliar(t, "init", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	for _, pattern := range []string{"data/input/", "data/output/", "*.db"} {
		assert.Contains(t, string(data), pattern, ".gitignore should contain %s", pattern)
	}
}

func TestInit_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, err := runConciliar(t, "init", dir)
	require.NoError(t, err)

	_, err = runConciliar(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runConciliar(t, "init", dir, "--force")
	assert.NoError(t, err)
}
