package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/parley/internal/config"
)

// execute runs the root command in-process. Cobra keeps flag values between
// runs, so callers always pass --json explicitly.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		score  float64
		filled int
	}{
		{0, 0},
		{50, 5},
		{100, 10},
		{150, 10},
		{-20, 0},
	}
	for _, tt := range tests {
		bar := renderBar(tt.score, 10)
		assert.Equal(t, tt.filled, strings.Count(bar, "█"), "score %v", tt.score)
		assert.Equal(t, 10, strings.Count(bar, "█")+strings.Count(bar, "░"), "score %v", tt.score)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "parley dev\n", out)
}

func TestLevelsCommand(t *testing.T) {
	out, err := execute(t, "levels", "--json=true", "--persona", "alex")
	require.NoError(t, err)

	var levels []struct {
		ID         string `json:"id"`
		Complexity int    `json:"complexity"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &levels))
	require.Len(t, levels, 6)
	assert.Equal(t, "a1-starter", levels[0].ID)
	assert.Equal(t, "b1-confident", levels[5].ID)

	_, err = execute(t, "levels", "--json=true", "--persona", "zed")
	assert.Error(t, err)
}

func TestProfileAndSessionCommands(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	db := filepath.Join(t.TempDir(), "cli.db")

	out, err := execute(t, "profile", "create", "--db", db, "--json=true", "--persona", "alex", "--level", "a2-elementary")
	require.NoError(t, err)

	var profile struct {
		UserID         string `json:"user_id"`
		CurrentLevelID string `json:"current_level_id"`
		Persona        string `json:"persona"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &profile))
	assert.Equal(t, "a2-elementary", profile.CurrentLevelID)
	assert.Equal(t, "alex", profile.Persona)

	out, err = execute(t, "profile", "show", profile.UserID, "--db", db, "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Level:       a2-elementary")
	assert.Contains(t, out, "Persona:     alex")

	_, err = execute(t, "profile", "show", "not-a-uuid", "--db", db, "--json=false")
	assert.Error(t, err)
}

func TestWorkerLogFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := workerLogFile(&config.Config{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".parley", "logs", "worker.log"), path)
	assert.DirExists(t, filepath.Dir(path))

	custom := filepath.Join(t.TempDir(), "custom.log")
	path, err = workerLogFile(&config.Config{LogFile: custom})
	require.NoError(t, err)
	assert.Equal(t, custom, path)
}
