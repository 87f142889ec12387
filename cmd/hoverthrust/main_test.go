package main

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/hoverthrust/pkg/replay"
	"github.com/orneryd/hoverthrust/pkg/storage"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	chdir(t, dir)
	return dir
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	dir := isolate(t)

	require.NoError(t, execute(t, "init", dir))
	path := filepath.Join(dir, "hoverthrust.yaml")
	assert.FileExists(t, path)

	assert.Error(t, execute(t, "init", dir), "existing config is not overwritten")
}

func TestSimulateReplayAndInspect(t *testing.T) {
	dir := isolate(t)
	dataDir := filepath.Join(dir, "data")
	logPath := filepath.Join(dir, "flight.csv")
	statusPath := filepath.Join(dir, "status.csv")

	require.NoError(t, execute(t, "simulate", "--out", logPath, "--duration", "20s"))
	samples, err := replay.ReadLogFile(logPath)
	require.NoError(t, err)
	require.Len(t, samples, 1000)

	require.NoError(t, execute(t, "replay", logPath,
		"--data-dir", dataDir,
		"--store",
		"--save-checkpoint",
		"--vehicle", "x500",
		"--status-out", statusPath,
	))
	assert.FileExists(t, statusPath)

	store, err := storage.NewBadgerStore(dataDir)
	require.NoError(t, err)
	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, "x500", run.VehicleID)
	assert.Equal(t, 1000, run.Samples)

	records, err := store.RunRecords(run.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1000)

	cp, err := store.LoadCheckpoint("x500")
	require.NoError(t, err)
	assert.InDelta(t, 0.42, cp.State.HoverThrust, 0.03)
	assert.Equal(t, run.ID, cp.RunID)
	require.NoError(t, store.Close())

	require.NoError(t, execute(t, "runs", "list", "--data-dir", dataDir))
	require.NoError(t, execute(t, "runs", "show", run.ID, "--data-dir", dataDir))
	require.NoError(t, execute(t, "checkpoint", "show", "x500", "--data-dir", dataDir))
	require.NoError(t, execute(t, "checkpoint", "list", "--data-dir", dataDir))
	assert.Error(t, execute(t, "checkpoint", "show", "nope", "--data-dir", dataDir))

	backupPath := filepath.Join(dir, "backup.bak")
	require.NoError(t, execute(t, "backup", backupPath, "--data-dir", dataDir))
	info, err := os.Stat(backupPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	require.NoError(t, execute(t, "runs", "delete", run.ID, "--data-dir", dataDir))
	assert.Error(t, execute(t, "runs", "show", run.ID, "--data-dir", dataDir))

	restoredDir := filepath.Join(dir, "restored")
	require.NoError(t, execute(t, "restore", backupPath, "--data-dir", restoredDir))

	restored, err := storage.NewBadgerStore(restoredDir)
	require.NoError(t, err)
	defer restored.Close()
	loaded, err := restored.LoadRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Samples, loaded.Samples)
}

func TestReplay_ResumeWithoutCheckpoint(t *testing.T) {
	dir := isolate(t)
	logPath := filepath.Join(dir, "flight.csv")

	require.NoError(t, execute(t, "simulate", "--out", logPath, "--duration", "5s"))
	require.NoError(t, execute(t, "replay", logPath,
		"--data-dir", filepath.Join(dir, "data"),
		"--resume",
		"--preset", "agile",
	))
}

func TestReplay_RejectsInvalidFlags(t *testing.T) {
	dir := isolate(t)
	logPath := filepath.Join(dir, "flight.csv")
	require.NoError(t, execute(t, "simulate", "--out", logPath, "--duration", "2s"))

	assert.Error(t, execute(t, "replay", logPath, "--preset", "nope"))
	assert.Error(t, execute(t, "replay", logPath, "--frame", "enu"))
	assert.Error(t, execute(t, "replay", filepath.Join(dir, "missing.csv")))
}

func TestReplay_FrameFlagIsCaseInsensitive(t *testing.T) {
	dir := isolate(t)
	dataDir := filepath.Join(dir, "data")
	logPath := filepath.Join(dir, "flight.csv")
	require.NoError(t, execute(t, "simulate", "--out", logPath, "--duration", "3s"))

	require.NoError(t, execute(t, "replay", logPath, "--frame", "NED", "--store", "--data-dir", dataDir))

	store, err := storage.NewBadgerStore(dataDir)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "ned", runs[0].Frame)
}

func TestLoadConfig_LogsToConfiguredOutput(t *testing.T) {
	dir := isolate(t)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	logFile := filepath.Join(dir, "hoverthrust.log")
	configPath := filepath.Join(dir, "hoverthrust.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  output: "+logFile+"\n"), 0644))

	require.NoError(t, execute(t, "checkpoint", "list", "--config", configPath, "--data-dir", filepath.Join(dir, "data")))

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[config] loaded "+configPath)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
