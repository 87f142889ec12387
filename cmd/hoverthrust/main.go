// Package main provides the hoverthrust CLI entry point.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/orneryd/hoverthrust/pkg/config"
	"github.com/orneryd/hoverthrust/pkg/storage"
)

var (
	version   = "0.1.0"
	commit    = "dev"
	buildTime = "unknown" // Set via ldflags: -X main.buildTime=$(date +%Y%m%d-%H%M%S)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hoverthrust",
		Short: "hoverthrust - online hover thrust estimation for multirotors",
		Long: `hoverthrust estimates the normalized thrust a multirotor needs to hover
from vertical acceleration and thrust commands.

Features:
  • Single-state EKF with adaptive accelerometer noise and innovation gating
  • Replay of recorded flight logs with consistency statistics
  • Synthetic flight log generation
  • Persistent per-vehicle checkpoints and replay runs (BadgerDB)`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default: search ~/.hoverthrust, ., ~/.config/hoverthrust)")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory for checkpoints and runs (overrides config)")

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hoverthrust v%s (%s) built %s\n", version, commit, buildTime)
		},
	})

	// Init command
	initCmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}
	rootCmd.AddCommand(initCmd)

	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newCheckpointCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newRestoreCmd())

	return rootCmd
}

// loadConfig resolves configuration with precedence flags > env > file > defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.Storage.DataDir, _ = cmd.Flags().GetString("data-dir")
	}

	if err := configureLogging(cfg); err != nil {
		return nil, err
	}
	if configPath != "" {
		log.Printf("[config] loaded %s", configPath)
	}
	return cfg, nil
}

// configureLogging points the standard logger at cfg.Logging.Output.
func configureLogging(cfg *config.Config) error {
	switch cfg.Logging.Output {
	case "", "stderr":
		log.SetOutput(os.Stderr)
	case "stdout":
		log.SetOutput(os.Stdout)
	default:
		f, err := os.OpenFile(cfg.Logging.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		log.SetOutput(f)
	}
	return nil
}

// openStore opens the badger store described by cfg.
func openStore(cfg *config.Config) (*storage.BadgerStore, error) {
	if !cfg.Storage.InMemory {
		if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", cfg.Storage.DataDir, err)
		}
	}

	store, err := storage.NewBadgerStoreWithOptions(storage.BadgerOptions{
		DataDir:    cfg.Storage.DataDir,
		InMemory:   cfg.Storage.InMemory,
		SyncWrites: cfg.Storage.SyncWrites,
		LowMemory:  cfg.Storage.LowMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, "hoverthrust.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Println("✅ Config written")
	fmt.Printf("   Config: %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Generate a log:  hoverthrust simulate --out flight.csv")
	fmt.Println("  2. Replay it:       hoverthrust replay flight.csv --store --save-checkpoint")
	return nil
}

const defaultConfigYAML = `# hoverthrust configuration
estimator:
  preset: default            # default, agile, conservative
  # initial_hover_thrust: 0.5
  # accel_innov_gate: 3.0
  # gate_confidence: 0.997   # overrides accel_innov_gate

tracker:
  enabled: true
  frame: up                  # up or ned
  min_dt: 2ms
  max_dt: 200ms
  min_thrust: 0.05
  valid_variance_threshold: 0.001
  valid_hysteresis: 2s

storage:
  data_dir: ./data
  sync_writes: false
  low_memory: false

replay:
  vehicle_id: default

logging:
  level: INFO
  output: stderr
`
