package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orneryd/hoverthrust/pkg/config"
	"github.com/orneryd/hoverthrust/pkg/hover"
	"github.com/orneryd/hoverthrust/pkg/replay"
	"github.com/orneryd/hoverthrust/pkg/storage"
)

func newSimulateCmd() *cobra.Command {
	def := replay.DefaultSimConfig()
	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate a synthetic hover flight log",
		RunE:  runSimulate,
	}
	simulateCmd.Flags().String("out", "flight.csv", "Output CSV file")
	simulateCmd.Flags().Float64("hover", def.HoverThrust, "True hover thrust")
	simulateCmd.Flags().Duration("duration", def.Duration, "Log duration")
	simulateCmd.Flags().Duration("dt", def.Dt, "Sample period")
	simulateCmd.Flags().Float64("noise", def.NoiseStdDev, "Accelerometer noise std dev (m/s^2)")
	simulateCmd.Flags().Duration("landed", def.LandedFor, "Time on the ground before takeoff")
	simulateCmd.Flags().Int("spikes", def.Spikes, "Number of accelerometer spikes")
	simulateCmd.Flags().Duration("drop-at", 0, "Payload drop time (0 = none)")
	simulateCmd.Flags().Float64("hover-after-drop", 0, "True hover thrust after the payload drop")
	simulateCmd.Flags().Int64("seed", def.Seed, "Noise seed")
	return simulateCmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	cfg := replay.DefaultSimConfig()
	cfg.HoverThrust, _ = cmd.Flags().GetFloat64("hover")
	cfg.Duration, _ = cmd.Flags().GetDuration("duration")
	cfg.Dt, _ = cmd.Flags().GetDuration("dt")
	cfg.NoiseStdDev, _ = cmd.Flags().GetFloat64("noise")
	cfg.LandedFor, _ = cmd.Flags().GetDuration("landed")
	cfg.Spikes, _ = cmd.Flags().GetInt("spikes")
	cfg.PayloadDropAt, _ = cmd.Flags().GetDuration("drop-at")
	cfg.HoverThrustAfterDrop, _ = cmd.Flags().GetFloat64("hover-after-drop")
	cfg.Seed, _ = cmd.Flags().GetInt64("seed")

	samples, err := replay.Simulate(cfg)
	if err != nil {
		return fmt.Errorf("simulating: %w", err)
	}
	if err := replay.WriteLogFile(out, samples); err != nil {
		return err
	}

	fmt.Printf("✅ Wrote %d samples to %s (hover %.3f, noise %.2f m/s^2, seed %d)\n",
		len(samples), out, cfg.HoverThrust, cfg.NoiseStdDev, cfg.Seed)
	return nil
}

func newReplayCmd() *cobra.Command {
	replayCmd := &cobra.Command{
		Use:   "replay <log.csv>",
		Short: "Run the estimator over a flight log",
		Long: `Replay a CSV flight log (time_s,acc_z,thrust[,landed]) through the hover
thrust tracker and print a summary. With --store the run and every record are
persisted and can be inspected later with "hoverthrust runs".`,
		Args: cobra.ExactArgs(1),
		RunE: runReplay,
	}
	replayCmd.Flags().String("status-out", "", "Write per-sample estimator status CSV")
	replayCmd.Flags().Bool("store", false, "Persist the run and its records")
	replayCmd.Flags().String("vehicle", "", "Vehicle ID for checkpoints (overrides config)")
	replayCmd.Flags().String("frame", "", "Frame of the log: up or ned (overrides config)")
	replayCmd.Flags().String("preset", "", "Estimator preset: default, agile, conservative")
	replayCmd.Flags().Float64("gate", 0, "Innovation gate in standard deviations (overrides config)")
	replayCmd.Flags().Bool("save-checkpoint", false, "Store the final estimate as the vehicle checkpoint")
	replayCmd.Flags().Bool("resume", false, "Start from the stored vehicle checkpoint")
	return replayCmd
}

// applyReplayFlags copies explicitly set replay flags into cfg.
func applyReplayFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("preset") {
		preset, _ := flags.GetString("preset")
		cfg.ApplyPreset(preset)
	}
	if flags.Changed("gate") {
		cfg.Estimator.AccelInnovGate, _ = flags.GetFloat64("gate")
		cfg.Estimator.GateConfidence = 0
	}
	if flags.Changed("frame") {
		frame, _ := flags.GetString("frame")
		cfg.Tracker.Frame = strings.ToLower(frame)
	}
	if flags.Changed("vehicle") {
		cfg.Replay.VehicleID, _ = flags.GetString("vehicle")
	}
	if flags.Changed("save-checkpoint") {
		cfg.Replay.SaveCheckpoint, _ = flags.GetBool("save-checkpoint")
	}
	if flags.Changed("resume") {
		cfg.Replay.ResumeFromCheckpoint, _ = flags.GetBool("resume")
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	logPath := args[0]
	statusOut, _ := cmd.Flags().GetString("status-out")
	persist, _ := cmd.Flags().GetBool("store")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyReplayFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	samples, err := replay.ReadLogFile(logPath)
	if err != nil {
		return err
	}
	fmt.Printf("📂 Loaded %d samples from %s\n", len(samples), logPath)

	tr := hover.NewTracker(cfg.TrackerOptions())

	var store *storage.BadgerStore
	if persist || cfg.Replay.SaveCheckpoint || cfg.Replay.ResumeFromCheckpoint {
		store, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	if cfg.Replay.ResumeFromCheckpoint {
		cp, err := store.LoadCheckpoint(cfg.Replay.VehicleID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			fmt.Printf("⚠️  No checkpoint for %s, starting from defaults\n", cfg.Replay.VehicleID)
		case err != nil:
			return fmt.Errorf("loading checkpoint: %w", err)
		default:
			tr.Restore(cp.State)
			fmt.Printf("♻️  Resumed %s from hover thrust %.4f (saved %s)\n",
				cp.VehicleID, cp.State.HoverThrust, cp.SavedAt.Format(time.RFC3339))
		}
	}

	var sinks []hover.Sink
	var run *storage.Run
	if persist {
		run = &storage.Run{
			VehicleID: cfg.Replay.VehicleID,
			Source:    logPath,
			Frame:     cfg.Tracker.Frame,
		}
		if err := store.SaveRun(run); err != nil {
			return fmt.Errorf("creating run: %w", err)
		}
		sinks = append(sinks, storage.NewRecordSink(store, run.ID, 0))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	records, runErr := replay.Run(ctx, tr, samples, sinks...)
	if runErr != nil {
		log.Printf("[replay] stopped after %d of %d samples: %v", len(records), len(samples), runErr)
	}

	summary := replay.Summarize(records)
	fmt.Printf("⏱️  Replayed %d samples in %s\n\n", len(records), time.Since(start).Round(time.Millisecond))
	fmt.Print(summary.String())

	if statusOut != "" {
		if err := replay.WriteStatusFile(statusOut, records); err != nil {
			return err
		}
		fmt.Printf("\n📄 Status written to %s\n", statusOut)
	}

	if run != nil {
		run.Samples = summary.Samples
		run.Accepted = summary.Accepted
		run.Rejected = summary.Rejected
		run.FinalHoverThrust = summary.FinalHoverThrust
		run.FinalVariance = summary.FinalVariance
		run.Valid = summary.FinalValid
		if err := store.SaveRun(run); err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		fmt.Printf("💾 Stored run %s\n", run.ID)
	}

	if cfg.Replay.SaveCheckpoint && runErr == nil {
		cp := storage.Checkpoint{
			VehicleID: cfg.Replay.VehicleID,
			State:     tr.Checkpoint(),
			Valid:     tr.Valid(),
		}
		if run != nil {
			cp.RunID = run.ID
		}
		if err := store.SaveCheckpoint(cp); err != nil {
			return fmt.Errorf("saving checkpoint: %w", err)
		}
		fmt.Printf("💾 Checkpoint saved for %s: %.4f\n", cp.VehicleID, cp.State.HoverThrust)
	}

	return runErr
}
