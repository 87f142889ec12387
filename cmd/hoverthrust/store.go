package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/orneryd/hoverthrust/pkg/replay"
	"github.com/orneryd/hoverthrust/pkg/storage"
)

// withStore loads config, opens the store and runs fn with it.
func withStore(cmd *cobra.Command, fn func(store *storage.BadgerStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newRunsCmd() *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored replay runs",
	}

	runsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE:  runRunsList,
	})

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsShow,
	}
	showCmd.Flags().String("status-out", "", "Write the stored records as status CSV")
	runsCmd.AddCommand(showCmd)

	runsCmd.AddCommand(&cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run and its records",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsDelete,
	})

	return runsCmd
}

func runRunsList(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(store *storage.BadgerStore) error {
		runs, err := store.ListRuns()
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No stored runs")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tVEHICLE\tCREATED\tSAMPLES\tHOVER\tVALID\tSOURCE")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4f\t%v\t%s\n",
				run.ID, run.VehicleID, run.CreatedAt.Format(time.RFC3339),
				run.Samples, run.FinalHoverThrust, run.Valid, run.Source)
		}
		return w.Flush()
	})
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	statusOut, _ := cmd.Flags().GetString("status-out")

	return withStore(cmd, func(store *storage.BadgerStore) error {
		run, err := store.LoadRun(args[0])
		if err != nil {
			return fmt.Errorf("loading run %s: %w", args[0], err)
		}
		records, err := store.RunRecords(run.ID)
		if err != nil {
			return fmt.Errorf("loading records: %w", err)
		}

		fmt.Printf("📊 Run %s\n", run.ID)
		fmt.Printf("  Vehicle: %s\n", run.VehicleID)
		fmt.Printf("  Source:  %s (frame %s)\n", run.Source, run.Frame)
		fmt.Printf("  Created: %s\n\n", run.CreatedAt.Format(time.RFC3339))
		fmt.Print(replay.Summarize(records).String())

		if statusOut != "" {
			if err := replay.WriteStatusFile(statusOut, records); err != nil {
				return err
			}
			fmt.Printf("\n📄 Status written to %s\n", statusOut)
		}
		return nil
	})
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(store *storage.BadgerStore) error {
		n, err := store.DeleteRun(args[0])
		if err != nil {
			return fmt.Errorf("deleting run %s: %w", args[0], err)
		}
		fmt.Printf("🗑️  Deleted run %s (%d records)\n", args[0], n)
		return nil
	})
}

func newCheckpointCmd() *cobra.Command {
	checkpointCmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect stored vehicle checkpoints",
	}

	checkpointCmd.AddCommand(&cobra.Command{
		Use:   "show <vehicle>",
		Short: "Show the checkpoint of a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheckpointShow,
	})
	checkpointCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all checkpoints",
		Args:  cobra.NoArgs,
		RunE:  runCheckpointList,
	})
	checkpointCmd.AddCommand(&cobra.Command{
		Use:   "delete <vehicle>",
		Short: "Delete the checkpoint of a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheckpointDelete,
	})

	return checkpointCmd
}

func runCheckpointShow(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(store *storage.BadgerStore) error {
		cp, err := store.LoadCheckpoint(args[0])
		if err != nil {
			return fmt.Errorf("loading checkpoint %s: %w", args[0], err)
		}

		fmt.Printf("📍 Checkpoint %s\n", cp.VehicleID)
		fmt.Printf("  Hover thrust:     %.4f\n", cp.State.HoverThrust)
		fmt.Printf("  Variance:         %.2e\n", cp.State.HoverThrustVar)
		fmt.Printf("  Accel noise var:  %.3f\n", cp.State.AccelNoiseVar)
		fmt.Printf("  Valid when saved: %v\n", cp.Valid)
		fmt.Printf("  Saved:            %s\n", cp.SavedAt.Format(time.RFC3339))
		if cp.RunID != "" {
			fmt.Printf("  From run:         %s\n", cp.RunID)
		}
		return nil
	})
}

func runCheckpointList(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(store *storage.BadgerStore) error {
		checkpoints, err := store.ListCheckpoints()
		if err != nil {
			return fmt.Errorf("listing checkpoints: %w", err)
		}
		if len(checkpoints) == 0 {
			fmt.Println("No checkpoints")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VEHICLE\tHOVER\tVARIANCE\tVALID\tSAVED")
		for _, cp := range checkpoints {
			fmt.Fprintf(w, "%s\t%.4f\t%.2e\t%v\t%s\n",
				cp.VehicleID, cp.State.HoverThrust, cp.State.HoverThrustVar, cp.Valid, cp.SavedAt.Format(time.RFC3339))
		}
		return w.Flush()
	})
}

func runCheckpointDelete(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(store *storage.BadgerStore) error {
		if err := store.DeleteCheckpoint(args[0]); err != nil {
			return fmt.Errorf("deleting checkpoint %s: %w", args[0], err)
		}
		fmt.Printf("🗑️  Deleted checkpoint %s\n", args[0])
		return nil
	})
}

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file>",
		Short: "Write a full backup of the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *storage.BadgerStore) error {
				if err := store.BackupToFile(args[0]); err != nil {
					return err
				}
				fmt.Printf("✅ Backup written to %s\n", args[0])
				return nil
			})
		},
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Load a backup into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *storage.BadgerStore) error {
				if err := store.RestoreFromFile(args[0]); err != nil {
					return err
				}
				fmt.Printf("✅ Restored %s\n", args[0])
				return nil
			})
		},
	}
}
