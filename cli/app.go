// Package cli wires one kingpin command per engine operation against a
// shared kingpin.Application, mirroring the way the teacher registers its
// own subcommands (e.g. command_snapshot_gc.go) against a shared parent
// command. Every command loads config, opens the store, runs its
// operation, and writes a JSON report to --output.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/internal/applog"
	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

// App is the root kingpin application; command files register themselves
// against it in their init().
var App = kingpin.New("diskwatch", "Local disk intelligence and cleanup engine.")

var (
	flagConfigPath = App.Flag("config", "Path to a JSON config file.").String()
	flagDBPath     = App.Flag("db", "Path to the snapshot database.").String()
	flagOutput     = App.Flag("output", "Report output path, \"-\" for stdout.").Short('o').Default("-").String()
	flagSnapshot   = App.Flag("snapshot", "Snapshot id to operate on, defaults to the latest.").Int64()
)

// loadConfig loads the JSON config (if any) and applies CLI flag
// overrides recognized by every command.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*flagConfigPath)
	if err != nil {
		return cfg, err
	}

	if *flagDBPath != "" {
		cfg.DBPath = *flagDBPath
	}

	if cfg.DBPath == "" {
		cfg.DBPath = "diskwatch.db"
	}

	return cfg, nil
}

// withStore loads config, opens the store, runs fn, and closes the store
// regardless of fn's outcome.
func withStore(fn func(ctx context.Context, cfg config.Config, st *store.Store) (any, error)) func(*kingpin.ParseContext) error {
	return func(*kingpin.ParseContext) error {
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return errors.Wrap(err, "opening store")
		}
		defer st.Close() //nolint:errcheck

		report, err := fn(ctx, cfg, st)
		if err != nil {
			return err
		}

		return writeReport(report)
	}
}

// resolveSnapshotID honors --snapshot, falling back to the most recent
// snapshot in the store.
func resolveSnapshotID(ctx context.Context, st *store.Store) (int64, error) {
	if *flagSnapshot != 0 {
		return *flagSnapshot, nil
	}

	snap, err := st.LatestSnapshot(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "loading latest snapshot")
	}

	if snap == nil {
		return 0, errors.New("no snapshots exist yet; run the analyze command first")
	}

	return snap.ID, nil
}

func writeReport(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling report")
	}

	if *flagOutput == "" || *flagOutput == "-" {
		_, err := fmt.Fprintln(colorable.NewColorableStdout(), string(b))
		return err
	}

	if err := os.WriteFile(*flagOutput, append(b, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "writing report to %q", *flagOutput)
	}

	return nil
}

// Run parses args (os.Args[1:] from main) and executes the matched command,
// logging its name via applog once the command has finished.
func Run(args []string) error {
	log := applog.New("cli")

	cmd, err := App.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing arguments")
	}

	log.Infow("command completed", "command", cmd)

	return nil
}
