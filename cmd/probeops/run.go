package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/probeops/batch"
	"github.com/jonwraymond/probeops/check"
	"github.com/jonwraymond/probeops/probes"
	"github.com/jonwraymond/probeops/publish"
	"github.com/jonwraymond/probeops/store"
)

// runFlags override the corresponding config-file values when set.
type runFlags struct {
	asJSON       bool
	workers      int
	chunkSize    int
	checkTimeout time.Duration
	batchTimeout time.Duration
	dbPath       string
}

func runCmd(configPath *string) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured checks once and print the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, *configPath, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print the full batch report as JSON")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "maximum concurrent checks (overrides config)")
	cmd.Flags().IntVar(&flags.chunkSize, "chunk-size", 0, "process the batch in sequential chunks of this size")
	cmd.Flags().DurationVar(&flags.checkTimeout, "check-timeout", 0, "wait budget per check (overrides config)")
	cmd.Flags().DurationVar(&flags.batchTimeout, "batch-timeout", 0, "wait budget for the whole batch (overrides config)")
	cmd.Flags().StringVar(&flags.dbPath, "db", "", "persist the batch to this SQLite database")
	return cmd
}

func runOnce(cmd *cobra.Command, configPath string, flags runFlags) error {
	ctx := cmd.Context()

	file, err := LoadFile(configPath)
	if err != nil {
		return err
	}
	if len(file.Checks) == 0 {
		return fmt.Errorf("config %q defines no checks", configPath)
	}

	if flags.workers != 0 {
		file.MaxWorkers = flags.workers
	}
	if flags.chunkSize != 0 {
		file.BatchSize = flags.chunkSize
	}
	if flags.checkTimeout != 0 {
		file.PerCheckTimeout = Duration(flags.checkTimeout)
	}
	if flags.batchTimeout != 0 {
		file.BatchTimeout = Duration(flags.batchTimeout)
	}
	if flags.dbPath != "" {
		file.Database = flags.dbPath
	}

	obs, err := newObserver(ctx, file)
	if err != nil {
		return err
	}
	defer shutdownObserver(obs)

	runner, err := batch.NewRunner(probes.DefaultRegistry(), file.RunnerConfig(obs))
	if err != nil {
		return err
	}

	requests := make([]check.Request, len(file.Checks))
	for i, def := range file.Checks {
		requests[i] = check.Request{ID: def.ID, Type: def.Type, Config: def.Config}
	}

	startedAt := time.Now()
	res, err := runner.Run(ctx, requests)
	if err != nil {
		return err
	}

	if err := recordBatch(ctx, file, startedAt, res); err != nil {
		return err
	}

	if flags.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Report()); err != nil {
			return err
		}
	} else {
		printTable(cmd, res)
	}

	if res.Summary.Error > 0 {
		return fmt.Errorf("%d of %d checks failed", res.Summary.Error, len(res.Items))
	}
	return nil
}

func printTable(cmd *cobra.Command, res *batch.Result) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tOUTCOME\tELAPSED\tMESSAGE")
	for _, item := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			item.ID,
			item.Outcome.Kind,
			item.Outcome.Elapsed.Round(time.Millisecond),
			item.Outcome.Message,
		)
	}
	w.Flush()
	fmt.Fprintf(cmd.OutOrStdout(), "\nbatch %s: %d success, %d warning, %d error in %s\n",
		res.BatchID,
		res.Summary.Success,
		res.Summary.Warning,
		res.Summary.Error,
		res.Elapsed.Round(time.Millisecond),
	)
}

// recordBatch persists and publishes the batch if a database or Kafka
// sink is configured.
func recordBatch(ctx context.Context, file *File, startedAt time.Time, res *batch.Result) error {
	if file.Database != "" {
		db, err := store.Open(file.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveBatch(ctx, startedAt, res); err != nil {
			return err
		}
	}

	if len(file.Kafka.Brokers) > 0 && file.Kafka.Topic != "" {
		pub := publish.NewPublisher(file.Kafka.Brokers, file.Kafka.Topic)
		defer pub.Close()
		if err := pub.Publish(ctx, res); err != nil {
			return err
		}
	}
	return nil
}
