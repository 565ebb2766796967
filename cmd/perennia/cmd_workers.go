package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/perennia/storefront/internal/server"
	"github.com/perennia/storefront/pkg/database"
	"github.com/perennia/storefront/pkg/event"
	"github.com/perennia/storefront/pkg/queue"
	"github.com/perennia/storefront/pkg/schedule"
)

var (
	queueWorkersFlag int
	failedLimitFlag  int
)

// queue:work only makes sense with QUEUE_DRIVER=redis; the memory queue
// belongs to the process that dispatched into it.
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Run queue workers until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cleanup, err := server.Boot()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		workers := queueWorkersFlag
		if workers < 1 {
			workers = 1
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		queue.StartWorkers(ctx, workers).Wait()
		return nil
	},
}

var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List jobs that exhausted their retries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()

		rows, err := queue.ListFailed(database.DB, failedLimitFlag)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No failed jobs")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tJOB\tATTEMPTS\tFAILED AT\tERROR")
		for _, r := range rows {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", r.ID, r.JobType, r.Attempts, r.FailedAt.Format(time.RFC3339), r.Error)
		}
		return w.Flush()
	},
}

// schedule:run runs every scheduled task once, for an external cron.
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run every scheduled task once",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cleanup, err := server.Boot()
		if err != nil {
			return err
		}
		defer cleanup()

		for _, t := range schedule.List() {
			fmt.Fprintln(cmd.OutOrStdout(), "running", t)
		}
		schedule.RunAll(cmd.Context())
		event.Wait()
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 5, "number of concurrent workers")
	queueFailedCmd.Flags().IntVarP(&failedLimitFlag, "limit", "n", 20, "number of failures to show")
}
