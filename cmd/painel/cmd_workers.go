package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/multidelivery/painel/config"
	"github.com/multidelivery/painel/internal/server"
	"github.com/multidelivery/painel/pkg/database"
	"github.com/multidelivery/painel/pkg/queue"
)

var queueWorkersFlag int

// painel queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start the queue worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := server.Boot()
		if err != nil {
			return err
		}
		defer app.Close()

		workers := queueWorkersFlag
		if workers < 1 {
			workers = config.QueueWorkers()
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "🚀 Queue worker started (%d workers, %s driver). Press Ctrl+C to stop.\n", workers, config.QueueDriver())
		app.Queue.Start(ctx, workers)

		<-ctx.Done()
		app.Queue.Wait()
		fmt.Fprintln(out, "\n⚡ Queue worker stopped.")
		return nil
	},
}

// painel schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := server.Boot()
		if err != nil {
			return err
		}
		defer app.Close()

		sched, err := app.Scheduler()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Registered scheduled tasks:")
		for _, t := range sched.List() {
			fmt.Fprintln(out, "  •", t)
		}

		fmt.Fprintln(out, "🕐 Scheduler started. Press Ctrl+C to stop.")
		sched.Start(ctx)

		<-ctx.Done()
		sched.Wait()
		fmt.Fprintln(out, "\n⚡ Scheduler stopped.")
		return nil
	},
}

var queueRetryLimit int

// painel queue:failed
var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List jobs that exhausted their retries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()

		m := queue.NewManager(queue.NewMemoryDriver())
		m.UseDB(database.DB)
		records, err := m.Failures(cmd.Context(), 0)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No failed jobs.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tFAILED AT\tATTEMPTS\tERROR")
		for _, r := range records {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", r.ID, r.JobType, r.FailedAt.Format("2006-01-02 15:04:05"), r.Attempts, r.Error)
		}
		return tw.Flush()
	},
}

// painel queue:retry
var queueRetryCmd = &cobra.Command{
	Use:   "queue:retry",
	Short: "Put failed jobs back on the Redis queue",
	Long:  "Requeues persisted failures for the workers of a shared Redis queue. With the memory driver the serve process retries them itself every 15 minutes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		if config.QueueDriver() != "redis" {
			return errors.New("queue:retry needs QUEUE_DRIVER=redis")
		}

		app, err := server.Boot()
		if err != nil {
			return err
		}
		defer app.Close()

		n, err := app.Queue.RetryFailed(cmd.Context(), queueRetryLimit)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d job(s).\n", n)
		return nil
	},
}

func init() {
	queueRetryCmd.Flags().IntVar(&queueRetryLimit, "limit", 0, "Requeue at most this many jobs (0 = all)")
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "Number of concurrent workers (default QUEUE_WORKERS)")
}
