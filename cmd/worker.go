package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/durable"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the Temporal worker for durable underwriting workflows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "worker", envOptions{})
		if err != nil {
			return err
		}
		defer env.Close()

		c, err := durable.Dial(cfg.Temporal)
		if err != nil {
			return err
		}
		defer c.Close()

		w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
		durable.Register(w, &durable.Activities{
			Scorer:    env.Scorer,
			Committee: env.Committee,
			Valuation: env.Valuation,
			Metrics:   env.Metrics,
		}, durable.DefaultOptions())

		zap.L().Info("starting temporal worker",
			zap.String("host_port", cfg.Temporal.HostPort),
			zap.String("task_queue", cfg.Temporal.TaskQueue),
		)
		if err := w.Run(worker.InterruptCh()); err != nil {
			return eris.Wrap(err, "temporal worker")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
