package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/durable"
	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/validation"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Run valuation, scoring, and committee for one application",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("file")
		asJSON, _ := cmd.Flags().GetBool("json")
		onTemporal, _ := cmd.Flags().GetBool("durable")

		raw, err := readPayload(path)
		if err != nil {
			return eris.Wrap(err, "read request")
		}
		req, err := validation.DecodeWorkflowRequest(raw)
		if err != nil {
			return err
		}

		var res *model.WorkflowResult
		if onTemporal {
			if err := cfg.Validate("worker"); err != nil {
				return err
			}
			c, err := durable.Dial(cfg.Temporal)
			if err != nil {
				return err
			}
			defer c.Close()

			run, err := durable.Start(ctx, c, cfg.Temporal.TaskQueue, req)
			if err != nil {
				return err
			}
			res = new(model.WorkflowResult)
			if err := run.Get(ctx, res); err != nil {
				return eris.Wrap(err, "durable workflow")
			}
		} else {
			env, err := initEnv(ctx, "committee", envOptions{store: true})
			if err != nil {
				return err
			}
			defer env.Close()

			res, err = env.Workflow.Run(ctx, req)
			if err != nil {
				return eris.Wrap(err, "workflow run")
			}
		}

		zap.L().Info("workflow complete",
			zap.String("application_id", res.ApplicationID),
			zap.String("outcome", string(res.Summary.Outcome)),
			zap.Int64("duration_ms", res.TotalDurationMs),
		)
		return emit(os.Stdout, asJSON, res, func() string { return renderWorkflow(res) })
	},
}

func init() {
	workflowCmd.Flags().StringP("file", "f", "-", "JSON request file, or - for stdin")
	workflowCmd.Flags().Bool("json", false, "print raw JSON instead of the rendered view")
	workflowCmd.Flags().Bool("durable", false, "run on the Temporal worker instead of in-process")
	rootCmd.AddCommand(workflowCmd)
}
