package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/monitoring"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show review health over recent runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		hours, _ := cmd.Flags().GetInt("hours")
		asJSON, _ := cmd.Flags().GetBool("json")
		alert, _ := cmd.Flags().GetBool("alert")
		if hours <= 0 {
			hours = cfg.Monitoring.LookbackWindowHours
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snap, err := monitoring.NewCollector(st).Collect(ctx, hours)
		if err != nil {
			return eris.Wrap(err, "collect stats")
		}

		if alert {
			alerter := monitoring.NewAlerter(cfg.Monitoring)
			if alerts := alerter.Evaluate(snap); len(alerts) > 0 {
				sent := alerter.SendAlerts(ctx, alerts)
				zap.L().Info("alerts evaluated", zap.Int("triggered", len(alerts)), zap.Int("sent", sent))
			}
		}

		return emit(os.Stdout, asJSON, snap, func() string { return renderSnapshot(snap) })
	},
}

func init() {
	statsCmd.Flags().Int("hours", 0, "lookback window in hours (default from config)")
	statsCmd.Flags().Bool("json", false, "print raw JSON instead of the rendered view")
	statsCmd.Flags().Bool("alert", false, "evaluate alert thresholds and deliver any alerts")
	rootCmd.AddCommand(statsCmd)
}
