package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/validation"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Score a loan application without convening the committee",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("file")
		asJSON, _ := cmd.Flags().GetBool("json")

		raw, err := readPayload(path)
		if err != nil {
			return eris.Wrap(err, "read request")
		}
		req, err := validation.DecodeLoanRequest(raw)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "review", envOptions{})
		if err != nil {
			return err
		}
		defer env.Close()

		a, err := env.Scorer.Assess(ctx, req)
		if err != nil {
			return eris.Wrap(err, "credit review")
		}
		zap.L().Info("credit review complete",
			zap.String("loan_type", string(a.LoanType)),
			zap.Int("risk_score", a.RiskFactors.RiskScore()),
			zap.String("fraud_level", string(a.Fraud.Severity)),
		)

		return emit(os.Stdout, asJSON, a, func() string { return renderAssessment(a) })
	},
}

var committeeCmd = &cobra.Command{
	Use:   "committee",
	Short: "Convene the credit committee on a prepared case summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("file")
		asJSON, _ := cmd.Flags().GetBool("json")

		raw, err := readPayload(path)
		if err != nil {
			return eris.Wrap(err, "read request")
		}
		req, err := validation.DecodeCommitteeRequest(raw)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "committee", envOptions{})
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Committee.Deliberate(ctx, req)
		if err != nil {
			return eris.Wrap(err, "committee review")
		}

		return emit(os.Stdout, asJSON, res, func() string { return renderCommittee(res) })
	},
}

func init() {
	for _, c := range []*cobra.Command{reviewCmd, committeeCmd} {
		c.Flags().StringP("file", "f", "-", "JSON request file, or - for stdin")
		c.Flags().Bool("json", false, "print raw JSON instead of the rendered view")
		rootCmd.AddCommand(c)
	}
}
