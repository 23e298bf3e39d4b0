package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgermint/saffron/internal/suggest"
)

func promoteCmd() *cobra.Command {
	var dryRun bool
	var minTotal int
	var minRatio float64

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Promote strong feedback statistics into hints",
		Long: `Scan the accumulated accept/reject statistics and create or
strengthen merchant-category hints for pairs meeting the promotion
thresholds. Safe to re-run; intended to be invoked from a single cron
entry.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			thresholds := suggest.DefaultThresholds()
			if minTotal > 0 {
				thresholds.MinTotal = minTotal
			}
			if minRatio > 0 {
				thresholds.MinAcceptRatio = minRatio
			}

			promoter := suggest.NewPromoter(store, thresholds)
			summary, err := promoter.Run(ctx, dryRun)
			if err != nil {
				return fmt.Errorf("promotion run failed: %w", err)
			}

			verb := "promoted"
			if dryRun {
				verb = "would promote"
			}
			cmd.Printf("%s %d, skipped %d, failed %d\n",
				verb, summary.Promoted, summary.Skipped, summary.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute candidates without writing hints")
	cmd.Flags().IntVar(&minTotal, "min-total", 0, "override minimum feedback count threshold")
	cmd.Flags().Float64Var(&minRatio, "min-ratio", 0, "override minimum accept ratio threshold")

	return cmd
}
