package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgermint/saffron/internal/model"
	"github.com/ledgermint/saffron/internal/normalize"
)

func hintsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hints",
		Short: "Manage merchant-category hints",
		Long:  `View, add, and delete merchant-category hints.`,
	}

	cmd.AddCommand(hintsListCmd())
	cmd.AddCommand(hintsAddCmd())
	cmd.AddCommand(hintsDeleteCmd())

	return cmd
}

func hintsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all hints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			hints, err := store.GetAllHints(ctx)
			if err != nil {
				return fmt.Errorf("failed to list hints: %w", err)
			}

			if len(hints) == 0 {
				cmd.Println("no hints yet")
				return nil
			}

			cmd.Printf("%-30s %-20s %-10s %-10s %s\n",
				"MERCHANT", "CATEGORY", "SOURCE", "CONF", "USED")
			for _, hint := range hints {
				cmd.Printf("%-30s %-20s %-10s %-10.2f %d\n",
					hint.Merchant, hint.Category, hint.Source,
					hint.EffectiveConfidence(), hint.UseCount)
			}
			return nil
		},
	}
}

func hintsAddCmd() *cobra.Command {
	var confidence float64

	cmd := &cobra.Command{
		Use:   "add <merchant> <category>",
		Short: "Add a hint",
		Long:  `Add a user-authored hint mapping a merchant to a category.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			hint := &model.Hint{
				Merchant: normalize.Merchant(args[0]),
				Category: args[1],
				Source:   model.SourceUser,
			}
			if cmd.Flags().Changed("confidence") {
				hint.Confidence = &confidence
			}

			if err := store.SaveHint(ctx, hint); err != nil {
				return fmt.Errorf("failed to save hint: %w", err)
			}

			cmd.Printf("saved hint %s -> %s\n", hint.Merchant, hint.Category)
			return nil
		},
	}

	cmd.Flags().Float64Var(&confidence, "confidence", 0, "hint confidence in [0,1]")

	return cmd
}

func hintsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <merchant> <category>",
		Short: "Delete a hint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			merchant := normalize.Merchant(args[0])
			if err := store.DeleteHint(ctx, merchant, args[1]); err != nil {
				return fmt.Errorf("failed to delete hint: %w", err)
			}

			cmd.Printf("deleted hint %s -> %s\n", merchant, args[1])
			return nil
		},
	}
}
