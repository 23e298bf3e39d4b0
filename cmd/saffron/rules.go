package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ledgermint/saffron/internal/common"
	"github.com/ledgermint/saffron/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage category rules",
		Long:  `View, add, and deactivate regex category rules.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesDeactivateCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetAllRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			if len(rules) == 0 {
				cmd.Println("no rules yet")
				return nil
			}

			cmd.Printf("%-5s %-30s %-12s %-20s %-8s %s\n",
				"ID", "PATTERN", "TARGET", "CATEGORY", "PRIO", "ACTIVE")
			for _, rule := range rules {
				cmd.Printf("%-5d %-30s %-12s %-20s %-8d %t\n",
					rule.ID, rule.Pattern, rule.Target, rule.Category,
					rule.Priority, rule.IsActive)
			}
			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	var target string
	var priority int
	var name string

	cmd := &cobra.Command{
		Use:   "add <pattern> <category>",
		Short: "Add a rule",
		Long:  `Add a regex rule mapping matching transactions to a category.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Warn now; a non-compiling pattern is stored but will be
			// skipped during matching.
			if err := common.ValidatePattern(args[0]); err != nil {
				cmd.PrintErrf("warning: %v (rule will never match)\n", err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rule := &model.Rule{
				Name:     name,
				Pattern:  args[0],
				Target:   model.RuleTarget(target),
				Category: args[1],
				Priority: priority,
				IsActive: true,
			}

			if err := store.CreateRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			cmd.Printf("created rule %d: %s -> %s\n", rule.ID, rule.Pattern, rule.Category)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", string(model.TargetMerchant), "field to match (merchant, description)")
	cmd.Flags().IntVar(&priority, "priority", 0, "rule priority (higher wins)")
	cmd.Flags().StringVar(&name, "name", "", "human-readable rule name")

	return cmd
}

func rulesDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid rule ID %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeactivateRule(ctx, id); err != nil {
				return fmt.Errorf("failed to deactivate rule: %w", err)
			}

			cmd.Printf("deactivated rule %d\n", id)
			return nil
		},
	}
}
