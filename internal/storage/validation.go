// Package storage provides the data persistence layer for the saffron application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledgermint/saffron/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidHint        = errors.New("invalid hint")
	ErrInvalidRule        = errors.New("invalid rule")
	ErrInvalidFeedback    = errors.New("invalid feedback event")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i, txn := range transactions {
		if err := validateTransaction(&txn); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Merchant == "" {
		return fmt.Errorf("%w: missing merchant", ErrInvalidTransaction)
	}
	return nil
}

// validateHint validates a hint.
func validateHint(hint *model.Hint) error {
	if hint == nil {
		return fmt.Errorf("%w: hint", ErrNilParameter)
	}
	if hint.Merchant == "" {
		return fmt.Errorf("%w: missing merchant", ErrInvalidHint)
	}
	if hint.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidHint)
	}
	if hint.Confidence != nil && (*hint.Confidence < 0 || *hint.Confidence > 1) {
		return fmt.Errorf("%w: confidence must be in [0,1]", ErrInvalidHint)
	}
	return nil
}

// validateRule validates a category rule.
func validateRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if rule.Pattern == "" {
		return fmt.Errorf("%w: missing pattern", ErrInvalidRule)
	}
	if rule.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidRule)
	}
	if rule.Target != model.TargetMerchant && rule.Target != model.TargetDescription {
		return fmt.Errorf("%w: unknown target %q", ErrInvalidRule, rule.Target)
	}
	return nil
}

// validateFeedbackEvent validates a feedback event.
func validateFeedbackEvent(event *model.FeedbackEvent) error {
	if event == nil {
		return fmt.Errorf("%w: event", ErrNilParameter)
	}
	if event.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidFeedback)
	}
	if event.Merchant == "" {
		return fmt.Errorf("%w: missing merchant", ErrInvalidFeedback)
	}
	if event.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidFeedback)
	}
	if !event.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidFeedback, event.Action)
	}
	return nil
}
