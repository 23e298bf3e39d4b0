package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/ledgermint/saffron/internal/common"
)

func TestSQLiteStorage_SaveTransactions(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{name: "save new transactions", count: 3, wantErr: false},
		{name: "single transaction", count: 1, wantErr: false},
		{name: "empty slice", count: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()

			ctx := context.Background()
			err := store.SaveTransactions(ctx, createTestTransactions(tt.count))
			if (err != nil) != tt.wantErr {
				t.Errorf("SaveTransactions() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSQLiteStorage_SaveTransactions_DuplicateHashSkipped(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	txns := createTestTransactions(2)

	if err := store.SaveTransactions(ctx, txns); err != nil {
		t.Fatalf("First SaveTransactions() error = %v", err)
	}
	// Re-saving the same batch must not error; the hash conflict is a
	// silent skip.
	if err := store.SaveTransactions(ctx, txns); err != nil {
		t.Fatalf("Second SaveTransactions() error = %v", err)
	}

	got, err := store.GetTransactionByID(ctx, txns[0].ID)
	if err != nil {
		t.Fatalf("GetTransactionByID() error = %v", err)
	}
	if got.Merchant != txns[0].Merchant {
		t.Errorf("Merchant = %q, want %q", got.Merchant, txns[0].Merchant)
	}
}

func TestSQLiteStorage_GetTransactionByID_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetTransactionByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_SetTransactionCategory(t *testing.T) {
	store, cleanup := createTestStorageWithCategories(t, "dining_out")
	defer cleanup()

	ctx := context.Background()
	txns := createTestTransactions(1)
	if err := store.SaveTransactions(ctx, txns); err != nil {
		t.Fatalf("SaveTransactions() error = %v", err)
	}

	if err := store.SetTransactionCategory(ctx, txns[0].ID, "dining_out"); err != nil {
		t.Fatalf("SetTransactionCategory() error = %v", err)
	}

	got, err := store.GetTransactionByID(ctx, txns[0].ID)
	if err != nil {
		t.Fatalf("GetTransactionByID() error = %v", err)
	}
	if got.Category == nil || *got.Category != "dining_out" {
		t.Errorf("Category = %v, want dining_out", got.Category)
	}
}

func TestSQLiteStorage_SetTransactionCategory_NotFound(t *testing.T) {
	store, cleanup := createTestStorageWithCategories(t, "dining_out")
	defer cleanup()

	err := store.SetTransactionCategory(context.Background(), "missing", "dining_out")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
