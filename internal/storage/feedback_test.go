package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ledgermint/saffron/internal/common"
	"github.com/ledgermint/saffron/internal/model"
)

func makeFeedbackEvent(id, merchant, category string, action model.FeedbackAction) *model.FeedbackEvent {
	return &model.FeedbackEvent{
		ID:            id,
		TransactionID: "txn-1",
		Merchant:      merchant,
		Category:      category,
		Action:        action,
	}
}

func TestSQLiteStorage_RecordFeedback(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	events := []*model.FeedbackEvent{
		makeFeedbackEvent("ev-1", "starbucks", "coffee", model.ActionAccept),
		makeFeedbackEvent("ev-2", "starbucks", "coffee", model.ActionAccept),
		makeFeedbackEvent("ev-3", "starbucks", "coffee", model.ActionReject),
	}
	for _, ev := range events {
		if err := store.RecordFeedback(ctx, ev); err != nil {
			t.Fatalf("RecordFeedback(%s) error = %v", ev.ID, err)
		}
	}

	stat, err := store.GetStat(ctx, "starbucks", "coffee")
	if err != nil {
		t.Fatalf("GetStat() error = %v", err)
	}
	if stat.AcceptCount != 2 || stat.RejectCount != 1 {
		t.Errorf("Counts = %d/%d, want 2/1", stat.AcceptCount, stat.RejectCount)
	}
	if stat.Total() != 3 {
		t.Errorf("Total() = %d, want 3", stat.Total())
	}

	got, err := store.GetFeedbackEvents(ctx, "txn-1")
	if err != nil {
		t.Fatalf("GetFeedbackEvents() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len(events) = %d, want 3", len(got))
	}
}

func TestSQLiteStorage_RecordFeedback_Concurrent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	const workers = 10
	const perWorker = 5

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ev := makeFeedbackEvent(
					fmt.Sprintf("ev-%d-%d", w, i),
					"starbucks", "coffee", model.ActionAccept,
				)
				if err := store.RecordFeedback(ctx, ev); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("RecordFeedback() error = %v", err)
	}

	// The counter increment is done in SQL, so no update may be lost.
	stat, err := store.GetStat(ctx, "starbucks", "coffee")
	if err != nil {
		t.Fatalf("GetStat() error = %v", err)
	}
	if stat.AcceptCount != workers*perWorker {
		t.Errorf("AcceptCount = %d, want %d", stat.AcceptCount, workers*perWorker)
	}
}

func TestSQLiteStorage_GetStat_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetStat(context.Background(), "nobody", "nothing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_GetPromotableStats(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	seed := []struct {
		merchant string
		category string
		accepts  int
		rejects  int
	}{
		{"starbucks", "coffee", 3, 0},   // qualifies
		{"corner cafe", "coffee", 1, 0}, // too few events
		{"split shop", "misc", 2, 2},    // ratio too low
		{"peets", "coffee", 7, 2},       // qualifies at 7/9
	}
	n := 0
	for _, s := range seed {
		for i := 0; i < s.accepts; i++ {
			n++
			ev := makeFeedbackEvent(fmt.Sprintf("ev-%d", n), s.merchant, s.category, model.ActionAccept)
			if err := store.RecordFeedback(ctx, ev); err != nil {
				t.Fatalf("RecordFeedback() error = %v", err)
			}
		}
		for i := 0; i < s.rejects; i++ {
			n++
			ev := makeFeedbackEvent(fmt.Sprintf("ev-%d", n), s.merchant, s.category, model.ActionReject)
			if err := store.RecordFeedback(ctx, ev); err != nil {
				t.Fatalf("RecordFeedback() error = %v", err)
			}
		}
	}

	stats, err := store.GetPromotableStats(ctx, 2, 0.7)
	if err != nil {
		t.Fatalf("GetPromotableStats() error = %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("len = %d, want 2", len(stats))
	}
	// Ordered by merchant, category.
	if stats[0].Merchant != "peets" || stats[1].Merchant != "starbucks" {
		t.Errorf("Merchants = [%s, %s], want [peets, starbucks]",
			stats[0].Merchant, stats[1].Merchant)
	}
}
