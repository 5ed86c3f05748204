package memory

import (
	"context"
	"errors"
	"testing"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

func record(address, symbol, timestamp string) domain.SignalRecord {
	return domain.SignalRecord{
		Address:         address,
		Symbol:          symbol,
		SignalTimestamp: timestamp,
		Signal:          domain.SignalPeak{Multiplier: 2.0},
		Real:            domain.RealState{Multiplier: 0.8, IsRugged: false},
	}
}

func TestSignalStore_InsertAndGetAll(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	recs := []domain.SignalRecord{
		record("tokB", "BBB", "2025-06-02T10:00:00Z"),
		record("tokA", "AAA", "2025-06-01T10:00:00Z"),
		record("tokC", "CCC", "2025-06-01T10:00:00Z"),
	}
	for i := range recs {
		if err := store.Insert(ctx, &recs[i]); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	// Ordered by timestamp, then address.
	wantOrder := []string{"tokA", "tokC", "tokB"}
	for i, want := range wantOrder {
		if got[i].Address != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got[i].Address)
		}
	}
}

func TestSignalStore_DuplicateInsert(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	rec := record("tokA", "AAA", "2025-06-01T10:00:00Z")
	if err := store.Insert(ctx, &rec); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	if err := store.Insert(ctx, &rec); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	// Same address, different timestamp is a distinct key.
	later := record("tokA", "AAA", "2025-06-01T11:00:00Z")
	if err := store.Insert(ctx, &later); err != nil {
		t.Errorf("distinct timestamp should insert: %v", err)
	}
}

func TestSignalStore_InsertInvalid(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil record: expected ErrInvalidInput, got %v", err)
	}
	empty := record("", "AAA", "2025-06-01T10:00:00Z")
	if err := store.Insert(ctx, &empty); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty address: expected ErrInvalidInput, got %v", err)
	}
}

func TestSignalStore_InsertBulk(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	batch := []domain.SignalRecord{
		record("tokA", "AAA", "2025-06-01T10:00:00Z"),
		record("tokB", "BBB", "2025-06-01T11:00:00Z"),
	}
	if err := store.InsertBulk(ctx, batch); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}
}

func TestSignalStore_InsertBulkRejectsWholeBatchOnDuplicate(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	existing := record("tokA", "AAA", "2025-06-01T10:00:00Z")
	if err := store.Insert(ctx, &existing); err != nil {
		t.Fatal(err)
	}

	batch := []domain.SignalRecord{
		record("tokB", "BBB", "2025-06-01T11:00:00Z"),
		record("tokA", "AAA", "2025-06-01T10:00:00Z"), // collides with existing
	}
	if err := store.InsertBulk(ctx, batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// Nothing from the failed batch may land.
	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 record after failed batch, got %d", len(got))
	}
}

func TestSignalStore_InsertBulkIntraBatchDuplicate(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	batch := []domain.SignalRecord{
		record("tokA", "AAA", "2025-06-01T10:00:00Z"),
		record("tokA", "AAA", "2025-06-01T10:00:00Z"),
	}
	if err := store.InsertBulk(ctx, batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}
}

func TestSignalStore_GetByAddress(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	batch := []domain.SignalRecord{
		record("tokA", "AAA", "2025-06-01T11:00:00Z"),
		record("tokA", "AAA", "2025-06-01T10:00:00Z"),
		record("tokB", "BBB", "2025-06-01T10:30:00Z"),
	}
	if err := store.InsertBulk(ctx, batch); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetByAddress(ctx, "tokA")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records for tokA, got %d", len(got))
	}
	if got[0].SignalTimestamp != "2025-06-01T10:00:00Z" {
		t.Errorf("expected timestamp ordering, got %s first", got[0].SignalTimestamp)
	}

	none, err := store.GetByAddress(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected no records for unknown address, got %d", len(none))
	}
}
