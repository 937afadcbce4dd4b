package collection

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "coins.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreGetMissing(t *testing.T) {
	s := newTestSQLiteStore(t)
	_, err := s.Get(context.Background(), "u1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorePutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	if err := s.Put(ctx, "u1", sampleRecords()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	replacement := []Record{{Year: "1964", City: "Denver", CoinType: "Half Dollar", Condition: "Proof"}}
	if err := s.Put(ctx, "u1", replacement); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := cmp.Diff(replacement, got); diff != "" {
		t.Fatalf("Get() mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStoreEmptyCollection(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)
	if err := s.Put(ctx, "u1", nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Get() = %+v, want empty", got)
	}
}

func TestNewStoreAutoSelectsBackend(t *testing.T) {
	ctx := context.Background()

	mem, err := NewStore(ctx, StoreConfig{})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if StoreMode(mem) != "in-memory" {
		t.Fatalf("StoreMode = %q, want in-memory", StoreMode(mem))
	}

	lite, err := NewStore(ctx, StoreConfig{SQLitePath: filepath.Join(t.TempDir(), "c.db")})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer lite.Close()
	if StoreMode(lite) != "sqlite" {
		t.Fatalf("StoreMode = %q, want sqlite", StoreMode(lite))
	}

	if _, err := NewStore(ctx, StoreConfig{Driver: "postgres"}); err == nil {
		t.Fatalf("NewStore(postgres) without URL should fail")
	}
	if _, err := NewStore(ctx, StoreConfig{Driver: "dynamo"}); err == nil {
		t.Fatalf("NewStore(dynamo) should fail")
	}
}
