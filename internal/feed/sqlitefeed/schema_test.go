package sqlitefeed

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSchemaStatusAndRollback(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshots.db")

	schema, err := OpenSchema(ctx, path)
	if err != nil {
		t.Fatalf("open schema: %v", err)
	}
	defer schema.Close()

	v, pending, err := schema.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if v != 0 || len(pending) != 3 {
		t.Fatalf("fresh store: version %d with %d pending, want 0 with 3", v, len(pending))
	}

	store, err := Open(ctx, path, time.UTC)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store.Close()

	if v, pending, _ = schema.Status(ctx); v != 3 || len(pending) != 0 {
		t.Fatalf("migrated store: version %d with %d pending, want 3 with 0", v, len(pending))
	}

	if err := schema.MigrateTo(ctx, 1); err != nil {
		t.Fatalf("migrate to 1: %v", err)
	}
	v, pending, _ = schema.Status(ctx)
	if v != 1 || len(pending) != 2 || pending[0].Version != 2 {
		t.Errorf("after rollback: version %d, pending %+v", v, pending)
	}

	if err := schema.MigrateTo(ctx, -1); err == nil {
		t.Error("expected an error for a negative version")
	}

	// Opening the store again brings the schema back up
	store, err = Open(ctx, path, time.UTC)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	if v, _, _ = schema.Status(ctx); v != 3 {
		t.Errorf("version after reopen = %d, want 3", v)
	}
}
