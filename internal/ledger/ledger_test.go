package ledger

import (
	"context"
	"path/filepath"
	"testing"
)

func TestLedger_MarkDoneThenDone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	done, err := l.Done(ctx, 1, "cbg-m-1")
	if err != nil {
		t.Fatalf("Done: %v", err)
	}
	if done {
		t.Fatal("expected not done before MarkDone")
	}

	if err := l.MarkDone(ctx, 1, "cbg-m-1", "cbg-m-1"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	done, err = l.Done(ctx, 1, "cbg-m-1")
	if err != nil {
		t.Fatalf("Done: %v", err)
	}
	if !done {
		t.Fatal("expected done after MarkDone")
	}

	// A different variant for the same batch is independent.
	done, err = l.Done(ctx, 1, "oct-m-1")
	if err != nil {
		t.Fatalf("Done: %v", err)
	}
	if done {
		t.Fatal("expected oct-m-1 to be independent of cbg-m-1")
	}
}

func TestLedger_MarkDoneIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	if err := l.MarkDone(ctx, 7, "spo-g-a", "empty-intersection"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := l.MarkDone(ctx, 7, "spo-g-a", "spo-g-a"); err != nil {
		t.Fatalf("MarkDone (rewrite): %v", err)
	}
	done, err := l.Done(ctx, 7, "spo-g-a")
	if err != nil || !done {
		t.Fatalf("Done: %v, %v", done, err)
	}
}
