package core

import (
	"testing"
	"time"
)

func TestLockTableAcquireRelease(t *testing.T) {
	table := NewLockTable()
	now := time.Now()

	granted, holder := table.Acquire("e1", "alice", now)
	if !granted || holder != "alice" {
		t.Fatalf("fresh acquire should grant: granted=%v holder=%s", granted, holder)
	}

	granted, holder = table.Acquire("e1", "bob", now)
	if granted || holder != "alice" {
		t.Fatalf("second acquire must be denied with the holder: granted=%v holder=%s", granted, holder)
	}

	// Reacquire by the holder stays granted.
	granted, _ = table.Acquire("e1", "alice", now)
	if !granted {
		t.Fatal("reacquire by holder should grant")
	}

	if table.Release("e1", "bob") {
		t.Fatal("release by non-holder must be a no-op")
	}
	if h, ok := table.Holder("e1"); !ok || h != "alice" {
		t.Fatalf("lock must survive foreign release: %s %v", h, ok)
	}

	if !table.Release("e1", "alice") {
		t.Fatal("release by holder should succeed")
	}
	if _, ok := table.Holder("e1"); ok {
		t.Fatal("lock should be gone after release")
	}
}

func TestLockTableReleaseAllHeldBy(t *testing.T) {
	table := NewLockTable()
	now := time.Now()
	table.Acquire("e1", "alice", now)
	table.Acquire("e2", "alice", now)
	table.Acquire("e3", "bob", now)

	released := table.ReleaseAllHeldBy("alice")
	if len(released) != 2 {
		t.Fatalf("expected 2 releases, got %v", released)
	}
	if table.Len() != 1 {
		t.Fatalf("bob's lock must survive, table has %d", table.Len())
	}
	if h, _ := table.Holder("e3"); h != "bob" {
		t.Fatalf("unexpected holder: %s", h)
	}
}

func TestLockTableHeldByOrFree(t *testing.T) {
	table := NewLockTable()
	if !table.HeldByOrFree("e1", "alice") {
		t.Fatal("unlocked element must be writable by anyone")
	}
	table.Acquire("e1", "alice", time.Now())
	if !table.HeldByOrFree("e1", "alice") {
		t.Fatal("holder must be able to write")
	}
	if table.HeldByOrFree("e1", "bob") {
		t.Fatal("non-holder must be blocked")
	}
}

func TestLockTableClearAndView(t *testing.T) {
	table := NewLockTable()
	now := time.Now()
	table.Acquire("e1", "alice", now)
	table.Acquire("e2", "bob", now)

	view := table.View()
	if len(view) != 2 || view["e1"] != "alice" || view["e2"] != "bob" {
		t.Fatalf("unexpected view: %v", view)
	}

	table.Clear()
	if table.Len() != 0 {
		t.Fatalf("clear should empty the table, got %d", table.Len())
	}
}
