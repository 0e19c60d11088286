package core

import (
	"errors"
	"testing"
)

func TestRegistryAttachResolveDetach(t *testing.T) {
	reg := NewSessionRegistry()
	c := NewClient("s-1", "alice", "alice")

	reg.Attach(c)
	got, roomID, err := reg.Resolve("s-1")
	if err != nil || got != c || roomID != "" {
		t.Fatalf("resolve after attach: client=%v room=%q err=%v", got, roomID, err)
	}

	reg.SetRoom("s-1", "canvas")
	_, roomID, _ = reg.Resolve("s-1")
	if roomID != "canvas" {
		t.Fatalf("expected room canvas, got %q", roomID)
	}

	roomID, err = reg.Detach("s-1")
	if err != nil || roomID != "canvas" {
		t.Fatalf("detach should return last room: room=%q err=%v", roomID, err)
	}

	if _, _, err := reg.Resolve("s-1"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
	if _, err := reg.Detach("s-1"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("double detach should fail, got %v", err)
	}
}

func TestRegistryClearRoomOnlyMatching(t *testing.T) {
	reg := NewSessionRegistry()
	c := NewClient("s-1", "alice", "alice")
	reg.Attach(c)
	reg.SetRoom("s-1", "room-2")

	// A stale departure from the old room must not clear the new binding.
	reg.ClearRoom("s-1", "room-1")
	if _, roomID, _ := reg.Resolve("s-1"); roomID != "room-2" {
		t.Fatalf("stale clear clobbered the binding: %q", roomID)
	}

	reg.ClearRoom("s-1", "room-2")
	if _, roomID, _ := reg.Resolve("s-1"); roomID != "" {
		t.Fatalf("matching clear should reset the binding: %q", roomID)
	}
}

func TestRegistrySetRoomUnknownSession(t *testing.T) {
	reg := NewSessionRegistry()
	// Must not panic or create a phantom entry.
	reg.SetRoom("ghost", "canvas")
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", reg.Len())
	}
}
