package session

import (
	"testing"
	"time"
)

func TestRegistrySpawnAndTerminate(t *testing.T) {
	reg := NewRegistry(testLogger(), Config{})
	t.Cleanup(reg.TerminateAll)

	s, err := reg.Spawn(Spec{Path: "/bin/sh", Args: []string{"-c", "sleep 30"}})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if reg.Count() != 1 {
		t.Fatalf("count = %d, want 1", reg.Count())
	}
	if got, ok := reg.Get(s.ID()); !ok || got != s {
		t.Fatal("registered session not retrievable")
	}

	infos := reg.ListActive()
	if len(infos) != 1 || infos[0].ID != s.ID() || infos[0].PID != s.PID() {
		t.Errorf("list = %+v", infos)
	}

	reg.Terminate(s.ID())
	if reg.Count() != 0 {
		t.Errorf("count after terminate = %d, want 0", reg.Count())
	}
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session not terminated")
	}
	// Idempotent for unknown ids.
	reg.Terminate("no-such-session")
}

func TestRegistryIDsAreUnique(t *testing.T) {
	reg := NewRegistry(testLogger(), Config{})
	t.Cleanup(reg.TerminateAll)

	a, err := reg.Spawn(Spec{Path: "/bin/sh", Args: []string{"-c", "sleep 30"}})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	b, err := reg.Spawn(Spec{Path: "/bin/sh", Args: []string{"-c", "sleep 30"}})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if a.ID() == b.ID() {
		t.Error("session ids collide")
	}
}
