package listener

import (
	"testing"
)

func TestListenBindsEphemeralPort(t *testing.T) {
	l, err := Listen("127.0.0.1", 0, 16)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	if l.Addr() == nil {
		t.Fatalf("expected non-nil Addr")
	}
}

func TestListenDefaultsBacklogWhenNonPositive(t *testing.T) {
	l, err := Listen("127.0.0.1", 0, 0)
	if err != nil {
		t.Fatalf("Listen with zero backlog: %v", err)
	}
	defer l.Close()
}
