package device

import (
	"strings"
	"testing"
)

func TestOpenNull(t *testing.T) {
	p, err := Open("null", nil)
	if err != nil {
		t.Fatalf("Open(null): %v", err)
	}
	defer p.Close()

	if p.Name() != "null" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open("does-not-exist", nil)
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "null") {
		t.Errorf("error %q should list available backends", err)
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register("null", newNullPlatform)
}

func TestBackendsSorted(t *testing.T) {
	names := Backends()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("Backends() not sorted: %v", names)
		}
	}
}
