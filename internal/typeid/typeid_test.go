package typeid

import (
	"strings"
	"testing"
)

func TestNewShapeIDIsUniqueAndPrefixed(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewShapeID()
		if !strings.HasPrefix(id, PrefixShape+"_") {
			t.Fatalf("id %q missing prefix", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(NewRoomID(), PrefixRoom); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := Validate(NewRoomID(), PrefixUser); err == nil {
		t.Fatal("expected prefix mismatch error")
	}
	if err := Validate("not-an-id", PrefixRoom); err == nil {
		t.Fatal("expected parse error")
	}
}
