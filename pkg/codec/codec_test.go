package codec

import "testing"

func TestAssignDynamicPTRange(t *testing.T) {
	alloc := NewDynamicPTAllocator()
	codecs := []Codec{{Name: "opus", ClockRate: 48000, Channels: 2}}
	if err := AssignDynamicPT(alloc, codecs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if codecs[0].PT != 96 {
		t.Fatalf("expected PT 96, got %d", codecs[0].PT)
	}
}

func TestAssignDynamicPTExhaustionRollsBack(t *testing.T) {
	alloc := &DynamicPTAllocator{}
	alloc.Restore(126) // leave exactly two slots

	first := []Codec{{Name: "opus", ClockRate: 48000}}
	if err := AssignDynamicPT(alloc, first); err != nil {
		t.Fatalf("unexpected error on first batch: %v", err)
	}
	if first[0].PT != 126 {
		t.Fatalf("expected PT 126, got %d", first[0].PT)
	}

	second := []Codec{{Name: "g722", ClockRate: 8000}, {Name: "pcma", ClockRate: 8000}}
	if err := AssignDynamicPT(alloc, second); err == nil {
		t.Fatalf("expected exhaustion error")
	}
	// rollback must leave the allocator usable for a smaller batch
	third := []Codec{{Name: "pcma", ClockRate: 8000}}
	if err := AssignDynamicPT(alloc, third); err != nil {
		t.Fatalf("allocator should have rolled back: %v", err)
	}
}

func TestStaticPTSkipsAllocator(t *testing.T) {
	alloc := NewDynamicPTAllocator()
	pcma := uint8(8)
	codecs := []Codec{{Name: "PCMA", ClockRate: 8000, StaticPT: &pcma}}
	if err := AssignDynamicPT(alloc, codecs); err != nil {
		t.Fatal(err)
	}
	if codecs[0].PT != 8 {
		t.Fatalf("expected static PT 8, got %d", codecs[0].PT)
	}
	if alloc.Checkpoint() != 96 {
		t.Fatalf("allocator should not have advanced for a static PT")
	}
}

func TestMatchesCaseInsensitive(t *testing.T) {
	c := Codec{Name: "PCMA", ClockRate: 8000}
	if !c.Matches("pcma", 8000, 0) {
		t.Fatal("expected case-insensitive match")
	}
	if c.Matches("pcma", 16000, 0) {
		t.Fatal("clock rate mismatch should not match")
	}
}
