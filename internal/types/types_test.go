package types

import (
	"strings"
	"testing"
)

func TestSlotLabelDistinguishesEmptyFromUnknown(t *testing.T) {
	d := Device{
		Phone: "+1555",
		Slots: []SimSlot{
			{Slot: 0, Carrier: ""},        // SIM present, carrier unresolved
			{Slot: 1, Carrier: "Verizon"}, // SIM present with carrier
		},
	}

	if got := d.SlotLabel(0); got != "unknown" {
		t.Errorf("occupied slot without carrier = %q, want %q", got, "unknown")
	}
	if got := d.SlotLabel(1); got != "Verizon" {
		t.Errorf("occupied slot with carrier = %q, want %q", got, "Verizon")
	}

	empty := Device{Phone: "+1555", Slots: []SimSlot{{Slot: 1, Carrier: "AT&T"}}}
	if got := empty.SlotLabel(0); got != "no card" {
		t.Errorf("absent slot = %q, want %q", got, "no card")
	}
}

func TestSlotSummaryEmptyAndNilAreEquivalent(t *testing.T) {
	withNil := Device{Phone: "+1555"}
	withEmpty := Device{Phone: "+1555", Slots: []SimSlot{}}

	if withNil.SlotSummary() != "no SIM data" {
		t.Errorf("nil slots = %q, want %q", withNil.SlotSummary(), "no SIM data")
	}
	if withEmpty.SlotSummary() != withNil.SlotSummary() {
		t.Errorf("empty slots %q should render identically to nil slots %q",
			withEmpty.SlotSummary(), withNil.SlotSummary())
	}
}

func TestSlotSummaryUnsortedSlots(t *testing.T) {
	// Slot indices need not arrive sorted.
	d := Device{Phone: "+1555", Slots: []SimSlot{
		{Slot: 1, Carrier: "T-Mobile"},
		{Slot: 0, Carrier: "AT&T"},
	}}
	sum := d.SlotSummary()
	if !strings.Contains(sum, "SIM1: AT&T") || !strings.Contains(sum, "SIM2: T-Mobile") {
		t.Errorf("unexpected slot summary: %q", sum)
	}
}

func TestLastSeenStringNever(t *testing.T) {
	d := Device{Phone: "+1555", LastSeen: 0}
	if got := d.LastSeenString(); got != "-" {
		t.Errorf("lastSeen=0 = %q, want \"-\"", got)
	}
	seen := Device{Phone: "+1555", LastSeen: 1700000000}
	if seen.LastSeenString() == "-" {
		t.Error("non-zero lastSeen should not render as never")
	}
}

func TestSendCommandValidate(t *testing.T) {
	valid := SendCommand{Phone: "+1555", Slot: 0, TargetPhone: "+1666", Content: "hi"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid command rejected: %v", err)
	}

	cases := []struct {
		name string
		cmd  SendCommand
	}{
		{"missing phone", SendCommand{Slot: 0, TargetPhone: "+1666", Content: "hi"}},
		{"missing target", SendCommand{Phone: "+1555", Slot: 0, Content: "hi"}},
		{"missing content", SendCommand{Phone: "+1555", Slot: 0, TargetPhone: "+1666"}},
		{"slot out of range", SendCommand{Phone: "+1555", Slot: 2, TargetPhone: "+1666", Content: "hi"}},
		{"negative slot", SendCommand{Phone: "+1555", Slot: -1, TargetPhone: "+1666", Content: "hi"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cmd.Validate(); err == nil {
				t.Errorf("expected validation error for %s", tc.name)
			}
		})
	}
}
