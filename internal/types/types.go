// Package types provides shared domain type definitions used across relayctl packages.
// This package exists so the API client, the fleet registry and the message engine
// can exchange data without importing each other.
package types

import (
	"fmt"
	"time"
)

// MaxSlots is the number of SIM slots a relay device can carry.
// Slot indices are 0-based and need not be contiguous.
const MaxSlots = 2

// SimSlot describes one SIM slot binding on a device.
// An absent binding (slot index missing from Device.Slots) means no SIM
// is inserted; a present binding with an empty Carrier means the SIM is
// there but its carrier could not be resolved.
type SimSlot struct {
	Slot    int    `json:"slot"`
	Carrier string `json:"carrier,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Device is one relay device as reported by the gateway.
type Device struct {
	Phone    string    `json:"phone"`
	Online   bool      `json:"online"`
	LastSeen int64     `json:"lastSeen"` // unix seconds, 0 means never
	Slots    []SimSlot `json:"slots,omitempty"`
}

// LastSeenString formats the last-seen timestamp; a zero value renders
// as "-" to distinguish "never seen" from a real epoch timestamp.
func (d Device) LastSeenString() string {
	if d.LastSeen == 0 {
		return "-"
	}
	return time.Unix(d.LastSeen, 0).Format("2006-01-02 15:04:05")
}

// StatusString renders the online flag for tables.
func (d Device) StatusString() string {
	if d.Online {
		return "online"
	}
	return "offline"
}

// SlotLabel renders the binding for a given slot index.
// Empty slot and unknown carrier are deliberately distinct:
// "no card" means nothing is inserted, "unknown" means a SIM is
// present but the carrier name is not reported.
func (d Device) SlotLabel(slot int) string {
	for _, s := range d.Slots {
		if s.Slot == slot {
			if s.Carrier == "" {
				return "unknown"
			}
			return s.Carrier
		}
	}
	return "no card"
}

// SlotSummary renders all slot bindings on one line. Devices that report
// no slot data at all (nil or empty) render as "no SIM data".
func (d Device) SlotSummary() string {
	if len(d.Slots) == 0 {
		return "no SIM data"
	}
	out := ""
	for i := 0; i < MaxSlots; i++ {
		if i > 0 {
			out += " / "
		}
		out += fmt.Sprintf("SIM%d: %s", i+1, d.SlotLabel(i))
	}
	return out
}

// Message is one SMS entry returned by a query. Sender is the remote
// counterpart number; Phone is the owning device.
type Message struct {
	Phone     string `json:"phone"`
	Slot      int    `json:"slot"`
	Sender    string `json:"reciPhone"`
	Content   string `json:"reciContent"`
	Timestamp int64  `json:"timestamp"`
}

// TimeString formats the message timestamp for display.
func (m Message) TimeString() string {
	return time.Unix(m.Timestamp, 0).Format("2006-01-02 15:04:05")
}

// SendCommand instructs a device to send an SMS through one of its slots.
// This layer does not check the slot against the device's actual SIM
// occupancy; the device reports that failure on its own.
type SendCommand struct {
	Phone       string `json:"phone"`
	Slot        int    `json:"slot"`
	TargetPhone string `json:"targetPhone"`
	Content     string `json:"content"`
}

// Validate checks that all required fields are present.
func (c SendCommand) Validate() error {
	if c.Phone == "" {
		return fmt.Errorf("device phone is required")
	}
	if c.TargetPhone == "" {
		return fmt.Errorf("target phone is required")
	}
	if c.Content == "" {
		return fmt.Errorf("message content is required")
	}
	if c.Slot < 0 || c.Slot >= MaxSlots {
		return fmt.Errorf("slot must be 0 or 1, got %d", c.Slot)
	}
	return nil
}

// VersionInfo is the fleet app version record served by the gateway.
// Devices compare VersionCode against their own build to decide whether
// to self-update.
type VersionInfo struct {
	VersionCode int    `json:"versionCode"`
	VersionName string `json:"versionName"`
	DownloadURL string `json:"downloadUrl"`
	Changelog   string `json:"changelog"`
	ForceUpdate bool   `json:"forceUpdate"`
}
