package ui

import "relayctl/internal/types"

// Request messages raised by page models for the console to act on. Pages
// never issue network calls themselves; they describe the operator's intent
// and the console owns the round trip.
type (
	// ReloadRequestedMsg asks for an explicit device snapshot reload.
	ReloadRequestedMsg struct{}

	// SearchRequestedMsg asks for a message search. Slot is nil for both slots.
	SearchRequestedMsg struct {
		Phone string
		Slot  *int
	}

	// SendRequestedMsg asks for a send command dispatch.
	SendRequestedMsg struct {
		Cmd types.SendCommand
	}

	// DeleteRequestedMsg asks for a delete of all messages of a device.
	DeleteRequestedMsg struct {
		Phone string
	}

	// OpenMessagesForMsg jumps to the messages page with a phone preselected.
	OpenMessagesForMsg struct {
		Phone string
	}

	// LoginRequestedMsg asks for an authentication attempt.
	LoginRequestedMsg struct {
		Username string
		Password string
	}

	// LogoutRequestedMsg asks for the credential to be destroyed.
	LogoutRequestedMsg struct{}
)
