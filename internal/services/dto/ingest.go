package dto

import (
	"encoding/json"
	"time"
)

// IncomingMessage is a RawMessage-shaped record handed to the orchestrator by
// a mail collaborator (IMAP pull or inbound webhook).
type IncomingMessage struct {
	// To is the recipient address the message was sent to; it identifies the
	// owning user (custom forwarding address, or primary email as fallback).
	To                string    `json:"to" binding:"required"`
	From              string    `json:"from" binding:"required"`
	Subject           string    `json:"subject"`
	Body              string    `json:"body"`
	ProviderMessageID string    `json:"provider_message_id"`
	ReceivedAt        time.Time `json:"received_at"`
}

// EventCandidate is a transient, unvalidated extraction result before child
// and custody resolution. Field names mirror the completion service's JSON
// contract.
type EventCandidate struct {
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	EventDate      string `json:"eventDate,omitempty"` // YYYY-MM-DD
	ChildName      string `json:"childName,omitempty"`
	Location       string `json:"location,omitempty"`
	Preparation    string `json:"preparation,omitempty"`
	RequiresAction bool   `json:"requiresAction,omitempty"`
	ActionDeadline string `json:"actionDeadline,omitempty"`
	IsCanceled     bool   `json:"isCanceled,omitempty"`

	// Raw is the extraction payload this candidate was parsed from, kept for
	// audit on the persisted event.
	Raw json.RawMessage `json:"-"`
}

// IngestionResult summarizes the processing of a single message.
type IngestionResult struct {
	Duplicate     bool   `json:"duplicate"`
	RawMessageID  uint   `json:"raw_message_id,omitempty"`
	EventsCreated int    `json:"events_created"`
	EventIDs      []uint `json:"event_ids,omitempty"`
}

// BatchStats summarizes a batch run.
type BatchStats struct {
	Processed  int `json:"processed"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}
