package models

import (
	"time"
)

type RawEventType string

const (
	EventNewMessage     RawEventType = "new"
	EventEditedMessage  RawEventType = "edited"
	EventDeletedMessage RawEventType = "deleted"
)

type MediaRef struct {
	Type   string
	FileID string
}

type RawMessage struct {
	SessionID    string
	SourceChatID int64
	MessageID    int64
	SenderID     int64
	Text         string
	Type         string
	Forwarded    bool
	Media        *MediaRef
	Event        RawEventType
	ReceivedAt   time.Time
}

type OutcomeStatus string

const (
	StatusSuccess          OutcomeStatus = "success"
	StatusFiltered         OutcomeStatus = "filtered"
	StatusRateLimited      OutcomeStatus = "rate_limited"
	StatusDelayed          OutcomeStatus = "delayed"
	StatusAwaitingApproval OutcomeStatus = "awaiting_approval"
	StatusUpdateSynced     OutcomeStatus = "update_synced"
	StatusDeleteSynced     OutcomeStatus = "delete_synced"
	StatusError            OutcomeStatus = "error"
)

type Outcome struct {
	Status         OutcomeStatus
	ProcessedText  string
	FilterReason   string
	ErrorMessage   string
	PendingID      string
	SendAfter      time.Time
	ProcessingTime time.Duration
}

type PendingStatus string

const (
	PendingApproval PendingStatus = "pending"
	PendingApproved PendingStatus = "approved"
	PendingRejected PendingStatus = "rejected"
)

type PendingMessage struct {
	ID              string
	MappingID       string
	SessionID       string
	SourceChatID    int64
	MessageID       int64
	OriginalText    string
	ProcessedText   string
	MediaType       string
	Status          PendingStatus
	DecidedBy       string
	DecisionComment string
	CreatedAt       time.Time
	DecidedAt       *time.Time
}

type TrackerEntry struct {
	ID                   string
	MappingID            string
	SourceChatID         int64
	SourceMessageID      int64
	DestinationChatID    int64
	DestinationMessageID int64
	ContentHash          string
	CreatedAt            time.Time
	DeletedAt            *time.Time
}

type ForwardingLog struct {
	ID               int64
	MappingID        string
	SessionID        string
	WorkerID         string
	MessageID        int64
	MessageType      string
	OriginalText     string
	ProcessedText    string
	Status           OutcomeStatus
	FilterReason     string
	ErrorMessage     string
	ProcessingTimeMs int64
	CreatedAt        time.Time
}
