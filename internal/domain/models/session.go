package models

import (
	"time"
)

type PriorityTier string

const (
	TierFree    PriorityTier = "free"
	TierPremium PriorityTier = "premium"
	TierAdmin   PriorityTier = "admin"
)

type SessionAssignment struct {
	SessionID  string
	WorkerID   string
	Tier       PriorityTier
	AssignedAt time.Time
}

type PipelineState int

const (
	StateIdle PipelineState = iota
	StateFiltering
	StateEditing
	StateForwarding
	StateDelaying
	StateAwaitingApproval
	StateFailed
)
