package repository

import (
	"context"
	"time"

	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
)

type WorkerRepository interface {
	Save(ctx context.Context, worker *models.Worker) error
	Update(ctx context.Context, worker *models.Worker) error
	FindByID(ctx context.Context, id string) (*models.Worker, error)
	FindAll(ctx context.Context) ([]*models.Worker, error)
	Delete(ctx context.Context, id string) error
}

type SessionRepository interface {
	Assign(ctx context.Context, assignment *models.SessionAssignment) error
	Unassign(ctx context.Context, sessionID string) error
	Reassign(ctx context.Context, sessionID, workerID string) error
	FindByWorker(ctx context.Context, workerID string) ([]*models.SessionAssignment, error)
	FindAll(ctx context.Context) ([]*models.SessionAssignment, error)
	DeleteOrphaned(ctx context.Context) (int64, error)
}

type MappingRepository interface {
	FindConfigsBySession(ctx context.Context, sessionID string) ([]*models.MappingConfig, error)
	FindConfigByID(ctx context.Context, mappingID string) (*models.MappingConfig, error)
}

type ForwardingLogRepository interface {
	Append(ctx context.Context, entry *models.ForwardingLog) error
	FindRecentBySession(ctx context.Context, sessionID string, limit int) ([]*models.ForwardingLog, error)
	CountByStatusSince(ctx context.Context, since time.Time) (map[models.OutcomeStatus]int64, error)
}

type PendingMessageRepository interface {
	Create(ctx context.Context, pending *models.PendingMessage) error
	FindByID(ctx context.Context, id string) (*models.PendingMessage, error)
	FindAwaiting(ctx context.Context) ([]*models.PendingMessage, error)
	UpdateDecision(ctx context.Context, pending *models.PendingMessage) error
}

type TrackerRepository interface {
	Upsert(ctx context.Context, entry *models.TrackerEntry) error
	FindBySource(ctx context.Context, sourceChatID, sourceMessageID int64) ([]*models.TrackerEntry, error)
	MarkDeleted(ctx context.Context, id string, deletedAt time.Time) error
}
