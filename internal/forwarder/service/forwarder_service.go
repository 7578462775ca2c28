package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sunil55999/TelegramForwarderX/internal/common/metrics"
	customerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/engine"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/repository"
)

type Transactor interface {
	WithTransaction(ctx context.Context, txFunc func(ctx context.Context) error) error
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ForwarderService реализует операции над отложенными сообщениями:
// просмотр очереди и принятие решений с доставкой одобренных сообщений.
type ForwarderService struct {
	pendingRepo repository.PendingMessageRepository
	mappingRepo repository.MappingRepository
	logRepo     repository.ForwardingLogRepository
	tracker     *engine.MessageTracker
	transport   engine.Transport
	txManager   Transactor
	logger      *slog.Logger
}

func NewForwarderService(
	pendingRepo repository.PendingMessageRepository,
	mappingRepo repository.MappingRepository,
	logRepo repository.ForwardingLogRepository,
	tracker *engine.MessageTracker,
	transport engine.Transport,
	txManager Transactor,
	logger *slog.Logger,
) *ForwarderService {
	return &ForwarderService{
		pendingRepo: pendingRepo,
		mappingRepo: mappingRepo,
		logRepo:     logRepo,
		tracker:     tracker,
		transport:   transport,
		txManager:   txManager,
		logger:      logger,
	}
}

func (s *ForwarderService) ListPendingMessages(ctx context.Context) ([]*models.PendingMessage, error) {
	return s.pendingRepo.FindAwaiting(ctx)
}

// DecidePendingMessage фиксирует решение оператора. Одобренное
// сообщение отправляется в назначение маппинга, отклонённое остаётся
// в истории и никогда не отправляется.
func (s *ForwarderService) DecidePendingMessage(ctx context.Context, pendingID string, decision Decision, decidedBy, comment string) error {
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		pending, err := s.pendingRepo.FindByID(ctx, pendingID)
		if err != nil {
			return err
		}

		if pending.Status != models.PendingApproval {
			return &customerrors.ErrPendingAlreadyDecided{PendingID: pendingID, Status: string(pending.Status)}
		}

		now := time.Now()
		pending.DecidedBy = decidedBy
		pending.DecisionComment = comment
		pending.DecidedAt = &now

		switch decision {
		case DecisionApprove:
			pending.Status = models.PendingApproved
		case DecisionReject:
			pending.Status = models.PendingRejected
		default:
			return &customerrors.ErrPendingAlreadyDecided{PendingID: pendingID, Status: string(decision)}
		}

		if err := s.pendingRepo.UpdateDecision(ctx, pending); err != nil {
			return err
		}

		if decision == DecisionApprove {
			return s.deliverApproved(ctx, pending)
		}

		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordPendingDecision(string(decision))

	s.logger.Info("Решение по отложенному сообщению принято",
		"pendingID", pendingID,
		"decision", decision,
		"decidedBy", decidedBy,
	)

	return nil
}

func (s *ForwarderService) ApprovePendingMessage(ctx context.Context, pendingID, decidedBy, comment string) error {
	return s.DecidePendingMessage(ctx, pendingID, DecisionApprove, decidedBy, comment)
}

func (s *ForwarderService) RejectPendingMessage(ctx context.Context, pendingID, decidedBy, comment string) error {
	return s.DecidePendingMessage(ctx, pendingID, DecisionReject, decidedBy, comment)
}

func (s *ForwarderService) deliverApproved(ctx context.Context, pending *models.PendingMessage) error {
	cfg, err := s.mappingRepo.FindConfigByID(ctx, pending.MappingID)
	if err != nil {
		return err
	}

	var media *models.MediaRef
	if pending.MediaType != "" {
		media = &models.MediaRef{Type: pending.MediaType}
	}

	destMessageID, err := s.transport.Send(ctx, cfg.Mapping.DestinationChatID, pending.ProcessedText, media)
	if err != nil {
		return &customerrors.ErrTransportSend{DestinationChatID: cfg.Mapping.DestinationChatID, Cause: err}
	}

	msg := &models.RawMessage{
		SessionID:    pending.SessionID,
		SourceChatID: pending.SourceChatID,
		MessageID:    pending.MessageID,
		Text:         pending.OriginalText,
	}

	// Трекер нужен только маппингам с синхронизацией правок и удалений.
	if cfg.Mapping.SyncEnabled {
		if err := s.tracker.Record(ctx, cfg.Mapping.ID, msg, cfg.Mapping.DestinationChatID, destMessageID, pending.ProcessedText); err != nil {
			s.logger.Error("Ошибка при записи в трекер после одобрения",
				"error", err,
				"pendingID", pending.ID,
			)
		}
	}

	entry := &models.ForwardingLog{
		MappingID:     pending.MappingID,
		SessionID:     pending.SessionID,
		MessageID:     pending.MessageID,
		OriginalText:  pending.OriginalText,
		ProcessedText: pending.ProcessedText,
		Status:        models.StatusSuccess,
		CreatedAt:     time.Now(),
	}

	if err := s.logRepo.Append(ctx, entry); err != nil {
		s.logger.Error("Ошибка при записи журнала после одобрения",
			"error", err,
			"pendingID", pending.ID,
		)
	}

	return nil
}

// OutcomeCounts агрегирует журнал пересылки за период для системной
// статистики.
func (s *ForwarderService) OutcomeCounts(ctx context.Context, period time.Duration) (map[models.OutcomeStatus]int64, error) {
	return s.logRepo.CountByStatusSince(ctx, time.Now().Add(-period))
}

// RepoConfigSource адаптирует репозиторий маппингов к источнику
// конфигураций пайплайна, когда кэш отключён.
type RepoConfigSource struct {
	mappingRepo repository.MappingRepository
}

func NewRepoConfigSource(mappingRepo repository.MappingRepository) *RepoConfigSource {
	return &RepoConfigSource{mappingRepo: mappingRepo}
}

func (s *RepoConfigSource) MappingConfigs(ctx context.Context, sessionID string) ([]*models.MappingConfig, error) {
	return s.mappingRepo.FindConfigsBySession(ctx, sessionID)
}
