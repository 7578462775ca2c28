package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/sunil55999/TelegramForwarderX/internal/database"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/pkg/txs"
)

type ForwardingLogRepository struct {
	db *database.PostgresDB
}

func NewForwardingLogRepository(db *database.PostgresDB) *ForwardingLogRepository {
	return &ForwardingLogRepository{db: db}
}

func (r *ForwardingLogRepository) Append(ctx context.Context, entry *models.ForwardingLog) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	err := querier.QueryRow(ctx,
		`INSERT INTO forwarding_logs (mapping_id, session_id, worker_id, message_id, message_type,
			original_text, processed_text, status, filter_reason, error_message, processing_time_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		entry.MappingID, entry.SessionID, entry.WorkerID, entry.MessageID, entry.MessageType,
		entry.OriginalText, entry.ProcessedText, entry.Status, entry.FilterReason,
		entry.ErrorMessage, entry.ProcessingTimeMs, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("ошибка при записи журнала пересылки: %w", err)
	}

	return nil
}

func (r *ForwardingLogRepository) FindRecentBySession(ctx context.Context, sessionID string, limit int) ([]*models.ForwardingLog, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx,
		`SELECT id, mapping_id, session_id, worker_id, message_id, message_type,
			original_text, processed_text, status, filter_reason, error_message, processing_time_ms, created_at
		FROM forwarding_logs WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении журнала пересылки: %w", err)
	}
	defer rows.Close()

	var entries []*models.ForwardingLog

	for rows.Next() {
		entry := &models.ForwardingLog{}

		err := rows.Scan(&entry.ID, &entry.MappingID, &entry.SessionID, &entry.WorkerID,
			&entry.MessageID, &entry.MessageType, &entry.OriginalText, &entry.ProcessedText,
			&entry.Status, &entry.FilterReason, &entry.ErrorMessage, &entry.ProcessingTimeMs, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка при чтении записи журнала: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обходе журнала пересылки: %w", err)
	}

	return entries, nil
}

func (r *ForwardingLogRepository) CountByStatusSince(ctx context.Context, since time.Time) (map[models.OutcomeStatus]int64, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx,
		"SELECT status, COUNT(*) FROM forwarding_logs WHERE created_at >= $1 GROUP BY status", since)
	if err != nil {
		return nil, fmt.Errorf("ошибка при подсчёте записей журнала: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.OutcomeStatus]int64)

	for rows.Next() {
		var (
			status models.OutcomeStatus
			count  int64
		)

		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("ошибка при чтении счётчика журнала: %w", err)
		}

		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обходе счётчиков журнала: %w", err)
	}

	return counts, nil
}
