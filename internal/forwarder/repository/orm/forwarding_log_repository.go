package orm

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sunil55999/TelegramForwarderX/internal/database"
	customerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/pkg/txs"
)

type ForwardingLogRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewForwardingLogRepository(db *database.PostgresDB) *ForwardingLogRepository {
	return &ForwardingLogRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ForwardingLogRepository) Append(ctx context.Context, entry *models.ForwardingLog) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Insert("forwarding_logs").
		Columns("mapping_id", "session_id", "worker_id", "message_id", "message_type",
			"original_text", "processed_text", "status", "filter_reason", "error_message",
			"processing_time_ms", "created_at").
		Values(entry.MappingID, entry.SessionID, entry.WorkerID, entry.MessageID, entry.MessageType,
			entry.OriginalText, entry.ProcessedText, entry.Status, entry.FilterReason,
			entry.ErrorMessage, entry.ProcessingTimeMs, entry.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "запись журнала пересылки", Cause: err}
	}

	if err := querier.QueryRow(ctx, query, args...).Scan(&entry.ID); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "запись журнала пересылки", Cause: err}
	}

	return nil
}

func (r *ForwardingLogRepository) FindRecentBySession(ctx context.Context, sessionID string, limit int) ([]*models.ForwardingLog, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select("id", "mapping_id", "session_id", "worker_id", "message_id", "message_type",
		"original_text", "processed_text", "status", "filter_reason", "error_message",
		"processing_time_ms", "created_at").
		From("forwarding_logs").
		Where(sq.Eq{"session_id": sessionID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)). //nolint:gosec // Лимит задаётся кодом, не пользователем.
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "выборка журнала пересылки", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "выборка журнала пересылки", Cause: err}
	}
	defer rows.Close()

	var entries []*models.ForwardingLog

	for rows.Next() {
		entry := &models.ForwardingLog{}

		err := rows.Scan(&entry.ID, &entry.MappingID, &entry.SessionID, &entry.WorkerID,
			&entry.MessageID, &entry.MessageType, &entry.OriginalText, &entry.ProcessedText,
			&entry.Status, &entry.FilterReason, &entry.ErrorMessage, &entry.ProcessingTimeMs, &entry.CreatedAt)
		if err != nil {
			return nil, &customerrors.ErrSQLExecution{Operation: "чтение записи журнала", Cause: err}
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обход журнала пересылки", Cause: err}
	}

	return entries, nil
}

func (r *ForwardingLogRepository) CountByStatusSince(ctx context.Context, since time.Time) (map[models.OutcomeStatus]int64, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select("status", "COUNT(*)").
		From("forwarding_logs").
		Where(sq.GtOrEq{"created_at": since}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "подсчёт записей журнала", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "подсчёт записей журнала", Cause: err}
	}
	defer rows.Close()

	counts := make(map[models.OutcomeStatus]int64)

	for rows.Next() {
		var (
			status models.OutcomeStatus
			count  int64
		)

		if err := rows.Scan(&status, &count); err != nil {
			return nil, &customerrors.ErrSQLExecution{Operation: "чтение счётчика журнала", Cause: err}
		}

		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обход счётчиков журнала", Cause: err}
	}

	return counts, nil
}
