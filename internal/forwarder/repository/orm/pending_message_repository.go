package orm

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/sunil55999/TelegramForwarderX/internal/database"
	customerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/pkg/txs"
)

type PendingMessageRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewPendingMessageRepository(db *database.PostgresDB) *PendingMessageRepository {
	return &PendingMessageRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PendingMessageRepository) Create(ctx context.Context, pending *models.PendingMessage) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Insert("pending_messages").
		Columns("id", "mapping_id", "session_id", "source_chat_id", "message_id",
			"original_text", "processed_text", "media_type", "status", "created_at").
		Values(pending.ID, pending.MappingID, pending.SessionID, pending.SourceChatID, pending.MessageID,
			pending.OriginalText, pending.ProcessedText, pending.MediaType, pending.Status, pending.CreatedAt).
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "создание отложенного сообщения", Cause: err}
	}

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "создание отложенного сообщения", Cause: err}
	}

	return nil
}

func (r *PendingMessageRepository) FindByID(ctx context.Context, id string) (*models.PendingMessage, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select("mapping_id", "session_id", "source_chat_id", "message_id",
		"original_text", "processed_text", "media_type", "status",
		"COALESCE(decided_by, '')", "COALESCE(decision_comment, '')", "created_at", "decided_at").
		From("pending_messages").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "поиск отложенного сообщения", Cause: err}
	}

	pending := &models.PendingMessage{ID: id}

	err = querier.QueryRow(ctx, query, args...).
		Scan(&pending.MappingID, &pending.SessionID, &pending.SourceChatID, &pending.MessageID,
			&pending.OriginalText, &pending.ProcessedText, &pending.MediaType, &pending.Status,
			&pending.DecidedBy, &pending.DecisionComment, &pending.CreatedAt, &pending.DecidedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrPendingMessageNotFound{PendingID: id}
		}

		return nil, &customerrors.ErrSQLExecution{Operation: "поиск отложенного сообщения", Cause: err}
	}

	return pending, nil
}

func (r *PendingMessageRepository) FindAwaiting(ctx context.Context) ([]*models.PendingMessage, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select("id", "mapping_id", "session_id", "source_chat_id", "message_id",
		"original_text", "processed_text", "media_type", "status",
		"COALESCE(decided_by, '')", "COALESCE(decision_comment, '')", "created_at", "decided_at").
		From("pending_messages").
		Where(sq.Eq{"status": models.PendingApproval}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "выборка отложенных сообщений", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "выборка отложенных сообщений", Cause: err}
	}
	defer rows.Close()

	var pendings []*models.PendingMessage

	for rows.Next() {
		pending := &models.PendingMessage{}

		err := rows.Scan(&pending.ID, &pending.MappingID, &pending.SessionID, &pending.SourceChatID,
			&pending.MessageID, &pending.OriginalText, &pending.ProcessedText, &pending.MediaType,
			&pending.Status, &pending.DecidedBy, &pending.DecisionComment, &pending.CreatedAt, &pending.DecidedAt)
		if err != nil {
			return nil, &customerrors.ErrSQLExecution{Operation: "чтение отложенного сообщения", Cause: err}
		}

		pendings = append(pendings, pending)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обход отложенных сообщений", Cause: err}
	}

	return pendings, nil
}

func (r *PendingMessageRepository) UpdateDecision(ctx context.Context, pending *models.PendingMessage) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Update("pending_messages").
		Set("status", pending.Status).
		Set("decided_by", pending.DecidedBy).
		Set("decision_comment", pending.DecisionComment).
		Set("decided_at", pending.DecidedAt).
		Where(sq.Eq{"id": pending.ID, "status": models.PendingApproval}).
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "сохранение решения", Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "сохранение решения", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrPendingAlreadyDecided{PendingID: pending.ID, Status: string(pending.Status)}
	}

	return nil
}
