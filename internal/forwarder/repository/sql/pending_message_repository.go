package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sunil55999/TelegramForwarderX/internal/database"
	customerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/pkg/txs"
)

type PendingMessageRepository struct {
	db *database.PostgresDB
}

func NewPendingMessageRepository(db *database.PostgresDB) *PendingMessageRepository {
	return &PendingMessageRepository{db: db}
}

func (r *PendingMessageRepository) Create(ctx context.Context, pending *models.PendingMessage) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	_, err := querier.Exec(ctx,
		`INSERT INTO pending_messages (id, mapping_id, session_id, source_chat_id, message_id,
			original_text, processed_text, media_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		pending.ID, pending.MappingID, pending.SessionID, pending.SourceChatID, pending.MessageID,
		pending.OriginalText, pending.ProcessedText, pending.MediaType, pending.Status, pending.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при создании отложенного сообщения: %w", err)
	}

	return nil
}

func (r *PendingMessageRepository) FindByID(ctx context.Context, id string) (*models.PendingMessage, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	pending := &models.PendingMessage{ID: id}

	err := querier.QueryRow(ctx,
		`SELECT mapping_id, session_id, source_chat_id, message_id, original_text, processed_text,
			media_type, status, COALESCE(decided_by, ''), COALESCE(decision_comment, ''), created_at, decided_at
		FROM pending_messages WHERE id = $1`, id).
		Scan(&pending.MappingID, &pending.SessionID, &pending.SourceChatID, &pending.MessageID,
			&pending.OriginalText, &pending.ProcessedText, &pending.MediaType, &pending.Status,
			&pending.DecidedBy, &pending.DecisionComment, &pending.CreatedAt, &pending.DecidedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrPendingMessageNotFound{PendingID: id}
		}

		return nil, fmt.Errorf("ошибка при поиске отложенного сообщения: %w", err)
	}

	return pending, nil
}

func (r *PendingMessageRepository) FindAwaiting(ctx context.Context) ([]*models.PendingMessage, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx,
		`SELECT id, mapping_id, session_id, source_chat_id, message_id, original_text, processed_text,
			media_type, status, COALESCE(decided_by, ''), COALESCE(decision_comment, ''), created_at, decided_at
		FROM pending_messages WHERE status = $1 ORDER BY created_at`, models.PendingApproval)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении отложенных сообщений: %w", err)
	}
	defer rows.Close()

	var pendings []*models.PendingMessage

	for rows.Next() {
		pending := &models.PendingMessage{}

		err := rows.Scan(&pending.ID, &pending.MappingID, &pending.SessionID, &pending.SourceChatID,
			&pending.MessageID, &pending.OriginalText, &pending.ProcessedText, &pending.MediaType,
			&pending.Status, &pending.DecidedBy, &pending.DecisionComment, &pending.CreatedAt, &pending.DecidedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка при чтении отложенного сообщения: %w", err)
		}

		pendings = append(pendings, pending)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обходе отложенных сообщений: %w", err)
	}

	return pendings, nil
}

func (r *PendingMessageRepository) UpdateDecision(ctx context.Context, pending *models.PendingMessage) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	tag, err := querier.Exec(ctx,
		`UPDATE pending_messages SET status = $2, decided_by = $3, decision_comment = $4, decided_at = $5
		WHERE id = $1 AND status = $6`,
		pending.ID, pending.Status, pending.DecidedBy, pending.DecisionComment, pending.DecidedAt,
		models.PendingApproval)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении решения: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrPendingAlreadyDecided{PendingID: pending.ID, Status: string(pending.Status)}
	}

	return nil
}
