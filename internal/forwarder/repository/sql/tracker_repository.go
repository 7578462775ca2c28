package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/sunil55999/TelegramForwarderX/internal/database"
	customerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/pkg/txs"
)

type TrackerRepository struct {
	db *database.PostgresDB
}

func NewTrackerRepository(db *database.PostgresDB) *TrackerRepository {
	return &TrackerRepository{db: db}
}

func (r *TrackerRepository) Upsert(ctx context.Context, entry *models.TrackerEntry) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	_, err := querier.Exec(ctx,
		`INSERT INTO message_tracker (id, mapping_id, source_chat_id, source_message_id,
			destination_chat_id, destination_message_id, content_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source_chat_id, source_message_id, mapping_id)
		DO UPDATE SET destination_chat_id = $5, destination_message_id = $6, content_hash = $7, deleted_at = NULL`,
		entry.ID, entry.MappingID, entry.SourceChatID, entry.SourceMessageID,
		entry.DestinationChatID, entry.DestinationMessageID, entry.ContentHash, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении записи трекера: %w", err)
	}

	return nil
}

// FindBySource возвращает все записи для исходного сообщения: при
// веерной пересылке их несколько, по одной на маппинг.
func (r *TrackerRepository) FindBySource(ctx context.Context, sourceChatID, sourceMessageID int64) ([]*models.TrackerEntry, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx,
		`SELECT id, mapping_id, destination_chat_id, destination_message_id, content_hash, created_at, deleted_at
		FROM message_tracker WHERE source_chat_id = $1 AND source_message_id = $2 ORDER BY created_at`,
		sourceChatID, sourceMessageID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при поиске записей трекера: %w", err)
	}
	defer rows.Close()

	var entries []*models.TrackerEntry

	for rows.Next() {
		entry := &models.TrackerEntry{SourceChatID: sourceChatID, SourceMessageID: sourceMessageID}

		err := rows.Scan(&entry.ID, &entry.MappingID, &entry.DestinationChatID, &entry.DestinationMessageID,
			&entry.ContentHash, &entry.CreatedAt, &entry.DeletedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка при чтении записи трекера: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обходе записей трекера: %w", err)
	}

	if len(entries) == 0 {
		return nil, &customerrors.ErrTrackerEntryNotFound{SourceChatID: sourceChatID, SourceMessageID: sourceMessageID}
	}

	return entries, nil
}

func (r *TrackerRepository) MarkDeleted(ctx context.Context, id string, deletedAt time.Time) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	tag, err := querier.Exec(ctx,
		"UPDATE message_tracker SET deleted_at = $2 WHERE id = $1", id, deletedAt)
	if err != nil {
		return fmt.Errorf("ошибка при пометке записи трекера: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrTrackerEntryNotFound{}
	}

	return nil
}
