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

type TrackerRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewTrackerRepository(db *database.PostgresDB) *TrackerRepository {
	return &TrackerRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *TrackerRepository) Upsert(ctx context.Context, entry *models.TrackerEntry) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Insert("message_tracker").
		Columns("id", "mapping_id", "source_chat_id", "source_message_id",
			"destination_chat_id", "destination_message_id", "content_hash", "created_at").
		Values(entry.ID, entry.MappingID, entry.SourceChatID, entry.SourceMessageID,
			entry.DestinationChatID, entry.DestinationMessageID, entry.ContentHash, entry.CreatedAt).
		Suffix(`ON CONFLICT (source_chat_id, source_message_id, mapping_id)
			DO UPDATE SET destination_chat_id = EXCLUDED.destination_chat_id,
				destination_message_id = EXCLUDED.destination_message_id,
				content_hash = EXCLUDED.content_hash, deleted_at = NULL`).
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "сохранение записи трекера", Cause: err}
	}

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "сохранение записи трекера", Cause: err}
	}

	return nil
}

func (r *TrackerRepository) FindBySource(ctx context.Context, sourceChatID, sourceMessageID int64) ([]*models.TrackerEntry, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select("id", "mapping_id", "destination_chat_id", "destination_message_id",
		"content_hash", "created_at", "deleted_at").
		From("message_tracker").
		Where(sq.Eq{"source_chat_id": sourceChatID, "source_message_id": sourceMessageID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "поиск записей трекера", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "поиск записей трекера", Cause: err}
	}
	defer rows.Close()

	var entries []*models.TrackerEntry

	for rows.Next() {
		entry := &models.TrackerEntry{SourceChatID: sourceChatID, SourceMessageID: sourceMessageID}

		err := rows.Scan(&entry.ID, &entry.MappingID, &entry.DestinationChatID, &entry.DestinationMessageID,
			&entry.ContentHash, &entry.CreatedAt, &entry.DeletedAt)
		if err != nil {
			return nil, &customerrors.ErrSQLExecution{Operation: "чтение записи трекера", Cause: err}
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обход записей трекера", Cause: err}
	}

	if len(entries) == 0 {
		return nil, &customerrors.ErrTrackerEntryNotFound{SourceChatID: sourceChatID, SourceMessageID: sourceMessageID}
	}

	return entries, nil
}

func (r *TrackerRepository) MarkDeleted(ctx context.Context, id string, deletedAt time.Time) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Update("message_tracker").
		Set("deleted_at", deletedAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "пометка записи трекера", Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "пометка записи трекера", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrTrackerEntryNotFound{}
	}

	return nil
}
