package engine

import (
	"context"
	"crypto/md5" //nolint:gosec // Хэш используется только для сравнения содержимого.
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
)

type TrackerStore interface {
	Upsert(ctx context.Context, entry *models.TrackerEntry) error
	FindBySource(ctx context.Context, sourceChatID, sourceMessageID int64) ([]*models.TrackerEntry, error)
	MarkDeleted(ctx context.Context, id string, deletedAt time.Time) error
}

// MessageTracker связывает оригинальные сообщения с пересланными
// копиями для синхронизации правок и удалений.
type MessageTracker struct {
	store  TrackerStore
	logger *slog.Logger
}

func NewMessageTracker(store TrackerStore, logger *slog.Logger) *MessageTracker {
	return &MessageTracker{
		store:  store,
		logger: logger,
	}
}

func ContentHash(text string) string {
	sum := md5.Sum([]byte(text)) //nolint:gosec // См. выше.
	return hex.EncodeToString(sum[:])
}

func (t *MessageTracker) Record(
	ctx context.Context,
	mappingID string,
	msg *models.RawMessage,
	destChatID, destMessageID int64,
	processedText string,
) error {
	entry := &models.TrackerEntry{
		ID:                   uuid.New().String(),
		MappingID:            mappingID,
		SourceChatID:         msg.SourceChatID,
		SourceMessageID:      msg.MessageID,
		DestinationChatID:    destChatID,
		DestinationMessageID: destMessageID,
		ContentHash:          ContentHash(processedText),
		CreatedAt:            time.Now(),
	}

	if err := t.store.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("ошибка при сохранении записи трекера: %w", err)
	}

	t.logger.Debug("Связь сообщений записана в трекер",
		"mappingID", mappingID,
		"sourceMessageID", msg.MessageID,
		"destinationMessageID", destMessageID,
	)

	return nil
}

func (t *MessageTracker) FindBySource(ctx context.Context, sourceChatID, sourceMessageID int64) ([]*models.TrackerEntry, error) {
	return t.store.FindBySource(ctx, sourceChatID, sourceMessageID)
}

// NeedsSync сравнивает хэш нового содержимого с записанным: правка без
// изменения текста синхронизации не требует.
func (t *MessageTracker) NeedsSync(entry *models.TrackerEntry, newText string) bool {
	return entry.ContentHash != ContentHash(newText)
}

// UpdateContent перезаписывает хэш содержимого после синхронизации правки.
func (t *MessageTracker) UpdateContent(ctx context.Context, entry *models.TrackerEntry, newText string) error {
	entry.ContentHash = ContentHash(newText)

	if err := t.store.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("ошибка при обновлении записи трекера: %w", err)
	}

	return nil
}

func (t *MessageTracker) MarkDeleted(ctx context.Context, entry *models.TrackerEntry) error {
	if err := t.store.MarkDeleted(ctx, entry.ID, time.Now()); err != nil {
		return fmt.Errorf("ошибка при пометке записи трекера удалённой: %w", err)
	}

	return nil
}
