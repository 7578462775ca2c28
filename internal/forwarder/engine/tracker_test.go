package engine_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/engine"
	enginemocks "github.com/sunil55999/TelegramForwarderX/internal/forwarder/engine/mocks"
)

func TestContentHash(t *testing.T) {
	t.Parallel()

	assert.Equal(t, engine.ContentHash("текст"), engine.ContentHash("текст"))
	assert.NotEqual(t, engine.ContentHash("текст"), engine.ContentHash("другой текст"))
	assert.Len(t, engine.ContentHash(""), 32)
}

func TestMessageTracker_Record(t *testing.T) {
	t.Parallel()

	mockStore := new(enginemocks.TrackerStore)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := engine.NewMessageTracker(mockStore, logger)

	ctx := context.Background()
	msg := &models.RawMessage{SourceChatID: -100, MessageID: 55}

	mockStore.On("Upsert", ctx, mock.MatchedBy(func(entry *models.TrackerEntry) bool {
		return entry.ID != "" &&
			entry.MappingID == "mapping-1" &&
			entry.SourceChatID == int64(-100) &&
			entry.SourceMessageID == int64(55) &&
			entry.DestinationChatID == int64(-200) &&
			entry.DestinationMessageID == int64(77) &&
			entry.ContentHash == engine.ContentHash("обработанный текст")
	})).Return(nil)

	err := tracker.Record(ctx, "mapping-1", msg, -200, 77, "обработанный текст")

	require.NoError(t, err)
	mockStore.AssertExpectations(t)
}

func TestMessageTracker_NeedsSync(t *testing.T) {
	t.Parallel()

	tracker := engine.NewMessageTracker(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	entry := &models.TrackerEntry{ContentHash: engine.ContentHash("исходный текст")}

	assert.False(t, tracker.NeedsSync(entry, "исходный текст"), "правка без изменения текста не требует синхронизации")
	assert.True(t, tracker.NeedsSync(entry, "новый текст"))
}

func TestMessageTracker_UpdateContent(t *testing.T) {
	t.Parallel()

	mockStore := new(enginemocks.TrackerStore)
	tracker := engine.NewMessageTracker(mockStore, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx := context.Background()
	entry := &models.TrackerEntry{ID: "entry-1", ContentHash: engine.ContentHash("старый")}

	mockStore.On("Upsert", ctx, entry).Return(nil)

	err := tracker.UpdateContent(ctx, entry, "новый")

	require.NoError(t, err)
	assert.Equal(t, engine.ContentHash("новый"), entry.ContentHash)
	mockStore.AssertExpectations(t)
}

func TestMessageTracker_MarkDeleted(t *testing.T) {
	t.Parallel()

	mockStore := new(enginemocks.TrackerStore)
	tracker := engine.NewMessageTracker(mockStore, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx := context.Background()

	mockStore.On("MarkDeleted", ctx, "entry-1", mock.AnythingOfType("time.Time")).Return(nil)

	err := tracker.MarkDeleted(ctx, &models.TrackerEntry{ID: "entry-1", CreatedAt: time.Now()})

	require.NoError(t, err)
	mockStore.AssertExpectations(t)
}
