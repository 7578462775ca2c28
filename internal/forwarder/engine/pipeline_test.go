package engine_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/engine"
	enginemocks "github.com/sunil55999/TelegramForwarderX/internal/forwarder/engine/mocks"
)

type pipelineFixture struct {
	transport    *enginemocks.Transport
	configSource *enginemocks.ConfigSource
	logStore     *enginemocks.LogStore
	pendingStore *enginemocks.PendingStore
	trackerStore *enginemocks.TrackerStore
	pipeline     *engine.SessionPipeline
}

func newPipelineFixture(tier models.PriorityTier) *pipelineFixture {
	f := &pipelineFixture{
		transport:    new(enginemocks.Transport),
		configSource: new(enginemocks.ConfigSource),
		logStore:     new(enginemocks.LogStore),
		pendingStore: new(enginemocks.PendingStore),
		trackerStore: new(enginemocks.TrackerStore),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f.pipeline = engine.NewSessionPipeline("session-1", "worker-1", tier, engine.PipelineDeps{
		Transport:    f.transport,
		ConfigSource: f.configSource,
		LogStore:     f.logStore,
		PendingStore: f.pendingStore,
		Tracker:      engine.NewMessageTracker(f.trackerStore, logger),
		Limiter:      engine.NewRateLimiter(100, 1000),
		Staleness:    time.Minute,
		Logger:       logger,
	})

	return f
}

func simpleConfig(mappingID string, sourceChatID, destChatID int64) *models.MappingConfig {
	return &models.MappingConfig{
		Mapping: models.Mapping{
			ID:                mappingID,
			SessionID:         "session-1",
			SourceChatID:      sourceChatID,
			DestinationChatID: destChatID,
			SyncEnabled:       true,
			Active:            true,
		},
		LoadedAt: time.Now(),
	}
}

func newMessage(text string) *models.RawMessage {
	return &models.RawMessage{
		SessionID:    "session-1",
		SourceChatID: -100,
		MessageID:    10,
		SenderID:     1,
		Text:         text,
		Type:         "text",
		Event:        models.EventNewMessage,
		ReceivedAt:   time.Now(),
	}
}

func TestSessionPipeline_SuccessfulForward(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	f.configSource.On("MappingConfigs", ctx, "session-1").
		Return([]*models.MappingConfig{simpleConfig("mapping-1", -100, -200)}, nil)

	f.transport.On("Send", ctx, int64(-200), "привет", (*models.MediaRef)(nil)).Return(int64(77), nil)

	f.trackerStore.On("Upsert", ctx, mock.MatchedBy(func(entry *models.TrackerEntry) bool {
		return entry.MappingID == "mapping-1" && entry.DestinationMessageID == int64(77)
	})).Return(nil)

	f.logStore.On("Append", ctx, mock.MatchedBy(func(entry *models.ForwardingLog) bool {
		return entry.Status == models.StatusSuccess &&
			entry.MappingID == "mapping-1" &&
			entry.ProcessedText == "привет"
	})).Return(nil)

	f.pipeline.Process(ctx, newMessage("привет"))

	f.transport.AssertExpectations(t)
	f.trackerStore.AssertExpectations(t)
	f.logStore.AssertExpectations(t)
}

func TestSessionPipeline_FilteredMessageLogged(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	cfg := simpleConfig("mapping-1", -100, -200)
	cfg.Filter.IncludeKeywords = []string{"bitcoin"}
	cfg.Filter.KeywordMatchMode = models.MatchAny

	f.configSource.On("MappingConfigs", ctx, "session-1").Return([]*models.MappingConfig{cfg}, nil)

	f.logStore.On("Append", ctx, mock.MatchedBy(func(entry *models.ForwardingLog) bool {
		return entry.Status == models.StatusFiltered &&
			entry.FilterReason == "No required keywords found"
	})).Return(nil)

	f.pipeline.Process(ctx, newMessage("новости спорта"))

	f.logStore.AssertExpectations(t)
	f.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionPipeline_RateLimitedMessageDropped(t *testing.T) {
	t.Parallel()

	f := &pipelineFixture{
		transport:    new(enginemocks.Transport),
		configSource: new(enginemocks.ConfigSource),
		logStore:     new(enginemocks.LogStore),
		pendingStore: new(enginemocks.PendingStore),
		trackerStore: new(enginemocks.TrackerStore),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.pipeline = engine.NewSessionPipeline("session-1", "worker-1", models.TierPremium, engine.PipelineDeps{
		Transport:    f.transport,
		ConfigSource: f.configSource,
		LogStore:     f.logStore,
		PendingStore: f.pendingStore,
		Tracker:      engine.NewMessageTracker(f.trackerStore, logger),
		Limiter:      engine.NewRateLimiter(1, 1000),
		Staleness:    time.Minute,
		Logger:       logger,
	})

	ctx := context.Background()

	f.configSource.On("MappingConfigs", ctx, "session-1").
		Return([]*models.MappingConfig{simpleConfig("mapping-1", -100, -200)}, nil)
	f.transport.On("Send", ctx, int64(-200), "первое", (*models.MediaRef)(nil)).Return(int64(1), nil)
	f.trackerStore.On("Upsert", ctx, mock.Anything).Return(nil)
	f.logStore.On("Append", ctx, mock.Anything).Return(nil).Once()

	f.pipeline.Process(ctx, newMessage("первое"))

	// Второе сообщение отбрасывается лимитером без записи в журнал.
	f.pipeline.Process(ctx, newMessage("второе"))

	f.transport.AssertNumberOfCalls(t, "Send", 1)
	f.logStore.AssertNumberOfCalls(t, "Append", 1)
}

func TestSessionPipeline_InactiveMappingSkipped(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	cfg := simpleConfig("mapping-1", -100, -200)
	cfg.Mapping.Active = false

	f.configSource.On("MappingConfigs", ctx, "session-1").Return([]*models.MappingConfig{cfg}, nil)

	f.pipeline.Process(ctx, newMessage("привет"))

	f.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.logStore.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestSessionPipeline_HoldForApproval(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	cfg := simpleConfig("mapping-1", -100, -200)
	cfg.Delay = models.DelayConfig{EnableDelay: true, RequireApproval: true}

	f.configSource.On("MappingConfigs", ctx, "session-1").Return([]*models.MappingConfig{cfg}, nil)

	f.pendingStore.On("Create", ctx, mock.MatchedBy(func(pending *models.PendingMessage) bool {
		return pending.ID != "" &&
			pending.MappingID == "mapping-1" &&
			pending.Status == models.PendingApproval &&
			pending.OriginalText == "на одобрение"
	})).Return(nil)

	f.logStore.On("Append", ctx, mock.MatchedBy(func(entry *models.ForwardingLog) bool {
		return entry.Status == models.StatusAwaitingApproval
	})).Return(nil)

	f.pipeline.Process(ctx, newMessage("на одобрение"))

	f.pendingStore.AssertExpectations(t)
	f.logStore.AssertExpectations(t)
	f.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionPipeline_FanOutToAllMappings(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	f.configSource.On("MappingConfigs", ctx, "session-1").Return([]*models.MappingConfig{
		simpleConfig("mapping-1", -100, -200),
		simpleConfig("mapping-2", -100, -300),
		simpleConfig("mapping-3", -999, -400),
	}, nil)

	f.transport.On("Send", ctx, int64(-200), "привет", (*models.MediaRef)(nil)).Return(int64(1), nil)
	f.transport.On("Send", ctx, int64(-300), "привет", (*models.MediaRef)(nil)).Return(int64(2), nil)
	f.trackerStore.On("Upsert", ctx, mock.Anything).Return(nil)
	f.logStore.On("Append", ctx, mock.Anything).Return(nil)

	f.pipeline.Process(ctx, newMessage("привет"))

	// Маппинг другого источника не участвует в рассылке.
	f.transport.AssertNumberOfCalls(t, "Send", 2)
	f.transport.AssertNotCalled(t, "Send", ctx, int64(-400), mock.Anything, mock.Anything)
}

func TestSessionPipeline_SendErrorLogged(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	f.configSource.On("MappingConfigs", ctx, "session-1").
		Return([]*models.MappingConfig{simpleConfig("mapping-1", -100, -200)}, nil)

	f.transport.On("Send", ctx, int64(-200), "привет", (*models.MediaRef)(nil)).
		Return(int64(0), assert.AnError)

	f.logStore.On("Append", ctx, mock.MatchedBy(func(entry *models.ForwardingLog) bool {
		return entry.Status == models.StatusError && entry.ErrorMessage != ""
	})).Return(nil)

	f.pipeline.Process(ctx, newMessage("привет"))

	f.logStore.AssertExpectations(t)
	f.trackerStore.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSessionPipeline_PausedSkipsProcessing(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	f.pipeline.Pause()
	assert.True(t, f.pipeline.Paused())

	f.pipeline.Process(ctx, newMessage("привет"))

	f.configSource.AssertNotCalled(t, "MappingConfigs", mock.Anything, mock.Anything)

	f.pipeline.Resume()
	assert.False(t, f.pipeline.Paused())
}

func TestSessionPipeline_SyncEdit(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	f.configSource.On("MappingConfigs", ctx, "session-1").
		Return([]*models.MappingConfig{simpleConfig("mapping-1", -100, -200)}, nil)

	entry := &models.TrackerEntry{
		ID:                   "entry-1",
		MappingID:            "mapping-1",
		SourceChatID:         -100,
		SourceMessageID:      10,
		DestinationChatID:    -200,
		DestinationMessageID: 77,
		ContentHash:          engine.ContentHash("старый текст"),
	}

	f.trackerStore.On("FindBySource", ctx, int64(-100), int64(10)).
		Return([]*models.TrackerEntry{entry}, nil)

	f.transport.On("Edit", ctx, int64(-200), int64(77), "новый текст").Return(nil)
	f.trackerStore.On("Upsert", ctx, entry).Return(nil)

	f.logStore.On("Append", ctx, mock.MatchedBy(func(logEntry *models.ForwardingLog) bool {
		return logEntry.Status == models.StatusUpdateSynced
	})).Return(nil)

	msg := newMessage("новый текст")
	msg.Event = models.EventEditedMessage

	f.pipeline.Process(ctx, msg)

	f.transport.AssertExpectations(t)
	f.trackerStore.AssertExpectations(t)
	assert.Equal(t, engine.ContentHash("новый текст"), entry.ContentHash)
}

func TestSessionPipeline_SyncEditUnchangedContentSkipped(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	f.configSource.On("MappingConfigs", ctx, "session-1").
		Return([]*models.MappingConfig{simpleConfig("mapping-1", -100, -200)}, nil)

	entry := &models.TrackerEntry{
		ID:              "entry-1",
		MappingID:       "mapping-1",
		SourceChatID:    -100,
		SourceMessageID: 10,
		ContentHash:     engine.ContentHash("тот же текст"),
	}

	f.trackerStore.On("FindBySource", ctx, int64(-100), int64(10)).
		Return([]*models.TrackerEntry{entry}, nil)

	msg := newMessage("тот же текст")
	msg.Event = models.EventEditedMessage

	f.pipeline.Process(ctx, msg)

	f.transport.AssertNotCalled(t, "Edit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionPipeline_SyncDelete(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	f.configSource.On("MappingConfigs", ctx, "session-1").
		Return([]*models.MappingConfig{simpleConfig("mapping-1", -100, -200)}, nil)

	entry := &models.TrackerEntry{
		ID:                   "entry-1",
		MappingID:            "mapping-1",
		SourceChatID:         -100,
		SourceMessageID:      10,
		DestinationChatID:    -200,
		DestinationMessageID: 77,
	}

	f.trackerStore.On("FindBySource", ctx, int64(-100), int64(10)).
		Return([]*models.TrackerEntry{entry}, nil)

	f.transport.On("Delete", ctx, int64(-200), int64(77)).Return(nil)
	f.trackerStore.On("MarkDeleted", ctx, "entry-1", mock.AnythingOfType("time.Time")).Return(nil)

	f.logStore.On("Append", ctx, mock.MatchedBy(func(logEntry *models.ForwardingLog) bool {
		return logEntry.Status == models.StatusDeleteSynced
	})).Return(nil)

	msg := newMessage("")
	msg.Event = models.EventDeletedMessage

	f.pipeline.Process(ctx, msg)

	f.transport.AssertExpectations(t)
	f.trackerStore.AssertExpectations(t)
}

func TestSessionPipeline_SyncSkipsDisabledMapping(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	cfg := simpleConfig("mapping-1", -100, -200)
	cfg.Mapping.SyncEnabled = false

	f.configSource.On("MappingConfigs", ctx, "session-1").Return([]*models.MappingConfig{cfg}, nil)

	f.trackerStore.On("FindBySource", ctx, int64(-100), int64(10)).
		Return([]*models.TrackerEntry{{ID: "entry-1", MappingID: "mapping-1", SourceChatID: -100, SourceMessageID: 10}}, nil)

	msg := newMessage("")
	msg.Event = models.EventDeletedMessage

	f.pipeline.Process(ctx, msg)

	f.transport.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionPipeline_ConfigCacheReused(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	f.configSource.On("MappingConfigs", ctx, "session-1").
		Return([]*models.MappingConfig{simpleConfig("mapping-1", -100, -200)}, nil).Once()

	f.transport.On("Send", ctx, int64(-200), mock.Anything, (*models.MediaRef)(nil)).Return(int64(1), nil)
	f.trackerStore.On("Upsert", ctx, mock.Anything).Return(nil)
	f.logStore.On("Append", ctx, mock.Anything).Return(nil)

	f.pipeline.Process(ctx, newMessage("первое"))
	f.pipeline.Process(ctx, newMessage("второе"))

	// Снимок конфигураций свежее периода устаревания, источник вызван один раз.
	f.configSource.AssertNumberOfCalls(t, "MappingConfigs", 1)
}

func TestSessionPipeline_TrackerSkippedWithoutSync(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	cfg := simpleConfig("mapping-1", -100, -200)
	cfg.Mapping.SyncEnabled = false

	f.configSource.On("MappingConfigs", ctx, "session-1").Return([]*models.MappingConfig{cfg}, nil)

	f.transport.On("Send", ctx, int64(-200), "привет", (*models.MediaRef)(nil)).Return(int64(77), nil)

	f.logStore.On("Append", ctx, mock.MatchedBy(func(entry *models.ForwardingLog) bool {
		return entry.Status == models.StatusSuccess
	})).Return(nil)

	f.pipeline.Process(ctx, newMessage("привет"))

	f.transport.AssertExpectations(t)
	// Без синхронизации связь с назначением не отслеживается.
	f.trackerStore.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSessionPipeline_DelayedSendDeliversAfterTimer(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	cfg := simpleConfig("mapping-1", -100, -200)
	cfg.Delay = models.DelayConfig{EnableDelay: true, DelaySeconds: 1}

	f.configSource.On("MappingConfigs", ctx, "session-1").Return([]*models.MappingConfig{cfg}, nil)

	delivered := make(chan struct{})

	f.transport.On("Send", mock.Anything, int64(-200), "с задержкой", (*models.MediaRef)(nil)).Return(int64(77), nil)
	f.trackerStore.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	f.logStore.On("Append", mock.Anything, mock.MatchedBy(func(entry *models.ForwardingLog) bool {
		return entry.Status == models.StatusDelayed
	})).Return(nil).Once()

	f.logStore.On("Append", mock.Anything, mock.MatchedBy(func(entry *models.ForwardingLog) bool {
		return entry.Status == models.StatusSuccess
	})).Return(nil).Once().Run(func(mock.Arguments) { close(delivered) })

	f.pipeline.Process(ctx, newMessage("с задержкой"))

	// Сразу после обработки отправки ещё нет, только запись о задержке.
	f.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	select {
	case <-delivered:
	case <-time.After(3 * time.Second):
		t.Fatal("отложенная отправка не выполнилась")
	}

	f.transport.AssertNumberOfCalls(t, "Send", 1)
	f.logStore.AssertExpectations(t)
}

func TestSessionPipeline_HoldNotifiesAdmins(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)
	ctx := context.Background()

	notifier := new(enginemocks.PendingNotifier)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := engine.NewSessionPipeline("session-1", "worker-1", models.TierPremium, engine.PipelineDeps{
		Transport:    f.transport,
		ConfigSource: f.configSource,
		LogStore:     f.logStore,
		PendingStore: f.pendingStore,
		Notifier:     notifier,
		Tracker:      engine.NewMessageTracker(f.trackerStore, logger),
		Limiter:      engine.NewRateLimiter(100, 1000),
		Staleness:    time.Minute,
		Logger:       logger,
	})

	cfg := simpleConfig("mapping-1", -100, -200)
	cfg.Delay = models.DelayConfig{EnableDelay: true, RequireApproval: true}

	f.configSource.On("MappingConfigs", ctx, "session-1").Return([]*models.MappingConfig{cfg}, nil)
	f.pendingStore.On("Create", ctx, mock.Anything).Return(nil)

	notifier.On("NotifyPendingMessage", ctx, mock.MatchedBy(func(pending *models.PendingMessage) bool {
		return pending.MappingID == "mapping-1" && pending.Status == models.PendingApproval
	})).Return(nil)

	f.logStore.On("Append", ctx, mock.Anything).Return(nil)

	pipeline.Process(ctx, newMessage("на одобрение"))

	notifier.AssertExpectations(t)
}

func TestSessionPipeline_RunStopsOnClosedChannel(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(models.TierPremium)

	messages := make(chan *models.RawMessage)
	close(messages)

	done := make(chan struct{})

	go func() {
		f.pipeline.Run(context.Background(), messages)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run не завершился после закрытия канала")
	}
}
