package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sunil55999/TelegramForwarderX/internal/common/metrics"
	domainerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
)

type Transport interface {
	Send(ctx context.Context, chatID int64, text string, media *models.MediaRef) (int64, error)
	Edit(ctx context.Context, chatID, messageID int64, text string) error
	Delete(ctx context.Context, chatID, messageID int64) error
}

type ConfigSource interface {
	MappingConfigs(ctx context.Context, sessionID string) ([]*models.MappingConfig, error)
}

type LogStore interface {
	Append(ctx context.Context, entry *models.ForwardingLog) error
}

type PendingStore interface {
	Create(ctx context.Context, pending *models.PendingMessage) error
}

// PendingNotifier сообщает администраторам о сообщении, ожидающем
// одобрения.
type PendingNotifier interface {
	NotifyPendingMessage(ctx context.Context, pending *models.PendingMessage) error
}

// SessionPipeline обрабатывает поток сообщений одной сессии: допуск по
// лимитам, фильтрация, редактирование, задержка или ожидание одобрения
// и отправка в назначения. Все сообщения сессии проходят через один
// пайплайн строго по порядку поступления.
type SessionPipeline struct {
	sessionID string
	workerID  string
	tier      models.PriorityTier

	transport    Transport
	configSource ConfigSource
	logStore     LogStore
	pendingStore PendingStore
	notifier     PendingNotifier
	tracker      *MessageTracker

	filter  *FilterChain
	editor  *EditPipeline
	gate    *ApprovalGate
	limiter *RateLimiter

	staleness time.Duration
	freeDelay time.Duration

	mu       sync.RWMutex
	configs  []*models.MappingConfig
	loadedAt time.Time

	paused    atomic.Bool
	processed atomic.Int64
	delayWG   sync.WaitGroup

	logger *slog.Logger
	now    func() time.Time
}

type PipelineDeps struct {
	Transport    Transport
	ConfigSource ConfigSource
	LogStore     LogStore
	PendingStore PendingStore
	Notifier     PendingNotifier
	Tracker      *MessageTracker
	Limiter      *RateLimiter
	Staleness    time.Duration
	FreeDelay    time.Duration
	Logger       *slog.Logger
}

func NewSessionPipeline(sessionID, workerID string, tier models.PriorityTier, deps PipelineDeps) *SessionPipeline {
	return &SessionPipeline{
		sessionID:    sessionID,
		workerID:     workerID,
		tier:         tier,
		transport:    deps.Transport,
		configSource: deps.ConfigSource,
		logStore:     deps.LogStore,
		pendingStore: deps.PendingStore,
		notifier:     deps.Notifier,
		tracker:      deps.Tracker,
		filter:       NewFilterChain(),
		editor:       NewEditPipeline(deps.Logger),
		gate:         NewApprovalGate(),
		limiter:      deps.Limiter,
		staleness:    deps.Staleness,
		freeDelay:    deps.FreeDelay,
		logger:       deps.Logger,
		now:          time.Now,
	}
}

func (p *SessionPipeline) SessionID() string { return p.sessionID }

// Processed возвращает число обработанных маппингом исходов с момента
// запуска пайплайна.
func (p *SessionPipeline) Processed() int64 { return p.processed.Load() }

func (p *SessionPipeline) Pause() {
	if p.paused.CompareAndSwap(false, true) {
		p.logger.Info("Пайплайн сессии приостановлен", "sessionID", p.sessionID)
	}
}

func (p *SessionPipeline) Resume() {
	if p.paused.CompareAndSwap(true, false) {
		p.logger.Info("Пайплайн сессии возобновлён", "sessionID", p.sessionID)
	}
}

func (p *SessionPipeline) Paused() bool { return p.paused.Load() }

// Run читает сообщения сессии до закрытия канала или отмены контекста.
func (p *SessionPipeline) Run(ctx context.Context, messages <-chan *models.RawMessage) {
	for {
		select {
		case <-ctx.Done():
			p.delayWG.Wait()
			return
		case msg, ok := <-messages:
			if !ok {
				p.delayWG.Wait()
				return
			}

			p.Process(ctx, msg)
		}
	}
}

func (p *SessionPipeline) Process(ctx context.Context, msg *models.RawMessage) {
	if p.paused.Load() {
		p.logger.Debug("Сообщение пропущено: сессия приостановлена",
			"sessionID", p.sessionID, "messageID", msg.MessageID)
		return
	}

	switch msg.Event {
	case models.EventEditedMessage:
		p.syncEdit(ctx, msg)
		return
	case models.EventDeletedMessage:
		p.syncDelete(ctx, msg)
		return
	case models.EventNewMessage:
	}

	if !p.limiter.Allow(p.sessionID) {
		metrics.RecordRateLimited()
		p.logger.Debug("Сообщение отброшено лимитером",
			"sessionID", p.sessionID, "messageID", msg.MessageID)

		return
	}

	configs, err := p.mappingConfigs(ctx)
	if err != nil {
		p.logger.Error("Ошибка при загрузке конфигураций маппингов",
			"error", err, "sessionID", p.sessionID)
		return
	}

	for _, cfg := range configs {
		if !cfg.Mapping.Active || cfg.Mapping.SourceChatID != msg.SourceChatID {
			continue
		}

		p.processMapping(ctx, msg, cfg)
	}
}

func (p *SessionPipeline) processMapping(ctx context.Context, msg *models.RawMessage, cfg *models.MappingConfig) {
	started := p.now()

	if result := p.filter.Evaluate(msg, &cfg.Filter); !result.Passed {
		p.finish(ctx, msg, cfg, started, &models.Outcome{
			Status:       models.StatusFiltered,
			FilterReason: result.Reason,
		})

		return
	}

	processed := p.editor.Apply(msg.Text, &cfg.Edit)

	switch decision := p.gate.Decide(&cfg.Delay); decision.Action {
	case ActionHold:
		p.hold(ctx, msg, cfg, started, processed)
	case ActionDelay:
		p.scheduleDelayed(ctx, msg, cfg, processed, decision.SendAfter)
		p.finish(ctx, msg, cfg, started, &models.Outcome{
			Status:        models.StatusDelayed,
			ProcessedText: processed,
			SendAfter:     decision.SendAfter,
		})
	case ActionForward:
		if p.tier == models.TierFree && p.freeDelay > 0 {
			if !sleepCtx(ctx, p.freeDelay) {
				return
			}
		}

		outcome := p.deliver(ctx, msg, cfg, processed)
		p.finish(ctx, msg, cfg, started, outcome)
	}
}

// deliver отправляет обработанный текст в назначение и записывает связь
// в трекер для последующей синхронизации правок и удалений.
func (p *SessionPipeline) deliver(ctx context.Context, msg *models.RawMessage, cfg *models.MappingConfig, processed string) *models.Outcome {
	destMessageID, err := p.transport.Send(ctx, cfg.Mapping.DestinationChatID, processed, msg.Media)
	if err != nil {
		p.logger.Error("Ошибка при отправке сообщения",
			"error", err,
			"sessionID", p.sessionID,
			"mappingID", cfg.Mapping.ID,
			"destinationChatID", cfg.Mapping.DestinationChatID,
		)

		sendErr := &domainerrors.ErrTransportSend{DestinationChatID: cfg.Mapping.DestinationChatID, Cause: err}

		return &models.Outcome{
			Status:        models.StatusError,
			ProcessedText: processed,
			ErrorMessage:  sendErr.Error(),
		}
	}

	// Трекер нужен только маппингам с синхронизацией правок и удалений.
	if cfg.Mapping.SyncEnabled {
		if err := p.tracker.Record(ctx, cfg.Mapping.ID, msg, cfg.Mapping.DestinationChatID, destMessageID, processed); err != nil {
			p.logger.Error("Ошибка при записи в трекер сообщений", "error", err, "sessionID", p.sessionID)
		}
	}

	return &models.Outcome{
		Status:        models.StatusSuccess,
		ProcessedText: processed,
	}
}

func (p *SessionPipeline) hold(ctx context.Context, msg *models.RawMessage, cfg *models.MappingConfig, started time.Time, processed string) {
	pending := &models.PendingMessage{
		ID:            uuid.New().String(),
		MappingID:     cfg.Mapping.ID,
		SessionID:     p.sessionID,
		SourceChatID:  msg.SourceChatID,
		MessageID:     msg.MessageID,
		OriginalText:  msg.Text,
		ProcessedText: processed,
		Status:        models.PendingApproval,
		CreatedAt:     p.now(),
	}

	if msg.Media != nil {
		pending.MediaType = msg.Media.Type
	}

	if err := p.pendingStore.Create(ctx, pending); err != nil {
		p.logger.Error("Ошибка при создании отложенного сообщения",
			"error", err, "sessionID", p.sessionID, "mappingID", cfg.Mapping.ID)
		p.finish(ctx, msg, cfg, started, &models.Outcome{
			Status:        models.StatusError,
			ProcessedText: processed,
			ErrorMessage:  err.Error(),
		})

		return
	}

	if p.notifier != nil {
		if err := p.notifier.NotifyPendingMessage(ctx, pending); err != nil {
			p.logger.Error("Ошибка при оповещении о сообщении на одобрении",
				"error", err, "sessionID", p.sessionID, "pendingID", pending.ID)
		}
	}

	p.finish(ctx, msg, cfg, started, &models.Outcome{
		Status:        models.StatusAwaitingApproval,
		ProcessedText: processed,
		PendingID:     pending.ID,
	})
}

func (p *SessionPipeline) scheduleDelayed(ctx context.Context, msg *models.RawMessage, cfg *models.MappingConfig, processed string, sendAfter time.Time) {
	p.delayWG.Add(1)

	go func() {
		defer p.delayWG.Done()

		if !sleepCtx(ctx, time.Until(sendAfter)) {
			return
		}

		outcome := p.deliver(ctx, msg, cfg, processed)
		p.appendLog(ctx, msg, cfg, outcome, 0)
	}()
}

// syncEdit переносит правку оригинала во все назначения, где маппинг
// включает синхронизацию и содержимое действительно изменилось.
func (p *SessionPipeline) syncEdit(ctx context.Context, msg *models.RawMessage) {
	for _, tracked := range p.findTracked(ctx, msg) {
		processed := p.editor.Apply(msg.Text, &tracked.cfg.Edit)
		if !p.tracker.NeedsSync(tracked.entry, processed) {
			continue
		}

		started := p.now()

		if err := p.transport.Edit(ctx, tracked.entry.DestinationChatID, tracked.entry.DestinationMessageID, processed); err != nil {
			p.logger.Error("Ошибка при синхронизации правки",
				"error", err, "sessionID", p.sessionID, "mappingID", tracked.entry.MappingID)
			p.finish(ctx, msg, tracked.cfg, started, &models.Outcome{
				Status:       models.StatusError,
				ErrorMessage: err.Error(),
			})

			continue
		}

		if err := p.tracker.UpdateContent(ctx, tracked.entry, processed); err != nil {
			p.logger.Error("Ошибка при обновлении трекера после правки", "error", err, "sessionID", p.sessionID)
		}

		p.finish(ctx, msg, tracked.cfg, started, &models.Outcome{
			Status:        models.StatusUpdateSynced,
			ProcessedText: processed,
		})
	}
}

func (p *SessionPipeline) syncDelete(ctx context.Context, msg *models.RawMessage) {
	for _, tracked := range p.findTracked(ctx, msg) {
		started := p.now()

		if err := p.transport.Delete(ctx, tracked.entry.DestinationChatID, tracked.entry.DestinationMessageID); err != nil {
			p.logger.Error("Ошибка при синхронизации удаления",
				"error", err, "sessionID", p.sessionID, "mappingID", tracked.entry.MappingID)
			p.finish(ctx, msg, tracked.cfg, started, &models.Outcome{
				Status:       models.StatusError,
				ErrorMessage: err.Error(),
			})

			continue
		}

		if err := p.tracker.MarkDeleted(ctx, tracked.entry); err != nil {
			p.logger.Error("Ошибка при пометке записи трекера", "error", err, "sessionID", p.sessionID)
		}

		p.finish(ctx, msg, tracked.cfg, started, &models.Outcome{Status: models.StatusDeleteSynced})
	}
}

type trackedMapping struct {
	entry *models.TrackerEntry
	cfg   *models.MappingConfig
}

func (p *SessionPipeline) findTracked(ctx context.Context, msg *models.RawMessage) []trackedMapping {
	entries, err := p.tracker.FindBySource(ctx, msg.SourceChatID, msg.MessageID)
	if err != nil {
		if !errors.Is(err, &domainerrors.ErrTrackerEntryNotFound{}) {
			p.logger.Error("Ошибка при поиске в трекере сообщений", "error", err, "sessionID", p.sessionID)
		}

		return nil
	}

	configs, err := p.mappingConfigs(ctx)
	if err != nil {
		p.logger.Error("Ошибка при загрузке конфигураций маппингов", "error", err, "sessionID", p.sessionID)
		return nil
	}

	byID := make(map[string]*models.MappingConfig, len(configs))
	for _, cfg := range configs {
		byID[cfg.Mapping.ID] = cfg
	}

	var tracked []trackedMapping

	for _, entry := range entries {
		if entry.DeletedAt != nil {
			continue
		}

		cfg, ok := byID[entry.MappingID]
		if !ok || !cfg.Mapping.SyncEnabled {
			continue
		}

		tracked = append(tracked, trackedMapping{entry: entry, cfg: cfg})
	}

	return tracked
}

func (p *SessionPipeline) finish(ctx context.Context, msg *models.RawMessage, cfg *models.MappingConfig, started time.Time, outcome *models.Outcome) {
	outcome.ProcessingTime = p.now().Sub(started)
	p.processed.Add(1)
	metrics.RecordMessageProcessed(string(outcome.Status), outcome.ProcessingTime)
	p.appendLog(ctx, msg, cfg, outcome, outcome.ProcessingTime)
}

func (p *SessionPipeline) appendLog(ctx context.Context, msg *models.RawMessage, cfg *models.MappingConfig, outcome *models.Outcome, took time.Duration) {
	entry := &models.ForwardingLog{
		MappingID:        cfg.Mapping.ID,
		SessionID:        p.sessionID,
		WorkerID:         p.workerID,
		MessageID:        msg.MessageID,
		MessageType:      msg.Type,
		OriginalText:     msg.Text,
		ProcessedText:    outcome.ProcessedText,
		Status:           outcome.Status,
		FilterReason:     outcome.FilterReason,
		ErrorMessage:     outcome.ErrorMessage,
		ProcessingTimeMs: took.Milliseconds(),
		CreatedAt:        p.now(),
	}

	if err := p.logStore.Append(ctx, entry); err != nil {
		p.logger.Error("Ошибка при записи журнала пересылки",
			"error", err, "sessionID", p.sessionID, "mappingID", cfg.Mapping.ID)
	}
}

// mappingConfigs возвращает кэшированный снимок конфигураций и
// перечитывает его из источника не чаще периода устаревания.
func (p *SessionPipeline) mappingConfigs(ctx context.Context) ([]*models.MappingConfig, error) {
	p.mu.RLock()
	fresh := p.configs != nil && p.now().Sub(p.loadedAt) < p.staleness
	configs := p.configs
	p.mu.RUnlock()

	if fresh {
		return configs, nil
	}

	loaded, err := p.configSource.MappingConfigs(ctx, p.sessionID)
	if err != nil {
		if configs != nil {
			p.logger.Warn("Не удалось обновить конфигурации, используется устаревший снимок",
				"error", err, "sessionID", p.sessionID)
			return configs, nil
		}

		return nil, err
	}

	p.mu.Lock()
	p.configs = loaded
	p.loadedAt = p.now()
	p.mu.Unlock()

	return loaded, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
