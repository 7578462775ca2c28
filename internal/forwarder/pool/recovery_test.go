package pool

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sunil55999/TelegramForwarderX/internal/config"
	customerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/engine"
	enginemocks "github.com/sunil55999/TelegramForwarderX/internal/forwarder/engine/mocks"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/monitor"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/notify"
	poolmocks "github.com/sunil55999/TelegramForwarderX/internal/forwarder/pool/mocks"
	repomocks "github.com/sunil55999/TelegramForwarderX/internal/forwarder/repository/mocks"
)

type stubSampler struct{}

func (stubSampler) Sample(context.Context) (*models.ResourceSnapshot, error) {
	return &models.ResourceSnapshot{CPUPercent: 10, MemPercent: 50, SampledAt: time.Now()}, nil
}

// newRecoveryPool собирает пул с длинными интервалами фоновых задач:
// восстановление и ребалансировка вызываются в тестах напрямую.
func newRecoveryPool(t *testing.T, cfg *config.Config) (*WorkerPool, *repomocks.SessionRepository, *poolmocks.MessageSource) {
	t.Helper()

	workerRepo := new(repomocks.WorkerRepository)
	sessionRepo := new(repomocks.SessionRepository)
	source := new(poolmocks.MessageSource)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	messages := make(chan *models.RawMessage)
	t.Cleanup(func() { close(messages) })

	source.On("Subscribe", mock.Anything).Return((<-chan *models.RawMessage)(messages)).Maybe()
	source.On("Unsubscribe", mock.Anything).Maybe()
	workerRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Maybe()
	workerRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Maybe()
	sessionRepo.On("DeleteOrphaned", mock.Anything).Return(int64(0), nil).Maybe()

	newPipeline := func(sessionID, workerID string, tier models.PriorityTier) *engine.SessionPipeline {
		transport := new(enginemocks.Transport)
		transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(int64(1), nil).Maybe()

		configSource := new(enginemocks.ConfigSource)
		configSource.On("MappingConfigs", mock.Anything, mock.Anything).
			Return([]*models.MappingConfig{{
				Mapping: models.Mapping{
					ID:                "mapping-1",
					SessionID:         sessionID,
					SourceChatID:      -100,
					DestinationChatID: -200,
					Active:            true,
				},
				LoadedAt: time.Now(),
			}}, nil).Maybe()

		logStore := new(enginemocks.LogStore)
		logStore.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()

		return engine.NewSessionPipeline(sessionID, workerID, tier, engine.PipelineDeps{
			Transport:    transport,
			ConfigSource: configSource,
			LogStore:     logStore,
			PendingStore: new(enginemocks.PendingStore),
			Tracker:      engine.NewMessageTracker(new(enginemocks.TrackerStore), logger),
			Limiter:      engine.NewRateLimiter(100, 1000),
			Staleness:    time.Minute,
			Logger:       logger,
		})
	}

	resourceMonitor := monitor.NewResourceMonitor(stubSampler{}, time.Hour, cfg.HostMemoryThreshold, logger)

	p := NewWorkerPool(workerRepo, sessionRepo, resourceMonitor, notify.NopNotifier{}, source, newPipeline, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, p.Start(ctx))
	t.Cleanup(func() {
		p.Stop()
		cancel()
	})

	return p, sessionRepo, source
}

func recoveryConfig() *config.Config {
	return &config.Config{
		MaxSessionsPerWorker:  10,
		HeartbeatTimeout:      3 * time.Minute,
		MonitorInterval:       time.Hour,
		RebalanceInterval:     time.Hour,
		RebalanceThreshold:    0.2,
		CleanupInterval:       time.Hour,
		RestartBackoff:        20 * time.Millisecond,
		WorkerTickInterval:    time.Hour,
		HostMemoryThreshold:   80,
		WorkerMemoryThreshold: 75,
		PressurePauseCount:    2,
	}
}

func TestCheckHeartbeats_MigratesSessionsAndRestarts(t *testing.T) {
	t.Parallel()

	p, sessionRepo, _ := newRecoveryPool(t, recoveryConfig())
	ctx := context.Background()

	crashing, err := p.CreateWorker(ctx, "crashing", models.WorkerConfig{MaxSessions: 10, AutoRestart: true})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, crashing.ID))

	backup, err := p.CreateWorker(ctx, "backup", models.WorkerConfig{MaxSessions: 10})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, backup.ID))

	sessionRepo.On("Assign", mock.Anything, mock.Anything).Return(nil)
	sessionRepo.On("Reassign", mock.Anything, "session-1", backup.ID).Return(nil)

	assigned, err := p.AssignSession(ctx, "session-1", models.TierPremium)
	require.NoError(t, err)
	require.Equal(t, crashing.ID, assigned)

	// Heartbeat воркера протух, следующая проверка признаёт его упавшим.
	p.mu.Lock()
	p.workers[crashing.ID].model.LastHeartbeat = time.Now().Add(-10 * time.Minute)
	p.mu.Unlock()

	p.checkHeartbeats(ctx)

	sessionRepo.AssertCalled(t, "Reassign", mock.Anything, "session-1", backup.ID)

	backupStats, err := p.WorkerStats(backup.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, backupStats.ActiveSessions)

	require.Eventually(t, func() bool {
		stats, statsErr := p.WorkerStats(crashing.ID)
		return statsErr == nil && stats.Status == models.WorkerOnline
	}, 2*time.Second, 10*time.Millisecond, "авторестарт должен вернуть воркер в строй")
}

func TestCheckHeartbeats_NoRestartWithoutAutoRestart(t *testing.T) {
	t.Parallel()

	p, _, _ := newRecoveryPool(t, recoveryConfig())
	ctx := context.Background()

	worker, err := p.CreateWorker(ctx, "manual", models.WorkerConfig{MaxSessions: 10, AutoRestart: false})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, worker.ID))

	p.mu.Lock()
	p.workers[worker.ID].model.LastHeartbeat = time.Now().Add(-10 * time.Minute)
	p.mu.Unlock()

	p.checkHeartbeats(ctx)

	stats, err := p.WorkerStats(worker.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkerCrashed, stats.Status)

	time.Sleep(100 * time.Millisecond)

	stats, err = p.WorkerStats(worker.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkerCrashed, stats.Status, "без авторестарта воркер остаётся упавшим")
}

func TestRebalance_EvensOutLoad(t *testing.T) {
	t.Parallel()

	p, sessionRepo, _ := newRecoveryPool(t, recoveryConfig())
	ctx := context.Background()

	loaded, err := p.CreateWorker(ctx, "loaded", models.WorkerConfig{MaxSessions: 4})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, loaded.ID))

	sessionRepo.On("Assign", mock.Anything, mock.Anything).Return(nil)

	for _, sessionID := range []string{"s1", "s2", "s3", "s4"} {
		_, assignErr := p.AssignSession(ctx, sessionID, models.TierPremium)
		require.NoError(t, assignErr)
	}

	idle, err := p.CreateWorker(ctx, "idle", models.WorkerConfig{MaxSessions: 4})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, idle.ID))

	sessionRepo.On("Reassign", mock.Anything, mock.Anything, idle.ID).Return(nil)

	// Разрыв 4/4 против 0/4 выравнивается до 2/4 против 2/4.
	p.rebalance(ctx)

	loadedStats, err := p.WorkerStats(loaded.ID)
	require.NoError(t, err)
	idleStats, err := p.WorkerStats(idle.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, loadedStats.ActiveSessions)
	assert.Equal(t, 2, idleStats.ActiveSessions)
}

func TestRebalance_BelowThresholdUntouched(t *testing.T) {
	t.Parallel()

	p, sessionRepo, _ := newRecoveryPool(t, recoveryConfig())
	ctx := context.Background()

	w1, err := p.CreateWorker(ctx, "w1", models.WorkerConfig{MaxSessions: 10})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, w1.ID))

	w2, err := p.CreateWorker(ctx, "w2", models.WorkerConfig{MaxSessions: 10})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, w2.ID))

	sessionRepo.On("Assign", mock.Anything, mock.Anything).Return(nil)

	// По одной сессии на воркера: разрыв нулевой.
	_, err = p.AssignSession(ctx, "s1", models.TierPremium)
	require.NoError(t, err)
	_, err = p.AssignSession(ctx, "s2", models.TierPremium)
	require.NoError(t, err)

	p.rebalance(ctx)

	sessionRepo.AssertNotCalled(t, "Reassign", mock.Anything, mock.Anything, mock.Anything)
}

func TestRelieveWorkerPressure_PausesNewestFreeSessions(t *testing.T) {
	t.Parallel()

	p, sessionRepo, _ := newRecoveryPool(t, recoveryConfig())
	ctx := context.Background()

	worker, err := p.CreateWorker(ctx, "w1", models.WorkerConfig{MaxSessions: 10})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, worker.ID))

	sessionRepo.On("Assign", mock.Anything, mock.Anything).Return(nil)

	for _, sessionID := range []string{"free-1", "free-2", "free-3"} {
		_, assignErr := p.AssignSession(ctx, sessionID, models.TierFree)
		require.NoError(t, assignErr)

		time.Sleep(time.Millisecond)
	}

	_, err = p.AssignSession(ctx, "premium-1", models.TierPremium)
	require.NoError(t, err)

	p.mu.Lock()
	w := p.workers[worker.ID]
	p.mu.Unlock()

	p.relieveWorkerPressure(ctx, w, models.ResourceSnapshot{MemPercent: 90})

	paused := 0

	p.mu.Lock()
	for _, h := range w.pipelines {
		if h.pipeline.Paused() {
			paused++

			assert.Equal(t, models.TierFree, h.tier, "платные сессии не приостанавливаются")
		}
	}
	p.mu.Unlock()

	assert.Equal(t, 2, paused, "приостанавливается не больше настроенного числа сессий")
}

func TestWorkerTick_ResumesSessionsAfterPressureDrops(t *testing.T) {
	t.Parallel()

	p, sessionRepo, _ := newRecoveryPool(t, recoveryConfig())
	ctx := context.Background()

	worker, err := p.CreateWorker(ctx, "w1", models.WorkerConfig{MaxSessions: 10})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, worker.ID))

	sessionRepo.On("Assign", mock.Anything, mock.Anything).Return(nil)

	for _, sessionID := range []string{"free-1", "free-2", "free-3"} {
		_, assignErr := p.AssignSession(ctx, sessionID, models.TierFree)
		require.NoError(t, assignErr)

		time.Sleep(time.Millisecond)
	}

	p.mu.Lock()
	w := p.workers[worker.ID]
	p.mu.Unlock()

	p.relieveWorkerPressure(ctx, w, models.ResourceSnapshot{MemPercent: 90})

	// Оператор вручную приостанавливает самую старую сессию: давление
	// её не трогало, и снятие давления её тоже не касается.
	require.NoError(t, p.PauseSession("free-1"))

	// Снимок монитора ниже порога, тик возвращает сессии в работу.
	p.workerTick(ctx, w)

	p.mu.Lock()
	operatorPaused := w.pipelines["free-1"].pipeline.Paused()
	stillPaused := 0

	for _, sessionID := range []string{"free-2", "free-3"} {
		if w.pipelines[sessionID].pipeline.Paused() {
			stillPaused++
		}
	}
	p.mu.Unlock()

	assert.Zero(t, stillPaused, "паузы давления снимаются, когда память вернулась в норму")
	assert.True(t, operatorPaused, "ручная пауза оператора сохраняется")
}

func TestCheckHeartbeats_QueuesSessionsWithoutCapacity(t *testing.T) {
	t.Parallel()

	p, sessionRepo, _ := newRecoveryPool(t, recoveryConfig())
	ctx := context.Background()

	crashing, err := p.CreateWorker(ctx, "crashing", models.WorkerConfig{MaxSessions: 10})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, crashing.ID))

	sessionRepo.On("Assign", mock.Anything, mock.Anything).Return(nil)

	_, err = p.AssignSession(ctx, "s1", models.TierPremium)
	require.NoError(t, err)

	p.mu.Lock()
	p.workers[crashing.ID].model.LastHeartbeat = time.Now().Add(-10 * time.Minute)
	p.mu.Unlock()

	// Переносить некуда: единственный воркер и упал.
	p.checkHeartbeats(ctx)

	sessionRepo.AssertNotCalled(t, "Reassign", mock.Anything, mock.Anything, mock.Anything)

	fresh, err := p.CreateWorker(ctx, "fresh", models.WorkerConfig{MaxSessions: 10})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, fresh.ID))

	sessionRepo.On("Reassign", mock.Anything, "s1", fresh.ID).Return(nil)

	// Очередь ожидания разбирается на следующей ребалансировке.
	p.rebalance(ctx)

	sessionRepo.AssertCalled(t, "Reassign", mock.Anything, "s1", fresh.ID)

	stats, err := p.WorkerStats(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveSessions)
}

func TestCheckHeartbeats_RequeuesSessionOnReassignError(t *testing.T) {
	t.Parallel()

	p, sessionRepo, _ := newRecoveryPool(t, recoveryConfig())
	ctx := context.Background()

	crashing, err := p.CreateWorker(ctx, "crashing", models.WorkerConfig{MaxSessions: 10})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, crashing.ID))

	backup, err := p.CreateWorker(ctx, "backup", models.WorkerConfig{MaxSessions: 10})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, backup.ID))

	sessionRepo.On("Assign", mock.Anything, mock.Anything).Return(nil)
	sessionRepo.On("Reassign", mock.Anything, "s1", backup.ID).Return(assert.AnError).Once()
	sessionRepo.On("Reassign", mock.Anything, "s1", backup.ID).Return(nil).Once()

	assigned, err := p.AssignSession(ctx, "s1", models.TierPremium)
	require.NoError(t, err)
	require.Equal(t, crashing.ID, assigned)

	p.mu.Lock()
	p.workers[crashing.ID].model.LastHeartbeat = time.Now().Add(-10 * time.Minute)
	p.mu.Unlock()

	// Первый перенос падает на записи в хранилище, сессия не теряется.
	p.checkHeartbeats(ctx)

	stats, err := p.WorkerStats(backup.ID)
	require.NoError(t, err)
	require.Zero(t, stats.ActiveSessions)

	p.rebalance(ctx)

	stats, err = p.WorkerStats(backup.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveSessions)
}

func TestAssignSession_ConcurrentAssignsRespectCapacity(t *testing.T) {
	t.Parallel()

	p, sessionRepo, _ := newRecoveryPool(t, recoveryConfig())
	ctx := context.Background()

	worker, err := p.CreateWorker(ctx, "single", models.WorkerConfig{MaxSessions: 1})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, worker.ID))

	entered := make(chan struct{})
	release := make(chan struct{})

	sessionRepo.On("Assign", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(nil).
		Once()

	firstErr := make(chan error, 1)

	go func() {
		_, assignErr := p.AssignSession(ctx, "s1", models.TierPremium)
		firstErr <- assignErr
	}()

	<-entered

	// Первое назначение ещё пишется в хранилище, но слот уже занят.
	_, err = p.AssignSession(ctx, "s2", models.TierPremium)
	assert.IsType(t, &customerrors.ErrNoCapacity{}, err)

	close(release)
	require.NoError(t, <-firstErr)

	stats, err := p.WorkerStats(worker.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveSessions)
}

func TestWorkerTick_AggregatesProcessedMessages(t *testing.T) {
	t.Parallel()

	p, sessionRepo, _ := newRecoveryPool(t, recoveryConfig())
	ctx := context.Background()

	worker, err := p.CreateWorker(ctx, "w1", models.WorkerConfig{MaxSessions: 10})
	require.NoError(t, err)
	require.NoError(t, p.StartWorker(ctx, worker.ID))

	sessionRepo.On("Assign", mock.Anything, mock.Anything).Return(nil)

	_, err = p.AssignSession(ctx, "s1", models.TierPremium)
	require.NoError(t, err)

	p.mu.Lock()
	w := p.workers[worker.ID]
	h := w.pipelines["s1"]
	p.mu.Unlock()

	h.pipeline.Process(ctx, &models.RawMessage{
		SessionID:    "s1",
		SourceChatID: -100,
		MessageID:    1,
		Text:         "привет",
		Type:         "text",
		Event:        models.EventNewMessage,
		ReceivedAt:   time.Now(),
	})

	p.workerTick(ctx, w)

	stats, err := p.WorkerStats(worker.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.MessagesProcessed)

	system := p.SystemStats()
	assert.EqualValues(t, 1, system.MessagesProcessed)
	assert.Greater(t, system.MessagesPerSecond, 0.0)

	// Повторный тик без новых сообщений не удваивает счётчик.
	p.workerTick(ctx, w)

	stats, err = p.WorkerStats(worker.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.MessagesProcessed)
}
