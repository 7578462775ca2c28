package pool

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/sunil55999/TelegramForwarderX/internal/common/metrics"
	"github.com/sunil55999/TelegramForwarderX/internal/config"
	customerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/engine"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/monitor"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/notify"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/repository"
)

type MessageSource interface {
	Subscribe(sessionID string) <-chan *models.RawMessage
	Unsubscribe(sessionID string)
}

// PipelineFactory собирает пайплайн для сессии, назначенной воркеру.
type PipelineFactory func(sessionID, workerID string, tier models.PriorityTier) *engine.SessionPipeline

// WorkerPool управляет жизненным циклом воркеров и распределением
// сессий между ними с учётом нагрузки и приоритетов.
type WorkerPool struct {
	workerRepo  repository.WorkerRepository
	sessionRepo repository.SessionRepository
	monitor     *monitor.ResourceMonitor
	notifier    notify.Notifier
	source      MessageSource
	newPipeline PipelineFactory
	cfg         *config.Config
	logger      *slog.Logger
	scheduler   *gocron.Scheduler

	mu         sync.Mutex
	workers    map[string]*runtimeWorker
	unassigned map[string]models.PriorityTier
	nextSeq    int64
	startedAt  time.Time

	baseCtx context.Context //nolint:containedctx // Фоновые горутины воркеров живут дольше вызовов API пула.
	cancel  context.CancelFunc
}

func NewWorkerPool(
	workerRepo repository.WorkerRepository,
	sessionRepo repository.SessionRepository,
	resourceMonitor *monitor.ResourceMonitor,
	notifier notify.Notifier,
	source MessageSource,
	newPipeline PipelineFactory,
	cfg *config.Config,
	logger *slog.Logger,
) *WorkerPool {
	return &WorkerPool{
		workerRepo:  workerRepo,
		sessionRepo: sessionRepo,
		monitor:     resourceMonitor,
		notifier:    notifier,
		source:      source,
		newPipeline: newPipeline,
		cfg:         cfg,
		logger:      logger,
		scheduler:   gocron.NewScheduler(time.UTC),
		workers:     make(map[string]*runtimeWorker),
		unassigned:  make(map[string]models.PriorityTier),
	}
}

// Start запускает фоновые задачи пула: контроль heartbeat,
// ребалансировку и очистку осиротевших назначений.
func (p *WorkerPool) Start(ctx context.Context) error {
	p.baseCtx, p.cancel = context.WithCancel(ctx)
	p.startedAt = time.Now()

	go p.monitor.Run(p.baseCtx)

	if _, err := p.scheduler.Every(p.cfg.MonitorInterval).Do(func() {
		p.checkHeartbeats(p.baseCtx)
	}); err != nil {
		return err
	}

	if _, err := p.scheduler.Every(p.cfg.RebalanceInterval).Do(func() {
		p.rebalance(p.baseCtx)
	}); err != nil {
		return err
	}

	if _, err := p.scheduler.Every(p.cfg.CleanupInterval).Do(func() {
		p.cleanupOrphans(p.baseCtx)
	}); err != nil {
		return err
	}

	p.scheduler.StartAsync()

	p.logger.Info("Пул воркеров запущен",
		"monitorInterval", p.cfg.MonitorInterval.String(),
		"rebalanceInterval", p.cfg.RebalanceInterval.String(),
	)

	return nil
}

func (p *WorkerPool) Stop() {
	p.scheduler.Stop()

	if p.cancel != nil {
		p.cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, w := range p.workers {
		if w.cancel != nil {
			w.cancel()
			w.cancel = nil
		}
	}

	p.logger.Info("Пул воркеров остановлен")
}

// Bootstrap восстанавливает воркеров и назначения из хранилища и
// автоматически запускает воркеров с включённым автостартом.
func (p *WorkerPool) Bootstrap(ctx context.Context) error {
	workers, err := p.workerRepo.FindAll(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	for _, worker := range workers {
		worker.Status = models.WorkerOffline
		p.nextSeq++
		p.workers[worker.ID] = &runtimeWorker{
			model:          worker,
			seq:            p.nextSeq,
			pipelines:      make(map[string]*pipelineHandle),
			pressurePaused: make(map[string]struct{}),
		}
	}
	p.mu.Unlock()

	assignments, err := p.sessionRepo.FindAll(ctx)
	if err != nil {
		return err
	}

	for _, worker := range workers {
		if !worker.Config.AutoStart {
			continue
		}

		if err := p.StartWorker(ctx, worker.ID); err != nil {
			p.logger.Error("Ошибка при автозапуске воркера",
				"error", err,
				"workerID", worker.ID,
			)
		}
	}

	for _, assignment := range assignments {
		p.mu.Lock()
		w, ok := p.workers[assignment.WorkerID]
		running := ok && w.model.Status == models.WorkerOnline
		p.mu.Unlock()

		if !running {
			continue
		}

		p.startPipeline(w, assignment.SessionID, assignment.Tier, assignment.AssignedAt)
	}

	p.logger.Info("Состояние пула восстановлено из хранилища",
		"workers", len(workers),
		"sessions", len(assignments),
	)

	return nil
}

func (p *WorkerPool) CreateWorker(ctx context.Context, name string, workerCfg models.WorkerConfig) (*models.Worker, error) {
	if workerCfg.MaxSessions <= 0 {
		workerCfg.MaxSessions = p.cfg.MaxSessionsPerWorker
	}

	worker := &models.Worker{
		ID:            uuid.New().String(),
		Name:          name,
		Status:        models.WorkerOffline,
		Config:        workerCfg,
		LastHeartbeat: time.Now(),
		CreatedAt:     time.Now(),
	}

	if err := p.workerRepo.Save(ctx, worker); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.nextSeq++
	p.workers[worker.ID] = &runtimeWorker{
		model:          worker,
		seq:            p.nextSeq,
		pipelines:      make(map[string]*pipelineHandle),
		pressurePaused: make(map[string]struct{}),
	}
	p.mu.Unlock()

	p.logger.Info("Воркер создан",
		"workerID", worker.ID,
		"name", name,
		"maxSessions", workerCfg.MaxSessions,
	)

	return worker, nil
}

func (p *WorkerPool) StartWorker(ctx context.Context, id string) error {
	p.mu.Lock()

	w, ok := p.workers[id]
	if !ok {
		p.mu.Unlock()
		return &customerrors.ErrWorkerNotFound{WorkerID: id}
	}

	if w.model.Status == models.WorkerOnline {
		p.mu.Unlock()
		return nil
	}

	w.model.Status = models.WorkerOnline
	w.model.LastHeartbeat = time.Now()
	w.startedAt = time.Now()

	workerCtx, cancel := context.WithCancel(p.baseCtx)
	w.cancel = cancel
	model := *w.model
	p.mu.Unlock()

	go p.runWorker(workerCtx, w)

	if err := p.workerRepo.Update(ctx, &model); err != nil {
		return err
	}

	p.logger.Info("Воркер запущен", "workerID", id)

	return nil
}

func (p *WorkerPool) StopWorker(ctx context.Context, id string) error {
	p.mu.Lock()

	w, ok := p.workers[id]
	if !ok {
		p.mu.Unlock()
		return &customerrors.ErrWorkerNotFound{WorkerID: id}
	}

	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}

	for sessionID, h := range w.pipelines {
		h.cancel()
		p.source.Unsubscribe(sessionID)
		delete(w.pipelines, sessionID)
	}

	w.model.Status = models.WorkerOffline
	model := *w.model
	p.mu.Unlock()

	if err := p.workerRepo.Update(ctx, &model); err != nil {
		return err
	}

	p.logger.Info("Воркер остановлен", "workerID", id)

	return nil
}

// AssignSession выбирает наименее загруженный воркер и закрепляет за
// ним сессию. Под давлением памяти хоста бесплатные сессии направляются
// на воркер со средней загрузкой, оставляя свободные — платным.
func (p *WorkerPool) AssignSession(ctx context.Context, sessionID string, tier models.PriorityTier) (string, error) {
	p.mu.Lock()

	for _, w := range p.workers {
		if _, ok := w.pipelines[sessionID]; ok {
			workerID := w.model.ID
			p.mu.Unlock()

			return "", &customerrors.ErrSessionAlreadyAssigned{SessionID: sessionID, WorkerID: workerID}
		}
	}

	w := p.selectWorker(tier)
	if w == nil {
		p.mu.Unlock()
		return "", &customerrors.ErrNoCapacity{SessionID: sessionID}
	}

	// Слот резервируется до записи в хранилище, иначе параллельное
	// назначение увидит свободную ёмкость и превысит лимит воркера.
	w.reserved++
	workerID := w.model.ID
	p.mu.Unlock()

	assignment := &models.SessionAssignment{
		SessionID:  sessionID,
		WorkerID:   workerID,
		Tier:       tier,
		AssignedAt: time.Now(),
	}

	if err := p.sessionRepo.Assign(ctx, assignment); err != nil {
		p.mu.Lock()
		w.reserved--
		p.mu.Unlock()

		return "", err
	}

	p.startPipeline(w, sessionID, tier, assignment.AssignedAt)

	metrics.ActiveSessionsGauge.Inc()

	p.logger.Info("Сессия назначена воркеру",
		"sessionID", sessionID,
		"workerID", workerID,
		"tier", tier,
	)

	return workerID, nil
}

func (p *WorkerPool) UnassignSession(ctx context.Context, sessionID string) error {
	p.mu.Lock()

	var owner *runtimeWorker

	for _, w := range p.workers {
		if _, ok := w.pipelines[sessionID]; ok {
			owner = w
			break
		}
	}

	if owner == nil {
		p.mu.Unlock()
		return &customerrors.ErrSessionNotAssigned{SessionID: sessionID}
	}

	h := owner.pipelines[sessionID]
	h.cancel()
	delete(owner.pipelines, sessionID)
	p.mu.Unlock()

	p.source.Unsubscribe(sessionID)

	if err := p.sessionRepo.Unassign(ctx, sessionID); err != nil {
		return err
	}

	metrics.ActiveSessionsGauge.Dec()

	p.logger.Info("Сессия снята с воркера",
		"sessionID", sessionID,
		"workerID", owner.model.ID,
	)

	return nil
}

func (p *WorkerPool) PauseSession(sessionID string) error {
	h := p.findHandle(sessionID)
	if h == nil {
		return &customerrors.ErrSessionNotAssigned{SessionID: sessionID}
	}

	h.pipeline.Pause()

	return nil
}

func (p *WorkerPool) ResumeSession(sessionID string) error {
	h := p.findHandle(sessionID)
	if h == nil {
		return &customerrors.ErrSessionNotAssigned{SessionID: sessionID}
	}

	h.pipeline.Resume()

	return nil
}

func (p *WorkerPool) findHandle(sessionID string) *pipelineHandle {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, w := range p.workers {
		if h, ok := w.pipelines[sessionID]; ok {
			return h
		}
	}

	return nil
}

// selectWorker выбирает онлайн-воркер со свободной ёмкостью и
// минимальными очками нагрузки. При равных очках побеждает созданный
// раньше. Вызывается под мьютексом пула.
func (p *WorkerPool) selectWorker(tier models.PriorityTier) *runtimeWorker {
	var candidates []*runtimeWorker

	for _, w := range p.workers {
		if w.model.Status == models.WorkerOnline && w.hasCapacity() {
			candidates = append(candidates, w)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		si, sj := candidates[i].loadScore(), candidates[j].loadScore()
		if si != sj {
			return si < sj
		}

		return candidates[i].seq < candidates[j].seq
	})

	if tier == models.TierFree && p.monitor.IsMemoryCritical() {
		idx := len(candidates) / 2
		if idx > len(candidates)-1 {
			idx = len(candidates) - 1
		}

		return candidates[idx]
	}

	return candidates[0]
}

func (p *WorkerPool) startPipeline(w *runtimeWorker, sessionID string, tier models.PriorityTier, assignedAt time.Time) {
	pipeline := p.newPipeline(sessionID, w.model.ID, tier)
	messages := p.source.Subscribe(sessionID)

	pipelineCtx, cancel := context.WithCancel(p.baseCtx)

	p.mu.Lock()
	if w.reserved > 0 {
		w.reserved--
	}

	w.pipelines[sessionID] = &pipelineHandle{
		pipeline: pipeline,
		cancel:   cancel,
		tier:     tier,
		assigned: assignedAt,
	}
	p.mu.Unlock()

	go pipeline.Run(pipelineCtx, messages)
}

// checkHeartbeats помечает воркеров с протухшим heartbeat как упавших,
// переносит их сессии и при включённом авторестарте перезапускает
// воркер после паузы.
func (p *WorkerPool) checkHeartbeats(ctx context.Context) {
	deadline := time.Now().Add(-p.cfg.HeartbeatTimeout)

	p.mu.Lock()

	var crashed []*runtimeWorker

	for _, w := range p.workers {
		if w.model.Status == models.WorkerOnline && w.model.LastHeartbeat.Before(deadline) {
			crashed = append(crashed, w)
		}
	}
	p.mu.Unlock()

	for _, w := range crashed {
		p.handleCrash(ctx, w)
	}
}

func (p *WorkerPool) handleCrash(ctx context.Context, w *runtimeWorker) {
	p.mu.Lock()

	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}

	w.model.Status = models.WorkerCrashed
	model := *w.model

	orphaned := make(map[string]*pipelineHandle, len(w.pipelines))
	for sessionID, h := range w.pipelines {
		h.cancel()
		orphaned[sessionID] = h
		delete(w.pipelines, sessionID)
	}
	p.mu.Unlock()

	metrics.RecordWorkerCrash()

	p.logger.Error("Воркер признан упавшим: heartbeat протух",
		"workerID", model.ID,
		"lastHeartbeat", model.LastHeartbeat,
	)

	if err := p.workerRepo.Update(ctx, &model); err != nil {
		p.logger.Error("Ошибка при сохранении статуса упавшего воркера",
			"error", err,
			"workerID", model.ID,
		)
	}

	migrated := 0

	for sessionID, h := range orphaned {
		p.source.Unsubscribe(sessionID)

		p.mu.Lock()
		target := p.selectWorker(h.tier)

		if target == nil {
			p.unassigned[sessionID] = h.tier
			p.mu.Unlock()

			p.logger.Error("Нет воркера для переноса сессии упавшего воркера: сессия в очереди ожидания",
				"sessionID", sessionID,
			)

			continue
		}

		target.reserved++
		p.mu.Unlock()

		if err := p.sessionRepo.Reassign(ctx, sessionID, target.model.ID); err != nil {
			p.mu.Lock()
			target.reserved--
			p.unassigned[sessionID] = h.tier
			p.mu.Unlock()

			p.logger.Error("Ошибка при переносе назначения сессии: сессия в очереди ожидания",
				"error", err,
				"sessionID", sessionID,
			)

			continue
		}

		p.startPipeline(target, sessionID, h.tier, time.Now())
		metrics.RecordSessionMigration()

		migrated++
	}

	if err := p.notifier.NotifyWorkerCrash(ctx, &model, migrated); err != nil {
		p.logger.Error("Ошибка при отправке оповещения о падении воркера",
			"error", err,
		)
	}

	if model.Config.AutoRestart {
		p.logger.Info("Запланирован перезапуск упавшего воркера",
			"workerID", model.ID,
			"backoff", p.cfg.RestartBackoff.String(),
		)

		time.AfterFunc(p.cfg.RestartBackoff, func() {
			if err := p.StartWorker(p.baseCtx, model.ID); err != nil {
				p.logger.Error("Ошибка при перезапуске воркера",
					"error", err,
					"workerID", model.ID,
				)
			}
		})
	}
}

// rebalance сначала пристраивает сессии из очереди ожидания, затем
// переносит сессии с самого загруженного воркера на самый свободный,
// пока разрыв загрузки превышает порог.
func (p *WorkerPool) rebalance(ctx context.Context) {
	p.placeUnassigned(ctx)

	for {
		p.mu.Lock()

		var online []*runtimeWorker

		for _, w := range p.workers {
			if w.model.Status == models.WorkerOnline {
				online = append(online, w)
			}
		}

		if len(online) < 2 {
			p.mu.Unlock()
			return
		}

		sort.Slice(online, func(i, j int) bool {
			ri, rj := online[i].loadRatio(), online[j].loadRatio()
			if ri != rj {
				return ri < rj
			}

			return online[i].seq < online[j].seq
		})

		least, most := online[0], online[len(online)-1]

		if most.loadRatio()-least.loadRatio() <= p.cfg.RebalanceThreshold ||
			!least.hasCapacity() || most.sessionCount() == 0 {
			p.mu.Unlock()
			return
		}

		var (
			sessionID string
			handle    *pipelineHandle
		)

		for id, h := range most.pipelines {
			if handle == nil || h.assigned.After(handle.assigned) {
				sessionID = id
				handle = h
			}
		}

		handle.cancel()
		delete(most.pipelines, sessionID)
		least.reserved++
		fromID, toID := most.model.ID, least.model.ID
		p.mu.Unlock()

		p.source.Unsubscribe(sessionID)

		if err := p.sessionRepo.Reassign(ctx, sessionID, toID); err != nil {
			p.mu.Lock()
			least.reserved--
			p.unassigned[sessionID] = handle.tier
			p.mu.Unlock()

			p.logger.Error("Ошибка при переносе назначения сессии: сессия в очереди ожидания",
				"error", err,
				"sessionID", sessionID,
			)

			return
		}

		p.startPipeline(least, sessionID, handle.tier, time.Now())
		metrics.RecordSessionMigration()

		p.logger.Info("Сессия перенесена при ребалансировке",
			"sessionID", sessionID,
			"from", fromID,
			"to", toID,
		)
	}
}

// placeUnassigned пристраивает сессии, оставшиеся без воркера после
// падений или неудачных переносов, как только появляется ёмкость.
func (p *WorkerPool) placeUnassigned(ctx context.Context) {
	p.mu.Lock()
	pending := make(map[string]models.PriorityTier, len(p.unassigned))

	for sessionID, tier := range p.unassigned {
		pending[sessionID] = tier
	}
	p.mu.Unlock()

	for sessionID, tier := range pending {
		p.mu.Lock()

		if _, ok := p.unassigned[sessionID]; !ok {
			p.mu.Unlock()
			continue
		}

		target := p.selectWorker(tier)
		if target == nil {
			p.mu.Unlock()
			continue
		}

		target.reserved++
		delete(p.unassigned, sessionID)
		targetID := target.model.ID
		p.mu.Unlock()

		if err := p.sessionRepo.Reassign(ctx, sessionID, targetID); err != nil {
			p.mu.Lock()
			target.reserved--
			p.unassigned[sessionID] = tier
			p.mu.Unlock()

			p.logger.Error("Ошибка при размещении сессии из очереди ожидания",
				"error", err,
				"sessionID", sessionID,
			)

			continue
		}

		p.startPipeline(target, sessionID, tier, time.Now())
		metrics.RecordSessionMigration()

		p.logger.Info("Сессия из очереди ожидания размещена на воркере",
			"sessionID", sessionID,
			"workerID", targetID,
		)
	}
}

func (p *WorkerPool) cleanupOrphans(ctx context.Context) {
	removed, err := p.sessionRepo.DeleteOrphaned(ctx)
	if err != nil {
		p.logger.Error("Ошибка при очистке осиротевших назначений",
			"error", err,
		)

		return
	}

	if removed > 0 {
		p.logger.Info("Осиротевшие назначения удалены",
			"count", removed,
		)
	}
}

func (p *WorkerPool) WorkerStats(id string) (*models.WorkerStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.workers[id]
	if !ok {
		return nil, &customerrors.ErrWorkerNotFound{WorkerID: id}
	}

	var uptime int64
	if w.model.Status == models.WorkerOnline {
		uptime = int64(time.Since(w.startedAt).Seconds())
	}

	return &models.WorkerStats{
		ID:                w.model.ID,
		Name:              w.model.Name,
		Status:            w.model.Status,
		ActiveSessions:    len(w.pipelines),
		MaxSessions:       w.model.Config.MaxSessions,
		CPUPercent:        w.model.CPUPercent,
		MemPercent:        w.model.MemPercent,
		MessagesProcessed: w.model.MessagesProcessed,
		UptimeSeconds:     uptime,
		LastHeartbeat:     w.model.LastHeartbeat,
	}, nil
}

func (p *WorkerPool) SystemStats() *models.SystemStats {
	snapshot := p.monitor.Snapshot()

	p.mu.Lock()
	defer p.mu.Unlock()

	stats := &models.SystemStats{
		TotalWorkers:   len(p.workers),
		HostCPUPercent: snapshot.CPUPercent,
		HostMemPercent: snapshot.MemPercent,
	}

	for _, w := range p.workers {
		if w.model.Status == models.WorkerOnline {
			stats.OnlineWorkers++
		}

		stats.TotalSessions += len(w.pipelines)
		stats.MessagesProcessed += w.model.MessagesProcessed
	}

	if elapsed := time.Since(p.startedAt).Seconds(); !p.startedAt.IsZero() && elapsed > 0 {
		stats.MessagesPerSecond = float64(stats.MessagesProcessed) / elapsed
	}

	return stats
}
