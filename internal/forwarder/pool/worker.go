package pool

import (
	"context"
	"sort"
	"time"

	"github.com/sunil55999/TelegramForwarderX/internal/common/metrics"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/engine"
)

type pipelineHandle struct {
	pipeline      *engine.SessionPipeline
	cancel        context.CancelFunc
	tier          models.PriorityTier
	assigned      time.Time
	lastProcessed int64
}

// runtimeWorker хранит живое состояние воркера: его пайплайны и
// порядковый номер создания, используемый при равных очках нагрузки.
// reserved считает слоты, выданные между выбором воркера и запуском
// пайплайна, чтобы параллельные назначения не превышали лимит.
type runtimeWorker struct {
	model          *models.Worker
	seq            int64
	cancel         context.CancelFunc
	pipelines      map[string]*pipelineHandle
	reserved       int
	pressurePaused map[string]struct{}
	startedAt      time.Time
}

func (w *runtimeWorker) sessionCount() int {
	return len(w.pipelines)
}

func (w *runtimeWorker) hasCapacity() bool {
	return len(w.pipelines)+w.reserved < w.model.Config.MaxSessions
}

// loadScore оценивает занятость воркера: заполненность по сессиям
// весит вдвое больше, чем потребление ресурсов.
func (w *runtimeWorker) loadScore() float64 {
	if w.model.Config.MaxSessions <= 0 {
		return 100
	}

	sessionScore := float64(len(w.pipelines)) / float64(w.model.Config.MaxSessions) * 100
	resourceScore := (w.model.CPUPercent + w.model.MemPercent) / 200 * 50

	return sessionScore + resourceScore
}

func (w *runtimeWorker) loadRatio() float64 {
	if w.model.Config.MaxSessions <= 0 {
		return 1
	}

	return float64(len(w.pipelines)) / float64(w.model.Config.MaxSessions)
}

// freeSessions возвращает бесплатные сессии воркера, самые свежие
// назначения первыми: их приостановка наименее болезненна.
func (w *runtimeWorker) freeSessions() []*pipelineHandle {
	var handles []*pipelineHandle

	for _, h := range w.pipelines {
		if h.tier == models.TierFree {
			handles = append(handles, h)
		}
	}

	sort.Slice(handles, func(i, j int) bool {
		return handles[i].assigned.After(handles[j].assigned)
	})

	return handles
}

// runWorker живёт, пока воркер запущен: обновляет heartbeat,
// переснимает показатели ресурсов и при необходимости приостанавливает
// бесплатные сессии под давлением памяти.
func (p *WorkerPool) runWorker(ctx context.Context, w *runtimeWorker) {
	ticker := time.NewTicker(p.cfg.WorkerTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.workerTick(ctx, w)
		}
	}
}

func (p *WorkerPool) workerTick(ctx context.Context, w *runtimeWorker) {
	snapshot := p.monitor.Snapshot()

	p.mu.Lock()
	w.model.LastHeartbeat = time.Now()
	w.model.CPUPercent = snapshot.CPUPercent
	w.model.MemPercent = snapshot.MemPercent
	w.model.ActiveSessions = len(w.pipelines)

	for _, h := range w.pipelines {
		processed := h.pipeline.Processed()
		w.model.MessagesProcessed += processed - h.lastProcessed
		h.lastProcessed = processed
	}

	model := *w.model
	p.mu.Unlock()

	metrics.UpdateWorkerSessions(model.ID, float64(model.ActiveSessions))

	if err := p.workerRepo.Update(ctx, &model); err != nil {
		p.logger.Error("Ошибка при сохранении heartbeat воркера",
			"error", err,
			"workerID", model.ID,
		)
	}

	if snapshot.MemPercent > float64(p.cfg.WorkerMemoryThreshold) {
		p.relieveWorkerPressure(ctx, w, snapshot)
	} else {
		p.resumePressurePaused(w)
	}
}

// relieveWorkerPressure приостанавливает до настроенного числа
// бесплатных сессий воркера, начиная с самых свежих назначений.
func (p *WorkerPool) relieveWorkerPressure(ctx context.Context, w *runtimeWorker, snapshot models.ResourceSnapshot) {
	p.mu.Lock()

	var paused []string

	for _, h := range w.freeSessions() {
		if len(paused) >= p.cfg.PressurePauseCount {
			break
		}

		if h.pipeline.Paused() {
			continue
		}

		h.pipeline.Pause()
		w.pressurePaused[h.pipeline.SessionID()] = struct{}{}
		paused = append(paused, h.pipeline.SessionID())
	}

	workerID := w.model.ID
	p.mu.Unlock()

	if len(paused) == 0 {
		return
	}

	metrics.RecordMemoryPressure()

	p.logger.Warn("Давление памяти: бесплатные сессии приостановлены",
		"workerID", workerID,
		"memPercent", snapshot.MemPercent,
		"sessions", paused,
	)

	if err := p.notifier.NotifyMemoryPressure(ctx, snapshot, paused); err != nil {
		p.logger.Error("Ошибка при отправке оповещения о давлении памяти",
			"error", err,
		)
	}
}

// resumePressurePaused снимает паузу с сессий, приостановленных из-за
// давления памяти, когда потребление вернулось ниже порога. Паузы,
// поставленные оператором, не затрагиваются.
func (p *WorkerPool) resumePressurePaused(w *runtimeWorker) {
	p.mu.Lock()

	var resumed []string

	for sessionID := range w.pressurePaused {
		if h, ok := w.pipelines[sessionID]; ok && h.pipeline.Paused() {
			h.pipeline.Resume()
			resumed = append(resumed, sessionID)
		}

		delete(w.pressurePaused, sessionID)
	}

	workerID := w.model.ID
	p.mu.Unlock()

	if len(resumed) == 0 {
		return
	}

	p.logger.Info("Давление памяти спало: бесплатные сессии возобновлены",
		"workerID", workerID,
		"sessions", resumed,
	)
}
