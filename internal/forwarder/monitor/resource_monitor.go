package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/sunil55999/TelegramForwarderX/internal/common/metrics"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
)

// Sampler снимает текущие показатели ресурсов хоста.
type Sampler interface {
	Sample(ctx context.Context) (*models.ResourceSnapshot, error)
}

type HostSampler struct{}

func NewHostSampler() *HostSampler {
	return &HostSampler{}
}

func (s *HostSampler) Sample(ctx context.Context) (*models.ResourceSnapshot, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении памяти хоста: %w", err)
	}

	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении загрузки CPU: %w", err)
	}

	snapshot := &models.ResourceSnapshot{
		MemPercent: vm.UsedPercent,
		MemTotal:   vm.Total,
		MemUsed:    vm.Used,
		SampledAt:  time.Now(),
	}

	if len(cpuPercents) > 0 {
		snapshot.CPUPercent = cpuPercents[0]
	}

	return snapshot, nil
}

// ResourceMonitor периодически снимает показатели хоста и отдаёт
// последний снимок пулу воркеров для расчёта нагрузки.
type ResourceMonitor struct {
	sampler         Sampler
	interval        time.Duration
	memoryThreshold float64
	logger          *slog.Logger

	mu   sync.RWMutex
	last *models.ResourceSnapshot

	wasCritical bool
}

func NewResourceMonitor(sampler Sampler, interval time.Duration, memoryThreshold int, logger *slog.Logger) *ResourceMonitor {
	return &ResourceMonitor{
		sampler:         sampler,
		interval:        interval,
		memoryThreshold: float64(memoryThreshold),
		logger:          logger,
	}
}

func (m *ResourceMonitor) Run(ctx context.Context) {
	m.sampleOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sampleOnce(ctx)
		}
	}
}

func (m *ResourceMonitor) sampleOnce(ctx context.Context) {
	snapshot, err := m.sampler.Sample(ctx)
	if err != nil {
		m.logger.Error("Ошибка при снятии показателей ресурсов", "error", err)
		return
	}

	m.mu.Lock()
	m.last = snapshot
	m.mu.Unlock()

	metrics.UpdateHostResources(snapshot.CPUPercent, snapshot.MemPercent)

	critical := snapshot.MemPercent > m.memoryThreshold
	if critical && !m.wasCritical {
		m.logger.Warn("Память хоста превысила порог",
			"memPercent", snapshot.MemPercent,
			"threshold", m.memoryThreshold,
		)
	}

	m.wasCritical = critical
}

// Snapshot возвращает последний снимок или нулевые показатели, если
// замер ещё не выполнялся.
func (m *ResourceMonitor) Snapshot() models.ResourceSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.last == nil {
		return models.ResourceSnapshot{}
	}

	return *m.last
}

func (m *ResourceMonitor) IsMemoryCritical() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.last != nil && m.last.MemPercent > m.memoryThreshold
}
