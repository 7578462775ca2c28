package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/sunil55999/TelegramForwarderX/internal/common/metrics"
	"github.com/sunil55999/TelegramForwarderX/internal/config"
	"github.com/sunil55999/TelegramForwarderX/internal/database"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/cache"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/engine"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/monitor"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/notify"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/pool"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/repository"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/service"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/transport"
	"github.com/sunil55999/TelegramForwarderX/pkg"
	"github.com/sunil55999/TelegramForwarderX/pkg/txs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка запуска сервиса: %v\n", err)
		os.Exit(1)
	}
}

//nolint:funlen // Длина функции обусловлена необходимостью последовательной инициализации всех компонентов.
func run() error {
	appLogger := pkg.NewLogger(os.Stdout)

	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Ошибка при подключении к базе данных",
			"error", err,
		)

		return fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		appLogger.Error("Ошибка при применении миграций",
			"error", err,
		)

		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	txManager := txs.NewTxManager(db.Pool, appLogger)

	repoFactory := repository.NewFactory(db, cfg, appLogger)

	workerRepo, err := repoFactory.CreateWorkerRepository()
	if err != nil {
		return fmt.Errorf("ошибка создания репозитория воркеров: %w", err)
	}

	sessionRepo, err := repoFactory.CreateSessionRepository()
	if err != nil {
		return fmt.Errorf("ошибка создания репозитория сессий: %w", err)
	}

	mappingRepo, err := repoFactory.CreateMappingRepository()
	if err != nil {
		return fmt.Errorf("ошибка создания репозитория маппингов: %w", err)
	}

	logRepo, err := repoFactory.CreateForwardingLogRepository()
	if err != nil {
		return fmt.Errorf("ошибка создания репозитория журнала: %w", err)
	}

	pendingRepo, err := repoFactory.CreatePendingMessageRepository()
	if err != nil {
		return fmt.Errorf("ошибка создания репозитория отложенных сообщений: %w", err)
	}

	trackerRepo, err := repoFactory.CreateTrackerRepository()
	if err != nil {
		return fmt.Errorf("ошибка создания репозитория трекера: %w", err)
	}

	var configSource engine.ConfigSource = service.NewRepoConfigSource(mappingRepo)

	var redisCache *cache.RedisConfigCache

	if cfg.ConfigCacheEnabled && cfg.RedisURL != "" {
		redisCache, err = cache.NewRedisConfigCache(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB, cfg.ConfigStaleness, appLogger)
		if err != nil {
			appLogger.Error("Ошибка при подключении к Redis, кэш конфигураций отключён",
				"error", err,
			)
		} else {
			configSource = cache.NewCachedConfigSource(mappingRepo, redisCache, appLogger)
			appLogger.Info("Кэш конфигураций Redis успешно инициализирован")
		}
	}

	tracker := engine.NewMessageTracker(trackerRepo, appLogger)
	limiter := engine.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitPerHour)
	tgTransport := transport.NewTelegramTransport(cfg, appLogger)

	source := transport.NewKafkaSource(cfg, appLogger)
	source.Start(ctx)

	var (
		notifier         notify.Notifier = notify.NopNotifier{}
		telegramNotifier *notify.TelegramNotifier
	)

	if cfg.TelegramBotToken != "" && len(cfg.AdminChatIDs) > 0 {
		telegramNotifier = notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.AdminChatIDs, appLogger)
		notifier = telegramNotifier
		appLogger.Info("Оповещения операторов включены",
			"admins", len(cfg.AdminChatIDs),
		)
	}

	sampler := monitor.NewHostSampler()
	resourceMonitor := monitor.NewResourceMonitor(sampler, cfg.ResourceSampleInterval, cfg.HostMemoryThreshold, appLogger)

	newPipeline := func(sessionID, workerID string, tier models.PriorityTier) *engine.SessionPipeline {
		return engine.NewSessionPipeline(sessionID, workerID, tier, engine.PipelineDeps{
			Transport:    tgTransport,
			ConfigSource: configSource,
			LogStore:     logRepo,
			PendingStore: pendingRepo,
			Notifier:     notifier,
			Tracker:      tracker,
			Limiter:      limiter,
			Staleness:    cfg.ConfigStaleness,
			FreeDelay:    cfg.FreeUserDelay,
			Logger:       appLogger,
		})
	}

	workerPool := pool.NewWorkerPool(workerRepo, sessionRepo, resourceMonitor, notifier, source, newPipeline, cfg, appLogger)

	if err := workerPool.Start(ctx); err != nil {
		return fmt.Errorf("ошибка запуска пула воркеров: %w", err)
	}

	if err := workerPool.Bootstrap(ctx); err != nil {
		appLogger.Error("Ошибка при восстановлении состояния пула",
			"error", err,
		)
	}

	forwarderService := service.NewForwarderService(pendingRepo, mappingRepo, logRepo, tracker, tgTransport, txManager, appLogger)

	var adminPoller *notify.AdminPoller

	if telegramNotifier != nil {
		adminPoller = notify.NewAdminPoller(telegramNotifier.Bot(), forwarderService, workerPool, cfg.AdminChatIDs, appLogger)
		adminPoller.Start(ctx)
	}

	metricsServer := metrics.NewServer(cfg.MetricsPort, appLogger)

	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			appLogger.Error("Ошибка при запуске сервера метрик",
				"error", err,
			)
		}
	}()

	waitForShutdown(appLogger)

	if adminPoller != nil {
		adminPoller.Stop()
	}

	workerPool.Stop()
	cancel()

	if err := source.Close(); err != nil {
		appLogger.Error("Ошибка при закрытии Kafka консьюмера",
			"error", err,
		)
	}

	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			appLogger.Error("Ошибка при закрытии соединения с Redis",
				"error", err,
			)
		}
	}

	appLogger.Info("Сервис успешно остановлен")

	return nil
}

func waitForShutdown(appLogger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	appLogger.Info("Получен системный сигнал",
		"signal", sig.String(),
	)
}
