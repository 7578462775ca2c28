package cache

import (
	"context"
	"log/slog"

	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/repository"
)

// CachedConfigSource читает конфигурации маппингов сквозь Redis-кэш,
// при промахе обращаясь к базе и прогревая кэш.
type CachedConfigSource struct {
	mappingRepo repository.MappingRepository
	configCache ConfigCache
	logger      *slog.Logger
}

func NewCachedConfigSource(mappingRepo repository.MappingRepository, configCache ConfigCache, logger *slog.Logger) *CachedConfigSource {
	return &CachedConfigSource{
		mappingRepo: mappingRepo,
		configCache: configCache,
		logger:      logger,
	}
}

func (s *CachedConfigSource) MappingConfigs(ctx context.Context, sessionID string) ([]*models.MappingConfig, error) {
	cached, err := s.configCache.GetConfigs(ctx, sessionID)
	if err != nil {
		s.logger.Warn("Ошибка при чтении кэша конфигураций, обращаемся к базе",
			"error", err,
			"sessionID", sessionID,
		)
	} else if cached != nil {
		return cached, nil
	}

	configs, err := s.mappingRepo.FindConfigsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.configCache.SetConfigs(ctx, sessionID, configs); err != nil {
		s.logger.Warn("Ошибка при прогреве кэша конфигураций",
			"error", err,
			"sessionID", sessionID,
		)
	}

	return configs, nil
}

// Invalidate сбрасывает кэш сессии после изменения её маппингов.
func (s *CachedConfigSource) Invalidate(ctx context.Context, sessionID string) {
	if err := s.configCache.DeleteConfigs(ctx, sessionID); err != nil {
		s.logger.Error("Ошибка при инвалидации кэша конфигураций",
			"error", err,
			"sessionID", sessionID,
		)
	}
}
