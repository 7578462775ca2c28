package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
)

type ConfigCache interface {
	GetConfigs(ctx context.Context, sessionID string) ([]*models.MappingConfig, error)
	SetConfigs(ctx context.Context, sessionID string, configs []*models.MappingConfig) error
	DeleteConfigs(ctx context.Context, sessionID string) error
}

type RedisConfigCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisConfigCache(redisURL, password string, db int, ttl time.Duration, logger *slog.Logger) (*RedisConfigCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ошибка при подключении к Redis: %w", err)
	}

	logger.Info("Соединение с Redis успешно установлено")

	return &RedisConfigCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func (c *RedisConfigCache) GetConfigs(ctx context.Context, sessionID string) ([]*models.MappingConfig, error) {
	key := "mapping_configs:" + sessionID

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.Debug("Кэш конфигураций не найден",
				"sessionID", sessionID,
			)

			return nil, nil
		}

		c.logger.Error("Ошибка при получении данных из Redis",
			"error", err,
			"sessionID", sessionID,
		)

		return nil, fmt.Errorf("ошибка при получении данных из Redis: %w", err)
	}

	var configs []*models.MappingConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		c.logger.Error("Ошибка при десериализации данных из Redis",
			"error", err,
			"sessionID", sessionID,
		)

		return nil, fmt.Errorf("ошибка при десериализации данных из Redis: %w", err)
	}

	c.logger.Debug("Конфигурации получены из кэша",
		"sessionID", sessionID,
		"count", len(configs),
	)

	return configs, nil
}

func (c *RedisConfigCache) SetConfigs(ctx context.Context, sessionID string, configs []*models.MappingConfig) error {
	key := "mapping_configs:" + sessionID

	data, err := json.Marshal(configs)
	if err != nil {
		c.logger.Error("Ошибка при сериализации данных для Redis",
			"error", err,
			"sessionID", sessionID,
		)

		return fmt.Errorf("ошибка при сериализации данных для Redis: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("Ошибка при сохранении данных в Redis",
			"error", err,
			"sessionID", sessionID,
		)

		return fmt.Errorf("ошибка при сохранении данных в Redis: %w", err)
	}

	c.logger.Debug("Конфигурации сохранены в кэш",
		"sessionID", sessionID,
		"count", len(configs),
		"ttl", c.ttl,
	)

	return nil
}

func (c *RedisConfigCache) DeleteConfigs(ctx context.Context, sessionID string) error {
	key := "mapping_configs:" + sessionID

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Ошибка при удалении данных из Redis",
			"error", err,
			"sessionID", sessionID,
		)

		return fmt.Errorf("ошибка при удалении данных из Redis: %w", err)
	}

	return nil
}

func (c *RedisConfigCache) Close() error {
	return c.client.Close()
}
