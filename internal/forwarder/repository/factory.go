package repository

import (
	"log/slog"

	"github.com/sunil55999/TelegramForwarderX/internal/config"
	"github.com/sunil55999/TelegramForwarderX/internal/database"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/repository/orm"
	sqlrepo "github.com/sunil55999/TelegramForwarderX/internal/forwarder/repository/sql"
)

type Factory struct {
	db     *database.PostgresDB
	config *config.Config
	logger *slog.Logger
}

func NewFactory(db *database.PostgresDB, config *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		db:     db,
		config: config,
		logger: logger,
	}
}

func (f *Factory) CreateWorkerRepository() (WorkerRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория воркеров")
		return orm.NewWorkerRepository(f.db), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория воркеров")
		return sqlrepo.NewWorkerRepository(f.db), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreateSessionRepository() (SessionRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория сессий")
		return orm.NewSessionRepository(f.db), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория сессий")
		return sqlrepo.NewSessionRepository(f.db), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreateMappingRepository() (MappingRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория маппингов")
		return orm.NewMappingRepository(f.db), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория маппингов")
		return sqlrepo.NewMappingRepository(f.db), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreateForwardingLogRepository() (ForwardingLogRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория журнала пересылки")
		return orm.NewForwardingLogRepository(f.db), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория журнала пересылки")
		return sqlrepo.NewForwardingLogRepository(f.db), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreatePendingMessageRepository() (PendingMessageRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория отложенных сообщений")
		return orm.NewPendingMessageRepository(f.db), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория отложенных сообщений")
		return sqlrepo.NewPendingMessageRepository(f.db), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreateTrackerRepository() (TrackerRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория трекера сообщений")
		return orm.NewTrackerRepository(f.db), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория трекера сообщений")
		return sqlrepo.NewTrackerRepository(f.db), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}
