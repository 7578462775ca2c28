package orm

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/sunil55999/TelegramForwarderX/internal/database"
	customerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/pkg/txs"
)

type WorkerRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewWorkerRepository(db *database.PostgresDB) *WorkerRepository {
	return &WorkerRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *WorkerRepository) Save(ctx context.Context, worker *models.Worker) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Insert("workers").
		Columns("id", "name", "status", "max_sessions", "memory_limit", "auto_restart", "auto_start",
			"cpu_percent", "mem_percent", "messages_processed", "last_heartbeat", "created_at").
		Values(worker.ID, worker.Name, worker.Status,
			worker.Config.MaxSessions, worker.Config.MemoryLimit, worker.Config.AutoRestart, worker.Config.AutoStart,
			worker.CPUPercent, worker.MemPercent, worker.MessagesProcessed, worker.LastHeartbeat, worker.CreatedAt).
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "вставка воркера", Cause: err}
	}

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "вставка воркера", Cause: err}
	}

	return nil
}

func (r *WorkerRepository) Update(ctx context.Context, worker *models.Worker) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Update("workers").
		Set("status", worker.Status).
		Set("max_sessions", worker.Config.MaxSessions).
		Set("memory_limit", worker.Config.MemoryLimit).
		Set("auto_restart", worker.Config.AutoRestart).
		Set("auto_start", worker.Config.AutoStart).
		Set("cpu_percent", worker.CPUPercent).
		Set("mem_percent", worker.MemPercent).
		Set("messages_processed", worker.MessagesProcessed).
		Set("last_heartbeat", worker.LastHeartbeat).
		Where(sq.Eq{"id": worker.ID}).
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "обновление воркера", Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "обновление воркера", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrWorkerNotFound{WorkerID: worker.ID}
	}

	return nil
}

func (r *WorkerRepository) FindByID(ctx context.Context, id string) (*models.Worker, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select("name", "status", "max_sessions", "memory_limit", "auto_restart", "auto_start",
		"cpu_percent", "mem_percent", "messages_processed", "last_heartbeat", "created_at").
		From("workers").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "поиск воркера", Cause: err}
	}

	worker := &models.Worker{ID: id}

	err = querier.QueryRow(ctx, query, args...).
		Scan(&worker.Name, &worker.Status,
			&worker.Config.MaxSessions, &worker.Config.MemoryLimit, &worker.Config.AutoRestart, &worker.Config.AutoStart,
			&worker.CPUPercent, &worker.MemPercent, &worker.MessagesProcessed, &worker.LastHeartbeat, &worker.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrWorkerNotFound{WorkerID: id}
		}

		return nil, &customerrors.ErrSQLExecution{Operation: "поиск воркера", Cause: err}
	}

	return worker, nil
}

func (r *WorkerRepository) FindAll(ctx context.Context) ([]*models.Worker, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Select("id", "name", "status", "max_sessions", "memory_limit", "auto_restart", "auto_start",
		"cpu_percent", "mem_percent", "messages_processed", "last_heartbeat", "created_at").
		From("workers").
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "список воркеров", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "список воркеров", Cause: err}
	}
	defer rows.Close()

	var workers []*models.Worker

	for rows.Next() {
		worker := &models.Worker{}

		err := rows.Scan(&worker.ID, &worker.Name, &worker.Status,
			&worker.Config.MaxSessions, &worker.Config.MemoryLimit, &worker.Config.AutoRestart, &worker.Config.AutoStart,
			&worker.CPUPercent, &worker.MemPercent, &worker.MessagesProcessed, &worker.LastHeartbeat, &worker.CreatedAt)
		if err != nil {
			return nil, &customerrors.ErrSQLExecution{Operation: "чтение воркера", Cause: err}
		}

		workers = append(workers, worker)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обход воркеров", Cause: err}
	}

	return workers, nil
}

func (r *WorkerRepository) Delete(ctx context.Context, id string) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Delete("workers").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "удаление воркера", Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "удаление воркера", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrWorkerNotFound{WorkerID: id}
	}

	return nil
}
