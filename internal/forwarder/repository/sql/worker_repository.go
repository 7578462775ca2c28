package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sunil55999/TelegramForwarderX/internal/database"
	customerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/pkg/txs"
)

type WorkerRepository struct {
	db *database.PostgresDB
}

func NewWorkerRepository(db *database.PostgresDB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

func (r *WorkerRepository) Save(ctx context.Context, worker *models.Worker) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	_, err := querier.Exec(ctx,
		`INSERT INTO workers (id, name, status, max_sessions, memory_limit, auto_restart, auto_start,
			cpu_percent, mem_percent, messages_processed, last_heartbeat, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		worker.ID, worker.Name, worker.Status,
		worker.Config.MaxSessions, worker.Config.MemoryLimit, worker.Config.AutoRestart, worker.Config.AutoStart,
		worker.CPUPercent, worker.MemPercent, worker.MessagesProcessed, worker.LastHeartbeat, worker.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении воркера: %w", err)
	}

	return nil
}

func (r *WorkerRepository) Update(ctx context.Context, worker *models.Worker) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	tag, err := querier.Exec(ctx,
		`UPDATE workers SET status = $2, max_sessions = $3, memory_limit = $4, auto_restart = $5, auto_start = $6,
			cpu_percent = $7, mem_percent = $8, messages_processed = $9, last_heartbeat = $10
		WHERE id = $1`,
		worker.ID, worker.Status,
		worker.Config.MaxSessions, worker.Config.MemoryLimit, worker.Config.AutoRestart, worker.Config.AutoStart,
		worker.CPUPercent, worker.MemPercent, worker.MessagesProcessed, worker.LastHeartbeat)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении воркера: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrWorkerNotFound{WorkerID: worker.ID}
	}

	return nil
}

func (r *WorkerRepository) FindByID(ctx context.Context, id string) (*models.Worker, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	worker := &models.Worker{ID: id}

	err := querier.QueryRow(ctx,
		`SELECT name, status, max_sessions, memory_limit, auto_restart, auto_start,
			cpu_percent, mem_percent, messages_processed, last_heartbeat, created_at
		FROM workers WHERE id = $1`, id).
		Scan(&worker.Name, &worker.Status,
			&worker.Config.MaxSessions, &worker.Config.MemoryLimit, &worker.Config.AutoRestart, &worker.Config.AutoStart,
			&worker.CPUPercent, &worker.MemPercent, &worker.MessagesProcessed, &worker.LastHeartbeat, &worker.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrWorkerNotFound{WorkerID: id}
		}

		return nil, fmt.Errorf("ошибка при поиске воркера: %w", err)
	}

	return worker, nil
}

func (r *WorkerRepository) FindAll(ctx context.Context) ([]*models.Worker, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx,
		`SELECT id, name, status, max_sessions, memory_limit, auto_restart, auto_start,
			cpu_percent, mem_percent, messages_processed, last_heartbeat, created_at
		FROM workers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка воркеров: %w", err)
	}
	defer rows.Close()

	var workers []*models.Worker

	for rows.Next() {
		worker := &models.Worker{}

		err := rows.Scan(&worker.ID, &worker.Name, &worker.Status,
			&worker.Config.MaxSessions, &worker.Config.MemoryLimit, &worker.Config.AutoRestart, &worker.Config.AutoStart,
			&worker.CPUPercent, &worker.MemPercent, &worker.MessagesProcessed, &worker.LastHeartbeat, &worker.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка при чтении воркера: %w", err)
		}

		workers = append(workers, worker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обходе воркеров: %w", err)
	}

	return workers, nil
}

func (r *WorkerRepository) Delete(ctx context.Context, id string) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	tag, err := querier.Exec(ctx, "DELETE FROM workers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("ошибка при удалении воркера: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrWorkerNotFound{WorkerID: id}
	}

	return nil
}
