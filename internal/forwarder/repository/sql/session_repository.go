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

type SessionRepository struct {
	db *database.PostgresDB
}

func NewSessionRepository(db *database.PostgresDB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Assign(ctx context.Context, assignment *models.SessionAssignment) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	var existingWorkerID string

	err := querier.QueryRow(ctx,
		"SELECT worker_id FROM session_assignments WHERE session_id = $1",
		assignment.SessionID).Scan(&existingWorkerID)

	switch {
	case err == nil:
		return &customerrors.ErrSessionAlreadyAssigned{SessionID: assignment.SessionID, WorkerID: existingWorkerID}
	case !errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("ошибка при проверке назначения сессии: %w", err)
	}

	_, err = querier.Exec(ctx,
		`INSERT INTO session_assignments (session_id, worker_id, tier, assigned_at)
		VALUES ($1, $2, $3, $4)`,
		assignment.SessionID, assignment.WorkerID, assignment.Tier, assignment.AssignedAt)
	if err != nil {
		return fmt.Errorf("ошибка при назначении сессии: %w", err)
	}

	return nil
}

func (r *SessionRepository) Unassign(ctx context.Context, sessionID string) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	tag, err := querier.Exec(ctx, "DELETE FROM session_assignments WHERE session_id = $1", sessionID)
	if err != nil {
		return fmt.Errorf("ошибка при снятии назначения сессии: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrSessionNotAssigned{SessionID: sessionID}
	}

	return nil
}

func (r *SessionRepository) Reassign(ctx context.Context, sessionID, workerID string) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	tag, err := querier.Exec(ctx,
		"UPDATE session_assignments SET worker_id = $2, assigned_at = NOW() WHERE session_id = $1",
		sessionID, workerID)
	if err != nil {
		return fmt.Errorf("ошибка при переназначении сессии: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrSessionNotAssigned{SessionID: sessionID}
	}

	return nil
}

func (r *SessionRepository) FindByWorker(ctx context.Context, workerID string) ([]*models.SessionAssignment, error) {
	return r.find(ctx,
		`SELECT session_id, worker_id, tier, assigned_at
		FROM session_assignments WHERE worker_id = $1 ORDER BY assigned_at`, workerID)
}

func (r *SessionRepository) FindAll(ctx context.Context) ([]*models.SessionAssignment, error) {
	return r.find(ctx,
		`SELECT session_id, worker_id, tier, assigned_at
		FROM session_assignments ORDER BY assigned_at`)
}

// DeleteOrphaned удаляет назначения, чей воркер больше не существует.
func (r *SessionRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	tag, err := querier.Exec(ctx,
		`DELETE FROM session_assignments sa
		WHERE NOT EXISTS (SELECT 1 FROM workers w WHERE w.id = sa.worker_id)`)
	if err != nil {
		return 0, fmt.Errorf("ошибка при очистке осиротевших назначений: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *SessionRepository) find(ctx context.Context, query string, args ...any) ([]*models.SessionAssignment, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении назначений сессий: %w", err)
	}
	defer rows.Close()

	var assignments []*models.SessionAssignment

	for rows.Next() {
		assignment := &models.SessionAssignment{}

		err := rows.Scan(&assignment.SessionID, &assignment.WorkerID, &assignment.Tier, &assignment.AssignedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка при чтении назначения сессии: %w", err)
		}

		assignments = append(assignments, assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обходе назначений сессий: %w", err)
	}

	return assignments, nil
}
