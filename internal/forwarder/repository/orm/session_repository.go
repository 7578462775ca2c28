package orm

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/sunil55999/TelegramForwarderX/internal/database"
	customerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/pkg/txs"
)

type SessionRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewSessionRepository(db *database.PostgresDB) *SessionRepository {
	return &SessionRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *SessionRepository) Assign(ctx context.Context, assignment *models.SessionAssignment) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	existsQuery, existsArgs, err := r.sq.Select("worker_id").
		From("session_assignments").
		Where(sq.Eq{"session_id": assignment.SessionID}).
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "проверка назначения сессии", Cause: err}
	}

	var existingWorkerID string

	err = querier.QueryRow(ctx, existsQuery, existsArgs...).Scan(&existingWorkerID)

	switch {
	case err == nil:
		return &customerrors.ErrSessionAlreadyAssigned{SessionID: assignment.SessionID, WorkerID: existingWorkerID}
	case !errors.Is(err, pgx.ErrNoRows):
		return &customerrors.ErrSQLExecution{Operation: "проверка назначения сессии", Cause: err}
	}

	query, args, err := r.sq.Insert("session_assignments").
		Columns("session_id", "worker_id", "tier", "assigned_at").
		Values(assignment.SessionID, assignment.WorkerID, assignment.Tier, assignment.AssignedAt).
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "назначение сессии", Cause: err}
	}

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "назначение сессии", Cause: err}
	}

	return nil
}

func (r *SessionRepository) Unassign(ctx context.Context, sessionID string) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Delete("session_assignments").
		Where(sq.Eq{"session_id": sessionID}).
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "снятие назначения сессии", Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "снятие назначения сессии", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrSessionNotAssigned{SessionID: sessionID}
	}

	return nil
}

func (r *SessionRepository) Reassign(ctx context.Context, sessionID, workerID string) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Update("session_assignments").
		Set("worker_id", workerID).
		Set("assigned_at", time.Now()).
		Where(sq.Eq{"session_id": sessionID}).
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "переназначение сессии", Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "переназначение сессии", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrSessionNotAssigned{SessionID: sessionID}
	}

	return nil
}

func (r *SessionRepository) FindByWorker(ctx context.Context, workerID string) ([]*models.SessionAssignment, error) {
	builder := r.sq.Select("session_id", "worker_id", "tier", "assigned_at").
		From("session_assignments").
		Where(sq.Eq{"worker_id": workerID}).
		OrderBy("assigned_at")

	return r.find(ctx, builder)
}

func (r *SessionRepository) FindAll(ctx context.Context) ([]*models.SessionAssignment, error) {
	builder := r.sq.Select("session_id", "worker_id", "tier", "assigned_at").
		From("session_assignments").
		OrderBy("assigned_at")

	return r.find(ctx, builder)
}

func (r *SessionRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.sq.Delete("session_assignments").
		Where("NOT EXISTS (SELECT 1 FROM workers w WHERE w.id = session_assignments.worker_id)").
		ToSql()
	if err != nil {
		return 0, &customerrors.ErrBuildSQLQuery{Operation: "очистка осиротевших назначений", Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return 0, &customerrors.ErrSQLExecution{Operation: "очистка осиротевших назначений", Cause: err}
	}

	return tag.RowsAffected(), nil
}

func (r *SessionRepository) find(ctx context.Context, builder sq.SelectBuilder) ([]*models.SessionAssignment, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "выборка назначений сессий", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "выборка назначений сессий", Cause: err}
	}
	defer rows.Close()

	var assignments []*models.SessionAssignment

	for rows.Next() {
		assignment := &models.SessionAssignment{}

		err := rows.Scan(&assignment.SessionID, &assignment.WorkerID, &assignment.Tier, &assignment.AssignedAt)
		if err != nil {
			return nil, &customerrors.ErrSQLExecution{Operation: "чтение назначения сессии", Cause: err}
		}

		assignments = append(assignments, assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обход назначений сессий", Cause: err}
	}

	return assignments, nil
}
