// Package txs прокидывает транзакцию pgx через контекст, чтобы
// репозитории пересыльщика участвовали в одной транзакции, не зная о
// её границах. Решение по отложенному сообщению и его доставка пишутся
// атомарно именно через этот механизм.
package txs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier объединяет пул соединений и открытую транзакцию: репозиторий
// работает с тем, что лежит в контексте, не различая их.
type Querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// GetQuerier возвращает транзакцию из контекста, если она там есть,
// иначе — переданный по умолчанию исполнитель запросов.
func GetQuerier(ctx context.Context, fallback Querier) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}

	return fallback
}

// TxManager открывает транзакции на пуле и передаёт их вглубь через
// контекст вызова.
type TxManager struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewTxManager(pool *pgxpool.Pool, logger *slog.Logger) *TxManager {
	return &TxManager{pool: pool, logger: logger}
}

// WithTransaction исполняет txFunc внутри транзакции. Ошибка или паника
// txFunc откатывают транзакцию, успешное завершение фиксирует её.
func (t *TxManager) WithTransaction(ctx context.Context, txFunc func(ctx context.Context) error) (err error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при открытии транзакции: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Паника внутри транзакции, откатываем", "panic", r)

			_ = tx.Rollback(ctx)

			panic(r)
		}

		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				t.logger.Error("Ошибка при откате транзакции", "error", rbErr)
				err = fmt.Errorf("%w, ошибка отката: %w", err, rbErr)
			}
		}
	}()

	if err = txFunc(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return fmt.Errorf("ошибка внутри транзакции: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}
