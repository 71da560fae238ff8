package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxTxManager implements TxManager on a pgx connection pool.
type PgxTxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager builds a manager backed by the given pool.
func NewTxManager(pool *pgxpool.Pool) *PgxTxManager {
	return &PgxTxManager{pool: pool}
}

func buildRepos(db DB) Repositories {
	return Repositories{
		Organizations: NewOrganizationRepository(db),
		Units:         NewOrgUnitRepository(db),
		Employees:     NewEmployeeRepository(db),
		History:       NewHistoryRepository(db),
		ChangeLog:     NewChangeLogRepository(db),
		Markers:       NewMarkerRepository(db),
	}
}

// Repos returns pool-scoped repositories for non-transactional reads.
func (m *PgxTxManager) Repos() Repositories {
	return buildRepos(m.pool)
}

// WithinTx runs fn inside a single transaction. The timeout bounds the whole
// transaction; a timeout aborts it and leaves the store unchanged.
func (m *PgxTxManager) WithinTx(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, tx Tx) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, &pgxTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Repos() Repositories {
	return buildRepos(t.tx)
}

// Nested opens a savepoint (pgx nested transaction) around fn.
func (t *pgxTx) Nested(ctx context.Context, fn func(r Repositories) error) error {
	inner, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}
	if err := fn(buildRepos(inner)); err != nil {
		_ = inner.Rollback(ctx)
		return err
	}
	return inner.Commit(ctx)
}
