package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"bloodledger/internal/donation/models"
	"bloodledger/internal/donation/ports"
	"bloodledger/pkg/platform/sentinel"
)

const defaultPostgresTxTimeout = 5 * time.Second

// Postgres persists instance storage in ledger_entries and keeps the shared
// retention window on the single ledger_instance row. Every mutating call locks
// that row first, which gives the host's one-call-at-a-time ordering; the SQL
// transaction gives all-or-nothing commit.
type Postgres struct {
	db      *sql.DB
	timeout time.Duration
}

var _ ports.Ledger = (*Postgres)(nil)

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, timeout: defaultPostgresTxTimeout}
}

func (p *Postgres) RunInTx(ctx context.Context, fn func(store ports.Store) error) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var liveUntil int64
	err = tx.QueryRowContext(ctx, `SELECT live_until FROM ledger_instance WHERE id = 1 FOR UPDATE`).Scan(&liveUntil)
	if err != nil {
		return fmt.Errorf("lock ledger instance: %w", translatePostgresError(err))
	}

	if err := fn(newLedgerStore(&postgresTx{tx: tx, liveUntil: uint64(liveUntil)})); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", translatePostgresError(err))
	}
	return nil
}

func (p *Postgres) View(ctx context.Context, fn func(store ports.Store) error) error {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin ledger view: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	return fn(newLedgerStore(readOnly{&postgresTx{tx: tx}}))
}

// Health checks the backing connection.
func (p *Postgres) Health(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

type postgresTx struct {
	tx        *sql.Tx
	liveUntil uint64
}

func (t *postgresTx) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := t.tx.QueryRowContext(ctx, `SELECT value FROM ledger_entries WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, translatePostgresError(err)
	}
	return value, nil
}

func (t *postgresTx) set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO ledger_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := t.tx.ExecContext(ctx, query, key, string(value)); err != nil {
		return translatePostgresError(err)
	}
	return nil
}

func (t *postgresTx) extendRetention(ctx context.Context, policy models.RetentionPolicy, now uint64) error {
	next := extendedLiveUntil(t.liveUntil, policy, now)
	if next == t.liveUntil {
		return nil
	}
	if _, err := t.tx.ExecContext(ctx, `UPDATE ledger_instance SET live_until = $1 WHERE id = 1`, int64(next)); err != nil {
		return translatePostgresError(err)
	}
	t.liveUntil = next
	return nil
}

// translatePostgresError maps lock and serialization failures to ErrConflict so
// the caller sees the same fact every backend reports for a lost race.
func translatePostgresError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "23505":
			return fmt.Errorf("%s: %w", pqErr.Message, sentinel.ErrConflict)
		}
	}
	return err
}
