// Package pgxstore backs a storage tier with Postgres, for deployments that
// keep the client session state server-side rather than on the device.
package pgxstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relnotes/go-auth-client/storage"
)

var _ storage.Store = (*Adapter)(nil)

// Adapter implements storage.Store over a pgx connection pool. Each entry
// is a row in a two-column key/value table.
type Adapter struct {
	pool  *pgxpool.Pool
	ctx   context.Context
	table string
}

// New creates an adapter writing to auth_state. The context bounds every
// query the adapter issues.
func New(ctx context.Context, pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool:  pool,
		ctx:   ctx,
		table: "auth_state",
	}
}

// EnsureSchema creates the backing table if it does not exist.
func (a *Adapter) EnsureSchema() error {
	_, err := a.pool.Exec(a.ctx,
		`CREATE TABLE IF NOT EXISTS `+a.table+` (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	return err
}

func (a *Adapter) Get(key string) (string, error) {
	q := `SELECT value FROM ` + a.table + ` WHERE key = $1`

	var value string
	err := a.pool.QueryRow(a.ctx, q, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (a *Adapter) Set(key, value string) error {
	q := `INSERT INTO ` + a.table + ` (key, value) VALUES ($1, $2)
	      ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`

	_, err := a.pool.Exec(a.ctx, q, key, value)
	return err
}

func (a *Adapter) Remove(key string) error {
	_, err := a.pool.Exec(a.ctx, `DELETE FROM `+a.table+` WHERE key = $1`, key)
	return err
}
