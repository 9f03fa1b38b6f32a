package repository

import (
	"context"
	"database/sql"
	"time"

	"cellar/internal/types"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// queries holds the bottle statements, bound to a connection or a transaction
type queries struct {
	db dbtx
}

func newQueries(db dbtx) *queries {
	return &queries{db: db}
}

func (q *queries) withTx(tx *sql.Tx) *queries {
	return &queries{db: tx}
}

const bottleColumns = `name, path, windows_version, dxvk, dxvk_hud, metal_hud, metal_trace, esync, created_at, updated_at`

const insertBottle = `
INSERT INTO bottles (` + bottleColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *queries) insertBottle(ctx context.Context, b *types.Bottle) error {
	_, err := q.db.ExecContext(ctx, insertBottle,
		b.Name, b.Path, string(b.Settings.WindowsVersion),
		b.Settings.DXVK, b.Settings.DXVKHud, b.Settings.MetalHud, b.Settings.MetalTrace, b.Settings.ESync,
		b.CreatedAt, b.UpdatedAt,
	)
	return err
}

const getBottle = `SELECT ` + bottleColumns + ` FROM bottles WHERE name = ?`

func (q *queries) getBottle(ctx context.Context, name string) (types.Bottle, error) {
	return scanBottle(q.db.QueryRowContext(ctx, getBottle, name))
}

const listBottles = `SELECT ` + bottleColumns + ` FROM bottles ORDER BY name COLLATE NOCASE ASC`

func (q *queries) listBottles(ctx context.Context) ([]types.Bottle, error) {
	rows, err := q.db.QueryContext(ctx, listBottles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bottles []types.Bottle
	for rows.Next() {
		b, err := scanBottle(rows)
		if err != nil {
			return nil, err
		}
		bottles = append(bottles, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bottles, nil
}

const updateSettings = `
UPDATE bottles
SET windows_version = ?, dxvk = ?, dxvk_hud = ?, metal_hud = ?, metal_trace = ?, esync = ?, updated_at = ?
WHERE name = ?`

func (q *queries) updateSettings(ctx context.Context, name string, s types.Settings, updatedAt time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateSettings,
		string(s.WindowsVersion), s.DXVK, s.DXVKHud, s.MetalHud, s.MetalTrace, s.ESync, updatedAt, name,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteBottle = `DELETE FROM bottles WHERE name = ?`

func (q *queries) deleteBottle(ctx context.Context, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBottle, name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBottle(row rowScanner) (types.Bottle, error) {
	var (
		b       types.Bottle
		version string
	)
	err := row.Scan(
		&b.Name, &b.Path, &version,
		&b.Settings.DXVK, &b.Settings.DXVKHud, &b.Settings.MetalHud, &b.Settings.MetalTrace, &b.Settings.ESync,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return types.Bottle{}, err
	}
	b.Settings.WindowsVersion = types.WinVersion(version)
	return b, nil
}
