// Package registry persists the layer catalog in SQLite. Each layer maps
// an identifier to a shapefile directory plus display metadata.
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/openmaps/shptiles/internal/core/model"
)

var ErrNotFound = errors.New("registry: layer not found")

const schema = `
CREATE TABLE IF NOT EXISTS layers (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	kind          TEXT NOT NULL,
	shapefile_dir TEXT NOT NULL DEFAULT '',
	style         TEXT
);`

type Registry struct {
	db *sql.DB
}

// Open opens or creates the registry database at path. The schema is
// applied idempotently.
func Open(ctx context.Context, path string) (*Registry, error) {
	if path == "" {
		return nil, errors.New("registry path is required")
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping registry: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply registry schema: %w", err)
	}
	return &Registry{db: db}, nil
}

func (r *Registry) Close() error {
	return r.db.Close()
}

func (r *Registry) Get(ctx context.Context, id string) (model.Layer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, kind, shapefile_dir, style FROM layers WHERE id = ?`, id)
	l, err := scanLayer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Layer{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Layer{}, fmt.Errorf("get layer %s: %w", id, err)
	}
	return l, nil
}

func (r *Registry) List(ctx context.Context) ([]model.Layer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, kind, shapefile_dir, style FROM layers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list layers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Layer
	for rows.Next() {
		l, err := scanLayer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan layer: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Put inserts the layer or replaces an existing one with the same id.
func (r *Registry) Put(ctx context.Context, l model.Layer) error {
	if l.ID == "" {
		return errors.New("registry: layer id is required")
	}
	var style any
	if len(l.Style) > 0 {
		if !json.Valid(l.Style) {
			return fmt.Errorf("registry: layer %s style is not valid JSON", l.ID)
		}
		style = string(l.Style)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO layers (id, name, kind, shapefile_dir, style)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			shapefile_dir = excluded.shapefile_dir,
			style = excluded.style`,
		l.ID, l.Name, string(l.Kind), l.ShapefileDir, style)
	if err != nil {
		return fmt.Errorf("put layer %s: %w", l.ID, err)
	}
	return nil
}

func (r *Registry) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM layers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete layer %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func scanLayer(scan func(dest ...any) error) (model.Layer, error) {
	var (
		l     model.Layer
		kind  string
		style sql.NullString
	)
	if err := scan(&l.ID, &l.Name, &kind, &l.ShapefileDir, &style); err != nil {
		return model.Layer{}, err
	}
	l.Kind = model.LayerKind(kind)
	if style.Valid {
		l.Style = json.RawMessage(style.String)
	}
	return l, nil
}
