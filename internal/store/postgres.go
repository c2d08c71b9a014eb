package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codepanda/gestureimage/internal/area"
	"github.com/codepanda/gestureimage/internal/mapfile"
)

const schema = `
CREATE TABLE IF NOT EXISTS region_maps (
	name_key   TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	width      DOUBLE PRECISION NOT NULL DEFAULT 0,
	height     DOUBLE PRECISION NOT NULL DEFAULT 0,
	areas      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresRepository stores maps in the region_maps table, with the area
// descriptors as a JSONB array.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the table if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create region_maps: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, name string) (*Map, error) {
	var (
		m    Map
		data []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT name, width, height, areas, updated_at FROM region_maps WHERE name_key = $1`,
		key(name),
	).Scan(&m.Name, &m.Width, &m.Height, &data, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("get map: %w", err)
	}

	if err := json.Unmarshal(data, &m.Areas); err != nil {
		return nil, fmt.Errorf("decode areas of %q: %w", name, err)
	}
	return &m, nil
}

func (r *PostgresRepository) Put(ctx context.Context, m mapfile.Map) (*Map, error) {
	k := key(m.Name)
	if k == "" {
		return nil, ErrInvalidName
	}
	if m.Areas == nil {
		m.Areas = []area.Descriptor{}
	}
	data, err := json.Marshal(m.Areas)
	if err != nil {
		return nil, fmt.Errorf("encode areas: %w", err)
	}

	var updated time.Time
	err = r.pool.QueryRow(ctx, `
		INSERT INTO region_maps (name_key, name, width, height, areas, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (name_key) DO UPDATE
		SET name = EXCLUDED.name, width = EXCLUDED.width, height = EXCLUDED.height,
		    areas = EXCLUDED.areas, updated_at = EXCLUDED.updated_at
		RETURNING updated_at`,
		k, m.Name, m.Width, m.Height, data,
	).Scan(&updated)
	if err != nil {
		return nil, fmt.Errorf("put map: %w", err)
	}

	return &Map{Map: m, UpdatedAt: updated}, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, jsonb_array_length(areas), width, height, updated_at
		FROM region_maps ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
		var s Summary
		err := row.Scan(&s.Name, &s.Areas, &s.Width, &s.Height, &s.UpdatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM region_maps WHERE name_key = $1`, key(name))
	if err != nil {
		return fmt.Errorf("delete map: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}
