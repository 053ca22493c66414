package preset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the part of a pgx pool or transaction the store uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore keeps presets in the presets table.
type PgStore struct {
	db DBTX
}

func NewPgStore(db DBTX) *PgStore {
	return &PgStore{db: db}
}

const presetColumns = `id, name, description, scene, created_at, updated_at`

func (s *PgStore) List(ctx context.Context) ([]Preset, error) {
	rows, err := s.db.Query(ctx, `SELECT `+presetColumns+` FROM presets ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	var out []Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan preset: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	return out, nil
}

func (s *PgStore) Get(ctx context.Context, id string) (*Preset, error) {
	row := s.db.QueryRow(ctx, `SELECT `+presetColumns+` FROM presets WHERE id = $1`, id)
	p, err := scanPreset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get preset: %w", err)
	}
	return p, nil
}

func (s *PgStore) Save(ctx context.Context, p Preset) (*Preset, error) {
	scene, err := json.Marshal(p.Scene)
	if err != nil {
		return nil, fmt.Errorf("marshal scene: %w", err)
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO presets (id, name, description, scene)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
		    scene = EXCLUDED.scene,
		    updated_at = now()
		RETURNING `+presetColumns,
		p.ID, p.Name, p.Description, scene,
	)
	saved, err := scanPreset(row)
	if err != nil {
		return nil, fmt.Errorf("save preset: %w", err)
	}
	return saved, nil
}

func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM presets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPreset(row pgx.Row) (*Preset, error) {
	var (
		p     Preset
		scene []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &scene, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scene, &p.Scene); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return &p, nil
}
