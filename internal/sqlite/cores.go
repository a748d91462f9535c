package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/netherland/internal/core"
	"github.com/mesh-intelligence/netherland/pkg/types"
)

const insertLayer = `INSERT INTO layers (
    core_id, position, top, bottom, biomass, labile, refractory, inorganic,
    anchor, live_top, live_bottom
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectCore = `SELECT c.core_id, c.name, c.constants, c.budget, c.steps,
    c.created_at, c.updated_at,
    (SELECT COUNT(*) FROM layers l WHERE l.core_id = c.core_id),
    COALESCE((SELECT l.top FROM layers l WHERE l.core_id = c.core_id
        ORDER BY l.position DESC LIMIT 1), 0)
FROM cores c`

// CreateCore stores c under a new ID and returns it.
func (b *Backend) CreateCore(name string, c *core.Core) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return "", types.ErrStoreDetached
	}

	constants, err := encodeJSON(c.Constants())
	if err != nil {
		return "", fmt.Errorf("encode constants: %w", err)
	}
	budget, err := encodeJSON(c.Budget())
	if err != nil {
		return "", fmt.Errorf("encode budget: %w", err)
	}

	id := generateUUID()
	now := b.timestamp()
	err = b.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO cores (core_id, name, constants, budget, steps, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?)`, id, name, constants, budget, c.Steps(), now, now)
		if err != nil {
			return fmt.Errorf("insert core: %w", err)
		}
		return writeLayers(tx, id, c.Layers())
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// SaveStep records that in was applied to the core stored under id, leaving
// it in state c. The layers are replaced and a steps row is appended.
func (b *Backend) SaveStep(id string, c *core.Core, in types.TimestepInput) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	budget, err := encodeJSON(c.Budget())
	if err != nil {
		return fmt.Errorf("encode budget: %w", err)
	}
	input, err := encodeJSON(in)
	if err != nil {
		return fmt.Errorf("encode input: %w", err)
	}

	now := b.timestamp()
	return b.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE cores SET budget = ?, steps = ?, updated_at = ? WHERE core_id = ?`,
			budget, c.Steps(), now, id)
		if err != nil {
			return fmt.Errorf("update core: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("%w: %s", types.ErrCoreNotFound, id)
		}

		if _, err := tx.Exec(`DELETE FROM layers WHERE core_id = ?`, id); err != nil {
			return fmt.Errorf("clear layers: %w", err)
		}
		if err := writeLayers(tx, id, c.Layers()); err != nil {
			return err
		}

		_, err = tx.Exec(`INSERT INTO steps (core_id, step, input, elevation, layer_count, applied_at)
            VALUES (?, ?, ?, ?, ?, ?)`, id, c.Steps(), input, c.Elevation(), c.Len(), now)
		if err != nil {
			return fmt.Errorf("insert step %d: %w", c.Steps(), err)
		}
		return nil
	})
}

// LoadCore rebuilds the core stored under id.
// Returns ErrCoreNotFound if there is no such core.
func (b *Backend) LoadCore(id string) (*core.Core, types.CoreRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.CoreRecord{}, types.ErrStoreDetached
	}

	rec, err := scanCore(b.db.QueryRow(selectCore+` WHERE c.core_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.CoreRecord{}, fmt.Errorf("%w: %s", types.ErrCoreNotFound, id)
	}
	if err != nil {
		return nil, types.CoreRecord{}, err
	}

	rows, err := b.db.Query(`SELECT top, bottom, biomass, labile, refractory, inorganic,
        anchor, live_top, live_bottom FROM layers WHERE core_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, types.CoreRecord{}, fmt.Errorf("query layers: %w", err)
	}
	defer rows.Close()

	var layers []types.Layer
	for rows.Next() {
		var r layerRow
		if err := rows.Scan(r.scanArgs()...); err != nil {
			return nil, types.CoreRecord{}, fmt.Errorf("scan layer: %w", err)
		}
		layers = append(layers, r.layer())
	}
	if err := rows.Err(); err != nil {
		return nil, types.CoreRecord{}, err
	}

	c, err := core.Restore(rec.Constants, layers, rec.Steps, rec.Budget)
	if err != nil {
		return nil, types.CoreRecord{}, fmt.Errorf("core %s: %w", id, err)
	}
	return c, rec, nil
}

// ListCores returns every stored core, oldest first.
func (b *Backend) ListCores() ([]types.CoreRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := b.db.Query(selectCore + ` ORDER BY c.created_at, c.core_id`)
	if err != nil {
		return nil, fmt.Errorf("query cores: %w", err)
	}
	defer rows.Close()

	var out []types.CoreRecord
	for rows.Next() {
		rec, err := scanCore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// History returns the applied timesteps of the core stored under id, in
// order.
func (b *Backend) History(id string) ([]types.StepRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	var exists int
	if err := b.db.QueryRow(`SELECT COUNT(*) FROM cores WHERE core_id = ?`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrCoreNotFound, id)
	}

	rows, err := b.db.Query(`SELECT step, input, elevation, layer_count, applied_at
        FROM steps WHERE core_id = ? ORDER BY step`, id)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var out []types.StepRecord
	for rows.Next() {
		rec := types.StepRecord{CoreID: id}
		var input, applied string
		if err := rows.Scan(&rec.Step, &input, &rec.Elevation, &rec.Layers, &applied); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		if err := decodeJSON("input", input, &rec.Input); err != nil {
			return nil, err
		}
		if rec.AppliedAt, err = parseTime("applied_at", applied); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteCore removes the core stored under id with its layers and history.
func (b *Backend) DeleteCore(id string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	return b.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM steps WHERE core_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM layers WHERE core_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.Exec(`DELETE FROM cores WHERE core_id = ?`, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("%w: %s", types.ErrCoreNotFound, id)
		}
		return nil
	})
}

func (b *Backend) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func writeLayers(tx *sql.Tx, id string, layers []types.Layer) error {
	stmt, err := tx.Prepare(insertLayer)
	if err != nil {
		return fmt.Errorf("prepare layer insert: %w", err)
	}
	defer stmt.Close()

	for i, l := range layers {
		r := rowFromLayer(l)
		_, err := stmt.Exec(id, i, r.top, r.bottom, r.biomass, r.labile, r.refractory, r.inorganic,
			r.anchor, r.liveTop, r.liveBottom)
		if err != nil {
			return fmt.Errorf("insert layer %d: %w", i, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCore(s scanner) (types.CoreRecord, error) {
	var (
		rec               types.CoreRecord
		constants, budget string
		created, updated  string
	)
	err := s.Scan(&rec.ID, &rec.Name, &constants, &budget, &rec.Steps,
		&created, &updated, &rec.Layers, &rec.Elevation)
	if err != nil {
		return rec, err
	}
	if err := decodeJSON("constants", constants, &rec.Constants); err != nil {
		return rec, err
	}
	if err := decodeJSON("budget", budget, &rec.Budget); err != nil {
		return rec, err
	}
	if rec.CreatedAt, err = parseTime("created_at", created); err != nil {
		return rec, err
	}
	if rec.UpdatedAt, err = parseTime("updated_at", updated); err != nil {
		return rec, err
	}
	return rec, nil
}
