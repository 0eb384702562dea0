package store

import (
	"context"
	"fmt"
	"time"

	"github.com/capverde/posagent/internal/order"
)

// ReplaceMenuCache atomically replaces the entire menu cache with the
// given items in a single transaction: clear, then insert.
//
// The cache is never partially merged - a refresh either fully lands or
// leaves the previous snapshot intact, so readers never see stale and
// fresh entries mixed.
func (s *Store) ReplaceMenuCache(ctx context.Context, items []order.MenuItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: OpWrite, Err: fmt.Errorf("replace menu cache: begin tx: %w", err)}
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM menu_cache`); err != nil {
		return &StorageError{Op: OpWrite, Err: fmt.Errorf("replace menu cache: clear: %w", err)}
	}

	for _, it := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO menu_cache (id, name, category, unit_price, cached_at)
			VALUES (?, ?, ?, ?, ?)
		`,
			it.ID,
			it.Name,
			it.Category,
			it.UnitPrice,
			it.CachedAt.UnixNano(),
		)
		if err != nil {
			return &StorageError{Op: OpWrite, Err: fmt.Errorf("replace menu cache: insert %s: %w", it.ID, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: OpWrite, Err: fmt.Errorf("replace menu cache: commit: %w", err)}
	}

	return nil
}

// ReadMenuCache returns the current menu snapshot ordered by category
// then name.
func (s *Store) ReadMenuCache(ctx context.Context) ([]order.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, unit_price, cached_at
		FROM menu_cache
		ORDER BY category, name
	`)
	if err != nil {
		return nil, &StorageError{Op: OpRead, Err: fmt.Errorf("read menu cache: %w", err)}
	}
	defer rows.Close()

	var out []order.MenuItem
	for rows.Next() {
		var (
			it       order.MenuItem
			cachedAt int64
		)
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &it.UnitPrice, &cachedAt); err != nil {
			return nil, &StorageError{Op: OpRead, Err: fmt.Errorf("scan menu item: %w", err)}
		}
		it.CachedAt = time.Unix(0, cachedAt).UTC()
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: OpRead, Err: fmt.Errorf("iterate menu cache: %w", err)}
	}

	return out, nil
}
