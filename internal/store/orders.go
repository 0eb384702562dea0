package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/capverde/posagent/internal/order"
)

// PutOrder inserts-or-replaces an order by identifier.
//
// The write is durable before PutOrder returns (synchronous = FULL):
// callers may treat a nil return as the commit point for the order.
// Replaying the same order is a last-write-wins upsert, which keeps
// retry after a crash safe.
func (s *Store) PutOrder(ctx context.Context, o order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return &StorageError{Op: OpWrite, Err: fmt.Errorf("put order: marshal items: %w", err)}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders
		(id, items, total, payment_method, created_at, attendant, table_number, acknowledged)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			items          = excluded.items,
			total          = excluded.total,
			payment_method = excluded.payment_method,
			created_at     = excluded.created_at,
			attendant      = excluded.attendant,
			table_number   = excluded.table_number,
			acknowledged   = excluded.acknowledged
	`,
		o.ID,
		string(itemsJSON),
		o.Total,
		string(o.PaymentMethod),
		o.CreatedAt.UnixNano(),
		o.Attendant,
		o.TableNumber,
		boolToInt(o.Acknowledged),
	)
	if err != nil {
		return &StorageError{Op: OpWrite, Err: fmt.Errorf("put order %s: %w", o.ID, err)}
	}

	return nil
}

// ListUnacknowledged returns all orders not yet accepted by the server,
// ordered by creation timestamp ascending.
func (s *Store) ListUnacknowledged(ctx context.Context) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, items, total, payment_method, created_at, attendant, table_number, acknowledged
		FROM orders
		WHERE acknowledged = 0
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, &StorageError{Op: OpRead, Err: fmt.Errorf("list unacknowledged: %w", err)}
	}
	defer rows.Close()

	return scanOrders(rows)
}

// MarkAcknowledged atomically flips an order's acknowledged flag to
// true. Returns ErrOrderNotFound (wrapped) if no such order exists.
func (s *Store) MarkAcknowledged(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET acknowledged = 1 WHERE id = ?
	`, id)
	if err != nil {
		return &StorageError{Op: OpWrite, Err: fmt.Errorf("mark acknowledged %s: %w", id, err)}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return &StorageError{Op: OpWrite, Err: fmt.Errorf("mark acknowledged %s: rows affected: %w", id, err)}
	}
	if n == 0 {
		return &StorageError{Op: OpWrite, Err: fmt.Errorf("mark acknowledged %s: %w", id, ErrOrderNotFound)}
	}

	return nil
}

// PurgeAcknowledged deletes acknowledged orders created before the
// cutoff and returns the count removed.
//
// Unacknowledged orders are never deleted regardless of age: an order
// the server has not accepted is retried indefinitely until success or
// manual intervention. No data loss beats automatic abandonment.
func (s *Store) PurgeAcknowledged(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM orders WHERE acknowledged = 1 AND created_at < ?
	`, olderThan.UnixNano())
	if err != nil {
		return 0, &StorageError{Op: OpWrite, Err: fmt.Errorf("purge acknowledged: %w", err)}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, &StorageError{Op: OpWrite, Err: fmt.Errorf("purge acknowledged: rows affected: %w", err)}
	}

	return n, nil
}

// GetOrder returns a single order by identifier.
// Returns ErrOrderNotFound (wrapped) if no such order exists.
func (s *Store) GetOrder(ctx context.Context, id string) (order.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, items, total, payment_method, created_at, attendant, table_number, acknowledged
		FROM orders
		WHERE id = ?
	`, id)

	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return order.Order{}, &StorageError{Op: OpRead, Err: fmt.Errorf("get order %s: %w", id, ErrOrderNotFound)}
	}
	if err != nil {
		return order.Order{}, &StorageError{Op: OpRead, Err: fmt.Errorf("get order %s: %w", id, err)}
	}

	return o, nil
}

// CountOrders returns the number of pending (unacknowledged) and
// acknowledged orders currently held.
func (s *Store) CountOrders(ctx context.Context) (pending, acknowledged int64, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE acknowledged = 0),
			COUNT(*) FILTER (WHERE acknowledged = 1)
		FROM orders
	`).Scan(&pending, &acknowledged)
	if err != nil {
		return 0, 0, &StorageError{Op: OpRead, Err: fmt.Errorf("count orders: %w", err)}
	}
	return pending, acknowledged, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON string
		method    string
		createdAt int64
		acked     int
	)
	if err := row.Scan(&o.ID, &itemsJSON, &o.Total, &method, &createdAt, &o.Attendant, &o.TableNumber, &acked); err != nil {
		return order.Order{}, err
	}

	if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
		return order.Order{}, fmt.Errorf("unmarshal items: %w", err)
	}

	o.PaymentMethod = order.PaymentMethod(method)
	o.CreatedAt = time.Unix(0, createdAt).UTC()
	o.Acknowledged = acked != 0

	return o, nil
}

func scanOrders(rows *sql.Rows) ([]order.Order, error) {
	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, &StorageError{Op: OpRead, Err: fmt.Errorf("scan order: %w", err)}
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: OpRead, Err: fmt.Errorf("iterate orders: %w", err)}
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
