package activity

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists entries. The table is append-only; DeleteByOrder exists
// only for cascading order deletion.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	// List returns matching entries newest first.
	List(ctx context.Context, f Filter) ([]Entry, error)
	DeleteByOrder(ctx context.Context, orderID string) error
}

type PGRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPGRepo(db *pgxpool.Pool, timeout time.Duration) *PGRepo {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PGRepo{db: db, timeout: timeout}
}

func (r *PGRepo) Append(ctx context.Context, e Entry) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO order_activity_log (id, order_id, action, old_value, new_value, admin_id, admin_name, created_at)
		VALUES ($1, $2, $3, $4::text::jsonb, $5::text::jsonb, NULLIF($6, ''), NULLIF($7, ''), $8)
	`, e.ID, e.OrderID, string(e.Action), jsonArg(e.OldValue), jsonArg(e.NewValue), e.AdminID, e.AdminName, e.CreatedAt)
	return err
}

func (r *PGRepo) List(ctx context.Context, f Filter) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, action, old_value::text, new_value::text,
		       COALESCE(admin_id, ''), COALESCE(admin_name, ''), created_at
		FROM order_activity_log
		WHERE order_id = $1 AND ($2 = '' OR action = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($3, 0)
	`, f.OrderID, string(f.Action), f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e            Entry
			action       string
			oldVal, newV *string
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &action, &oldVal, &newV, &e.AdminID, &e.AdminName, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		e.OldValue = rawOrNil(oldVal)
		e.NewValue = rawOrNil(newV)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PGRepo) DeleteByOrder(ctx context.Context, orderID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM order_activity_log WHERE order_id = $1`, orderID)
	return err
}

func jsonArg(v []byte) *string {
	if len(v) == 0 {
		return nil
	}
	s := string(v)
	return &s
}

func rawOrNil(s *string) []byte {
	if s == nil {
		return nil
	}
	return []byte(*s)
}
