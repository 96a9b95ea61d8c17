package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS order_activity_log (
    id          TEXT PRIMARY KEY,
    order_id    TEXT NOT NULL,
    action      TEXT NOT NULL,
    old_value   TEXT,
    new_value   TEXT,
    admin_id    TEXT NOT NULL DEFAULT '',
    admin_name  TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_activity_log_order ON order_activity_log(order_id, created_at);
`

// Fixed width so that created_at sorts lexically in time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteRepo keeps the activity log in a local SQLite file for single-node
// deployments.
type SQLiteRepo struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: connect %q: %w", path, err)
	}
	// single writer avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

// NewSQLiteRepo wraps an already prepared database.
func NewSQLiteRepo(db *sql.DB) *SQLiteRepo { return &SQLiteRepo{db: db} }

func (r *SQLiteRepo) Close() error { return r.db.Close() }

func (r *SQLiteRepo) Append(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_activity_log (id, order_id, action, old_value, new_value, admin_id, admin_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OrderID, string(e.Action), jsonArg(e.OldValue), jsonArg(e.NewValue),
		e.AdminID, e.AdminName, e.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: append activity for %q: %w", e.OrderID, err)
	}
	return nil
}

func (r *SQLiteRepo) List(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, action, old_value, new_value, admin_id, admin_name, created_at
		FROM order_activity_log
		WHERE order_id = ? AND (? = '' OR action = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		f.OrderID, string(f.Action), string(f.Action), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list activity for %q: %w", f.OrderID, err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e               Entry
			action, created string
			oldVal, newVal  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &action, &oldVal, &newVal, &e.AdminID, &e.AdminName, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scan activity: %w", err)
		}
		e.Action = Action(action)
		if oldVal.Valid {
			e.OldValue = []byte(oldVal.String)
		}
		if newVal.Valid {
			e.NewValue = []byte(newVal.String)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("sqlite: parse time %q: %w", created, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list activity for %q: %w", f.OrderID, err)
	}
	return out, nil
}

func (r *SQLiteRepo) DeleteByOrder(ctx context.Context, orderID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM order_activity_log WHERE order_id = ?`, orderID); err != nil {
		return fmt.Errorf("sqlite: delete activity for %q: %w", orderID, err)
	}
	return nil
}
