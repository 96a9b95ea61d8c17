package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const defaultTimeout = 5 * time.Second

type Repository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
	GetItems(ctx context.Context, orderID string) ([]Item, error)
	// ListByCustomer returns the customer's newest orders first.
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]Order, error)
	// Update applies p only when the stored version still equals version.
	// It returns ErrNotFound when the order no longer exists and ErrConflict
	// when it exists at another version.
	Update(ctx context.Context, id string, version int, p Patch) error
	DeleteItems(ctx context.Context, orderID string) error
	Delete(ctx context.Context, id string) error
}

type PGRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPGRepo(db *pgxpool.Pool, timeout time.Duration) *PGRepo {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &PGRepo{db: db, timeout: timeout}
}

const orderColumns = `id, COALESCE(customer_id, ''), status, payment_status,
    subtotal::text, discount::text, shipping_cost::text, total::text,
    shipping_carrier, tracking_number, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o                                   Order
		payment                             string
		subtotal, discount, shipping, total string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &payment,
		&subtotal, &discount, &shipping, &total,
		&o.ShippingCarrier, &o.TrackingNumber, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.PaymentStatus = PaymentStatus(payment)

	var err error
	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("order %s: subtotal: %w", o.ID, err)
	}
	if o.Discount, err = decimal.NewFromString(discount); err != nil {
		return nil, fmt.Errorf("order %s: discount: %w", o.ID, err)
	}
	if o.ShippingCost, err = decimal.NewFromString(shipping); err != nil {
		return nil, fmt.Errorf("order %s: shipping cost: %w", o.ID, err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %s: total: %w", o.ID, err)
	}
	return &o, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
    SELECT id, order_id, product_id, quantity, price::text
    FROM order_items
    WHERE order_id = $1
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			it    Item
			price string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &price); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("order item %s: price: %w", it.ID, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) ListByCustomer(ctx context.Context, customerID string, limit int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, `
    SELECT `+orderColumns+`
    FROM orders WHERE customer_id=$1
    ORDER BY created_at DESC LIMIT $2
  `, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, id string, version int, p Patch) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var payment *string
	if p.PaymentStatus != nil {
		s := string(*p.PaymentStatus)
		payment = &s
	}

	tag, err := r.db.Exec(ctx, `
    UPDATE orders
    SET discount         = COALESCE($3::text::numeric, discount),
        total            = COALESCE($4::text::numeric, total),
        payment_status   = COALESCE($5::text, payment_status),
        status           = COALESCE($6::text, status),
        shipping_carrier = COALESCE($7::text, shipping_carrier),
        tracking_number  = COALESCE($8::text, tracking_number),
        version          = version + 1,
        updated_at       = NOW()
    WHERE id = $1 AND version = $2
  `, id, version, decimalArg(p.Discount), decimalArg(p.Total), payment, p.Status, p.ShippingCarrier, p.TrackingNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

func (r *PGRepo) DeleteItems(ctx context.Context, orderID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, orderID)
	return err
}

// Delete removes the order row. Deleting a missing order is not an error.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	return err
}

func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
