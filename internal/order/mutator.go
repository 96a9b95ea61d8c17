package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/MikeMC777/ordenes-admin/internal/activity"
	"github.com/MikeMC777/ordenes-admin/internal/cache"
)

const (
	maxNoteLength       = 2000
	defaultRelatedLimit = 10
	maxRelatedLimit     = 50
	moneyScale          = 2
	defaultRelatedTTL   = 30 * time.Second
)

// Money columns are NUMERIC(12,2).
var maxMoney = decimal.New(1, 10)

// ActivityLog is the audit trail the mutator writes to.
type ActivityLog interface {
	// Record must not fail the caller; implementations contain their own errors.
	Record(ctx context.Context, e activity.Entry)
	DeleteByOrder(ctx context.Context, orderID string) error
}

// Notifier tells the customer their shipment changed.
type Notifier interface {
	NotifyShipping(ctx context.Context, o Order) error
}

// Admin identifies who performed a mutation. Both fields are optional.
type Admin struct {
	ID   string
	Name string
}

// MutatorDeps bundles collaborators required to construct a Mutator.
type MutatorDeps struct {
	Orders   Repository
	Activity ActivityLog
	Notifier Notifier
	// Cache is optional; when nil related orders are always read from Orders.
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   *zap.Logger
	Tracer   trace.Tracer
}

// Mutator owns every change to an order's financial or logistics state.
// Each operation reads the order, writes the new state guarded by the
// version it read, and then records activity on a best-effort basis.
type Mutator struct {
	orders   Repository
	activity ActivityLog
	notifier Notifier
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewMutator(deps MutatorDeps) (*Mutator, error) {
	if deps.Orders == nil {
		return nil, errors.New("order mutator: order repository is required")
	}
	if deps.Activity == nil {
		return nil, errors.New("order mutator: activity log is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/MikeMC777/ordenes-admin/internal/order")
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = defaultRelatedTTL
	}
	return &Mutator{
		orders:   deps.Orders,
		activity: deps.Activity,
		notifier: deps.Notifier,
		cache:    deps.Cache,
		cacheTTL: ttl,
		logger:   logger,
		tracer:   tracer,
	}, nil
}

type AdjustAmountInput struct {
	OrderID  string
	Discount *decimal.Decimal
	Note     *string
	Admin    Admin
}

// AdjustAmount sets the discount (or keeps the current one) and recomputes
// total = subtotal - discount + shippingCost. No floor is applied: a large
// discount can produce a negative total.
func (m *Mutator) AdjustAmount(ctx context.Context, in AdjustAmountInput) (res AmountResponse, err error) {
	ctx, span := m.tracer.Start(ctx, "order.AdjustAmount")
	defer func() { finishSpan(span, err) }()

	if err := requireID(in.OrderID); err != nil {
		return AmountResponse{}, err
	}
	note := ""
	if in.Note != nil {
		note = strings.TrimSpace(*in.Note)
		if len(note) > maxNoteLength {
			return AmountResponse{}, fmt.Errorf("%w: note longer than %d characters", ErrValidation, maxNoteLength)
		}
	}

	current, err := m.load(ctx, in.OrderID)
	if err != nil {
		return AmountResponse{}, err
	}

	discount := current.Discount
	if in.Discount != nil {
		if err := validMoney(*in.Discount); err != nil {
			return AmountResponse{}, err
		}
		discount = in.Discount.Round(moneyScale)
	}
	total := current.TotalWith(discount)
	if err := validMoney(total); err != nil {
		return AmountResponse{}, err
	}

	if err := m.write(ctx, current, Patch{Discount: &discount, Total: &total}); err != nil {
		return AmountResponse{}, err
	}

	if note != "" {
		delta := discount.Sub(current.Discount)
		summary := fmt.Sprintf("Discount changed by %s (%s -> %s). Note: %s",
			delta.StringFixed(2), current.Discount.StringFixed(2), discount.StringFixed(2), note)
		m.record(ctx, activity.Entry{
			OrderID:   current.ID,
			Action:    activity.ActionNoteAdded,
			NewValue:  activity.Value(map[string]string{"note": summary}),
			AdminID:   in.Admin.ID,
			AdminName: in.Admin.Name,
		})
	}
	m.invalidateRelated(ctx, current.CustomerID)

	return AmountResponse{NewDiscount: discount, NewTotal: total}, nil
}

// SetPaymentStatus assigns any recognised payment status; there is no
// transition table between payment statuses.
func (m *Mutator) SetPaymentStatus(ctx context.Context, orderID string, status PaymentStatus, admin Admin) (err error) {
	ctx, span := m.tracer.Start(ctx, "order.SetPaymentStatus")
	defer func() { finishSpan(span, err) }()

	if err := requireID(orderID); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown payment status %q", ErrValidation, status)
	}

	current, err := m.load(ctx, orderID)
	if err != nil {
		return err
	}
	if err := m.write(ctx, current, Patch{PaymentStatus: &status}); err != nil {
		return err
	}

	m.record(ctx, activity.Entry{
		OrderID:   current.ID,
		Action:    activity.ActionPaymentStatusChanged,
		OldValue:  activity.Value(current.PaymentStatus),
		NewValue:  activity.Value(status),
		AdminID:   admin.ID,
		AdminName: admin.Name,
	})
	m.invalidateRelated(ctx, current.CustomerID)
	return nil
}

// UpdateShipping overwrites the carrier and tracking number fields present in
// the input and, when a tracking number arrives for a preparing order, marks
// it shipped in the same write. It returns the order as written.
func (m *Mutator) UpdateShipping(ctx context.Context, in ShippingInput) (out *Order, err error) {
	ctx, span := m.tracer.Start(ctx, "order.UpdateShipping")
	defer func() { finishSpan(span, err) }()

	if err := requireID(in.OrderID); err != nil {
		return nil, err
	}
	current, err := m.load(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	patch, shipped := shippingPatch(*current, in)
	if err := m.write(ctx, current, patch); err != nil {
		return nil, err
	}

	updated := *current
	patch.Apply(&updated)
	updated.Version++
	updated.UpdatedAt = time.Now().UTC()

	m.record(ctx, activity.Entry{
		OrderID:   current.ID,
		Action:    activity.ActionShippingUpdated,
		OldValue:  activity.Value(shippingValue{Carrier: current.ShippingCarrier, TrackingNumber: current.TrackingNumber}),
		NewValue:  activity.Value(shippingValue{Carrier: updated.ShippingCarrier, TrackingNumber: updated.TrackingNumber}),
		AdminID:   in.Admin.ID,
		AdminName: in.Admin.Name,
	})
	if shipped {
		m.record(ctx, activity.Entry{
			OrderID:   current.ID,
			Action:    activity.ActionStatusChanged,
			OldValue:  activity.Value(current.Status),
			NewValue:  activity.Value(updated.Status),
			AdminID:   in.Admin.ID,
			AdminName: in.Admin.Name,
		})
	}

	if in.NotifyCustomer && m.notifier != nil {
		if err := m.notifier.NotifyShipping(ctx, updated); err != nil {
			m.logger.Warn("shipping notification failed", zap.String("order_id", updated.ID), zap.Error(err))
		}
	}
	m.invalidateRelated(ctx, current.CustomerID)

	return &updated, nil
}

// DeleteOrder removes the order's activity entries, then its items, then the
// order row. The steps are not atomic: a failure stops the sequence and leaves
// earlier deletions in place. A missing order is not an error.
func (m *Mutator) DeleteOrder(ctx context.Context, orderID string) (err error) {
	ctx, span := m.tracer.Start(ctx, "order.DeleteOrder")
	defer func() { finishSpan(span, err) }()

	if err := requireID(orderID); err != nil {
		return err
	}

	// Only needed for cache invalidation; absence is fine.
	customerID := ""
	if o, err := m.orders.GetByID(ctx, orderID); err == nil {
		customerID = o.CustomerID
	}

	if err := m.activity.DeleteByOrder(ctx, orderID); err != nil {
		return fmt.Errorf("%w: delete activity: %w", ErrPersistence, err)
	}
	if err := m.orders.DeleteItems(ctx, orderID); err != nil {
		return fmt.Errorf("%w: delete items: %w", ErrPersistence, err)
	}
	if err := m.orders.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("%w: delete order: %w", ErrPersistence, err)
	}
	m.invalidateRelated(ctx, customerID)
	return nil
}

// Get loads one order with its items.
func (m *Mutator) Get(ctx context.Context, orderID string) (*OrderResponse, error) {
	if err := requireID(orderID); err != nil {
		return nil, err
	}
	o, err := m.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := m.orders.GetItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return &OrderResponse{Order: *o, Items: items}, nil
}

// RelatedOrders returns other orders of the same customer, newest first.
func (m *Mutator) RelatedOrders(ctx context.Context, orderID string, limit int) (out []Order, err error) {
	ctx, span := m.tracer.Start(ctx, "order.RelatedOrders")
	defer func() { finishSpan(span, err) }()

	if err := requireID(orderID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRelatedLimit
	}
	if limit > maxRelatedLimit {
		limit = maxRelatedLimit
	}

	current, err := m.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.CustomerID == "" {
		return []Order{}, nil
	}

	orders, err := m.customerOrders(ctx, current.CustomerID)
	if err != nil {
		return nil, err
	}
	out = make([]Order, 0, limit)
	for _, o := range orders {
		if o.ID == current.ID {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, o)
	}
	return out, nil
}

// customerOrders reads the customer's newest orders, enough to fill the
// largest related page after excluding one order.
func (m *Mutator) customerOrders(ctx context.Context, customerID string) ([]Order, error) {
	key := ""
	if m.cache != nil {
		key = m.cache.GenerateKey("related", customerID)
		if raw, err := m.cache.Get(ctx, key); err != nil {
			m.logger.Debug("related cache read failed", zap.String("key", key), zap.Error(err))
		} else if raw != "" {
			var cached []Order
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	orders, err := m.orders.ListByCustomer(ctx, customerID, maxRelatedLimit+1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if m.cache != nil {
		if b, err := json.Marshal(orders); err == nil {
			if err := m.cache.Set(ctx, key, string(b), m.cacheTTL); err != nil {
				m.logger.Debug("related cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return orders, nil
}

// record appends an audit entry even when the caller has gone away; the
// store timeout still bounds it.
func (m *Mutator) record(ctx context.Context, e activity.Entry) {
	m.activity.Record(context.WithoutCancel(ctx), e)
}

func (m *Mutator) invalidateRelated(ctx context.Context, customerID string) {
	if m.cache == nil || customerID == "" {
		return
	}
	key := m.cache.GenerateKey("related", customerID)
	if err := m.cache.Delete(ctx, key); err != nil {
		m.logger.Warn("related cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func (m *Mutator) load(ctx context.Context, id string) (*Order, error) {
	o, err := m.orders.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrPersistence, id, err)
	}
	return o, nil
}

func (m *Mutator) write(ctx context.Context, current *Order, p Patch) error {
	err := m.orders.Update(ctx, current.ID, current.Version, p)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, current.ID)
	}
	if errors.Is(err, ErrConflict) {
		return fmt.Errorf("%w: %s changed since version %d", ErrConflict, current.ID, current.Version)
	}
	if err != nil {
		return fmt.Errorf("%w: update %s: %w", ErrPersistence, current.ID, err)
	}
	return nil
}

// validMoney rejects amounts the money columns cannot hold exactly.
func validMoney(d decimal.Decimal) error {
	if !d.Equal(d.Round(moneyScale)) {
		return fmt.Errorf("%w: amount %s has more than %d decimal places", ErrValidation, d.String(), moneyScale)
	}
	if d.Abs().GreaterThanOrEqual(maxMoney) {
		return fmt.Errorf("%w: amount %s out of range", ErrValidation, d.String())
	}
	return nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: order id is required", ErrValidation)
	}
	return nil
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
