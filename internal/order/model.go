package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fulfilment statuses this package reads or writes. Any other value is stored
// as-is and never interpreted.
const (
	StatusPreparing = "preparing"
	StatusShipped   = "shipped"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// Valid reports whether s is one of the five recognised payment statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type Order struct {
	ID            string        `json:"id"`
	CustomerID    string        `json:"customer_id,omitempty"`
	Status        string        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	// Money is NUMERIC in Postgres and decimal here to avoid rounding errors.
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Total           decimal.Decimal `json:"total"`
	ShippingCarrier *string         `json:"shipping_carrier,omitempty"`
	TrackingNumber  *string         `json:"tracking_number,omitempty"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TotalWith returns subtotal - discount + shippingCost for the order's current
// subtotal and shipping cost.
func (o Order) TotalWith(discount decimal.Decimal) decimal.Decimal {
	return o.Subtotal.Sub(discount).Add(o.ShippingCost)
}

type Item struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Patch is one order write. Nil fields keep their stored value; a pointer to
// an empty string overwrites with the empty string.
type Patch struct {
	Discount        *decimal.Decimal
	Total           *decimal.Decimal
	PaymentStatus   *PaymentStatus
	Status          *string
	ShippingCarrier *string
	TrackingNumber  *string
}

// Apply copies the set fields of p onto o.
func (p Patch) Apply(o *Order) {
	if p.Discount != nil {
		o.Discount = *p.Discount
	}
	if p.Total != nil {
		o.Total = *p.Total
	}
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.ShippingCarrier != nil {
		v := *p.ShippingCarrier
		o.ShippingCarrier = &v
	}
	if p.TrackingNumber != nil {
		v := *p.TrackingNumber
		o.TrackingNumber = &v
	}
}
