package order

import "github.com/shopspring/decimal"

// AdjustAmountRequest payload for discount/total recompute.
// swagger:model AdjustAmountRequest
type AdjustAmountRequest struct {
	Discount  *decimal.Decimal `json:"discount"   swaggertype:"string" example:"15.00"`
	Note      *string          `json:"note"       example:"loyalty discount"`
	AdminName *string          `json:"admin_name" example:"alice"`
}

// PaymentStatusRequest payload for a payment status change.
// swagger:model PaymentStatusRequest
type PaymentStatusRequest struct {
	PaymentStatus string  `json:"payment_status" example:"completed"`
	AdminName     *string `json:"admin_name"     example:"alice"`
}

// ShippingRequest payload of partial shipping update. Omitted fields are left unchanged.
// swagger:model ShippingRequest
type ShippingRequest struct {
	Carrier        *string `json:"carrier"         example:"DHL"`
	TrackingNumber *string `json:"tracking_number" example:"TRK123"`
	NotifyCustomer bool    `json:"notify_customer"`
}

// AmountResponse resolved discount and total after an adjustment.
// swagger:model AmountResponse
type AmountResponse struct {
	NewDiscount decimal.Decimal `json:"new_discount" swaggertype:"string" example:"15"`
	NewTotal    decimal.Decimal `json:"new_total"    swaggertype:"string" example:"95"`
}

// OrderResponse order with its items.
// swagger:model OrderResponse
type OrderResponse struct {
	Order Order  `json:"order"`
	Items []Item `json:"items"`
}
