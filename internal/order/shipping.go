package order

import "strings"

// ShippingInput is a partial shipping update. Nil fields are left unchanged;
// a non-nil empty string clears the stored value.
type ShippingInput struct {
	OrderID        string
	Carrier        *string
	TrackingNumber *string
	NotifyCustomer bool
	Admin          Admin
}

// shippingPatch builds the single write for a shipping update and reports
// whether it moves the order from preparing to shipped. That move needs a
// non-empty tracking number and a current status of preparing, so repeating
// the call on a shipped order changes nothing further.
func shippingPatch(current Order, in ShippingInput) (Patch, bool) {
	var p Patch
	if in.Carrier != nil {
		v := strings.TrimSpace(*in.Carrier)
		p.ShippingCarrier = &v
	}
	if in.TrackingNumber != nil {
		v := strings.TrimSpace(*in.TrackingNumber)
		p.TrackingNumber = &v
	}

	if p.TrackingNumber == nil || *p.TrackingNumber == "" || current.Status != StatusPreparing {
		return p, false
	}
	shipped := StatusShipped
	p.Status = &shipped
	return p, true
}

type shippingValue struct {
	Carrier        *string `json:"carrier"`
	TrackingNumber *string `json:"tracking_number"`
}
