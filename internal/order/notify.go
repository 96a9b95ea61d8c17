package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ShippingNotice is the body posted to the notification webhook.
type ShippingNotice struct {
	OrderID        string  `json:"order_id"`
	CustomerID     string  `json:"customer_id,omitempty"`
	Status         string  `json:"status"`
	Carrier        *string `json:"carrier"`
	TrackingNumber *string `json:"tracking_number"`
}

// WebhookNotifier forwards shipping changes to an external messaging service.
type WebhookNotifier struct {
	HTTP *http.Client
	URL  string
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		HTTP: &http.Client{Timeout: 5 * time.Second},
		URL:  url,
	}
}

func (n *WebhookNotifier) NotifyShipping(ctx context.Context, o Order) error {
	body, err := json.Marshal(ShippingNotice{
		OrderID:        o.ID,
		CustomerID:     o.CustomerID,
		Status:         o.Status,
		Carrier:        o.ShippingCarrier,
		TrackingNumber: o.TrackingNumber,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := n.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return nil
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("notify webhook not found")
	default:
		return fmt.Errorf("notify webhook error: %s", res.Status)
	}
}
