package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/ordenes-admin/internal/activity"
	"github.com/MikeMC777/ordenes-admin/internal/httpx"
	ord "github.com/MikeMC777/ordenes-admin/internal/order"
)

// ActivityListResponse entries of one order, newest first.
// swagger:model ActivityListResponse
type ActivityListResponse struct {
	Items []activity.Entry `json:"items"`
}

// RelatedOrdersResponse other orders of the same customer.
// swagger:model RelatedOrdersResponse
type RelatedOrdersResponse struct {
	Items []ord.Order `json:"items"`
}

// PaymentStatusResponse acknowledges a payment status change.
// swagger:model PaymentStatusResponse
type PaymentStatusResponse struct {
	ID            string `json:"id"`
	PaymentStatus string `json:"payment_status"`
}

// AppendActivityRequest manual activity entry.
// swagger:model AppendActivityRequest
type AppendActivityRequest struct {
	Action    string          `json:"action"     example:"note_added"`
	OldValue  json.RawMessage `json:"old_value"  swaggertype:"object"`
	NewValue  json.RawMessage `json:"new_value"  swaggertype:"object"`
	AdminID   string          `json:"admin_id"`
	AdminName string          `json:"admin_name"`
}

// getOrderHandler godoc
// @Summary  Get an order with its items
// @Tags     orders
// @Produce  json
// @Param    id  path  string  true  "Order ID"
// @Success  200 {object} order.OrderResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /orders/{id} [get]
func getOrderHandler(m *ord.Mutator) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := m.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// adjustAmountHandler godoc
// @Summary  Set the discount and recompute the total
// @Tags     orders
// @Accept   json
// @Produce  json
// @Param    id    path  string                    true  "Order ID"
// @Param    body  body  order.AdjustAmountRequest true  "Discount and note"
// @Success  200 {object} order.AmountResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Failure  409 {object} httpx.ErrorResponse
// @Router   /orders/{id}/amount [patch]
func adjustAmountHandler(m *ord.Mutator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.AdjustAmountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.WriteError(c, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		res, err := m.AdjustAmount(c.Request.Context(), ord.AdjustAmountInput{
			OrderID:  c.Param("id"),
			Discount: req.Discount,
			Note:     req.Note,
			Admin:    actingAdmin(c, "", deref(req.AdminName)),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// setPaymentStatusHandler godoc
// @Summary  Set the payment status
// @Tags     orders
// @Accept   json
// @Produce  json
// @Param    id    path  string                     true  "Order ID"
// @Param    body  body  order.PaymentStatusRequest true  "pending|processing|completed|failed|refunded"
// @Success  200 {object} PaymentStatusResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /orders/{id}/payment-status [put]
func setPaymentStatusHandler(m *ord.Mutator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.PaymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.WriteError(c, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		status := ord.PaymentStatus(strings.TrimSpace(req.PaymentStatus))
		id := c.Param("id")
		if err := m.SetPaymentStatus(c.Request.Context(), id, status, actingAdmin(c, "", deref(req.AdminName))); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, PaymentStatusResponse{ID: id, PaymentStatus: string(status)})
	}
}

// updateShippingHandler godoc
// @Summary  Set carrier and tracking number; a tracking number ships a preparing order
// @Tags     orders
// @Accept   json
// @Produce  json
// @Param    id    path  string                true  "Order ID"
// @Param    body  body  order.ShippingRequest true  "Shipping fields to overwrite"
// @Success  200 {object} order.Order
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /orders/{id}/shipping [put]
func updateShippingHandler(m *ord.Mutator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.ShippingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.WriteError(c, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		updated, err := m.UpdateShipping(c.Request.Context(), ord.ShippingInput{
			OrderID:        c.Param("id"),
			Carrier:        req.Carrier,
			TrackingNumber: req.TrackingNumber,
			NotifyCustomer: req.NotifyCustomer,
			Admin:          actingAdmin(c, "", ""),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// deleteOrderHandler godoc
// @Summary  Delete an order with its items and activity
// @Tags     orders
// @Param    id  path  string  true  "Order ID"
// @Success  204
// @Failure  500 {object} httpx.ErrorResponse
// @Router   /orders/{id} [delete]
func deleteOrderHandler(m *ord.Mutator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// listActivityHandler godoc
// @Summary  List an order's activity, newest first
// @Tags     activity
// @Produce  json
// @Param    id      path   string  true   "Order ID"
// @Param    action  query  string  false  "Only this action"
// @Success  200 {object} ActivityListResponse
// @Router   /orders/{id}/activity [get]
func listActivityHandler(svc *activity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := svc.List(c.Request.Context(), c.Param("id"), activity.Action(c.Query("action")))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ActivityListResponse{Items: entries})
	}
}

// appendActivityHandler godoc
// @Summary  Append a manual activity entry
// @Tags     activity
// @Accept   json
// @Produce  json
// @Param    id    path  string                 true  "Order ID"
// @Param    body  body  AppendActivityRequest  true  "Entry"
// @Success  201 {object} activity.Entry
// @Failure  400 {object} httpx.ErrorResponse
// @Router   /orders/{id}/activity [post]
func appendActivityHandler(svc *activity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AppendActivityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.WriteError(c, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		admin := actingAdmin(c, req.AdminID, req.AdminName)
		e, err := svc.Append(c.Request.Context(), activity.AppendInput{
			OrderID:   c.Param("id"),
			Action:    req.Action,
			OldValue:  req.OldValue,
			NewValue:  req.NewValue,
			AdminID:   admin.ID,
			AdminName: admin.Name,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, e)
	}
}

// relatedOrdersHandler godoc
// @Summary  Other orders of the same customer
// @Tags     orders
// @Produce  json
// @Param    id     path   string  true   "Order ID"
// @Param    limit  query  int     false  "Max results (default 10, max 50)"
// @Success  200 {object} RelatedOrdersResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /orders/{id}/related [get]
func relatedOrdersHandler(m *ord.Mutator) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				httpx.WriteError(c, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		orders, err := m.RelatedOrders(c.Request.Context(), c.Param("id"), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, RelatedOrdersResponse{Items: orders})
	}
}

// actingAdmin merges the request's admin identity with body-supplied
// attribution. A key-verified identity is never overridden.
func actingAdmin(c *gin.Context, bodyID, bodyName string) ord.Admin {
	a := httpx.AdminFrom(c)
	out := ord.Admin{ID: a.ID, Name: a.Name}
	if a.Verified {
		return out
	}
	if v := strings.TrimSpace(bodyID); v != "" {
		out.ID = v
	}
	if v := strings.TrimSpace(bodyName); v != "" {
		out.Name = v
	}
	return out
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, ord.ErrValidation), errors.Is(err, activity.ErrInvalidEntry):
		httpx.WriteError(c, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ord.ErrNotFound):
		httpx.WriteError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ord.ErrConflict):
		httpx.WriteError(c, http.StatusConflict, "conflict", err.Error())
	default:
		httpx.WriteError(c, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
