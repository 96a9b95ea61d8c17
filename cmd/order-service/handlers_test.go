package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/MikeMC777/ordenes-admin/internal/activity"
	"github.com/MikeMC777/ordenes-admin/internal/config"
	ord "github.com/MikeMC777/ordenes-admin/internal/order"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

//
// ---------- STUBS & FAKES ----------
//

// memOrders implements ord.Repository in memory with the same version check
// as the Postgres repository.
type memOrders struct {
	mu       sync.Mutex
	orders   map[string]ord.Order
	items    map[string][]ord.Item
	conflict bool
}

func newMemOrders(orders ...ord.Order) *memOrders {
	m := &memOrders{orders: map[string]ord.Order{}, items: map[string][]ord.Item{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrders) GetByID(_ context.Context, id string) (*ord.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ord.ErrNotFound
	}
	return &o, nil
}

func (m *memOrders) GetItems(_ context.Context, orderID string) ([]ord.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ord.Item{}, m.items[orderID]...), nil
}

func (m *memOrders) ListByCustomer(_ context.Context, customerID string, limit int) ([]ord.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ord.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOrders) Update(_ context.Context, id string, version int, p ord.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ord.ErrNotFound
	}
	if m.conflict || o.Version != version {
		return ord.ErrConflict
	}
	p.Apply(&o)
	o.Version++
	m.orders[id] = o
	return nil
}

func (m *memOrders) DeleteItems(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, orderID)
	return nil
}

func (m *memOrders) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func (m *memOrders) get(id string) (ord.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	return o, ok
}

// vanishingOrders deletes the order just before writing it, as a concurrent
// delete would.
type vanishingOrders struct {
	*memOrders
}

func (v *vanishingOrders) Update(ctx context.Context, id string, version int, p ord.Patch) error {
	_ = v.memOrders.Delete(ctx, id)
	return v.memOrders.Update(ctx, id, version, p)
}

// brokenActivity fails every write.
type brokenActivity struct{}

func (brokenActivity) Append(context.Context, activity.Entry) error {
	return errors.New("activity store down")
}
func (brokenActivity) List(context.Context, activity.Filter) ([]activity.Entry, error) {
	return nil, nil
}
func (brokenActivity) DeleteByOrder(context.Context, string) error { return nil }

func preparingOrder(customerID string) ord.Order {
	now := time.Now().UTC()
	return ord.Order{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		Status:        ord.StatusPreparing,
		PaymentStatus: ord.PaymentPending,
		Subtotal:      decimal.NewFromInt(100),
		ShippingCost:  decimal.NewFromInt(10),
		Total:         decimal.NewFromInt(110),
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func sqliteActivity(t *testing.T) activity.Repository {
	t.Helper()
	repo, err := activity.OpenSQLite(filepath.Join(t.TempDir(), "activity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newTestRouter(t *testing.T, orders ord.Repository, log activity.Repository, keys []config.AdminKey) *gin.Engine {
	t.Helper()
	svc, err := activity.NewService(activity.ServiceDeps{Repository: log})
	require.NoError(t, err)
	m, err := ord.NewMutator(ord.MutatorDeps{Orders: orders, Activity: svc})
	require.NoError(t, err)
	return newRouter(routes{mutator: m, activity: svc, adminKeys: keys})
}

func do(h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func listActivity(t *testing.T, h http.Handler, orderID, action string) []activity.Entry {
	t.Helper()
	target := "/orders/" + orderID + "/activity"
	if action != "" {
		target += "?action=" + action
	}
	w := do(h, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res ActivityListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.Items
}

//
// ---------- TESTS ----------
//

func TestHealthz(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, newMemOrders(), sqliteActivity(t), nil)
	w := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestGetOrder_NotFound(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, newMemOrders(), sqliteActivity(t), nil)
	w := do(r, http.MethodGet, "/orders/"+uuid.NewString(), "")

	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["error"])
	assert.Equal(t, w.Header().Get("X-Request-ID"), body["request_id"])
}

func TestAdjustAmount_RecomputesTotalAndRecordsNote(t *testing.T) {
	t.Parallel()

	o := preparingOrder(uuid.NewString())
	orders := newMemOrders(o)
	r := newTestRouter(t, orders, sqliteActivity(t), nil)

	w := do(r, http.MethodPatch, "/orders/"+o.ID+"/amount",
		`{"discount": 15, "note": "loyalty"}`, "X-Admin-Id", "a-1", "X-Admin-Name", "alice")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res ord.AmountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.NewDiscount.Equal(decimal.NewFromInt(15)), res.NewDiscount.String())
	assert.True(t, res.NewTotal.Equal(decimal.NewFromInt(95)), res.NewTotal.String())

	stored, _ := orders.get(o.ID)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(95)))
	assert.Equal(t, 2, stored.Version)

	entries := listActivity(t, r, o.ID, "")
	require.Len(t, entries, 1)
	assert.Equal(t, activity.ActionNoteAdded, entries[0].Action)
	assert.Equal(t, "a-1", entries[0].AdminID)
	assert.Equal(t, "alice", entries[0].AdminName)
	assert.JSONEq(t, `{"note":"Discount changed by 15.00 (0.00 -> 15.00). Note: loyalty"}`, string(entries[0].NewValue))
}

func TestAdjustAmount_WithoutNoteRecordsNothing(t *testing.T) {
	t.Parallel()

	o := preparingOrder(uuid.NewString())
	r := newTestRouter(t, newMemOrders(o), sqliteActivity(t), nil)

	w := do(r, http.MethodPatch, "/orders/"+o.ID+"/amount", `{"discount": "200"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res ord.AmountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	// no floor on the total
	assert.True(t, res.NewTotal.Equal(decimal.NewFromInt(-90)), res.NewTotal.String())
	assert.Empty(t, listActivity(t, r, o.ID, ""))
}

func TestAdjustAmount_BadInput(t *testing.T) {
	t.Parallel()

	o := preparingOrder(uuid.NewString())
	r := newTestRouter(t, newMemOrders(o), sqliteActivity(t), nil)

	w := do(r, http.MethodPatch, "/orders/"+o.ID+"/amount", `{"note": 12}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = do(r, http.MethodPatch, "/orders/"+uuid.NewString()+"/amount", `{"discount": 1}`)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestAdjustAmount_SubCentDiscountRejected(t *testing.T) {
	t.Parallel()

	o := preparingOrder(uuid.NewString())
	orders := newMemOrders(o)
	r := newTestRouter(t, orders, sqliteActivity(t), nil)

	w := do(r, http.MethodPatch, "/orders/"+o.ID+"/amount", `{"discount": "0.005"}`)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	stored, _ := orders.get(o.ID)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(110)))
	assert.Equal(t, 1, stored.Version)
}

func TestAccessLogCarriesTraceIDs(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	core, logs := observer.New(zap.InfoLevel)

	svc, err := activity.NewService(activity.ServiceDeps{Repository: sqliteActivity(t)})
	require.NoError(t, err)
	m, err := ord.NewMutator(ord.MutatorDeps{Orders: newMemOrders(), Activity: svc, Tracer: tp.Tracer("test")})
	require.NoError(t, err)
	h := newHandler(routes{mutator: m, activity: svc, logger: zap.New(core), tracing: tp})

	w := do(h, http.MethodPatch, "/orders/"+uuid.NewString()+"/amount", `{"discount": "1.00"}`)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	var opSpan, serverSpan sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		switch {
		case s.Name() == "order.AdjustAmount":
			opSpan = s
		case s.SpanKind() == trace.SpanKindServer:
			serverSpan = s
		}
	}
	require.NotNil(t, opSpan)
	require.NotNil(t, serverSpan)
	assert.Equal(t, codes.Error, opSpan.Status().Code)
	assert.Equal(t, serverSpan.SpanContext().TraceID(), opSpan.SpanContext().TraceID())
	assert.Equal(t, serverSpan.SpanContext().SpanID(), opSpan.Parent().SpanID())

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, serverSpan.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, serverSpan.SpanContext().SpanID().String(), fields["span_id"])
}

func TestAdjustAmount_ConcurrentWriteConflicts(t *testing.T) {
	t.Parallel()

	o := preparingOrder(uuid.NewString())
	orders := newMemOrders(o)
	orders.conflict = true
	r := newTestRouter(t, orders, sqliteActivity(t), nil)

	w := do(r, http.MethodPatch, "/orders/"+o.ID+"/amount", `{"discount": 5, "note": "x"}`)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Empty(t, listActivity(t, r, o.ID, ""))
}

func TestSetPaymentStatus(t *testing.T) {
	t.Parallel()

	o := preparingOrder(uuid.NewString())
	orders := newMemOrders(o)
	r := newTestRouter(t, orders, sqliteActivity(t), nil)

	w := do(r, http.MethodPut, "/orders/"+o.ID+"/payment-status", `{"payment_status": "paid"}`)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	stored, _ := orders.get(o.ID)
	assert.Equal(t, ord.PaymentPending, stored.PaymentStatus)

	w = do(r, http.MethodPut, "/orders/"+o.ID+"/payment-status",
		`{"payment_status": "completed", "admin_name": "bob"}`, "X-Admin-Name", "alice")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stored, _ = orders.get(o.ID)
	assert.Equal(t, ord.PaymentCompleted, stored.PaymentStatus)

	entries := listActivity(t, r, o.ID, string(activity.ActionPaymentStatusChanged))
	require.Len(t, entries, 1)
	assert.JSONEq(t, `"pending"`, string(entries[0].OldValue))
	assert.JSONEq(t, `"completed"`, string(entries[0].NewValue))
	assert.Equal(t, "bob", entries[0].AdminName)
}

func TestUpdateShipping_TrackingNumberShipsPreparingOrder(t *testing.T) {
	t.Parallel()

	o := preparingOrder(uuid.NewString())
	orders := newMemOrders(o)
	r := newTestRouter(t, orders, sqliteActivity(t), nil)

	w := do(r, http.MethodPut, "/orders/"+o.ID+"/shipping", `{"tracking_number": "TRK123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated ord.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, ord.StatusShipped, updated.Status)
	require.NotNil(t, updated.TrackingNumber)
	assert.Equal(t, "TRK123", *updated.TrackingNumber)

	stored, _ := orders.get(o.ID)
	assert.Equal(t, ord.StatusShipped, stored.Status)

	shipping := listActivity(t, r, o.ID, string(activity.ActionShippingUpdated))
	require.Len(t, shipping, 1)
	var newValue map[string]any
	require.NoError(t, json.Unmarshal(shipping[0].NewValue, &newValue))
	assert.Equal(t, "TRK123", newValue["tracking_number"])

	all := listActivity(t, r, o.ID, "")
	require.Len(t, all, 2)
	assert.Equal(t, activity.ActionStatusChanged, all[0].Action)
	assert.JSONEq(t, `"preparing"`, string(all[0].OldValue))
	assert.JSONEq(t, `"shipped"`, string(all[0].NewValue))
	assert.Equal(t, activity.ActionShippingUpdated, all[1].Action)

	// Once shipped, a new tracking number changes no status.
	w = do(r, http.MethodPut, "/orders/"+o.ID+"/shipping", `{"tracking_number": "TRK999"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, listActivity(t, r, o.ID, string(activity.ActionStatusChanged)), 1)
	assert.Len(t, listActivity(t, r, o.ID, string(activity.ActionShippingUpdated)), 2)
}

func TestUpdateShipping_CarrierOnlyKeepsStatus(t *testing.T) {
	t.Parallel()

	o := preparingOrder(uuid.NewString())
	orders := newMemOrders(o)
	r := newTestRouter(t, orders, sqliteActivity(t), nil)

	w := do(r, http.MethodPut, "/orders/"+o.ID+"/shipping", `{"carrier": " DHL "}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, _ := orders.get(o.ID)
	assert.Equal(t, ord.StatusPreparing, stored.Status)
	require.NotNil(t, stored.ShippingCarrier)
	assert.Equal(t, "DHL", *stored.ShippingCarrier)
	assert.Nil(t, stored.TrackingNumber)
	assert.Empty(t, listActivity(t, r, o.ID, string(activity.ActionStatusChanged)))
}

func TestMutationsSurviveActivityFailure(t *testing.T) {
	t.Parallel()

	o := preparingOrder(uuid.NewString())
	orders := newMemOrders(o)
	r := newTestRouter(t, orders, brokenActivity{}, nil)

	w := do(r, http.MethodPatch, "/orders/"+o.ID+"/amount", `{"discount": 15, "note": "n"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(r, http.MethodPut, "/orders/"+o.ID+"/payment-status", `{"payment_status": "refunded"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(r, http.MethodPut, "/orders/"+o.ID+"/shipping", `{"tracking_number": "TRK1"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, _ := orders.get(o.ID)
	assert.Equal(t, ord.StatusShipped, stored.Status)
	assert.Equal(t, ord.PaymentRefunded, stored.PaymentStatus)
	assert.Equal(t, 4, stored.Version)

	// manual appends do surface the failure
	w = do(r, http.MethodPost, "/orders/"+o.ID+"/activity", `{"action": "note_added"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())
}

func TestUpdateShipping_DeletedMidwayIsNotFound(t *testing.T) {
	t.Parallel()

	o := preparingOrder(uuid.NewString())
	orders := &vanishingOrders{memOrders: newMemOrders(o)}
	r := newTestRouter(t, orders, sqliteActivity(t), nil)

	w := do(r, http.MethodPut, "/orders/"+o.ID+"/shipping", `{"tracking_number": "TRK1"}`)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	assert.Empty(t, listActivity(t, r, o.ID, ""))
}

func TestDeleteOrder_CascadesAndIsIdempotent(t *testing.T) {
	t.Parallel()

	o := preparingOrder(uuid.NewString())
	orders := newMemOrders(o)
	orders.items[o.ID] = []ord.Item{{ID: uuid.NewString(), OrderID: o.ID, ProductID: "p-1", Quantity: 1, Price: decimal.NewFromInt(100)}}
	r := newTestRouter(t, orders, sqliteActivity(t), nil)

	w := do(r, http.MethodPost, "/orders/"+o.ID+"/activity", `{"action": "note_added", "new_value": {"note": "call back"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, listActivity(t, r, o.ID, ""), 1)

	w = do(r, http.MethodDelete, "/orders/"+o.ID, "")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/orders/"+o.ID, "").Code)
	assert.Empty(t, listActivity(t, r, o.ID, ""))
	items, _ := orders.GetItems(context.Background(), o.ID)
	assert.Empty(t, items)

	w = do(r, http.MethodDelete, "/orders/"+o.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
}

func TestAppendActivity(t *testing.T) {
	t.Parallel()

	orderID := uuid.NewString()
	r := newTestRouter(t, newMemOrders(), sqliteActivity(t), nil)

	w := do(r, http.MethodPost, "/orders/"+orderID+"/activity", `{"new_value": {"note": "x"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/orders/"+orderID+"/activity",
		`{"action": "customer_called", "old_value": null, "new_value": {"note": "x"}, "admin_id": "a-9"}`,
		"X-Admin-Name", "carol")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var e activity.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, activity.Action("customer_called"), e.Action)
	assert.Equal(t, "a-9", e.AdminID)
	assert.Equal(t, "carol", e.AdminName)

	entries := listActivity(t, r, orderID, "customer_called")
	require.Len(t, entries, 1)
	assert.Equal(t, e.ID, entries[0].ID)
	assert.Empty(t, listActivity(t, r, orderID, string(activity.ActionNoteAdded)))
}

func TestListActivity_UnknownOrderIsEmpty(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, newMemOrders(), sqliteActivity(t), nil)
	w := do(r, http.MethodGet, "/orders/"+uuid.NewString()+"/activity", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestRelatedOrders(t *testing.T) {
	t.Parallel()

	customer := uuid.NewString()
	base := preparingOrder(customer)
	orders := []ord.Order{base}
	for i := 1; i <= 3; i++ {
		o := preparingOrder(customer)
		o.CreatedAt = base.CreatedAt.Add(-time.Duration(i) * time.Hour)
		orders = append(orders, o)
	}
	other := preparingOrder(uuid.NewString())
	orders = append(orders, other)
	r := newTestRouter(t, newMemOrders(orders...), sqliteActivity(t), nil)

	w := do(r, http.MethodGet, "/orders/"+base.ID+"/related?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res RelatedOrdersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Items, 2)
	assert.Equal(t, orders[1].ID, res.Items[0].ID)
	assert.Equal(t, orders[2].ID, res.Items[1].ID)

	w = do(r, http.MethodGet, "/orders/"+base.ID+"/related?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/orders/"+other.ID+"/related", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestAdminKeys(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	keys := []config.AdminKey{{Name: "ops", Hash: string(hash)}}

	o := preparingOrder(uuid.NewString())
	r := newTestRouter(t, newMemOrders(o), sqliteActivity(t), keys)

	w := do(r, http.MethodPut, "/orders/"+o.ID+"/payment-status", `{"payment_status": "failed"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPut, "/orders/"+o.ID+"/payment-status", `{"payment_status": "failed"}`,
		"Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPut, "/orders/"+o.ID+"/payment-status",
		`{"payment_status": "failed", "admin_name": "mallory"}`, "Authorization", "Bearer s3cret")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/orders/"+o.ID+"/activity", "", "Authorization", "Bearer s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	var res ActivityListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Items, 1)
	assert.Equal(t, "ops", res.Items[0].AdminName)
}
