package ordersvc

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/orders/internal/dal/interfaces/iauditrepo"
	"github.com/orderflow/orders/internal/dal/interfaces/iorderitemrepo"
	"github.com/orderflow/orders/internal/dal/interfaces/iorderrepo"
	"github.com/orderflow/orders/internal/service/errs"
	"github.com/orderflow/orders/internal/service/models/auditlog"
	"github.com/orderflow/orders/internal/service/models/order"
	"github.com/orderflow/orders/internal/service/models/orderitem"
	"github.com/orderflow/orders/internal/service/models/status"
)

// memStore is a process-local stand-in for the Postgres schema. All fake
// repositories bound to one unit of work share it.
type memStore struct {
	orders      map[uuid.UUID]*order.Order
	items       map[uuid.UUID][]orderitem.OrderItem
	audits      []auditlog.AuditLog
	nextItemID  int64
	nextAuditID int64
}

func newMemStore() *memStore {
	return &memStore{
		orders: map[uuid.UUID]*order.Order{},
		items:  map[uuid.UUID][]orderitem.OrderItem{},
	}
}

func (s *memStore) visibleOrders(filter *order.QueryOrdersModel) []order.Order {
	var result []order.Order
	for _, o := range s.orders {
		if o.DeletedAt != nil {
			continue
		}
		if filter != nil && filter.Status != "" && o.Status.String() != filter.Status {
			continue
		}
		if filter != nil && filter.CustomerName != "" &&
			!strings.Contains(strings.ToLower(o.CustomerName), strings.ToLower(filter.CustomerName)) {
			continue
		}
		result = append(result, *o)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}

		return result[i].ID.String() > result[j].ID.String()
	})

	return result
}

type fakeOrderRepo struct{ store *memStore }

func (r *fakeOrderRepo) Insert(_ context.Context, o order.Order) error {
	o.Items = nil
	r.store.orders[o.ID] = &o

	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.store.orders[id]
	if !ok || o.DeletedAt != nil {
		return nil, nil
	}
	copied := *o

	return &copied, nil
}

func (r *fakeOrderRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, next status.Status, updatedAt time.Time) error {
	o := r.store.orders[id]
	o.Status = next
	o.UpdatedAt = updatedAt

	return nil
}

func (r *fakeOrderRepo) SoftDelete(_ context.Context, id uuid.UUID, deletedAt time.Time) error {
	o := r.store.orders[id]
	o.DeletedAt = &deletedAt
	o.UpdatedAt = deletedAt

	return nil
}

func (r *fakeOrderRepo) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	rows := r.store.visibleOrders(filter)

	if filter.Offset >= len(rows) {
		return nil, nil
	}
	rows = rows[filter.Offset:]
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}

	return rows, nil
}

func (r *fakeOrderRepo) Count(_ context.Context, filter *order.QueryOrdersModel) (int64, error) {
	return int64(len(r.store.visibleOrders(filter))), nil
}

func (r *fakeOrderRepo) QueryWithCursor(
	_ context.Context,
	cursor *order.Cursor,
	limit int,
	filter *order.QueryOrdersModel,
) ([]order.Order, error) {
	rows := r.store.visibleOrders(filter)

	if cursor != nil {
		var after []order.Order
		for _, o := range rows {
			if o.CreatedAt.Before(cursor.CreatedAt) ||
				(o.CreatedAt.Equal(cursor.CreatedAt) && o.ID.String() < cursor.ID) {
				after = append(after, o)
			}
		}
		rows = after
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}

	return rows, nil
}

type fakeOrderItemRepo struct{ store *memStore }

func (r *fakeOrderItemRepo) BulkInsert(_ context.Context, orderItems []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	inserted := make([]orderitem.OrderItem, len(orderItems))
	for i, item := range orderItems {
		r.store.nextItemID++
		item.ID = r.store.nextItemID
		r.store.items[item.OrderID] = append(r.store.items[item.OrderID], item)
		inserted[i] = item
	}

	return inserted, nil
}

func (r *fakeOrderItemRepo) QueryByOrderIDs(_ context.Context, orderIDs []uuid.UUID) ([]orderitem.OrderItem, error) {
	var result []orderitem.OrderItem
	for _, id := range orderIDs {
		result = append(result, r.store.items[id]...)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result, nil
}

type fakeAuditRepo struct{ store *memStore }

func (r *fakeAuditRepo) Insert(_ context.Context, entry auditlog.AuditLog) (auditlog.AuditLog, error) {
	r.store.nextAuditID++
	entry.ID = r.store.nextAuditID
	r.store.audits = append(r.store.audits, entry)

	return entry, nil
}

func (r *fakeAuditRepo) QueryByOrderID(_ context.Context, orderID uuid.UUID) ([]auditlog.AuditLog, error) {
	var result []auditlog.AuditLog
	for _, entry := range r.store.audits {
		if entry.OrderID == orderID {
			result = append(result, entry)
		}
	}

	return result, nil
}

type fakeUOW struct {
	store      *memStore
	begun      bool
	committed  bool
	rolledBack bool
}

func (w *fakeUOW) Begin(context.Context) error { w.begun = true; return nil }

func (w *fakeUOW) Commit(context.Context) error { w.committed = true; return nil }

func (w *fakeUOW) Rollback(context.Context) error { w.rolledBack = true; return nil }

func (w *fakeUOW) OrderRepository() iorderrepo.IOrderRepository {
	return &fakeOrderRepo{store: w.store}
}

func (w *fakeUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return &fakeOrderItemRepo{store: w.store}
}

func (w *fakeUOW) AuditRepository() iauditrepo.IAuditRepository {
	return &fakeAuditRepo{store: w.store}
}

type fakeCache struct {
	orders      map[uuid.UUID]*order.Order
	sets        int
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{orders: map[uuid.UUID]*order.Order{}}
}

func (c *fakeCache) GetOrder(_ context.Context, id uuid.UUID) (*order.Order, bool) {
	o, ok := c.orders[id]

	return o, ok
}

func (c *fakeCache) SetOrder(_ context.Context, o *order.Order) {
	c.sets++
	c.orders[o.ID] = o
}

func (c *fakeCache) InvalidateOrder(_ context.Context, id uuid.UUID) {
	c.invalidated++
	delete(c.orders, id)
}

type harness struct {
	store *memStore
	cache *fakeCache
	svc   *OrderService
	uows  []*fakeUOW
}

func newHarness() *harness {
	h := &harness{store: newMemStore(), cache: newFakeCache()}
	h.svc = MustNewOrderService(
		WithOrderCache(h.cache),
		WithUnitOfWorkFactory(func() unitOfWork {
			w := &fakeUOW{store: h.store}
			h.uows = append(h.uows, w)

			return w
		}),
	)

	return h
}

func (h *harness) lastUOW() *fakeUOW {
	return h.uows[len(h.uows)-1]
}

func (h *harness) seedOrder(st status.Status, customerName string, createdAt time.Time) *order.Order {
	o := &order.Order{
		ID:           uuid.New(),
		CustomerName: customerName,
		Status:       st,
		Subtotal:     decimal.RequireFromString("10"),
		Discount:     decimal.Zero,
		Tax:          decimal.Zero,
		Total:        decimal.RequireFromString("10"),
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	h.store.orders[o.ID] = o

	return o
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "got %s, want %s", got, want)
}

var testOrigin = auditlog.Origin{IP: "192.0.2.10", UserAgent: "go-test"}

func TestCreateOrderComputesTotals(t *testing.T) {
	h := newHarness()

	discount := dec("10")
	tax := dec("5")
	o, err := h.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Maria Silva",
		Items: []CreateOrderItemInput{
			{ProductName: "Widget", Quantity: 3, UnitPrice: dec("9.99")},
			{ProductName: "Gadget", Quantity: 1, UnitPrice: dec("170.03")},
		},
		Discount: &discount,
		Tax:      &tax,
	}, testOrigin)
	require.NoError(t, err)

	assert.Equal(t, status.StatusDraft, o.Status)
	assertDecEqual(t, "200", o.Subtotal)
	assertDecEqual(t, "195", o.Total)
	require.Len(t, o.Items, 2)
	assertDecEqual(t, "29.97", o.Items[0].TotalPrice)
	assert.Equal(t, o.ID, o.Items[0].OrderID)
	assert.NotZero(t, o.Items[0].ID)

	assert.True(t, h.lastUOW().committed)
	assert.False(t, h.lastUOW().rolledBack)

	require.Len(t, h.store.audits, 1)
	entry := h.store.audits[0]
	assert.Equal(t, auditlog.ActionCreated, entry.Action)
	assert.Equal(t, o.ID, entry.OrderID)
	require.NotNil(t, entry.NewValue)
	assert.Equal(t, "draft", *entry.NewValue)
	assert.NotEmpty(t, entry.Changes)
	assert.Equal(t, testOrigin.IP, entry.IPAddress)
	assert.Equal(t, testOrigin.UserAgent, entry.UserAgent)
}

func TestCreateOrderDefaultsDiscountAndTax(t *testing.T) {
	h := newHarness()

	o, err := h.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Maria Silva",
		Items: []CreateOrderItemInput{
			{ProductName: "Widget", Quantity: 1, UnitPrice: dec("29.97")},
		},
	}, testOrigin)
	require.NoError(t, err)

	assertDecEqual(t, "0", o.Discount)
	assertDecEqual(t, "0", o.Tax)
	assertDecEqual(t, "29.97", o.Total)
}

func TestCreateOrderValidation(t *testing.T) {
	h := newHarness()

	negative := dec("-1")
	tests := []struct {
		name   string
		input  CreateOrderInput
		fields []string
	}{
		{
			name:   "missing everything",
			input:  CreateOrderInput{},
			fields: []string{"customer_name", "items"},
		},
		{
			name: "bad item fields",
			input: CreateOrderInput{
				CustomerName: "Maria Silva",
				Items: []CreateOrderItemInput{
					{ProductName: "", Quantity: 0, UnitPrice: dec("0")},
				},
			},
			fields: []string{"items[0].product_name", "items[0].quantity", "items[0].unit_price"},
		},
		{
			name: "negative adjustments",
			input: CreateOrderInput{
				CustomerName: "Maria Silva",
				Items: []CreateOrderItemInput{
					{ProductName: "Widget", Quantity: 1, UnitPrice: dec("1")},
				},
				Discount: &negative,
				Tax:      &negative,
			},
			fields: []string{"discount", "tax"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.CreateOrder(context.Background(), tt.input, testOrigin)

			var vErr *errs.ValidationError
			require.ErrorAs(t, err, &vErr)

			got := make([]string, len(vErr.Fields))
			for i, f := range vErr.Fields {
				got[i] = f.Field
			}
			for _, field := range tt.fields {
				assert.Contains(t, got, field)
			}
		})
	}

	assert.Empty(t, h.store.orders, "validation failures must not persist anything")
	assert.Empty(t, h.store.audits)
	assert.Empty(t, h.uows, "validation failures must not open a transaction")
}

func TestUpdateStatus(t *testing.T) {
	h := newHarness()
	o := h.seedOrder(status.StatusDraft, "Maria Silva", time.Now().UTC())

	updated, err := h.svc.UpdateStatus(context.Background(), o.ID, "pending", testOrigin)
	require.NoError(t, err)

	assert.Equal(t, status.StatusPending, updated.Status)
	assert.Equal(t, status.StatusPending, h.store.orders[o.ID].Status)
	assert.True(t, h.lastUOW().committed)

	require.Len(t, h.store.audits, 1)
	entry := h.store.audits[0]
	assert.Equal(t, auditlog.ActionStatusChanged, entry.Action)
	require.NotNil(t, entry.OldValue)
	require.NotNil(t, entry.NewValue)
	assert.Equal(t, "draft", *entry.OldValue)
	assert.Equal(t, "pending", *entry.NewValue)

	assert.Equal(t, 1, h.cache.invalidated)
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	h := newHarness()
	o := h.seedOrder(status.StatusDraft, "Maria Silva", time.Now().UTC())

	_, err := h.svc.UpdateStatus(context.Background(), o.ID, "paid", testOrigin)

	var transitionErr *status.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, status.StatusDraft, transitionErr.From)
	assert.Equal(t, status.StatusPaid, transitionErr.To)

	assert.Equal(t, status.StatusDraft, h.store.orders[o.ID].Status, "status must not change")
	assert.Empty(t, h.store.audits, "no audit record on a rejected transition")
	assert.True(t, h.lastUOW().rolledBack)
	assert.False(t, h.lastUOW().committed)
}

func TestUpdateStatusTerminal(t *testing.T) {
	h := newHarness()
	o := h.seedOrder(status.StatusPaid, "Maria Silva", time.Now().UTC())

	_, err := h.svc.UpdateStatus(context.Background(), o.ID, "pending", testOrigin)

	var transitionErr *status.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
}

func TestUpdateStatusUnknownToken(t *testing.T) {
	h := newHarness()
	o := h.seedOrder(status.StatusDraft, "Maria Silva", time.Now().UTC())

	_, err := h.svc.UpdateStatus(context.Background(), o.ID, "shipped", testOrigin)

	var vErr *errs.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, h.uows, "unknown token is rejected before any transaction")
}

func TestUpdateStatusNotFound(t *testing.T) {
	h := newHarness()

	_, err := h.svc.UpdateStatus(context.Background(), uuid.New(), "pending", testOrigin)

	var nfErr *errs.NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestDeleteOrder(t *testing.T) {
	h := newHarness()
	o := h.seedOrder(status.StatusPending, "Maria Silva", time.Now().UTC())

	deleted, err := h.svc.DeleteOrder(context.Background(), o.ID, testOrigin)
	require.NoError(t, err)
	assert.True(t, deleted)

	assert.NotNil(t, h.store.orders[o.ID].DeletedAt)
	assert.True(t, h.lastUOW().committed)

	require.Len(t, h.store.audits, 1)
	entry := h.store.audits[0]
	assert.Equal(t, auditlog.ActionDeleted, entry.Action)
	require.NotNil(t, entry.OldValue)
	assert.Equal(t, "pending", *entry.OldValue)

	_, err = h.svc.GetOrder(context.Background(), o.ID)
	var nfErr *errs.NotFoundError
	require.ErrorAs(t, err, &nfErr, "a soft-deleted order reads as absent")
}

func TestDeleteOrderNotFound(t *testing.T) {
	h := newHarness()

	deleted, err := h.svc.DeleteOrder(context.Background(), uuid.New(), testOrigin)

	var nfErr *errs.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.False(t, deleted)
}

func TestGetOrderCacheHit(t *testing.T) {
	h := newHarness()

	cached := &order.Order{ID: uuid.New(), CustomerName: "Cached Only", Status: status.StatusDraft}
	h.cache.orders[cached.ID] = cached

	o, err := h.svc.GetOrder(context.Background(), cached.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cached Only", o.CustomerName)
	assert.Empty(t, h.uows, "a cache hit must not touch the store")
}

func TestGetOrderCachesOnMiss(t *testing.T) {
	h := newHarness()
	o := h.seedOrder(status.StatusDraft, "Maria Silva", time.Now().UTC())

	got, err := h.svc.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, 1, h.cache.sets)
}

func TestGetOrderNotFound(t *testing.T) {
	h := newHarness()

	_, err := h.svc.GetOrder(context.Background(), uuid.New())

	var nfErr *errs.NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestListOrders(t *testing.T) {
	h := newHarness()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		h.seedOrder(status.StatusDraft, "Maria Silva", base.Add(time.Duration(i)*time.Minute))
	}

	page, err := h.svc.ListOrders(context.Background(), ListOrdersInput{Page: 2, PerPage: 2})
	require.NoError(t, err)

	assert.Len(t, page.Orders, 2)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PerPage)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)

	// Newest first: page 2 of size 2 holds the third and fourth newest.
	assert.True(t, page.Orders[0].CreatedAt.After(page.Orders[1].CreatedAt))
	assert.True(t, page.Orders[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestListOrdersFilters(t *testing.T) {
	h := newHarness()
	now := time.Now().UTC()
	h.seedOrder(status.StatusDraft, "Maria Silva", now)
	h.seedOrder(status.StatusPending, "Maria Silva", now.Add(time.Second))
	h.seedOrder(status.StatusPending, "Joao Santos", now.Add(2*time.Second))
	deleted := h.seedOrder(status.StatusPending, "Maria Silva", now.Add(3*time.Second))
	deletedAt := now.Add(4 * time.Second)
	deleted.DeletedAt = &deletedAt

	page, err := h.svc.ListOrders(context.Background(), ListOrdersInput{
		Status:       "pending",
		CustomerName: "maria",
		Page:         1,
		PerPage:      10,
	})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, "Maria Silva", page.Orders[0].CustomerName)
	assert.Equal(t, int64(1), page.Total)
}

func TestListOrdersUnknownStatus(t *testing.T) {
	h := newHarness()

	_, err := h.svc.ListOrders(context.Background(), ListOrdersInput{Status: "shipped"})

	var vErr *errs.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestListOrdersClampsPageSize(t *testing.T) {
	h := newHarness()
	h.seedOrder(status.StatusDraft, "Maria Silva", time.Now().UTC())

	page, err := h.svc.ListOrders(context.Background(), ListOrdersInput{Page: 0, PerPage: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.PerPage)

	page, err = h.svc.ListOrders(context.Background(), ListOrdersInput{Page: 1, PerPage: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, page.PerPage)
}

func TestListOrdersWithCursorWalksAllPages(t *testing.T) {
	h := newHarness()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		h.seedOrder(status.StatusDraft, "Maria Silva", base.Add(time.Duration(i)*time.Minute))
	}

	seen := map[uuid.UUID]bool{}
	cursor := ""
	pages := 0
	for {
		page, err := h.svc.ListOrdersWithCursor(context.Background(), ListOrdersWithCursorInput{
			Cursor: cursor,
			Limit:  2,
		})
		require.NoError(t, err)
		pages++

		for _, o := range page.Orders {
			assert.False(t, seen[o.ID], "no order may appear on two pages")
			seen[o.ID] = true
		}

		if !page.HasMore {
			assert.Nil(t, page.NextCursor)
			assert.Len(t, page.Orders, 1)

			break
		}

		require.NotNil(t, page.NextCursor)
		assert.Len(t, page.Orders, 2)
		cursor = *page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, seen, 5, "every order appears exactly once")
}

func TestListOrdersWithCursorSubSecondTimestamps(t *testing.T) {
	h := newHarness()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		h.seedOrder(status.StatusDraft, "Maria Silva", base.Add(time.Duration(i)*100*time.Millisecond))
	}

	seen := map[uuid.UUID]bool{}
	cursor := ""
	for {
		page, err := h.svc.ListOrdersWithCursor(context.Background(), ListOrdersWithCursorInput{
			Cursor: cursor,
			Limit:  2,
		})
		require.NoError(t, err)

		for _, o := range page.Orders {
			assert.False(t, seen[o.ID], "no order may appear on two pages")
			seen[o.ID] = true
		}

		if !page.HasMore {
			break
		}

		require.NotNil(t, page.NextCursor)
		cursor = *page.NextCursor
	}

	assert.Len(t, seen, 5, "rows created within the same second must not be skipped")
}

func TestListOrdersWithCursorMalformedStartsOver(t *testing.T) {
	h := newHarness()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	newest := h.seedOrder(status.StatusDraft, "Maria Silva", base.Add(time.Hour))
	h.seedOrder(status.StatusDraft, "Maria Silva", base)

	page, err := h.svc.ListOrdersWithCursor(context.Background(), ListOrdersWithCursorInput{
		Cursor: "not-a-cursor",
		Limit:  1,
	})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, newest.ID, page.Orders[0].ID, "malformed cursors restart from the newest row")
	assert.True(t, page.HasMore)
}

func TestListAuditLogs(t *testing.T) {
	h := newHarness()

	o, err := h.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Maria Silva",
		Items: []CreateOrderItemInput{
			{ProductName: "Widget", Quantity: 1, UnitPrice: dec("10")},
		},
	}, testOrigin)
	require.NoError(t, err)

	_, err = h.svc.UpdateStatus(context.Background(), o.ID, "pending", testOrigin)
	require.NoError(t, err)

	_, err = h.svc.DeleteOrder(context.Background(), o.ID, testOrigin)
	require.NoError(t, err)

	logs, err := h.svc.ListAuditLogs(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3, "the audit trail survives soft-deletion")
	assert.Equal(t, auditlog.ActionCreated, logs[0].Action)
	assert.Equal(t, auditlog.ActionStatusChanged, logs[1].Action)
	assert.Equal(t, auditlog.ActionDeleted, logs[2].Action)
}
