package ordersvc

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderflow/orders/internal/dal/interfaces/iauditrepo"
	"github.com/orderflow/orders/internal/dal/interfaces/iordercache"
	"github.com/orderflow/orders/internal/dal/interfaces/iorderitemrepo"
	"github.com/orderflow/orders/internal/dal/interfaces/iorderrepo"
	"github.com/orderflow/orders/internal/dal/postgres"
	"github.com/orderflow/orders/internal/dal/uow"
	"github.com/orderflow/orders/internal/service/errs"
	"github.com/orderflow/orders/internal/service/models/auditlog"
	"github.com/orderflow/orders/internal/service/models/money"
	"github.com/orderflow/orders/internal/service/models/order"
	"github.com/orderflow/orders/internal/service/models/orderitem"
	"github.com/orderflow/orders/internal/service/models/status"
)

const (
	minPageSize = 1
	maxPageSize = 100
)

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	AuditRepository() iauditrepo.IAuditRepository
}

// OrderService is a service for managing the order lifecycle. Every mutating
// operation runs inside one unit of work, so the business mutation and its
// audit record commit atomically.
type OrderService struct {
	pgClient   *postgres.Client
	cache      iordercache.IOrderCache
	uowFactory func() unitOfWork
}

func (s *OrderService) newUOW() unitOfWork {
	if s.uowFactory != nil {
		return s.uowFactory()
	}

	return uow.NewUnitOfWork(s.pgClient)
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
	}
}

// WithOrderCache sets the single-order read cache.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderCache(cache iordercache.IOrderCache) option {
	return func(s *OrderService) {
		s.cache = cache
	}
}

// WithUnitOfWorkFactory overrides how units of work are created.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *OrderService) {
		s.uowFactory = factory
	}
}

// CreateOrderItemInput is one line item in a create request. Total price is
// always recomputed server-side; there is no way for a caller to supply it.
type CreateOrderItemInput struct {
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// CreateOrderInput carries the payload for creating an order.
type CreateOrderInput struct {
	CustomerName string
	Items        []CreateOrderItemInput
	Discount     *decimal.Decimal
	Tax          *decimal.Decimal
	Notes        json.RawMessage
}

func (in *CreateOrderInput) validate() error {
	vErr := &errs.ValidationError{}

	if in.CustomerName == "" {
		vErr.Add("customer_name", "customer name is required")
	}

	if len(in.Items) == 0 {
		vErr.Add("items", "order must have at least one item")
	}

	for i, item := range in.Items {
		field := "items[" + strconv.Itoa(i) + "]"
		if item.ProductName == "" {
			vErr.Add(field+".product_name", "product name is required")
		}
		if item.Quantity < 1 {
			vErr.Add(field+".quantity", "quantity must be greater than or equal to 1")
		}
		if !item.UnitPrice.IsPositive() {
			vErr.Add(field+".unit_price", "unit price must be greater than 0")
		}
	}

	if in.Discount != nil && in.Discount.IsNegative() {
		vErr.Add("discount", "discount cannot be negative")
	}

	if in.Tax != nil && in.Tax.IsNegative() {
		vErr.Add("tax", "tax cannot be negative")
	}

	if !vErr.Empty() {
		return vErr
	}

	return nil
}

// CreateOrder validates the input, computes the totals, persists the order
// with its items in DRAFT status and writes a `created` audit record, all in
// one transaction.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	input CreateOrderInput,
	origin auditlog.Origin,
) (o *order.Order, err error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	discount := decimal.Zero
	if input.Discount != nil {
		discount = *input.Discount
	}
	tax := decimal.Zero
	if input.Tax != nil {
		tax = *input.Tax
	}

	items := make([]orderitem.OrderItem, len(input.Items))
	itemTotals := make([]decimal.Decimal, len(input.Items))
	for i, in := range input.Items {
		itemTotals[i] = money.ItemTotal(in.Quantity, in.UnitPrice)
		items[i] = orderitem.OrderItem{
			ProductName: in.ProductName,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			TotalPrice:  itemTotals[i],
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	subtotal := money.Subtotal(itemTotals)

	o = &order.Order{
		ID:           uuid.New(),
		CustomerName: input.CustomerName,
		Status:       status.StatusDraft,
		Subtotal:     subtotal,
		Discount:     discount,
		Tax:          tax,
		Total:        money.OrderTotal(subtotal, discount, tax),
		Notes:        input.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	work := s.newUOW()
	if err = work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = work.Rollback(ctx)
		}
	}()

	if err = work.OrderRepository().Insert(ctx, *o); err != nil {
		return nil, err
	}

	for i := range items {
		items[i].OrderID = o.ID
	}

	o.Items, err = work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		return nil, err
	}

	if _, err = work.AuditRepository().Insert(ctx, auditlog.NewCreation(o, origin, now)); err != nil {
		return nil, err
	}

	if err = work.Commit(ctx); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, o.ID)

	return o, nil
}

// UpdateStatus applies a status transition if the state machine allows it and
// writes a `status_changed` audit record in the same transaction. The order
// row is locked while the transition is evaluated, so a losing concurrent
// update observes the already-updated status.
func (s *OrderService) UpdateStatus(
	ctx context.Context,
	orderID uuid.UUID,
	newStatus string,
	origin auditlog.Origin,
) (o *order.Order, err error) {
	next, err := status.ParseStatus(newStatus)
	if err != nil {
		return nil, errs.NewValidation("status", "status must be one of: draft, pending, paid, cancelled")
	}

	now := time.Now().UTC()

	work := s.newUOW()
	if err = work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = work.Rollback(ctx)
		}
	}()

	o, err = work.OrderRepository().GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		err = &errs.NotFoundError{ID: orderID.String()}

		return nil, err
	}

	oldStatus := o.Status
	if !oldStatus.CanTransitionTo(next) {
		err = &status.InvalidTransitionError{From: oldStatus, To: next}

		return nil, err
	}

	if err = work.OrderRepository().UpdateStatus(ctx, o.ID, next, now); err != nil {
		return nil, err
	}

	o.Status = next
	o.UpdatedAt = now

	entry := auditlog.NewStatusChange(o, oldStatus.String(), next.String(), origin, now)
	if _, err = work.AuditRepository().Insert(ctx, entry); err != nil {
		return nil, err
	}

	o.Items, err = work.OrderItemRepository().QueryByOrderIDs(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}

	if err = work.Commit(ctx); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, o.ID)

	return o, nil
}

// DeleteOrder writes a `deleted` audit record capturing the pre-deletion
// status and soft-deletes the order, both inside one transaction.
func (s *OrderService) DeleteOrder(
	ctx context.Context,
	orderID uuid.UUID,
	origin auditlog.Origin,
) (deleted bool, err error) {
	now := time.Now().UTC()

	work := s.newUOW()
	if err = work.Begin(ctx); err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = work.Rollback(ctx)
		}
	}()

	o, err := work.OrderRepository().GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return false, err
	}
	if o == nil {
		err = &errs.NotFoundError{ID: orderID.String()}

		return false, err
	}

	if _, err = work.AuditRepository().Insert(ctx, auditlog.NewDeletion(o, origin, now)); err != nil {
		return false, err
	}

	if err = work.OrderRepository().SoftDelete(ctx, o.ID, now); err != nil {
		return false, err
	}

	if err = work.Commit(ctx); err != nil {
		return false, err
	}

	s.invalidateCache(ctx, o.ID)

	return true, nil
}

// GetOrder retrieves a single order with its items. Recent lookups may be
// served from the cache.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetOrder(ctx, orderID); ok {
			return cached, nil
		}
	}

	work := s.newUOW()

	o, err := work.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &errs.NotFoundError{ID: orderID.String()}
	}

	o.Items, err = work.OrderItemRepository().QueryByOrderIDs(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetOrder(ctx, o)
	}

	return o, nil
}

// ListOrdersInput carries filters and offset pagination parameters.
type ListOrdersInput struct {
	Status       string
	CustomerName string
	Page         int
	PerPage      int
}

// ListOrders retrieves a page of orders with their items.
func (s *OrderService) ListOrders(ctx context.Context, input ListOrdersInput) (*order.Page, error) {
	if input.Status != "" {
		if _, err := status.ParseStatus(input.Status); err != nil {
			return nil, errs.NewValidation("status", "status must be one of: draft, pending, paid, cancelled")
		}
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := clampPageSize(input.PerPage)

	filter := &order.QueryOrdersModel{
		Status:       input.Status,
		CustomerName: input.CustomerName,
		Limit:        perPage,
		Offset:       (page - 1) * perPage,
	}

	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := work.OrderRepository().Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	orders, err = s.attachItems(ctx, work, orders)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))

	return &order.Page{
		Orders:     orders,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// ListOrdersWithCursorInput carries filters and keyset pagination parameters.
// Cursor is the opaque token from a previous page; absent or malformed tokens
// start from the beginning.
type ListOrdersWithCursorInput struct {
	Status       string
	CustomerName string
	Cursor       string
	Limit        int
}

// ListOrdersWithCursor retrieves one keyset-paginated page of orders. It asks
// the store for limit+1 rows to decide has_more, trims to limit and derives
// next_cursor from the last retained row.
func (s *OrderService) ListOrdersWithCursor(
	ctx context.Context,
	input ListOrdersWithCursorInput,
) (*order.CursorPage, error) {
	if input.Status != "" {
		if _, err := status.ParseStatus(input.Status); err != nil {
			return nil, errs.NewValidation("status", "status must be one of: draft, pending, paid, cancelled")
		}
	}

	limit := clampPageSize(input.Limit)

	var cursor *order.Cursor
	if c, ok := order.DecodeCursor(input.Cursor); ok {
		cursor = &c
	}

	filter := &order.QueryOrdersModel{
		Status:       input.Status,
		CustomerName: input.CustomerName,
	}

	work := s.newUOW()

	orders, err := work.OrderRepository().QueryWithCursor(ctx, cursor, limit+1, filter)
	if err != nil {
		return nil, err
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor *string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		token := order.Cursor{CreatedAt: last.CreatedAt, ID: last.ID.String()}.Encode()
		nextCursor = &token
	}

	orders, err = s.attachItems(ctx, work, orders)
	if err != nil {
		return nil, err
	}

	return &order.CursorPage{
		Orders:     orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// ListAuditLogs retrieves the audit trail of an order. The trail stays
// readable after the order is soft-deleted.
func (s *OrderService) ListAuditLogs(ctx context.Context, orderID uuid.UUID) ([]auditlog.AuditLog, error) {
	work := s.newUOW()

	return work.AuditRepository().QueryByOrderID(ctx, orderID)
}

func (s *OrderService) attachItems(ctx context.Context, work unitOfWork, orders []order.Order) ([]order.Order, error) {
	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	orderIDs := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
	}

	items, err := work.OrderItemRepository().QueryByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items = []orderitem.OrderItem{}
		for _, item := range items {
			if item.OrderID == orders[i].ID {
				orders[i].Items = append(orders[i].Items, item)
			}
		}
	}

	return orders, nil
}

func (s *OrderService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidateOrder(ctx, id)
	}
}

func clampPageSize(size int) int {
	if size < minPageSize {
		return minPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}

	return size
}
