package uow

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderflow/orders/internal/dal/interfaces/iauditrepo"
	"github.com/orderflow/orders/internal/dal/interfaces/iorderitemrepo"
	"github.com/orderflow/orders/internal/dal/interfaces/iorderrepo"
	"github.com/orderflow/orders/internal/dal/postgres"
	auditrepo "github.com/orderflow/orders/internal/dal/repositories/audit/postgres"
	orderrepo "github.com/orderflow/orders/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/orderflow/orders/internal/dal/repositories/orderitem/postgres"
)

// UnitOfWork scopes the order, order item and audit repositories to one
// database transaction so a mutation and its audit record commit or roll back
// together. Before Begin the repositories run on the pool, which is enough
// for reads.
type UnitOfWork struct {
	pool          *pgxpool.Pool
	tx            pgx.Tx
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	auditRepo     iauditrepo.IAuditRepository
}

// NewUnitOfWork creates a unit of work bound to the connection pool.
func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	pool := client.Pool()

	return &UnitOfWork{
		pool:          pool,
		orderRepo:     orderrepo.NewPostgresOrderRepository(pool),
		orderItemRepo: orderitemrepo.NewPostgresOrderItemRepository(pool),
		auditRepo:     auditrepo.NewPostgresAuditRepository(pool),
	}
}

// OrderRepository returns the order repository bound to the current scope.
func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

// OrderItemRepository returns the order item repository bound to the current
// scope.
func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

// AuditRepository returns the audit log repository bound to the current scope.
func (u *UnitOfWork) AuditRepository() iauditrepo.IAuditRepository {
	return u.auditRepo
}

// Begin opens a transaction and rebinds the repositories to it.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.orderRepo = orderrepo.NewPostgresOrderRepository(tx)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(tx)
	u.auditRepo = auditrepo.NewPostgresAuditRepository(tx)

	return nil
}

// Commit commits the transaction.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Commit(ctx)
}

// Rollback rolls the transaction back. Safe to call after Commit.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Rollback(ctx)
}
