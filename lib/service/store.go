package service

import (
	"context"

	"github.com/shopdock/reepay-sync.go/db/models"
)

// Store is the persistence surface the sync service mutates orders
// through. Lookups that find nothing return sql.ErrNoRows.
type Store interface {
	OrderByID(ctx context.Context, id int64) (*models.Order, error)
	OrderByHandle(ctx context.Context, handle string) (*models.Order, error)
	OrderBySubscriptionHandle(ctx context.Context, handle string) (*models.Order, error)
	OrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	InsertOrderLine(ctx context.Context, line *models.OrderLine) error
	UpdateOrderLine(ctx context.Context, line *models.OrderLine) error

	// TryLockOrder sets the order's locked flag if and only if it is clear,
	// as a single compare-and-swap against the store.
	TryLockOrder(ctx context.Context, id int64) (bool, error)
	UnlockOrder(ctx context.Context, id int64) error

	CreateRefund(ctx context.Context, refund *models.Refund) error

	SubscriptionByHandle(ctx context.Context, handle string) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, subscription *models.Subscription) error

	PaymentTokenByID(ctx context.Context, id int64) (*models.PaymentToken, error)
	CreatePaymentToken(ctx context.Context, token *models.PaymentToken) error

	CustomerByHandle(ctx context.Context, handle string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error
}
