package db

import (
	"context"

	"github.com/shopdock/reepay-sync.go/db/models"
	"github.com/shopdock/reepay-sync.go/lib/service"
	"github.com/uptrace/bun"
)

// Store is the bun-backed implementation of the service store.
type Store struct {
	DB *bun.DB
}

var _ service.Store = (*Store)(nil)

func NewStore(db *bun.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) OrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}
	err := s.DB.NewSelect().Model(order).Relation("Lines").Where("\"order\".id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Store) OrderByHandle(ctx context.Context, handle string) (*models.Order, error) {
	order := &models.Order{}
	err := s.DB.NewSelect().Model(order).Relation("Lines").Where("\"order\".handle = ?", handle).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Store) OrderBySubscriptionHandle(ctx context.Context, handle string) (*models.Order, error) {
	order := &models.Order{}
	err := s.DB.NewSelect().Model(order).Relation("Lines").Where("\"order\".subscription_handle = ?", handle).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Store) OrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	order := &models.Order{}
	err := s.DB.NewSelect().Model(order).Relation("Lines").Where("\"order\".session_id = ?", sessionID).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Store) UpdateOrder(ctx context.Context, order *models.Order) error {
	_, err := s.DB.NewUpdate().Model(order).WherePK().Exec(ctx)
	return err
}

func (s *Store) InsertOrderLine(ctx context.Context, line *models.OrderLine) error {
	_, err := s.DB.NewInsert().Model(line).Exec(ctx)
	return err
}

func (s *Store) UpdateOrderLine(ctx context.Context, line *models.OrderLine) error {
	_, err := s.DB.NewUpdate().Model(line).WherePK().Exec(ctx)
	return err
}

// TryLockOrder sets the locked flag with a compare-and-swap so two webhook
// deliveries cannot both observe it clear.
func (s *Store) TryLockOrder(ctx context.Context, id int64) (bool, error) {
	res, err := s.DB.NewUpdate().Model((*models.Order)(nil)).
		Set("locked = ?", true).
		Where("id = ? AND (locked IS NULL OR locked = ?)", id, false).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (s *Store) UnlockOrder(ctx context.Context, id int64) error {
	_, err := s.DB.NewUpdate().Model((*models.Order)(nil)).
		Set("locked = ?", false).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (s *Store) CreateRefund(ctx context.Context, refund *models.Refund) error {
	_, err := s.DB.NewInsert().Model(refund).Exec(ctx)
	return err
}

func (s *Store) SubscriptionByHandle(ctx context.Context, handle string) (*models.Subscription, error) {
	subscription := &models.Subscription{}
	err := s.DB.NewSelect().Model(subscription).Where("handle = ?", handle).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return subscription, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, subscription *models.Subscription) error {
	_, err := s.DB.NewUpdate().Model(subscription).WherePK().Exec(ctx)
	return err
}

func (s *Store) PaymentTokenByID(ctx context.Context, id int64) (*models.PaymentToken, error) {
	token := &models.PaymentToken{}
	err := s.DB.NewSelect().Model(token).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (s *Store) CreatePaymentToken(ctx context.Context, token *models.PaymentToken) error {
	_, err := s.DB.NewInsert().Model(token).Exec(ctx)
	return err
}

func (s *Store) CustomerByHandle(ctx context.Context, handle string) (*models.Customer, error) {
	customer := &models.Customer{}
	err := s.DB.NewSelect().Model(customer).Where("handle = ?", handle).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	_, err := s.DB.NewInsert().Model(customer).Exec(ctx)
	return err
}
