package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopdock/reepay-sync.go/db/models"
)

// EnsureCustomer resolves the local record for a remote customer handle,
// synthesizing one when the handle was created processor-side first.
func (svc *SyncService) EnsureCustomer(ctx context.Context, handle string) (*models.Customer, error) {
	customer, err := svc.Store.CustomerByHandle(ctx, handle)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	customer = &models.Customer{Handle: handle}
	if err := svc.Store.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	svc.Logger.Infof("Synthesized local customer mapping handle:%s", handle)
	return customer, nil
}
