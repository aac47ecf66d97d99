package service

import (
	"context"
	"fmt"

	"github.com/shopdock/reepay-sync.go/db/models"
)

// GetOrderHandle returns the correlation handle linking the order to its
// remote invoice. An existing handle is returned unchanged unless
// forceUnique is set; a generated handle is persisted before returning.
func (svc *SyncService) GetOrderHandle(ctx context.Context, order *models.Order, forceUnique bool) (string, error) {
	if order.Handle != "" && !forceUnique {
		return order.Handle, nil
	}

	handle := fmt.Sprintf("order-%d", order.Number)
	if forceUnique {
		handle = fmt.Sprintf("order-%d-%d", order.Number, svc.now().Unix())
	}

	order.Handle = handle
	if err := svc.Store.UpdateOrder(ctx, order); err != nil {
		return "", err
	}
	return handle, nil
}
