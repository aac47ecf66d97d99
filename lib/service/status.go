package service

import (
	"context"
	"fmt"

	"github.com/shopdock/reepay-sync.go/common"
	"github.com/shopdock/reepay-sync.go/db/models"
	"github.com/shopdock/reepay-sync.go/reepay"
)

// SetAuthorizedStatus transitions the order into the configured authorized
// status. It is a no-op when the order already reflects authorization,
// which makes duplicate webhook deliveries harmless.
func (svc *SyncService) SetAuthorizedStatus(ctx context.Context, order *models.Order, note, transactionID string) (bool, error) {
	if order.StateAuthorized || order.Status == svc.Config.StatusAuthorized {
		return false, nil
	}

	if !order.StockReduced {
		order.StockReduced = true
		svc.publishOrderEvent(common.OrderEventStockReduced, order, 0, transactionID)
	}

	order.Status = svc.Config.StatusAuthorized
	order.StateAuthorized = true
	if transactionID != "" {
		order.AuthorizedTransaction = transactionID
	}
	order.AddNote(note)
	if err := svc.Store.UpdateOrder(ctx, order); err != nil {
		return false, err
	}

	svc.publishOrderEvent(common.OrderEventAuthorized, order, 0, transactionID)
	return true, nil
}

// SetSettledStatus marks the order fully paid, but only when the remote
// invoice really is fully captured. A partial capture downgrades to the
// authorized transition so the order is never marked paid early.
func (svc *SyncService) SetSettledStatus(ctx context.Context, order *models.Order, note, transactionID string) (bool, error) {
	if !order.IsGatewayOrder() || order.StateSettled {
		return false, nil
	}

	invoice, err := svc.ReepayClient.GetInvoice(ctx, order.Handle)
	if err != nil {
		return false, err
	}
	if invoice.SettledAmount < invoice.AuthorizedAmount {
		return svc.SetAuthorizedStatus(ctx, order, note, transactionID)
	}

	order.Status = svc.Config.StatusSettled
	order.StateSettled = true
	if transactionID != "" {
		order.SettledTransaction = transactionID
	}
	order.AddNote(note)
	if err := svc.Store.UpdateOrder(ctx, order); err != nil {
		return false, err
	}

	svc.publishOrderEvent(common.OrderEventSettled, order, reepay.FromMinorUnit(invoice.SettledAmount, order.Currency), transactionID)
	return true, nil
}

// HandleStatusChange applies an externally requested status transition and
// its remote side effects. A remote failure rolls the order back to its
// previous status and surfaces the error.
func (svc *SyncService) HandleStatusChange(ctx context.Context, order *models.Order, newStatus string) error {
	if order.Status == newStatus {
		return nil
	}
	previous := order.Status
	order.Status = newStatus
	if err := svc.Store.UpdateOrder(ctx, order); err != nil {
		return err
	}

	var err error
	switch newStatus {
	case svc.Config.StatusCancelled:
		err = svc.cancelRemoteAuthorization(ctx, order)
	case svc.Config.StatusSettled:
		err = svc.SettleRemaining(ctx, order)
	default:
		return nil
	}
	if err != nil {
		order.Status = previous
		if rollbackErr := svc.Store.UpdateOrder(ctx, order); rollbackErr != nil {
			svc.Logger.Errorf("Status rollback failed order_id:%v error: %v", order.ID, rollbackErr)
		}
		return fmt.Errorf("status change to %q failed: %w", newStatus, err)
	}
	return nil
}

// cancelRemoteAuthorization voids the uncaptured authorization, if there
// is one left to void.
func (svc *SyncService) cancelRemoteAuthorization(ctx context.Context, order *models.Order) error {
	if !order.IsGatewayOrder() || order.Cancelled || order.StateSettled {
		return nil
	}
	charge, err := svc.ReepayClient.CancelCharge(ctx, order.Handle)
	if err != nil {
		return err
	}
	order.Cancelled = true
	order.CancelledTransaction = charge.Transaction
	if err := svc.Store.UpdateOrder(ctx, order); err != nil {
		return err
	}
	svc.publishOrderEvent(common.OrderEventCancelled, order, 0, charge.Transaction)
	return nil
}

// Read-side policy hooks. Each returns the caller's default unless status
// sync is enabled and the order went through the gateway.

func (svc *SyncService) IsEditable(order *models.Order, defaultValue bool) bool {
	if !svc.Config.SyncEnabled || !order.IsGatewayOrder() {
		return defaultValue
	}
	return order.Status != svc.Config.StatusAuthorized && order.Status != svc.Config.StatusSettled
}

func (svc *SyncService) IsPaid(order *models.Order, defaultValue bool) bool {
	if !svc.Config.SyncEnabled || !order.IsGatewayOrder() {
		return defaultValue
	}
	return order.Status == svc.Config.StatusSettled
}

func (svc *SyncService) AllowAutoCancelUnpaid(order *models.Order, defaultValue bool) bool {
	if !svc.Config.SyncEnabled || !order.IsGatewayOrder() {
		return defaultValue
	}
	// an authorized or settled order is not "unpaid", auto-cancel must not touch it
	return order.Status != svc.Config.StatusAuthorized && order.Status != svc.Config.StatusSettled
}
