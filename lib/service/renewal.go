package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopdock/reepay-sync.go/common"
	"github.com/shopdock/reepay-sync.go/db/models"
	"github.com/shopdock/reepay-sync.go/reepay"
)

// ErrNoPaymentToken means every step of the token cascade came up empty;
// the renewal charge is never attempted in that case.
var ErrNoPaymentToken = errors.New("no reusable payment token resolved for renewal order")

// ChargeRenewal charges the stored payment method for a subscription
// renewal order. On failure the order moves to the failed status and the
// error is recorded as a note; retrying is the external scheduler's job.
func (svc *SyncService) ChargeRenewal(ctx context.Context, order *models.Order, amount float64, settle bool) error {
	token, err := svc.ResolvePaymentToken(ctx, order)
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNoPaymentToken
	}

	// Repair a stale unique handle back to the canonical form so the
	// processor does not answer with a spurious already-settled conflict
	// from an earlier attempt.
	canonical := fmt.Sprintf("order-%d", order.Number)
	if order.Handle != canonical {
		order.Handle = canonical
		if err := svc.Store.UpdateOrder(ctx, order); err != nil {
			return err
		}
	}

	req := &reepay.ChargeRequest{
		Handle:    order.Handle,
		Amount:    reepay.ToMinorUnit(amount, order.Currency),
		Currency:  order.Currency,
		Source:    token,
		Recurring: true,
		Settle:    settle,
	}
	charge, err := svc.chargeWithConflictRetry(ctx, order, req)
	if err != nil {
		order.Status = svc.Config.StatusFailed
		order.AddNote(fmt.Sprintf("Renewal charge failed: %v", err))
		if updateErr := svc.Store.UpdateOrder(ctx, order); updateErr != nil {
			svc.Logger.Errorf("Failed to persist failed renewal order_id:%v error: %v", order.ID, updateErr)
		}
		svc.publishOrderEvent(common.OrderEventChargeFailed, order, amount, "")
		return err
	}

	note := fmt.Sprintf("Renewal charge authorized, transaction %s", charge.Transaction)
	if _, err := svc.SetAuthorizedStatus(ctx, order, note, charge.Transaction); err != nil {
		return err
	}
	return svc.ProcessInstantSettle(ctx, order)
}

// ResolvePaymentToken cascades through every place a reusable token can
// live: the renewal order itself, its subscription, the subscription's
// parent order, legacy raw token metadata, and finally the remote invoice.
func (svc *SyncService) ResolvePaymentToken(ctx context.Context, order *models.Order) (string, error) {
	if order.PaymentTokenID != 0 {
		token, err := svc.Store.PaymentTokenByID(ctx, order.PaymentTokenID)
		if err == nil {
			return token.Token, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
	}

	var subscription *models.Subscription
	if order.SubscriptionHandle != "" {
		sub, err := svc.Store.SubscriptionByHandle(ctx, order.SubscriptionHandle)
		if err == nil {
			subscription = sub
		} else if !errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
	}

	if subscription != nil {
		if subscription.PaymentTokenID != 0 {
			token, err := svc.Store.PaymentTokenByID(ctx, subscription.PaymentTokenID)
			if err == nil {
				return token.Token, nil
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return "", err
			}
		}
		if subscription.OrderID != 0 && subscription.OrderID != order.ID {
			parent, err := svc.Store.OrderByID(ctx, subscription.OrderID)
			if err == nil && parent.PaymentTokenID != 0 {
				token, tokenErr := svc.Store.PaymentTokenByID(ctx, parent.PaymentTokenID)
				if tokenErr == nil {
					return token.Token, nil
				}
				if !errors.Is(tokenErr, sql.ErrNoRows) {
					return "", tokenErr
				}
			} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return "", err
			}
		}
	}

	// legacy installs stored the raw token string as metadata
	raw := order.MetaToken
	if raw == "" && subscription != nil {
		raw = subscription.MetaToken
	}
	if raw != "" {
		return raw, svc.materializeToken(ctx, order, raw)
	}

	// last resort: ask the processor what it charged before
	if order.IsGatewayOrder() {
		invoice, err := svc.ReepayClient.GetInvoice(ctx, order.Handle)
		if err != nil {
			if reepay.IsNotFound(err) {
				return "", nil
			}
			return "", err
		}
		raw = invoice.RecurringPaymentMethod
		if raw == "" {
			for i := len(invoice.Transactions) - 1; i >= 0; i-- {
				if invoice.Transactions[i].PaymentMethod != "" {
					raw = invoice.Transactions[i].PaymentMethod
					break
				}
			}
		}
		if raw != "" {
			return raw, svc.materializeToken(ctx, order, raw)
		}
	}

	return "", nil
}

// materializeToken promotes a raw token string found via a fallback path
// into a first-class token record attached to the order.
func (svc *SyncService) materializeToken(ctx context.Context, order *models.Order, raw string) error {
	token := &models.PaymentToken{
		CustomerHandle: order.CustomerHandle,
		Token:          raw,
	}
	if err := svc.Store.CreatePaymentToken(ctx, token); err != nil {
		// an existing row for the same token is fine, the value is usable as is
		svc.Logger.Infof("Token materialization skipped order_id:%v error: %v", order.ID, err)
		return nil
	}
	order.PaymentTokenID = token.ID
	return svc.Store.UpdateOrder(ctx, order)
}
