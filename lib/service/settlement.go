package service

import (
	"context"
	"fmt"

	"github.com/shopdock/reepay-sync.go/common"
	"github.com/shopdock/reepay-sync.go/db/models"
	"github.com/shopdock/reepay-sync.go/reepay"
)

// SettleOutcome is the result of a single-line settle attempt. A line that
// the processor reports as already settled is a success, not an error.
type SettleOutcome int

const (
	SettleFailed SettleOutcome = iota
	SettleDone
	SettleAlreadyDone
)

// Settlement is the capture plan for an order: the not-yet-settled lines
// whose settle category is enabled, plus shipping when physical capture is
// enabled and not yet captured, minus the order-level discount.
type Settlement struct {
	Eligible bool
	Amount   float64
	Shipping float64
	Lines    []*models.OrderLine
}

// SettleCategory classifies an order line into one of the configurable
// settle-type categories.
func SettleCategory(line *models.OrderLine) string {
	switch {
	case line.LineType == common.OrderLineTypeFee || line.LineType == common.OrderLineTypeSurcharge:
		return common.SettleTypeFee
	case line.Subscription:
		return common.SettleTypeRecurring
	case line.Virtual || line.Downloadable:
		return common.SettleTypeVirtual
	default:
		// ships, not downloadable, not subscription; covers shipping lines
		return common.SettleTypePhysical
	}
}

// ClassifyOrderLine reports whether the line's settle category is enabled
// for immediate capture.
func (svc *SyncService) ClassifyOrderLine(line *models.OrderLine) bool {
	return svc.Config.settleTypeEnabled(SettleCategory(line))
}

// ComputeSettlement sums the eligible, not-yet-settled lines of the order,
// subtracts the order-level discount and clamps the result at zero.
func (svc *SyncService) ComputeSettlement(order *models.Order) Settlement {
	settlement := Settlement{}
	for _, line := range order.Lines {
		if line.Settled || !svc.ClassifyOrderLine(line) {
			continue
		}
		settlement.Lines = append(settlement.Lines, line)
		settlement.Amount += line.TotalAmount()
	}
	// shipping is captured at most once, tracked on the order itself
	if svc.Config.settleTypeEnabled(common.SettleTypePhysical) && !order.ShippingSettled {
		settlement.Shipping = order.ShippingAmount
		settlement.Amount += order.ShippingAmount
	}
	if len(settlement.Lines) == 0 && settlement.Shipping == 0 {
		return settlement
	}
	settlement.Eligible = true
	settlement.Amount -= order.DiscountAmount
	if settlement.Amount < 0 {
		settlement.Amount = 0
	}
	return settlement
}

// SettleOrderLine captures a single order line, exactly once. A line whose
// settled flag is already set, or that the processor reports as already
// settled, yields SettleAlreadyDone with no state change.
func (svc *SyncService) SettleOrderLine(ctx context.Context, order *models.Order, line *models.OrderLine) (SettleOutcome, error) {
	if line.Settled {
		return SettleAlreadyDone, nil
	}

	amount := line.TotalAmount()
	req := &reepay.SettleRequest{
		OrderLines: []reepay.OrderLine{{
			Ordertext:     line.Name,
			Quantity:      line.Quantity,
			Amount:        reepay.ToMinorUnit(line.UnitAmount, order.Currency),
			Vat:           line.VatRate,
			AmountInclVat: true,
		}},
	}
	result, err := svc.ReepayClient.SettleCharge(ctx, order.Handle, req)
	if err != nil {
		if reepay.IsAlreadySettled(err) {
			// duplicate settle attempt, success without re-marking
			svc.Logger.Infof("Line already settled remotely order_id:%v line_id:%v", order.ID, line.ID)
			return SettleAlreadyDone, nil
		}
		return SettleFailed, err
	}

	line.Settled = true
	line.SettledAmount = amount
	if err := svc.Store.UpdateOrderLine(ctx, line); err != nil {
		return SettleFailed, err
	}
	svc.publishOrderEvent(common.OrderEventLineSettled, order, amount, result.Transaction)
	return SettleDone, nil
}

// SettleRemaining aggregates every eligible unsettled line into a single
// settle call. On success all included lines are marked settled with their
// share of the captured total; on failure none are.
func (svc *SyncService) SettleRemaining(ctx context.Context, order *models.Order) error {
	settlement := svc.ComputeSettlement(order)
	if !settlement.Eligible || settlement.Amount <= 0 {
		return nil
	}

	req := &reepay.SettleRequest{Amount: reepay.ToMinorUnit(settlement.Amount, order.Currency)}
	result, err := svc.ReepayClient.SettleCharge(ctx, order.Handle, req)
	if err != nil {
		if reepay.IsAlreadySettled(err) {
			svc.Logger.Infof("Invoice already settled remotely order_id:%v", order.ID)
			return nil
		}
		return err
	}

	gross := 0.0
	for _, line := range settlement.Lines {
		gross += line.TotalAmount()
	}
	lineTotal := settlement.Amount - settlement.Shipping
	for _, line := range settlement.Lines {
		line.Settled = true
		// discount is spread proportionally over the captured lines
		line.SettledAmount = line.TotalAmount()
		if gross > 0 && lineTotal < gross {
			line.SettledAmount = line.TotalAmount() * lineTotal / gross
		}
		if err := svc.Store.UpdateOrderLine(ctx, line); err != nil {
			return err
		}
	}
	if settlement.Shipping > 0 {
		order.ShippingSettled = true
		if err := svc.Store.UpdateOrder(ctx, order); err != nil {
			return err
		}
	}
	svc.publishOrderEvent(common.OrderEventSettled, order, settlement.Amount, result.Transaction)
	return nil
}

// ProcessInstantSettle captures the eligible part of a freshly authorized
// order and flags the order as instant-settled.
func (svc *SyncService) ProcessInstantSettle(ctx context.Context, order *models.Order) error {
	if order.StateSettled || order.InstantSettled {
		return nil
	}
	settlement := svc.ComputeSettlement(order)
	if !settlement.Eligible || settlement.Amount <= 0 {
		return nil
	}
	if err := svc.SettleRemaining(ctx, order); err != nil {
		return err
	}
	order.InstantSettled = true
	return svc.Store.UpdateOrder(ctx, order)
}

// CanCapture reports whether the order has an authorized-but-uncaptured
// amount left at the processor. Subscription-bearing orders settle through
// the renewal path instead.
func (svc *SyncService) CanCapture(ctx context.Context, order *models.Order) (bool, error) {
	if !order.IsGatewayOrder() || !(order.StateAuthorized || order.StateSettled) {
		return false, nil
	}
	if order.SubscriptionHandle != "" {
		return false, nil
	}
	invoice, err := svc.ReepayClient.GetInvoice(ctx, order.Handle)
	if err != nil {
		return false, err
	}
	return invoice.AuthorizedAmount > invoice.SettledAmount, nil
}

// CaptureOrder executes an admin capture. A non-positive amount captures
// everything still eligible; a positive amount is a partial capture.
func (svc *SyncService) CaptureOrder(ctx context.Context, order *models.Order, amount float64) error {
	if amount > 0 {
		req := &reepay.SettleRequest{Amount: reepay.ToMinorUnit(amount, order.Currency)}
		result, err := svc.ReepayClient.SettleCharge(ctx, order.Handle, req)
		if err != nil && !reepay.IsAlreadySettled(err) {
			return err
		}
		if err == nil {
			svc.publishOrderEvent(common.OrderEventSettled, order, amount, result.Transaction)
		}
	} else if err := svc.SettleRemaining(ctx, order); err != nil {
		return err
	}
	_, err := svc.SetSettledStatus(ctx, order, "Captured via admin action", "")
	return err
}

// chargeWithConflictRetry issues a charge and, when the processor answers
// with one of the fixed conflict codes, regenerates a unique handle and
// retries exactly once. The second failure propagates.
func (svc *SyncService) chargeWithConflictRetry(ctx context.Context, order *models.Order, req *reepay.ChargeRequest) (*reepay.Charge, error) {
	charge, err := svc.ReepayClient.CreateCharge(ctx, req)
	if err == nil || !reepay.IsConflict(err) {
		return charge, err
	}

	handle, handleErr := svc.GetOrderHandle(ctx, order, true)
	if handleErr != nil {
		return nil, handleErr
	}
	svc.Logger.Infof("Charge conflict, retrying with unique handle order_id:%v handle:%s error: %v", order.ID, handle, err)
	req.Handle = handle
	charge, err = svc.ReepayClient.CreateCharge(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("charge failed after handle retry: %w", err)
	}
	return charge, nil
}
