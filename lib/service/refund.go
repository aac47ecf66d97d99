package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopdock/reepay-sync.go/common"
	"github.com/shopdock/reepay-sync.go/db/models"
	"github.com/shopdock/reepay-sync.go/reepay"
)

var ErrNothingToRefund = errors.New("order has no refundable settled amount")

// RefundOrder issues a refund against the order's invoice. A non-positive
// amount refunds everything still refundable. The resulting credit note is
// recorded locally right away so the follow-up invoice_refund webhook is a
// no-op for it.
func (svc *SyncService) RefundOrder(ctx context.Context, order *models.Order, amount float64) error {
	if !order.IsGatewayOrder() {
		return ErrNothingToRefund
	}

	invoice, err := svc.ReepayClient.GetInvoice(ctx, order.Handle)
	if err != nil {
		return err
	}
	refundable := reepay.FromMinorUnit(invoice.SettledAmount-invoice.RefundedAmount, order.Currency)
	if amount <= 0 {
		amount = refundable
	}
	if amount <= 0 || amount > refundable {
		return ErrNothingToRefund
	}

	result, err := svc.ReepayClient.CreateRefund(ctx, &reepay.RefundRequest{
		Invoice: order.Handle,
		Amount:  reepay.ToMinorUnit(amount, order.Currency),
	})
	if err != nil {
		return err
	}

	refund := &models.Refund{
		OrderID:      order.ID,
		Amount:       amount,
		CreditNoteID: result.CreditNote,
		Note:         fmt.Sprintf("Refunded %.2f %s via admin action", amount, order.Currency),
	}
	if err := svc.Store.CreateRefund(ctx, refund); err != nil {
		return err
	}
	order.AppliedCreditNotes = append(order.AppliedCreditNotes, result.CreditNote)
	order.AddNote(refund.Note)
	if err := svc.Store.UpdateOrder(ctx, order); err != nil {
		return err
	}
	svc.publishOrderEvent(common.OrderEventRefunded, order, amount, "")
	return nil
}
