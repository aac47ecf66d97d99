package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/shopdock/reepay-sync.go/common"
	"github.com/shopdock/reepay-sync.go/db/models"
	"github.com/shopdock/reepay-sync.go/reepay"
)

type EventType string

const (
	EventInvoiceAuthorized          EventType = "invoice_authorized"
	EventInvoiceSettled             EventType = "invoice_settled"
	EventInvoiceCancelled           EventType = "invoice_cancelled"
	EventInvoiceRefund              EventType = "invoice_refund"
	EventInvoiceCreated             EventType = "invoice_created"
	EventCustomerCreated            EventType = "customer_created"
	EventCustomerPaymentMethodAdded EventType = "customer_payment_method_added"
)

// WebhookEvent is one inbound delivery from the processor. Deliveries are
// at-least-once and unordered; nothing here is persisted beyond processing.
type WebhookEvent struct {
	ID                     string    `json:"id"`
	Timestamp              string    `json:"timestamp"`
	Signature              string    `json:"signature"`
	EventType              EventType `json:"event_type"`
	Invoice                string    `json:"invoice"`
	Transaction            string    `json:"transaction"`
	Customer               string    `json:"customer"`
	Subscription           string    `json:"subscription"`
	PaymentMethod          string    `json:"payment_method"`
	PaymentMethodReference string    `json:"payment_method_reference"`
}

var errSignatureMismatch = errors.New("webhook signature mismatch")

// ProcessWebhook runs one delivery through verify → lock → apply → unlock.
// It never returns an error: the processor has no retry negotiation, so
// the delivery is always acknowledged and failures only reach the logs.
func (svc *SyncService) ProcessWebhook(ctx context.Context, body []byte) {
	event := &WebhookEvent{}
	if len(body) == 0 || json.Unmarshal(body, event) != nil || event.ID == "" {
		svc.Logger.Errorf("Rejected malformed webhook payload")
		return
	}

	if err := svc.VerifyWebhookSignature(ctx, event); err != nil {
		svc.Logger.Errorf("Rejected webhook event_id:%s error: %v", event.ID, err)
		return
	}

	// customer events carry no order reference
	if event.EventType == EventCustomerCreated {
		if _, err := svc.EnsureCustomer(ctx, event.Customer); err != nil {
			svc.Logger.Errorf("Customer sync failed event_id:%s error: %v", event.ID, err)
		}
		return
	}

	order, err := svc.resolveWebhookOrder(ctx, event)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			svc.Logger.Infof("No matching order for webhook event_id:%s type:%s", event.ID, event.EventType)
		} else {
			svc.Logger.Errorf("Order lookup failed event_id:%s error: %v", event.ID, err)
		}
		return
	}

	// unlock only a lock this delivery won, a timed-out wait must not
	// clear the flag out from under the holder
	if svc.LockOrder(ctx, order) {
		defer svc.UnlockOrder(ctx, order)
	}

	handler, ok := svc.webhookHandler(event.EventType)
	if !ok {
		svc.forwardUnknownEvent(event, order)
		return
	}
	if err := handler(ctx, event, order); err != nil {
		svc.Logger.Errorf("Webhook handler failed event_id:%s type:%s order_id:%v error: %v", event.ID, event.EventType, order.ID, err)
		sentry.CaptureException(err)
	}
}

// VerifyWebhookSignature checks hex(HMAC-SHA256(timestamp+id)) against the
// delivery's signature, using the TTL-cached webhook secret.
func (svc *SyncService) VerifyWebhookSignature(ctx context.Context, event *WebhookEvent) error {
	secret, err := svc.getWebhookSecret(ctx)
	if err != nil {
		return err
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(event.Timestamp + event.ID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(event.Signature)) {
		return errSignatureMismatch
	}
	return nil
}

func (svc *SyncService) getWebhookSecret(ctx context.Context) (string, error) {
	svc.webhookSecretMu.Lock()
	defer svc.webhookSecretMu.Unlock()

	ttl := time.Duration(svc.Config.WebhookSecretTTL) * time.Second
	if svc.webhookSecret != "" && svc.now().Sub(svc.webhookSecretFetched) < ttl {
		return svc.webhookSecret, nil
	}

	settings, err := svc.ReepayClient.GetWebhookSettings(ctx)
	if err != nil {
		// a stale secret beats no secret at all
		if svc.webhookSecret != "" {
			svc.Logger.Errorf("Webhook secret refresh failed, using cached secret: %v", err)
			return svc.webhookSecret, nil
		}
		return "", err
	}
	svc.webhookSecret = settings.Secret
	svc.webhookSecretFetched = svc.now()
	return svc.webhookSecret, nil
}

func (svc *SyncService) resolveWebhookOrder(ctx context.Context, event *WebhookEvent) (*models.Order, error) {
	switch event.EventType {
	case EventInvoiceCreated:
		return svc.Store.OrderBySubscriptionHandle(ctx, event.Subscription)
	case EventCustomerPaymentMethodAdded:
		return svc.Store.OrderBySessionID(ctx, event.PaymentMethodReference)
	default:
		return svc.Store.OrderByHandle(ctx, event.Invoice)
	}
}

type webhookHandlerFunc func(ctx context.Context, event *WebhookEvent, order *models.Order) error

func (svc *SyncService) webhookHandler(eventType EventType) (webhookHandlerFunc, bool) {
	switch eventType {
	case EventInvoiceAuthorized:
		return svc.handleInvoiceAuthorized, true
	case EventInvoiceSettled:
		return svc.handleInvoiceSettled, true
	case EventInvoiceCancelled:
		return svc.handleInvoiceCancelled, true
	case EventInvoiceRefund:
		return svc.handleInvoiceRefund, true
	case EventInvoiceCreated:
		return svc.handleInvoiceCreated, true
	case EventCustomerPaymentMethodAdded:
		return svc.handlePaymentMethodAdded, true
	default:
		return nil, false
	}
}

// forwardUnknownEvent hands event types this service does not interpret to
// any registered consumer, or logs them as unhandled.
func (svc *SyncService) forwardUnknownEvent(event *WebhookEvent, order *models.Order) {
	topic := string(event.EventType)
	if svc.OrderPubSub.HasSubscribers(topic) {
		svc.OrderPubSub.Publish(topic, OrderEvent{
			Type:        topic,
			OrderID:     order.ID,
			Handle:      order.Handle,
			Transaction: event.Transaction,
		})
		return
	}
	svc.Logger.Infof("Unhandled webhook event type:%s event_id:%s", event.EventType, event.ID)
}

func (svc *SyncService) handleInvoiceAuthorized(ctx context.Context, event *WebhookEvent, order *models.Order) error {
	if order.StateAuthorized {
		svc.Logger.Infof("Order already authorized, skipping event_id:%s order_id:%v", event.ID, order.ID)
		return nil
	}

	invoice, err := svc.ReepayClient.GetInvoice(ctx, order.Handle)
	if err != nil {
		return err
	}
	// deliveries are unordered, only trust what the invoice itself says
	if invoice.State != common.InvoiceStateAuthorized && invoice.State != common.InvoiceStateSettled {
		svc.Logger.Infof("Invoice not authorized, skipping event_id:%s order_id:%v state:%s", event.ID, order.ID, invoice.State)
		return nil
	}

	note := fmt.Sprintf("Payment authorized, transaction %s", event.Transaction)
	if _, err := svc.SetAuthorizedStatus(ctx, order, note, event.Transaction); err != nil {
		return err
	}
	if err := svc.reconcileSurchargeLines(ctx, order, invoice); err != nil {
		return err
	}
	return svc.ProcessInstantSettle(ctx, order)
}

func (svc *SyncService) handleInvoiceSettled(ctx context.Context, event *WebhookEvent, order *models.Order) error {
	if order.StateSettled {
		svc.Logger.Infof("Order already settled, skipping event_id:%s order_id:%v", event.ID, order.ID)
		return nil
	}

	if event.Transaction != "" {
		transaction, err := svc.ReepayClient.GetTransaction(ctx, order.Handle, event.Transaction)
		if err != nil {
			return err
		}
		if transaction.CardTransaction != nil && transaction.CardTransaction.ErrorCode != "" {
			order.AddNote(fmt.Sprintf("Capture transaction %s reported card error %s (%s)",
				transaction.ID, transaction.CardTransaction.ErrorCode, transaction.CardTransaction.AcquirerMessage))
			return svc.Store.UpdateOrder(ctx, order)
		}
	}

	note := fmt.Sprintf("Invoice settled, transaction %s", event.Transaction)
	_, err := svc.SetSettledStatus(ctx, order, note, event.Transaction)
	return err
}

func (svc *SyncService) handleInvoiceCancelled(ctx context.Context, event *WebhookEvent, order *models.Order) error {
	if order.Cancelled {
		svc.Logger.Infof("Order already cancelled, skipping event_id:%s order_id:%v", event.ID, order.ID)
		return nil
	}
	order.Cancelled = true
	order.Status = svc.Config.StatusCancelled
	order.CancelledTransaction = event.Transaction
	order.AddNote(fmt.Sprintf("Authorization cancelled, transaction %s", event.Transaction))
	if err := svc.Store.UpdateOrder(ctx, order); err != nil {
		return err
	}
	svc.publishOrderEvent(common.OrderEventCancelled, order, 0, event.Transaction)
	return nil
}

func (svc *SyncService) handleInvoiceRefund(ctx context.Context, event *WebhookEvent, order *models.Order) error {
	// subscription invoices are refunded through the subscription flow
	if order.SubscriptionHandle != "" {
		svc.Logger.Infof("Skipping refund for subscription order event_id:%s order_id:%v", event.ID, order.ID)
		return nil
	}

	invoice, err := svc.ReepayClient.GetInvoice(ctx, order.Handle)
	if err != nil {
		return err
	}

	applied := 0
	for _, creditNote := range invoice.CreditNotes {
		if order.HasAppliedCreditNote(creditNote.ID) {
			continue
		}
		amount := reepay.FromMinorUnit(creditNote.Amount, order.Currency)
		refund := &models.Refund{
			OrderID:      order.ID,
			Amount:       amount,
			CreditNoteID: creditNote.ID,
			Note:         fmt.Sprintf("Refunded via credit note %s", creditNote.ID),
		}
		if err := svc.Store.CreateRefund(ctx, refund); err != nil {
			return err
		}
		order.AppliedCreditNotes = append(order.AppliedCreditNotes, creditNote.ID)
		order.AddNote(refund.Note)
		svc.publishOrderEvent(common.OrderEventRefunded, order, amount, creditNote.Transaction)
		applied++
	}
	if applied == 0 {
		return nil
	}
	return svc.Store.UpdateOrder(ctx, order)
}

// handleInvoiceCreated only propagates the renewal invoice to collaborators
// (the external scheduler creates the renewal order itself).
func (svc *SyncService) handleInvoiceCreated(ctx context.Context, event *WebhookEvent, order *models.Order) error {
	svc.publishOrderEvent(common.OrderEventRenewalCreated, order, 0, event.Transaction)
	return nil
}

func (svc *SyncService) handlePaymentMethodAdded(ctx context.Context, event *WebhookEvent, order *models.Order) error {
	if order.SubscriptionHandle == "" {
		return nil
	}
	subscription, err := svc.Store.SubscriptionByHandle(ctx, order.SubscriptionHandle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			svc.Logger.Infof("No local subscription for handle:%s event_id:%s", order.SubscriptionHandle, event.ID)
			return nil
		}
		return err
	}
	method := event.PaymentMethod
	if method == "" {
		// older deliveries omit the method, the subscription has it
		remote, err := svc.ReepayClient.GetSubscription(ctx, order.SubscriptionHandle)
		if err != nil {
			return err
		}
		method = remote.PaymentMethod
	}
	changed := false
	if method != "" && subscription.PaymentTokenID == 0 {
		token := &models.PaymentToken{
			CustomerHandle: event.Customer,
			Token:          method,
		}
		if err := svc.Store.CreatePaymentToken(ctx, token); err != nil {
			return err
		}
		subscription.PaymentTokenID = token.ID
		changed = true
	}
	if !subscription.Active {
		subscription.Active = true
		changed = true
	}
	if changed {
		if err := svc.Store.UpdateSubscription(ctx, subscription); err != nil {
			return err
		}
	}
	svc.publishOrderEvent(common.OrderEventPaymentMethodAdded, order, 0, "")
	return nil
}

// reconcileSurchargeLines mirrors processor-injected surcharge fee lines
// into the local line set so settlement totals match the remote invoice.
func (svc *SyncService) reconcileSurchargeLines(ctx context.Context, order *models.Order, invoice *reepay.Invoice) error {
	known := make(map[string]bool)
	for _, line := range order.Lines {
		if line.RemoteLineID != "" {
			known[line.RemoteLineID] = true
		}
	}

	for _, remote := range invoice.OrderLines {
		if remote.Origin != common.OrderLineTypeSurcharge || known[remote.ID] {
			continue
		}
		quantity := remote.Quantity
		if quantity == 0 {
			quantity = 1
		}
		line := &models.OrderLine{
			OrderID:      order.ID,
			Name:         remote.Ordertext,
			Quantity:     quantity,
			UnitAmount:   reepay.FromMinorUnit(remote.Amount, order.Currency) / float64(quantity),
			VatRate:      remote.Vat,
			LineType:     common.OrderLineTypeSurcharge,
			RemoteLineID: remote.ID,
		}
		if err := svc.Store.InsertOrderLine(ctx, line); err != nil {
			return err
		}
		order.Lines = append(order.Lines, line)
		svc.Logger.Infof("Reconciled surcharge line order_id:%v remote_line:%s", order.ID, remote.ID)
	}
	return nil
}
