package service

import (
	"context"
	"testing"

	"github.com/shopdock/reepay-sync.go/db/models"
	"github.com/shopdock/reepay-sync.go/reepay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaymentTokenFromOrder(t *testing.T) {
	svc, store, _ := newTestService()
	token := &models.PaymentToken{Token: "tok-order"}
	require.NoError(t, store.CreatePaymentToken(context.Background(), token))
	order := store.addOrder(&models.Order{Number: 1, Handle: "order-1", Currency: "DKK", PaymentTokenID: token.ID})

	resolved, err := svc.ResolvePaymentToken(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "tok-order", resolved)
}

func TestResolvePaymentTokenFromSubscription(t *testing.T) {
	svc, store, _ := newTestService()
	token := &models.PaymentToken{Token: "tok-sub"}
	require.NoError(t, store.CreatePaymentToken(context.Background(), token))
	store.subscriptions["sub-2"] = &models.Subscription{ID: 1, Handle: "sub-2", PaymentTokenID: token.ID}
	order := store.addOrder(&models.Order{Number: 2, Handle: "order-2", Currency: "DKK", SubscriptionHandle: "sub-2"})

	resolved, err := svc.ResolvePaymentToken(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "tok-sub", resolved)
}

func TestResolvePaymentTokenFromParentOrder(t *testing.T) {
	svc, store, _ := newTestService()
	token := &models.PaymentToken{Token: "tok-parent"}
	require.NoError(t, store.CreatePaymentToken(context.Background(), token))
	parent := store.addOrder(&models.Order{Number: 3, Handle: "order-3", Currency: "DKK", PaymentTokenID: token.ID})
	store.subscriptions["sub-3"] = &models.Subscription{ID: 2, Handle: "sub-3", OrderID: parent.ID}
	renewal := store.addOrder(&models.Order{Number: 31, Handle: "order-31", Currency: "DKK", SubscriptionHandle: "sub-3"})

	resolved, err := svc.ResolvePaymentToken(context.Background(), renewal)
	require.NoError(t, err)
	assert.Equal(t, "tok-parent", resolved)
}

func TestResolvePaymentTokenMaterializesRawMetaToken(t *testing.T) {
	svc, store, _ := newTestService()
	order := store.addOrder(&models.Order{Number: 4, Handle: "order-4", Currency: "DKK", MetaToken: "raw-token-4"})

	resolved, err := svc.ResolvePaymentToken(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "raw-token-4", resolved)

	// the raw token became a first-class record attached to the order
	require.NotZero(t, order.PaymentTokenID)
	token, err := store.PaymentTokenByID(context.Background(), order.PaymentTokenID)
	require.NoError(t, err)
	assert.Equal(t, "raw-token-4", token.Token)
}

func TestResolvePaymentTokenFallsBackToInvoice(t *testing.T) {
	svc, store, client := newTestService()
	order := store.addOrder(&models.Order{Number: 5, Handle: "order-5", Currency: "DKK"})

	client.getInvoiceFunc = func(ctx context.Context, handle string) (*reepay.Invoice, error) {
		return &reepay.Invoice{
			Handle: handle,
			Transactions: []reepay.Transaction{
				{ID: "txn-old", PaymentMethod: "pm-old"},
				{ID: "txn-new", PaymentMethod: "pm-new"},
			},
		}, nil
	}

	resolved, err := svc.ResolvePaymentToken(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "pm-new", resolved)
}

func TestResolvePaymentTokenEmptyWhenNothingFound(t *testing.T) {
	svc, store, client := newTestService()
	order := store.addOrder(&models.Order{Number: 6, Handle: "order-6", Currency: "DKK"})

	client.getInvoiceFunc = func(ctx context.Context, handle string) (*reepay.Invoice, error) {
		return nil, &reepay.APIError{HTTPStatus: 404}
	}

	resolved, err := svc.ResolvePaymentToken(context.Background(), order)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestChargeRenewalFailsFastWithoutToken(t *testing.T) {
	svc, store, client := newTestService()
	order := store.addOrder(&models.Order{Number: 7, Handle: "order-7", Currency: "DKK", Status: "pending"})

	client.getInvoiceFunc = func(ctx context.Context, handle string) (*reepay.Invoice, error) {
		return &reepay.Invoice{Handle: handle}, nil
	}

	err := svc.ChargeRenewal(context.Background(), order, 99.0, true)
	assert.ErrorIs(t, err, ErrNoPaymentToken)
	// the charge was never attempted
	assert.Equal(t, "pending", order.Status)
}

func TestChargeRenewalSuccess(t *testing.T) {
	svc, store, client := newTestService()
	token := &models.PaymentToken{Token: "tok-8"}
	require.NoError(t, store.CreatePaymentToken(context.Background(), token))
	// stale unique handle left over from an earlier conflict retry
	order := store.addOrder(&models.Order{Number: 8, Handle: "order-8-1690000000", Currency: "DKK", Status: "pending", PaymentTokenID: token.ID})

	var chargeReq *reepay.ChargeRequest
	client.createChargeFunc = func(ctx context.Context, req *reepay.ChargeRequest) (*reepay.Charge, error) {
		chargeReq = req
		return &reepay.Charge{Handle: req.Handle, State: "authorized", Transaction: "txn-8"}, nil
	}

	require.NoError(t, svc.ChargeRenewal(context.Background(), order, 99.0, false))

	require.NotNil(t, chargeReq)
	assert.Equal(t, "order-8", chargeReq.Handle)
	assert.Equal(t, "tok-8", chargeReq.Source)
	assert.True(t, chargeReq.Recurring)
	assert.False(t, chargeReq.Settle)
	assert.Equal(t, int64(9900), chargeReq.Amount)

	assert.Equal(t, "order-8", order.Handle)
	assert.Equal(t, "on-hold", order.Status)
	assert.True(t, order.StateAuthorized)
	assert.Equal(t, "txn-8", order.AuthorizedTransaction)
}

func TestChargeRenewalFailureMarksOrderFailed(t *testing.T) {
	svc, store, client := newTestService()
	token := &models.PaymentToken{Token: "tok-9"}
	require.NoError(t, store.CreatePaymentToken(context.Background(), token))
	order := store.addOrder(&models.Order{Number: 9, Handle: "order-9", Currency: "DKK", Status: "pending", PaymentTokenID: token.ID})

	events := make(chan OrderEvent, 1)
	_, err := svc.OrderPubSub.Subscribe("charge_failed", events)
	require.NoError(t, err)

	client.createChargeFunc = func(ctx context.Context, req *reepay.ChargeRequest) (*reepay.Charge, error) {
		return nil, &reepay.APIError{HTTPStatus: 402, Message: "card declined"}
	}

	err = svc.ChargeRenewal(context.Background(), order, 99.0, true)
	require.Error(t, err)
	assert.Equal(t, "failed", order.Status)
	require.NotEmpty(t, order.Notes)
	assert.Contains(t, order.Notes[len(order.Notes)-1], "card declined")

	select {
	case event := <-events:
		assert.Equal(t, order.ID, event.OrderID)
	default:
		t.Fatal("expected charge_failed event")
	}
}
