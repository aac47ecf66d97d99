package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopdock/reepay-sync.go/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrderHandleKeepsExisting(t *testing.T) {
	svc, store, _ := newTestService()
	order := store.addOrder(&models.Order{Number: 1001, Handle: "order-1001", Currency: "DKK"})

	handle, err := svc.GetOrderHandle(context.Background(), order, false)
	require.NoError(t, err)
	assert.Equal(t, "order-1001", handle)
}

func TestGetOrderHandleGeneratesAndPersists(t *testing.T) {
	svc, store, _ := newTestService()
	order := store.addOrder(&models.Order{Number: 1002, Currency: "DKK"})

	handle, err := svc.GetOrderHandle(context.Background(), order, false)
	require.NoError(t, err)
	assert.Equal(t, "order-1002", handle)

	stored, err := store.OrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "order-1002", stored.Handle)
}

func TestGetOrderHandleForceUnique(t *testing.T) {
	svc, store, _ := newTestService()
	order := store.addOrder(&models.Order{Number: 1003, Handle: "order-1003", Currency: "DKK"})

	svc.now = fixedClock(time.Unix(1700000000, 0))
	first, err := svc.GetOrderHandle(context.Background(), order, true)
	require.NoError(t, err)
	assert.Equal(t, "order-1003-1700000000", first)

	svc.now = fixedClock(time.Unix(1700000001, 0))
	second, err := svc.GetOrderHandle(context.Background(), order, true)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	stored, err := store.OrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, second, stored.Handle)
}
