package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopdock/reepay-sync.go/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockOrderAcquiresAndReleases(t *testing.T) {
	svc, store, _ := newTestService()
	order := store.addOrder(&models.Order{Number: 1, Handle: "order-1", Currency: "DKK"})

	assert.True(t, svc.LockOrder(context.Background(), order))
	assert.True(t, order.Locked)

	svc.UnlockOrder(context.Background(), order)
	assert.False(t, order.Locked)
	assert.True(t, svc.LockOrder(context.Background(), order))
}

func TestLockOrderGivesUpAfterBoundedAttempts(t *testing.T) {
	svc, store, _ := newTestService()
	order := store.addOrder(&models.Order{Number: 2, Handle: "order-2", Currency: "DKK", Locked: true})

	assert.False(t, svc.LockOrder(context.Background(), order))
}

func TestLockOrderWinsOnceHolderReleases(t *testing.T) {
	svc, store, _ := newTestService()
	svc.Config.OrderLockAttempts = 100
	order := store.addOrder(&models.Order{Number: 3, Handle: "order-3", Currency: "DKK", Locked: true})

	go func() {
		time.Sleep(5 * time.Millisecond)
		store.UnlockOrder(context.Background(), order.ID)
	}()

	require.True(t, svc.LockOrder(context.Background(), order))
	assert.True(t, order.Locked)
}
