package service

import (
	"context"
	"time"

	"github.com/shopdock/reepay-sync.go/db/models"
)

// LockOrder acquires the best-effort per-order mutation lock. The flag is
// set with a store-level compare-and-swap; on contention the caller polls
// a bounded number of times, reloading the order each round so it works
// with the freshest state once the lock is won. Returns false when every
// attempt found the lock held. Callers proceed anyway and rely on the
// per-field idempotency guards, since the remote processor redelivers
// events regardless.
func (svc *SyncService) LockOrder(ctx context.Context, order *models.Order) bool {
	wait := time.Duration(svc.Config.OrderLockWaitMs) * time.Millisecond
	for attempt := 0; attempt < svc.Config.OrderLockAttempts; attempt++ {
		locked, err := svc.Store.TryLockOrder(ctx, order.ID)
		if err != nil {
			svc.Logger.Errorf("Order lock attempt failed order_id:%v error: %v", order.ID, err)
			return false
		}
		if locked {
			order.Locked = true
			return true
		}
		time.Sleep(wait)
		if fresh, err := svc.Store.OrderByID(ctx, order.ID); err == nil {
			*order = *fresh
		}
	}
	svc.Logger.Warnf("Order lock not acquired after %d attempts order_id:%v", svc.Config.OrderLockAttempts, order.ID)
	return false
}

// UnlockOrder clears the lock flag. The acquirer always calls it, even
// when the handler failed, so a crashed delivery cannot wedge the order.
// Callers that never won the lock must not call it.
func (svc *SyncService) UnlockOrder(ctx context.Context, order *models.Order) {
	if err := svc.Store.UnlockOrder(ctx, order.ID); err != nil {
		svc.Logger.Errorf("Order unlock failed order_id:%v error: %v", order.ID, err)
		return
	}
	order.Locked = false
}
