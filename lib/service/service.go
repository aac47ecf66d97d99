package service

import (
	"sync"
	"time"

	"github.com/shopdock/reepay-sync.go/common"
	"github.com/shopdock/reepay-sync.go/db/models"
	"github.com/shopdock/reepay-sync.go/reepay"
	"github.com/ziflex/lecho/v3"
)

// SyncService reconciles the local order store with invoice state held by
// the remote payment processor. All order mutation funnels through it.
type SyncService struct {
	Config       *Config
	Store        Store
	ReepayClient reepay.Client
	Logger       *lecho.Logger
	OrderPubSub  *Pubsub

	webhookSecretMu      sync.Mutex
	webhookSecret        string
	webhookSecretFetched time.Time

	// overridable in tests
	now func() time.Time
}

func New(config *Config, store Store, client reepay.Client, logger *lecho.Logger) *SyncService {
	return &SyncService{
		Config:       config,
		Store:        store,
		ReepayClient: client,
		Logger:       logger,
		OrderPubSub:  NewPubsub(),
		now:          time.Now,
	}
}

// OrderEvent is the side-effect event emitted on order state changes,
// consumed by in-process subscribers and the RabbitMQ publisher.
type OrderEvent struct {
	Type        string  `json:"type"`
	OrderID     int64   `json:"order_id"`
	Handle      string  `json:"handle"`
	Amount      float64 `json:"amount,omitempty"`
	Transaction string  `json:"transaction,omitempty"`
}

func (svc *SyncService) publishOrderEvent(eventType string, order *models.Order, amount float64, transaction string) {
	svc.OrderPubSub.Publish(eventType, OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		Handle:      order.Handle,
		Amount:      amount,
		Transaction: transaction,
	})
}

// OrderEventTopics lists every topic the service publishes, in one place so
// consumers like the RabbitMQ publisher can subscribe to all of them.
func OrderEventTopics() []string {
	return []string{
		common.OrderEventAuthorized,
		common.OrderEventSettled,
		common.OrderEventLineSettled,
		common.OrderEventCancelled,
		common.OrderEventRefunded,
		common.OrderEventStockReduced,
		common.OrderEventRenewalCreated,
		common.OrderEventPaymentMethodAdded,
		common.OrderEventChargeFailed,
	}
}
