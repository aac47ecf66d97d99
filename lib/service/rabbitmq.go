package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

var bufPool sync.Pool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// StartRabbitMqPublisher bridges the in-process order pubsub onto a
// RabbitMQ topic exchange so external consumers (subscription activation,
// notifications) get the same side-effect events. Runs until ctx is done.
func (svc *SyncService) StartRabbitMqPublisher(ctx context.Context) error {
	conn, err := amqp.Dial(svc.Config.RabbitMQUri)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		svc.Config.RabbitMQOrderExchange,
		// topic exchange so consumers can bind per event type
		"topic",
		// durable, survives broker restarts
		true,
		false,
		false,
		// wait for the server to confirm the declare
		false,
		nil,
	)
	if err != nil {
		return err
	}

	svc.Logger.Infof("Starting rabbitmq order event publisher exchange:%s", svc.Config.RabbitMQOrderExchange)

	events := make(chan OrderEvent)
	for _, topic := range OrderEventTopics() {
		if _, err := svc.OrderPubSub.Subscribe(topic, events); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context canceled")
		case event := <-events:
			svc.publishToRabbit(ctx, event, ch)
		}
	}
}

func (svc *SyncService) publishToRabbit(ctx context.Context, event OrderEvent, ch *amqp.Channel) {
	key := fmt.Sprintf("order.%s", event.Type)

	payload := bufPool.Get().(*bytes.Buffer)
	payload.Reset()
	defer bufPool.Put(payload)

	if err := json.NewEncoder(payload).Encode(event); err != nil {
		svc.Logger.Error(err)
		return
	}

	err := ch.PublishWithContext(ctx,
		svc.Config.RabbitMQOrderExchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        payload.Bytes(),
		},
	)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	svc.Logger.Debugf("Published order event to rabbitmq key:%s order_id:%v", key, event.OrderID)
}
