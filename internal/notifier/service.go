package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	kafkax "github.com/ariefcatur/go-menu-orders.git/internal/kafka"
	"github.com/ariefcatur/go-menu-orders.git/internal/orders"
	"github.com/ariefcatur/go-menu-orders.git/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Service consumes order-created events and flags the order as notified.
// The actual delivery channel (mail, push) sits behind Send.
type Service struct {
	Store       orders.Store
	Redis       *redis.Client
	Producer    *kafkax.Producer // publish order.notified
	ServiceName string
	// Send delivers the notification itself; nil means log-only.
	Send func(ctx context.Context, o *orders.Order) error
}

// HandleOrderCreated: dipasang sebagai handler consumer.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	} // ignore

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	o, _, err := s.Store.ByNumber(ctx, p.OrderNumber)
	if err != nil {
		return err
	}

	// idempotent short-circuit: order sudah pernah dinotif
	if o.NotificationSent {
		return nil
	}

	if s.Send != nil {
		if err := s.Send(ctx, o); err != nil {
			return err
		}
	} else {
		log.Printf("notify order %s (%s): total=%s items=%d",
			o.OrderNumber, o.Customer.Email, o.TotalAmount.StringFixed(2), o.TotalItems)
	}

	if err := s.Store.MarkNotified(ctx, p.OrderNumber); err != nil {
		return err
	}
	return s.publishNotified(ctx, p.OrderNumber, env.TraceID)
}

func (s *Service) publishNotified(ctx context.Context, orderNumber, trace string) error {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderNotified,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: orderNumber,
		Payload:       kafkax.MustMarshal(orders.OrderNotifiedPayload{OrderNumber: orderNumber, Channel: "EMAIL"}),
	}
	s.Producer.Publish(orders.PartitionKey(orderNumber), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderNotified)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}
