package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/corebill/pos-sync-svc/internal/dal/rabbitmq"
	"github.com/corebill/pos-sync-svc/internal/service/models/synclog"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

// AuditRabbitMQRepository publishes change log records to RabbitMQ so
// support tooling can consume the audit trail without querying the
// service's database.
type AuditRabbitMQRepository struct {
	client *rabbitmq.Client
	queue  amqp.Queue
}

func NewAuditRabbitMQRepository(client *rabbitmq.Client) *AuditRabbitMQRepository {
	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:       "possync.synclog.recorded",
		Durable:    false,
		Exclusive:  false,
		AutoDelete: false,
	})
	if err != nil {
		panic(err)
	}

	return &AuditRabbitMQRepository{
		client: client,
		queue:  queue,
	}
}

// PublishRecords publishes each record as one JSON message. Delivery is
// at-least-once: the caller re-submits the whole batch when any publish
// fails, and consumers dedupe by record id.
func (r *AuditRabbitMQRepository) PublishRecords(
	ctx context.Context,
	records []synclog.Record,
) error {
	publishCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	g, _ := errgroup.WithContext(publishCtx)
	g.SetLimit(3)

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			body, err := json.Marshal(rec)
			if err != nil {
				return err
			}

			return r.client.Channel().Publish(
				"",
				r.queue.Name,
				false,
				false,
				amqp.Publishing{
					ContentType: "application/json",
					Body:        body,
				},
			)
		})
	}

	return g.Wait()
}
