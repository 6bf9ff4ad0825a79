package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	return &Publisher{channel: ch, exchange: exchange}, nil
}

func (p *Publisher) publish(ctx context.Context, exchange, routingKey string, body []byte, headers amqp.Table) error {
	return p.channel.PublishWithContext(ctx,
		exchange,
		routingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Headers:      headers,
		},
	)
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}

// RunPublisher submits pipeline runs.
type RunPublisher struct {
	pub        *Publisher
	routingKey string
}

func NewRunPublisher(pub *Publisher, runQueue string) *RunPublisher {
	return &RunPublisher{pub: pub, routingKey: runQueue}
}

func (rp *RunPublisher) PublishRun(ctx context.Context, msg []byte) error {
	return rp.pub.publish(ctx, rp.pub.exchange, rp.routingKey, msg, nil)
}

type StatusPublisher struct {
	pub        *Publisher
	routingKey string
}

func NewStatusPublisher(pub *Publisher, statusQueue string) *StatusPublisher {
	return &StatusPublisher{pub: pub, routingKey: statusQueue}
}

func (sp *StatusPublisher) PublishStatus(ctx context.Context, msg []byte) error {
	return sp.pub.publish(ctx, sp.pub.exchange, sp.routingKey, msg, nil)
}

type DLQPublisher struct {
	pub   *Publisher
	queue string
}

func NewDLQPublisher(pub *Publisher, dlqQueue string) *DLQPublisher {
	return &DLQPublisher{pub: pub, queue: dlqQueue}
}

func (dp *DLQPublisher) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	return dp.pub.publish(ctx, "", dp.queue, msg, amqp.Table{
		"x-dlq-reason": reason,
	})
}
