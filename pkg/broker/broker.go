// Package broker publishes order events to RabbitMQ for downstream
// consumers such as the kitchen printer and customer notifier.
//
//	pub, err := broker.Open(config.AMQPURL(), config.AMQPExchange())
//	defer pub.Close()
//	pub.Publish(ctx, "pedido.criado", body)
//
// With an empty URL Open returns a publisher that only logs.
package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/metrics"
)

var ErrClosed = errors.New("broker: publisher closed")

// Publisher sends a message to the events exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}

// Open dials url and declares exchange as a durable fanout exchange.
func Open(url, exchange string) (Publisher, error) {
	if url == "" {
		logger.Info("broker: AMQP_URL not set, events are only logged")
		return LogPublisher{}, nil
	}
	p := &AMQPPublisher{url: url, exchange: exchange}
	if err := p.connect(); err != nil {
		return nil, err
	}
	logger.Info("broker: connected", "exchange", exchange)
	return p, nil
}

// ─── AMQP ─────────────────────────────────────────────────────────────────────

// AMQPPublisher publishes persistent JSON messages on one channel. A dropped
// connection is re-dialed on the next Publish.
type AMQPPublisher struct {
	url      string
	exchange string

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("broker: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("broker: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"fanout",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("broker: declare exchange %s: %w", p.exchange, err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.conn == nil || p.conn.IsClosed() || p.ch == nil || p.ch.IsClosed() {
		logger.Warn("broker: connection lost, reconnecting")
		if err := p.connect(); err != nil {
			metrics.BrokerPublished.WithLabelValues("error").Inc()
			return err
		}
	}

	err := p.ch.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			Type:         routingKey,
		})
	if err != nil {
		metrics.BrokerPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("broker: publish %s: %w", routingKey, err)
	}
	metrics.BrokerPublished.WithLabelValues("ok").Inc()
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.ch != nil && !p.ch.IsClosed() {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

// ─── Log-only ─────────────────────────────────────────────────────────────────

// LogPublisher stands in for RabbitMQ when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	logger.WithCtx(ctx).Info("broker: event", "routing_key", routingKey, "body", string(body))
	metrics.BrokerPublished.WithLabelValues("logged").Inc()
	return nil
}

func (LogPublisher) Close() error { return nil }
