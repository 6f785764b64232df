// Package amqp publishes refresh and budget-alert events over RabbitMQ
// and lets the worker consume them. Alerts and refreshes use distinct
// routing keys on one direct exchange.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	routingKeyRefresh = "refresh"
	routingKeyAlert   = "budget_alert"

	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	url          string
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	for _, key := range []string{routingKeyRefresh, routingKeyAlert} {
		if err := c.channel.QueueBind(c.queueName, key, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue with key %s: %w", key, err)
		}
	}
	return nil
}

// PublishRefresh publishes a refresh event after the record sets change.
func (c *Client) PublishRefresh(ctx context.Context, expenseCount, budgetCount int) error {
	msg := NewRefreshMessage(expenseCount, budgetCount)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, routingKeyRefresh, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published refresh event",
		"expenses", expenseCount,
		"budgets", budgetCount,
		"exchange", c.exchangeName)
	return nil
}

// PublishBudgetAlert publishes a danger alert for one budget.
func (c *Client) PublishBudgetAlert(ctx context.Context, category string, priority int, message string, percentage float64) error {
	msg := NewBudgetAlertMessage(category, priority, message, percentage)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, routingKeyAlert, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published budget alert",
		"category", category,
		"percentage", percentage,
		"exchange", c.exchangeName)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Consume delivers queued messages to the handlers with manual acks. A
// handler error nacks with requeue; an undecodable body is dropped.
// Connection-level failures trigger a reconnect with exponential backoff.
func (c *Client) Consume(ctx context.Context, onRefresh func(*RefreshMessage) error, onAlert func(*BudgetAlertMessage) error) error {
	attempt := 0
	for {
		err := c.consumeOnce(ctx, onRefresh, onAlert)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		attempt++
		slog.WarnContext(ctx, "AMQP connection lost, reconnecting",
			"error", err, "attempt", attempt, "backoff", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if err := c.reconnect(); err != nil {
			slog.ErrorContext(ctx, "Reconnect failed", "error", err)
			continue
		}
		attempt = 0
	}
}

func (c *Client) consumeOnce(ctx context.Context, onRefresh func(*RefreshMessage) error, onAlert func(*BudgetAlertMessage) error) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed: connection closed")
			}
			c.dispatch(ctx, delivery, onRefresh, onAlert)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, delivery amqp091.Delivery, onRefresh func(*RefreshMessage) error, onAlert func(*BudgetAlertMessage) error) {
	var err error
	switch delivery.RoutingKey {
	case routingKeyRefresh:
		var msg *RefreshMessage
		if msg, err = RefreshMessageFromJSON(delivery.Body); err == nil {
			err = onRefresh(msg)
		} else {
			slog.ErrorContext(ctx, "Failed to unmarshal refresh message", "error", err)
			delivery.Nack(false, false)
			return
		}
	case routingKeyAlert:
		var msg *BudgetAlertMessage
		if msg, err = BudgetAlertMessageFromJSON(delivery.Body); err == nil {
			err = onAlert(msg)
		} else {
			slog.ErrorContext(ctx, "Failed to unmarshal alert message", "error", err)
			delivery.Nack(false, false)
			return
		}
	default:
		slog.WarnContext(ctx, "Unknown routing key", "key", delivery.RoutingKey)
		delivery.Nack(false, false)
		return
	}

	if err != nil {
		slog.ErrorContext(ctx, "Handler failed, requeueing",
			"key", delivery.RoutingKey, "error", err)
		delivery.Nack(false, true)
		return
	}
	delivery.Ack(false)
}

func (c *Client) reconnect() error {
	c.Close()
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	c.conn = conn
	c.channel = channel
	return c.setup()
}

// exponentialBackoff returns 1s doubled per attempt, capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	d := time.Second << uint(attempt)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"connection refused",
		"connection closed",
		"EOF",
		"broken pipe",
		"use of closed network connection",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
