package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/errwatch/internal/adapter/logger"
	"github.com/YelzhanWeb/errwatch/internal/interfaces"
)

const reconnectDelay = 5 * time.Second

type consumer struct {
	conn     Connection
	prefetch int
	logger   logger.Logger
	delay    time.Duration
}

func NewConsumer(conn Connection, prefetch int, logger logger.Logger) interfaces.ReportConsumer {
	return &consumer{conn: conn, prefetch: prefetch, logger: logger, delay: reconnectDelay}
}

// ConsumeReports blocks until ctx is done, resubscribing after every
// channel or connection loss.
func (c *consumer) ConsumeReports(ctx context.Context, handler interfaces.ReportHandler) error {
	for {
		err := c.consumeOnce(ctx, handler)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		c.logger.Warn("consumer_disconnected", "Report consumer disconnected, reconnecting", "", map[string]interface{}{
			"error":        err.Error(),
			"retry_in_sec": c.delay.Seconds(),
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.delay):
		}
	}
}

func (c *consumer) consumeOnce(ctx context.Context, handler interfaces.ReportHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if c.prefetch > 0 {
		if err := ch.Qos(c.prefetch, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	if err := declareReportsExchange(ch); err != nil {
		return err
	}

	// Each subscriber gets its own exclusive queue.
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", ReportsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return errors.New("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return errors.New("messages channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				c.logger.Debug("report_skipped", "Report message not handled", msg.MessageId, map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}
