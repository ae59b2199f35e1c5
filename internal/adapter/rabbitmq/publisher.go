package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/errwatch/internal/interfaces"
)

// ReportsExchange fans every reported entry out to all bound subscribers.
const ReportsExchange = "error_reports_fanout"

type publisher struct {
	conn Connection
}

func NewPublisher(conn Connection) interfaces.ReportPublisher {
	return &publisher{conn: conn}
}

func (p *publisher) PublishReport(ctx context.Context, msg interfaces.ReportMessage) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := declareReportsExchange(ch); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	priority := uint8(0)
	if msg.UrgentLabel != "" {
		priority = 9
	}

	err = ch.Publish(ReportsExchange, "", false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    msg.ID,
		Timestamp:    msg.ReportedAt,
		Priority:     priority,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

func declareReportsExchange(ch Channel) error {
	if err := ch.ExchangeDeclare(ReportsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}
