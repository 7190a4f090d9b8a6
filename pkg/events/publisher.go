package events

import (
	"context"
	"encoding/json"

	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/geek-guru098/NEPSTORE/pkg/checkout"
	"github.com/sirupsen/logrus"
)

const completionTopic = "order_completed_events"

// MQProducer is the slice of the RocketMQ producer the publisher needs.
type MQProducer interface {
	SendSync(ctx context.Context, msgs ...*primitive.Message) (*primitive.SendResult, error)
}

// Publisher emits order-completed events to the message queue so the
// surrounding UI and back office can react. Publish failures are logged and
// swallowed; a lost event never fails a completed checkout.
type Publisher struct {
	producer MQProducer
	log      *logrus.Logger
}

func NewPublisher(producer MQProducer, log *logrus.Logger) *Publisher {
	return &Publisher{producer: producer, log: log}
}

func (p *Publisher) OrderCompleted(ctx context.Context, c checkout.Completion) {
	data, _ := json.Marshal(c)

	msg := primitive.NewMessage(completionTopic, data)
	msg.WithKeys([]string{c.OrderReference})

	res, err := p.producer.SendSync(ctx, msg)
	if err != nil {
		p.log.Errorf("[Events] failed to publish completion for order %s: %v", c.OrderReference, err)
		return
	}
	p.log.Infof("[Events] published completion for order %s. MsgID: %s", c.OrderReference, res.MsgID)
}

// LogNotifier is the fallback when no message queue is configured: the
// completion signal still surfaces, in the log.
type LogNotifier struct {
	Log *logrus.Logger
}

func (n *LogNotifier) OrderCompleted(ctx context.Context, c checkout.Completion) {
	n.Log.Infof("[Events] order %s completed: NPR %d via %s", c.OrderReference, c.Amount, c.PaymentMethod)
}
