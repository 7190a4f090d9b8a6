package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/geek-guru098/NEPSTORE/pkg/checkout"
	"github.com/geek-guru098/NEPSTORE/pkg/model"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	msgs    []*primitive.Message
	sendErr error
}

func (f *fakeProducer) SendSync(ctx context.Context, msgs ...*primitive.Message) (*primitive.SendResult, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.msgs = append(f.msgs, msgs...)
	return &primitive.SendResult{MsgID: "msg-1"}, nil
}

func TestPublisher_OrderCompleted(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	producer := &fakeProducer{}
	p := NewPublisher(producer, log)

	p.OrderCompleted(context.Background(), checkout.Completion{
		OrderReference: "KH-123",
		Amount:         50000,
		PaymentMethod:  model.PaymentMethodWallet,
	})

	require.Len(t, producer.msgs, 1)
	msg := producer.msgs[0]
	assert.Equal(t, completionTopic, msg.Topic)
	assert.Equal(t, "KH-123", msg.GetKeys())

	var got checkout.Completion
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, int64(50000), got.Amount)
	assert.Equal(t, model.PaymentMethodWallet, got.PaymentMethod)
}

func TestPublisher_SendFailureIsSwallowed(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	p := NewPublisher(&fakeProducer{sendErr: errors.New("mq down")}, log)

	// Must not panic or propagate; a lost event never fails a checkout.
	p.OrderCompleted(context.Background(), checkout.Completion{OrderReference: "COD-9"})
}
