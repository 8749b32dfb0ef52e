package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func TestPublisher_Publish(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	payload := map[string]string{"username": "john_doe", "plan_name": "Pro Plan"}

	tests := []struct {
		name       string
		ctx        func() context.Context
		publishErr error
		wantErr    bool
		wantCall   bool
	}{
		{
			name:     "published",
			ctx:      context.Background,
			wantCall: true,
		},
		{
			name:       "broker error",
			ctx:        context.Background,
			publishErr: errors.New("channel closed"),
			wantErr:    true,
			wantCall:   true,
		},
		{
			name: "cancelled context",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := new(MockChannel)
			if tt.wantCall {
				ch.On("Publish", Exchange, RoutingKeyLifecycle, false, false, mock.MatchedBy(func(msg amqp.Publishing) bool {
					var got map[string]string
					if err := json.Unmarshal(msg.Body, &got); err != nil {
						return false
					}
					_, idErr := uuid.Parse(msg.MessageId)
					return got["username"] == "john_doe" &&
						msg.ContentType == "application/json" &&
						msg.DeliveryMode == amqp.Persistent &&
						msg.Timestamp.Equal(fixed) &&
						idErr == nil
				})).Return(tt.publishErr).Once()
			}

			p := NewPublisher(ch)
			p.now = func() time.Time { return fixed }

			err := p.Publish(tt.ctx(), RoutingKeyLifecycle, payload)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			ch.AssertExpectations(t)
			if !tt.wantCall {
				ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestPublisher_MarshalError(t *testing.T) {
	ch := new(MockChannel)
	p := NewPublisher(ch)

	err := p.Publish(context.Background(), RoutingKeyUpcoming, make(chan int))
	assert.Error(t, err)
	ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationQueues(t *testing.T) {
	queues := NotificationQueues()
	assert.ElementsMatch(t, []QueueConfig{
		{QueueName: "notifications.upcoming", RoutingKey: "upcoming"},
		{QueueName: "notifications.lifecycle", RoutingKey: "lifecycle"},
	}, queues)
}
