// Package notify delivers push notifications for newly created messages.
// Delivery is asynchronous: the message path enqueues a task and an asynq
// worker does the FCM call, so a slow or failing push never delays a send.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const TaskMessagePush = "notify:push"

// PushPayload is the task body for a message push notification.
type PushPayload struct {
	MessageID  string `json:"message_id"`
	FromID     string `json:"from_id"`
	FromName   string `json:"from_name"`
	ToID       string `json:"to_id"`
	Body       string `json:"body"`
}

// Dispatcher is implemented by anything that can schedule a push for a
// created message. Implementations must never fail the message send path.
type Dispatcher interface {
	MessageCreated(ctx context.Context, p PushPayload) error
}

// QueueDispatcher enqueues push tasks on asynq.
type QueueDispatcher struct {
	client *asynq.Client
}

func NewQueueDispatcher(redisURL string) (*QueueDispatcher, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &QueueDispatcher{client: asynq.NewClient(opt)}, nil
}

func (d *QueueDispatcher) MessageCreated(ctx context.Context, p PushPayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}
	task := asynq.NewTask(TaskMessagePush, data)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("enqueue push task: %w", err)
	}
	return nil
}

func (d *QueueDispatcher) Close() error {
	return d.client.Close()
}

// NopDispatcher drops every notification. Used when push is not configured.
type NopDispatcher struct{}

func (NopDispatcher) MessageCreated(context.Context, PushPayload) error { return nil }
