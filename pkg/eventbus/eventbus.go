package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Event struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type ProjectEvent struct {
	ProjectID string `json:"project_id"`
	CompanyID string `json:"company_id"`
	Status    string `json:"status"`
	ActorID   string `json:"actor_id,omitempty"`
}

type ApprovalEvent struct {
	RequestID  string `json:"request_id"`
	ProjectID  string `json:"project_id"`
	ApproverID string `json:"approver_id"`
	Status     string `json:"status"`
	Comments   string `json:"comments,omitempty"`
}

type QuestionEvent struct {
	QuestionID string `json:"question_id"`
	ProjectID  string `json:"project_id"`
	Status     string `json:"status"`
	AssigneeID string `json:"assignee_id,omitempty"`
}

const (
	ChannelProject  = "gf:events:project"
	ChannelApproval = "gf:events:approval"
	ChannelQuestion = "gf:events:question"
)

type Bus struct {
	client redis.UniversalClient
}

func NewBus(client redis.UniversalClient) *Bus {
	return &Bus{client: client}
}

func NewEvent(eventType string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}, nil
}

func (b *Bus) Publish(ctx context.Context, channel string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *Bus) Subscribe(ctx context.Context, channels ...string) <-chan *Event {
	sub := b.client.Subscribe(ctx, channels...)
	ch := make(chan *Event, 100)

	go func() {
		defer close(ch)
		for msg := range sub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			ch <- &event
		}
	}()

	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()

	return ch
}
