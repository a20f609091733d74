// Package events publishes domain events about recipes and user relations.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/foodgram/apiserver/internal/mq"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Type names a domain event.
type Type string

const (
	RecipeCreated       Type = "recipe.created"
	RecipeUpdated       Type = "recipe.updated"
	RecipeDeleted       Type = "recipe.deleted"
	FavoriteAdded       Type = "favorite.added"
	CartAdded           Type = "cart.added"
	SubscriptionCreated Type = "subscription.created"
)

// Event is the envelope published for every domain event.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	// ActorID is the user who caused the event.
	ActorID int `json:"actor_id"`
	// SubjectID is the recipe or author the event is about.
	SubjectID int `json:"subject_id"`
}

// New builds an event stamped with a fresh id and the current time.
func New(eventType Type, actorID, subjectID int) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		ActorID:    actorID,
		SubjectID:  subjectID,
	}
}

// Decode parses an event envelope.
func Decode(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// MQPublisher sends events to a broker channel as JSON.
type MQPublisher struct {
	queue   *mq.MQ
	channel string
}

// NewMQPublisher returns a publisher writing to channel on queue.
func NewMQPublisher(queue *mq.MQ, channel string) *MQPublisher {
	return &MQPublisher{queue: queue, channel: channel}
}

func (p *MQPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	attrs := map[string]string{
		"event_type":       string(event.Type),
		mq.AttrContentType: "application/json",
	}
	if _, err := p.queue.Publish(ctx, p.channel, data, attrs); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Subscribe delivers decoded events from channel to handle until ctx ends.
// Messages that fail to decode are acknowledged and skipped.
func Subscribe(ctx context.Context, queue *mq.MQ, channel string, handle func(context.Context, Event) error) error {
	return queue.Subscribe(ctx, channel, func(ctx context.Context, msg mq.Message) error {
		event, err := Decode(msg.Data)
		if err != nil {
			return nil
		}
		return handle(ctx, event)
	})
}
