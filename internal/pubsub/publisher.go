package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lessonforge/internal/model"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// LessonGeneratedEvent is emitted after a lesson has been persisted.
type LessonGeneratedEvent struct {
	Type      string    `json:"type"`
	LessonID  string    `json:"lesson_id"`
	UserID    string    `json:"user_id"`
	Topic     string    `json:"topic"`
	VideoURL  string    `json:"video_url"`
	Images    int       `json:"image_count"`
	CreatedAt time.Time `json:"created_at"`
}

const LessonGeneratedType = "lesson.generated"

// NewLessonGeneratedEvent summarizes a lesson; image payloads are not copied.
func NewLessonGeneratedEvent(l *model.Lesson) LessonGeneratedEvent {
	return LessonGeneratedEvent{
		Type:      LessonGeneratedType,
		LessonID:  l.LessonID,
		UserID:    l.UserID,
		Topic:     l.Topic,
		VideoURL:  l.VideoURL,
		Images:    len(l.Images),
		CreatedAt: l.CreatedAt,
	}
}

// Publisher announces lesson lifecycle events.
type Publisher interface {
	PublishLessonGenerated(ctx context.Context, l *model.Lesson) (string, error)
	Close() error
}

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPublisher creates a PubSubPublisher for topic in projectID.
// credentialsFile may be empty to use application default credentials.
func NewPublisher(ctx context.Context, projectID, topic, credentialsFile string) (*PubSubPublisher, error) {
	if projectID == "" {
		return nil, fmt.Errorf("failed to create Pub/Sub client: project ID is empty")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client, topic: client.Topic(topic)}, nil
}

// PublishLessonGenerated publishes the event and returns the message ID.
func (p *PubSubPublisher) PublishLessonGenerated(ctx context.Context, l *model.Lesson) (string, error) {
	payload, err := json.Marshal(NewLessonGeneratedEvent(l))
	if err != nil {
		return "", fmt.Errorf("marshaling lesson event: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"type": LessonGeneratedType, "user_id": l.UserID},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", p.topic.ID(), err)
	}
	return id, nil
}

func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

// NoopPublisher is used when no Google Cloud project is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishLessonGenerated(context.Context, *model.Lesson) (string, error) {
	return "", nil
}

func (NoopPublisher) Close() error { return nil }
