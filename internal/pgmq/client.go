package pgmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"lessonforge/internal/model"
	"lessonforge/internal/pubsub"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Client wraps a Postgres pool for pgmq queue operations.
type Client struct {
	db Execer
}

// New returns a new PGMQ client backed by the given pool.
func New(db Execer) *Client {
	return &Client{db: db}
}

// CreateQueue creates queue if it does not exist yet.
func (c *Client) CreateQueue(ctx context.Context, queue string) error {
	if _, err := c.db.Exec(ctx, "SELECT pgmq.create($1)", queue); err != nil {
		return fmt.Errorf("pgmq create failed: %w", err)
	}
	return nil
}

// Send pushes a JSON payload into the given queue and returns its message id.
func (c *Client) Send(ctx context.Context, queue string, payload []byte) (int64, error) {
	var id int64
	if err := c.db.QueryRow(ctx, "SELECT pgmq.send($1, $2::jsonb, 0)", queue, string(payload)).Scan(&id); err != nil {
		return 0, fmt.Errorf("pgmq send failed: %w", err)
	}
	return id, nil
}

// Publisher sends lesson events to a pgmq queue. It lets deployments without
// Google Pub/Sub still feed downstream consumers from the same database.
type Publisher struct {
	client *Client
	queue  string
}

var _ pubsub.Publisher = (*Publisher)(nil)

func NewPublisher(client *Client, queue string) *Publisher {
	return &Publisher{client: client, queue: queue}
}

func (p *Publisher) PublishLessonGenerated(ctx context.Context, l *model.Lesson) (string, error) {
	payload, err := json.Marshal(pubsub.NewLessonGeneratedEvent(l))
	if err != nil {
		return "", fmt.Errorf("failed to marshal lesson event: %w", err)
	}
	id, err := p.client.Send(ctx, p.queue, payload)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// Close is a no-op; the pool is owned by the caller.
func (p *Publisher) Close() error { return nil }
