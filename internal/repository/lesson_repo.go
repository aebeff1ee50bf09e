package repository

import (
	"context"
	"fmt"

	"lessonforge/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LessonRepository persists generated lessons.
//
// Expected schema:
//
//	CREATE TABLE lessons (
//	    id         uuid PRIMARY KEY,
//	    user_id    text NOT NULL,
//	    topic      text NOT NULL,
//	    script     text NOT NULL,
//	    video_url  text NOT NULL,
//	    images     text[] NOT NULL DEFAULT '{}',
//	    quiz       text NOT NULL,
//	    created_at timestamptz NOT NULL DEFAULT now()
//	);
type LessonRepository interface {
	// CountLessonsByUserID counts every lesson the user has ever generated.
	CountLessonsByUserID(ctx context.Context, userID string) (int, error)
	CreateLesson(ctx context.Context, l *model.Lesson) error
}

type lessonRepo struct {
	pool *pgxpool.Pool
}

// NewLessonRepo creates a new LessonRepository.
func NewLessonRepo(pool *pgxpool.Pool) LessonRepository {
	return &lessonRepo{pool: pool}
}

func (r *lessonRepo) CountLessonsByUserID(ctx context.Context, userID string) (int, error) {
	const q = `SELECT COUNT(*) FROM lessons WHERE user_id = $1`
	var count int
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting lessons for user %s: %w", userID, err)
	}
	return count, nil
}

// CreateLesson inserts the lesson and fills CreatedAt from the database.
func (r *lessonRepo) CreateLesson(ctx context.Context, l *model.Lesson) error {
	const q = `
		INSERT INTO lessons (id, user_id, topic, script, video_url, images, quiz)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	images := l.Images
	if images == nil {
		images = []string{}
	}
	if err := r.pool.QueryRow(ctx, q, l.LessonID, l.UserID, l.Topic, l.Script, l.VideoURL, images, l.Quiz).
		Scan(&l.CreatedAt); err != nil {
		return fmt.Errorf("inserting lesson for user %s: %w", l.UserID, err)
	}
	return nil
}
