package repository

import (
	"context"
	"os"
	"testing"

	"lessonforge/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createLessonsTable = `
	CREATE TABLE IF NOT EXISTS lessons (
		id         uuid PRIMARY KEY,
		user_id    text NOT NULL,
		topic      text NOT NULL,
		script     text NOT NULL,
		video_url  text NOT NULL,
		images     text[] NOT NULL DEFAULT '{}',
		quiz       text NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now()
	)
`

func TestLessonRepoWithPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set, skip postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, createLessonsTable)
	require.NoError(t, err)

	repo := NewLessonRepo(pool)
	userID := "repo-test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM lessons WHERE user_id = $1`, userID)
	})

	count, err := repo.CountLessonsByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)

	lesson := &model.Lesson{
		LessonID: uuid.NewString(),
		UserID:   userID,
		Topic:    "Photosynthesis",
		Script:   "Plants turn light into sugar.",
		VideoURL: "https://videos.example/1",
		Images:   []string{"data:image/png;base64,AAAA"},
		Quiz:     "1) What do plants need?",
	}
	require.NoError(t, repo.CreateLesson(ctx, lesson))
	assert.False(t, lesson.CreatedAt.IsZero())

	require.NoError(t, repo.CreateLesson(ctx, &model.Lesson{LessonID: uuid.NewString(), UserID: userID, Topic: "t2"}))

	count, err = repo.CountLessonsByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var images []string
	require.NoError(t, pool.QueryRow(ctx, `SELECT images FROM lessons WHERE id = $1`, lesson.LessonID).Scan(&images))
	assert.Equal(t, lesson.Images, images)
}
