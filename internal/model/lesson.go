package model

import "time"

// Lesson is the persisted output of one successful generation run.
type Lesson struct {
	LessonID  string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Topic     string    `db:"topic" json:"topic"`
	Script    string    `db:"script" json:"script"`
	VideoURL  string    `db:"video_url" json:"video_url"`
	Images    []string  `db:"images" json:"images"`
	Quiz      string    `db:"quiz" json:"quiz"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LessonSpec carries the learner-facing parameters of a lesson.
type LessonSpec struct {
	UserID   string
	Username string
	Topic    string
	Grade    string
	Language string
}
