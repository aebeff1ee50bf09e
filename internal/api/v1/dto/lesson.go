package dto

// LessonRequest is the body of POST /generate_lesson
type LessonRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Username string `json:"username" validate:"required"`
	Topic    string `json:"topic" validate:"required,min=2"`
	Grade    string `json:"grade" validate:"required"`
	Language string `json:"language" validate:"required,min=2"`
}

// LessonResponseDTO is returned after a lesson has been generated and saved
type LessonResponseDTO struct {
	Username string   `json:"username"`
	Topic    string   `json:"topic"`
	Script   string   `json:"script"`
	VideoURL string   `json:"video_url"`
	Images   []string `json:"images"`
	Quiz     string   `json:"quiz"`
}

type QuestionRequest struct {
	Question string `json:"question" validate:"required,min=5"`
}

type AnswerResponseDTO struct {
	Answer string `json:"answer"`
}
