package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lessonforge/internal/metrics"
	"lessonforge/internal/model"
	"lessonforge/internal/pubsub"
	"lessonforge/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrFreePlanLimitReached is returned when an unsubscribed user has used up
// the free lessons.
var ErrFreePlanLimitReached = errors.New("free plan limit reached")

const (
	DefaultFreeLessonLimit = 3
	scriptMaxTokens        = 500
	quizMaxTokens          = 500
)

// LessonService runs the lesson generation pipeline.
type LessonService interface {
	GenerateLesson(ctx context.Context, spec model.LessonSpec) (*model.Lesson, error)
}

// LessonDeps groups the collaborators of the lesson pipeline.
type LessonDeps struct {
	Lessons      repository.LessonRepository
	Entitlements EntitlementService
	Text         TextGenerator
	Videos       VideoGenerator
	Images       ImageGenerator
	Publisher    pubsub.Publisher
	Metrics      *metrics.Metrics
	// FreeLessonLimit defaults to DefaultFreeLessonLimit when zero.
	FreeLessonLimit int
}

type lessonService struct {
	deps   LessonDeps
	now    func() time.Time
	newID  func() string
	logger zerolog.Logger
}

func NewLessonService(deps LessonDeps, logger zerolog.Logger) LessonService {
	if deps.FreeLessonLimit <= 0 {
		deps.FreeLessonLimit = DefaultFreeLessonLimit
	}
	if deps.Publisher == nil {
		deps.Publisher = pubsub.NoopPublisher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	return &lessonService{
		deps:   deps,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger.With().Str("service", "LessonService").Logger(),
	}
}

func scriptPrompt(spec model.LessonSpec) string {
	return fmt.Sprintf("Write a 1-minute lesson script for topic '%s', for grade %s, in %s.", spec.Topic, spec.Grade, spec.Language)
}

func quizPrompt(script string) string {
	return fmt.Sprintf("Create 3 multiple choice questions from:\n%s", script)
}

// GenerateLesson enforces the free quota, then generates script, video,
// images and quiz in order and persists the result. Any failure aborts the
// run without persisting anything; nothing already generated is undone.
//
// The quota check is a plain read before the insert, so two concurrent
// requests from the same user can both pass it.
func (s *lessonService) GenerateLesson(ctx context.Context, spec model.LessonSpec) (*model.Lesson, error) {
	log := s.logger.With().Str("user_id", spec.UserID).Str("topic", spec.Topic).Logger()

	lesson, err := s.generate(ctx, spec, log)
	s.deps.Metrics.LessonsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	if _, err := s.deps.Publisher.PublishLessonGenerated(ctx, lesson); err != nil {
		log.Warn().Err(err).Str("lesson_id", lesson.LessonID).Msg("Failed to publish lesson event")
	}
	log.Info().Str("lesson_id", lesson.LessonID).Int("images", len(lesson.Images)).Msg("Lesson generated")
	return lesson, nil
}

func (s *lessonService) generate(ctx context.Context, spec model.LessonSpec, log zerolog.Logger) (*model.Lesson, error) {
	if err := s.checkQuota(ctx, spec.UserID, log); err != nil {
		return nil, err
	}

	start := time.Now()
	script, err := s.deps.Text.Generate(ctx, scriptPrompt(spec), scriptMaxTokens)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate script")
		return nil, fmt.Errorf("generating script: %w", err)
	}
	s.deps.Metrics.ObserveStep("script", start)

	start = time.Now()
	video, err := s.deps.Videos.Generate(ctx, script)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate video")
		return nil, fmt.Errorf("generating video: %w", err)
	}
	s.deps.Metrics.ObserveStep("video", start)
	s.deps.Metrics.VideoPollAttempts.Observe(float64(video.Polls))

	start = time.Now()
	images, err := s.deps.Images.Generate(ctx, script, DefaultImageCount)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate images")
		return nil, fmt.Errorf("generating images: %w", err)
	}
	s.deps.Metrics.ObserveStep("images", start)
	s.deps.Metrics.ImagesGenerated.Add(float64(len(images)))
	if missed := DefaultImageCount - len(images); missed > 0 {
		s.deps.Metrics.ImageFailures.Add(float64(missed))
	}

	start = time.Now()
	quiz, err := s.deps.Text.Generate(ctx, quizPrompt(script), quizMaxTokens)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate quiz")
		return nil, fmt.Errorf("generating quiz: %w", err)
	}
	s.deps.Metrics.ObserveStep("quiz", start)

	lesson := &model.Lesson{
		LessonID:  s.newID(),
		UserID:    spec.UserID,
		Topic:     spec.Topic,
		Script:    script,
		VideoURL:  video.HostedURL,
		Images:    images,
		Quiz:      quiz,
		CreatedAt: s.now().UTC(),
	}
	if err := s.deps.Lessons.CreateLesson(ctx, lesson); err != nil {
		log.Error().Err(err).Msg("Failed to persist lesson")
		return nil, fmt.Errorf("saving lesson: %w", err)
	}
	return lesson, nil
}

// checkQuota only consults the entitlement service once the free lessons are
// used up.
func (s *lessonService) checkQuota(ctx context.Context, userID string, log zerolog.Logger) error {
	count, err := s.deps.Lessons.CountLessonsByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count lessons")
		return fmt.Errorf("counting lessons: %w", err)
	}
	if count < s.deps.FreeLessonLimit {
		return nil
	}

	status, active := hasEntitlement(ctx, s.deps.Entitlements, userID, log)
	s.deps.Metrics.EntitlementChecks.WithLabelValues(string(status)).Inc()
	if !active {
		log.Info().Int("lesson_count", count).Str("entitlement", string(status)).Msg("Free plan limit reached")
		return ErrFreePlanLimitReached
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrFreePlanLimitReached):
		return metrics.OutcomeQuotaExceeded
	case errors.Is(err, ErrVideoCreationFailed):
		return metrics.OutcomeVideoFailed
	case errors.Is(err, ErrVideoTimeout):
		return metrics.OutcomeVideoTimeout
	default:
		return metrics.OutcomeError
	}
}
