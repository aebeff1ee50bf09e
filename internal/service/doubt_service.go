package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

const doubtMaxTokens = 300

// DoubtService answers free-form learner questions.
type DoubtService interface {
	AnswerQuestion(ctx context.Context, question string) (string, error)
}

type doubtService struct {
	text   TextGenerator
	logger zerolog.Logger
}

func NewDoubtService(text TextGenerator, logger zerolog.Logger) DoubtService {
	return &doubtService{text: text, logger: logger.With().Str("service", "DoubtService").Logger()}
}

// AnswerQuestion sends the question to the model verbatim.
func (s *doubtService) AnswerQuestion(ctx context.Context, question string) (string, error) {
	answer, err := s.text.Generate(ctx, question, doubtMaxTokens)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to answer question")
		return "", fmt.Errorf("answering question: %w", err)
	}
	return answer, nil
}
