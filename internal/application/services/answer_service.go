package services

import (
	"context"
	"strings"
	"unicode"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	"github.com/medgraph/medrecords-qa/internal/domain/providers"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/observability"
)

// RefusalAnswer is returned verbatim when no citations ground the question.
// The generation backend is never called in that case.
const RefusalAnswer = "I couldn't find any relevant information in the medical records to answer this question."

// AnswerService synthesizes the final natural-language answer from the
// organized context and scored citations.
type AnswerService struct {
	generator providers.TextGenerator
}

// NewAnswerService creates a new answer service.
func NewAnswerService(generator providers.TextGenerator) *AnswerService {
	return &AnswerService{generator: generator}
}

// Synthesize generates the answer for a question. Generation failures
// degrade to an error message rather than failing the query.
func (s *AnswerService) Synthesize(ctx context.Context, question string, qc *entities.QueryContext, citations []entities.Citation) string {
	if len(citations) == 0 {
		return RefusalAnswer
	}

	raw, err := s.generate(ctx, question, qc, citations)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Msg("answer synthesis failed")
		return "Error generating answer: " + err.Error()
	}

	return cleanAnswer(raw)
}

func (s *AnswerService) generate(ctx context.Context, question string, qc *entities.QueryContext, citations []entities.Citation) (string, error) {
	if s.generator == nil {
		return "", providers.ErrGenerationUnavailable
	}
	return s.generator.Generate(ctx, buildAnswerPrompt(question, qc, citations))
}

// cleanAnswer strips prompt artifacts, capitalizes the first letter and
// trims a trailing incomplete sentence when enough complete text remains.
func cleanAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	answer = strings.TrimSpace(strings.ReplaceAll(answer, "Answer:", ""))
	answer = strings.TrimSpace(strings.ReplaceAll(answer, "Based on the evidence:", ""))

	if answer == "" {
		return answer
	}

	runes := []rune(answer)
	if unicode.IsLower(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
		answer = string(runes)
	}

	if !strings.ContainsAny(answer[len(answer)-1:], ".!?") {
		last := strings.LastIndexAny(answer, ".!?")
		if float64(last) > float64(len(answer))*0.5 {
			answer = answer[:last+1]
		}
	}

	return answer
}
