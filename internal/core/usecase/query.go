package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
)

type QueryUseCase struct {
	backend  ports.AnswerBackend
	sessions ports.SessionStore
	preamble string
	samples  []string
	now      func() time.Time
}

func NewQueryUseCase(
	backend ports.AnswerBackend,
	sessions ports.SessionStore,
	preamble string,
	samples []string,
) *QueryUseCase {
	return &QueryUseCase{
		backend:  backend,
		sessions: sessions,
		preamble: preamble,
		samples:  samples,
		now:      utcNow,
	}
}

// Answer runs question against the answer backend. With a session ID the query
// trigger is tracked; an empty session ID answers without touching session state.
func (uc *QueryUseCase) Answer(ctx context.Context, sessionID, question string) (*domain.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer query", errors.New("question is required"))
	}

	tracked := sessionID != "" && uc.sessions != nil
	if tracked {
		if _, err := uc.sessions.Update(ctx, sessionID, func(s domain.Session) (domain.Session, error) {
			return s.Begin(domain.ModeQuery, uc.now())
		}); err != nil {
			return nil, fmt.Errorf("begin query: %w", err)
		}
	}

	result, err := uc.backend.GenerateAnswer(ctx, question, uc.preamble)
	if err != nil {
		if tracked {
			abortSession(ctx, uc.sessions, sessionID, domain.ModeQuery, uc.now())
		}
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	if result.Sources == nil {
		result.Sources = []domain.Source{}
	}

	if tracked {
		if err := settleSession(ctx, uc.sessions, sessionID, func(s domain.Session) (domain.Session, error) {
			return s.FinishQuery(question, *result, uc.now())
		}); err != nil {
			return nil, fmt.Errorf("finish query: %w", err)
		}
	}
	return result, nil
}

func (uc *QueryUseCase) SampleQueries() []string {
	out := make([]string, len(uc.samples))
	copy(out, uc.samples)
	return out
}

func utcNow() time.Time {
	return time.Now().UTC()
}
