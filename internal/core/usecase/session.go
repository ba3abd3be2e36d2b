package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
)

type SessionUseCase struct {
	sessions ports.SessionStore
}

func NewSessionUseCase(sessions ports.SessionStore) *SessionUseCase {
	return &SessionUseCase{sessions: sessions}
}

func (uc *SessionUseCase) View(ctx context.Context, sessionID string) (domain.SessionView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.SessionView{}, domain.WrapError(domain.ErrInvalidInput, "view session", errors.New("session id is required"))
	}
	s, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("load session: %w", err)
	}
	return s.View(), nil
}

const sessionSettleTimeout = 5 * time.Second

// settleSession runs a finishing update detached from the caller's cancellation.
// A request that is dropped mid-trigger must still clear the in-flight flag.
func settleSession(ctx context.Context, store ports.SessionStore, sessionID string, fn func(domain.Session) (domain.Session, error)) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionSettleTimeout)
	defer cancel()
	_, err := store.Update(ctx, sessionID, fn)
	return err
}

func abortSession(ctx context.Context, store ports.SessionStore, sessionID string, mode domain.Mode, now time.Time) {
	err := settleSession(ctx, store, sessionID, func(s domain.Session) (domain.Session, error) {
		return s.Abort(mode, now), nil
	})
	if err != nil {
		slog.Warn("session_abort_failed", "session_id", sessionID, "mode", string(mode), "error", err)
	}
}
