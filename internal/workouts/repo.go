package workouts

import (
	"context"
	"fmt"

	"github.com/2beens/gymstreak/internal/kvstore"
	"github.com/2beens/gymstreak/internal/telemetry/tracing"
)

const (
	templatesCollection = "workout-templates"
	sessionsCollection  = "workout-sessions"
)

// Repo keeps templates and sessions of a user as two JSON lists.
type Repo struct {
	store kvstore.Store
}

func NewRepo(store kvstore.Store) *Repo {
	return &Repo{
		store: store,
	}
}

func (r *Repo) Templates(ctx context.Context, userID string) (_ []Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.templates.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	var templates []Template
	if _, err := kvstore.GetJSON(ctx, r.store, kvstore.Key(userID, templatesCollection), &templates); err != nil {
		return nil, err
	}
	if templates == nil {
		templates = []Template{}
	}
	return templates, nil
}

func (r *Repo) SaveTemplates(ctx context.Context, userID string, templates []Template) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.templates.save")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := kvstore.SetJSON(ctx, r.store, kvstore.Key(userID, templatesCollection), templates); err != nil {
		return fmt.Errorf("save templates: %w", err)
	}
	return nil
}

func (r *Repo) Sessions(ctx context.Context, userID string) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.sessions.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	var sessions []Session
	if _, err := kvstore.GetJSON(ctx, r.store, kvstore.Key(userID, sessionsCollection), &sessions); err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []Session{}
	}
	return sessions, nil
}

func (r *Repo) SaveSessions(ctx context.Context, userID string, sessions []Session) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.sessions.save")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := kvstore.SetJSON(ctx, r.store, kvstore.Key(userID, sessionsCollection), sessions); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}

// CompletedSessions returns only sessions with status completed, the ones analytics read.
func (r *Repo) CompletedSessions(ctx context.Context, userID string) ([]Session, error) {
	sessions, err := r.Sessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Status == StatusCompleted {
			completed = append(completed, s)
		}
	}
	return completed, nil
}
