package workouts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymstreak/internal/streaks"
	"github.com/2beens/gymstreak/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=workouts_test

type streakRecorder interface {
	RecordWorkout(ctx context.Context, userID string, completion streaks.WorkoutCompletion) (*streaks.QualificationChange, error)
}

type Service struct {
	repo      *Repo
	streaks   streakRecorder
	defaultTZ string
	// mu serializes read-modify-write cycles over the stored lists
	mu sync.Mutex
}

func NewService(repo *Repo, streakRecorder streakRecorder, defaultTZ string) *Service {
	return &Service{
		repo:      repo,
		streaks:   streakRecorder,
		defaultTZ: defaultTZ,
	}
}

type StartParams struct {
	// TemplateID is empty for ad hoc sessions.
	TemplateID string
	Name       string
	DidWeights bool
	DidAbs     bool
	TZ         string
	Now        time.Time
}

type CompleteResult struct {
	Session *Session `json:"session"`
	// Streak is nil if the streak engine refused the workout.
	Streak *streaks.QualificationChange `json:"streak,omitempty"`
}

func (s *Service) CreateTemplate(ctx context.Context, userID string, template Template, now time.Time) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.templates.create")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	templates, err := s.repo.Templates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	template.ID = uuid.NewString()
	template.CreatedAt = now
	template.UpdatedAt = now
	templates = append(templates, template)
	if err := s.repo.SaveTemplates(ctx, userID, templates); err != nil {
		return nil, err
	}
	return &template, nil
}

func (s *Service) UpdateTemplate(ctx context.Context, userID string, template Template, now time.Time) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.templates.update")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("id", template.ID))

	s.mu.Lock()
	defer s.mu.Unlock()

	templates, err := s.repo.Templates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	i := findTemplate(templates, template.ID)
	if i < 0 {
		return nil, fmt.Errorf("update template [%s]: %w", template.ID, ErrTemplateNotFound)
	}

	template.CreatedAt = templates[i].CreatedAt
	template.UpdatedAt = now
	templates[i] = template
	if err := s.repo.SaveTemplates(ctx, userID, templates); err != nil {
		return nil, err
	}
	return &template, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, userID, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.templates.delete")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("id", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	templates, err := s.repo.Templates(ctx, userID)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	i := findTemplate(templates, id)
	if i < 0 {
		return fmt.Errorf("delete template [%s]: %w", id, ErrTemplateNotFound)
	}
	templates = append(templates[:i], templates[i+1:]...)
	return s.repo.SaveTemplates(ctx, userID, templates)
}

func (s *Service) GetTemplate(ctx context.Context, userID, id string) (*Template, error) {
	templates, err := s.repo.Templates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	i := findTemplate(templates, id)
	if i < 0 {
		return nil, fmt.Errorf("get template [%s]: %w", id, ErrTemplateNotFound)
	}
	return &templates[i], nil
}

func (s *Service) ListTemplates(ctx context.Context, userID string) ([]Template, error) {
	templates, err := s.repo.Templates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	sort.SliceStable(templates, func(i, j int) bool {
		return strings.ToLower(templates[i].Name) < strings.ToLower(templates[j].Name)
	})
	return templates, nil
}

// Start opens a new session, from a template or ad hoc. Only one session can be open at a time.
func (s *Service) Start(ctx context.Context, userID string, params StartParams) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.sessions.start")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.repo.Sessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	if active := findOpen(sessions); active >= 0 {
		return nil, fmt.Errorf("start session: %w (%s)", ErrSessionAlreadyActive, sessions[active].ID)
	}

	session := Session{
		ID:         uuid.NewString(),
		Name:       params.Name,
		Status:     StatusActive,
		StartTime:  params.Now,
		TZ:         params.TZ,
		DidWeights: params.DidWeights,
		DidAbs:     params.DidAbs,
		Sets:       []SetLog{},
	}
	if session.TZ == "" {
		session.TZ = s.defaultTZ
	}

	if params.TemplateID != "" {
		templates, err := s.repo.Templates(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
		i := findTemplate(templates, params.TemplateID)
		if i < 0 {
			return nil, fmt.Errorf("start session from template [%s]: %w", params.TemplateID, ErrTemplateNotFound)
		}
		template := templates[i]
		session.TemplateID = template.ID
		if session.Name == "" {
			session.Name = template.Name
		}
		session.DidWeights = session.DidWeights || template.DidWeights
		session.DidAbs = session.DidAbs || template.DidAbs
	}
	if session.Name == "" {
		session.Name = "Workout"
	}

	sessions = append(sessions, session)
	if err := s.repo.SaveSessions(ctx, userID, sessions); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Service) LogSet(ctx context.Context, userID, sessionID string, set SetLog, now time.Time) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.sessions.logset")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.updateSession(ctx, userID, sessionID, func(session *Session) error {
		if !session.Open() {
			return fmt.Errorf("log set into %s session: %w", session.Status, ErrInvalidTransition)
		}
		set.ID = uuid.NewString()
		if set.LoggedAt.IsZero() {
			set.LoggedAt = now
		}
		session.Sets = append(session.Sets, set)
		return nil
	})
}

func (s *Service) Pause(ctx context.Context, userID, sessionID string, now time.Time) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.sessions.pause")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.updateSession(ctx, userID, sessionID, func(session *Session) error {
		return session.transition(StatusPaused, now)
	})
}

func (s *Service) Resume(ctx context.Context, userID, sessionID string, now time.Time) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.sessions.resume")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.updateSession(ctx, userID, sessionID, func(session *Session) error {
		return session.transition(StatusActive, now)
	})
}

func (s *Service) Discard(ctx context.Context, userID, sessionID string, now time.Time) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.sessions.discard")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.updateSession(ctx, userID, sessionID, func(session *Session) error {
		return session.transition(StatusDiscarded, now)
	})
}

// Complete closes the session and counts it into its week streak summary. A session whose
// week is already finalized stays completed without counting. Any other streak failure is
// returned and leaves the session streak pending: completing it again retries the count.
func (s *Service) Complete(ctx context.Context, userID, sessionID string, now time.Time) (_ *CompleteResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.sessions.complete")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	session, err := s.updateSession(ctx, userID, sessionID, func(session *Session) error {
		if session.Status == StatusCompleted && session.StreakPending {
			return nil
		}
		if err := session.transition(StatusCompleted, now); err != nil {
			return err
		}
		session.StreakPending = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CompleteResult{Session: session}
	change, err := s.streaks.RecordWorkout(ctx, userID, streaks.WorkoutCompletion{
		DidWeights:  session.WorkedWeights(),
		DidAbs:      session.WorkedAbs(),
		CompletedAt: *session.CompletedAt,
		TZ:          session.TZ,
	})
	switch {
	case errors.Is(err, streaks.ErrWeekFinalized):
		log.Warnf("workouts: completed session [%s] not counted for streaks: %s", session.ID, err)
	case err != nil:
		return nil, fmt.Errorf("record completed session [%s] for streaks: %w", session.ID, err)
	default:
		result.Streak = change
	}

	session, err = s.updateSession(ctx, userID, sessionID, func(session *Session) error {
		session.StreakPending = false
		return nil
	})
	if err != nil {
		// counted already, a retry would count it twice
		log.Errorf("workouts: clear streak pending of session [%s]: %s", sessionID, err)
		result.Session.StreakPending = false
		return result, nil
	}
	result.Session = session

	return result, nil
}

// ActiveSession returns the open (running or paused) session, or ErrNoActiveSession.
func (s *Service) ActiveSession(ctx context.Context, userID string) (*Session, error) {
	sessions, err := s.repo.Sessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	i := findOpen(sessions)
	if i < 0 {
		return nil, ErrNoActiveSession
	}
	return &sessions[i], nil
}

// ListSessions returns sessions newest first, optionally only the ones with the given status.
func (s *Service) ListSessions(ctx context.Context, userID string, status Status) ([]Session, error) {
	sessions, err := s.repo.Sessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	filtered := make([]Session, 0, len(sessions))
	for _, session := range sessions {
		if status == "" || session.Status == status {
			filtered = append(filtered, session)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].StartTime.After(filtered[j].StartTime)
	})
	return filtered, nil
}

func (s *Service) updateSession(ctx context.Context, userID, sessionID string, update func(session *Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.repo.Sessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	i := findSession(sessions, sessionID)
	if i < 0 {
		return nil, fmt.Errorf("session [%s]: %w", sessionID, ErrSessionNotFound)
	}

	if err := update(&sessions[i]); err != nil {
		return nil, err
	}
	if err := s.repo.SaveSessions(ctx, userID, sessions); err != nil {
		return nil, err
	}

	session := sessions[i]
	return &session, nil
}

func findTemplate(templates []Template, id string) int {
	for i := range templates {
		if templates[i].ID == id {
			return i
		}
	}
	return -1
}

func findSession(sessions []Session, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func findOpen(sessions []Session) int {
	for i := range sessions {
		if sessions[i].Open() {
			return i
		}
	}
	return -1
}
