package activities

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymstreak/internal/kvstore"
	"github.com/2beens/gymstreak/internal/telemetry/tracing"
	"github.com/2beens/gymstreak/internal/weeks"
)

const collection = "activities"

type Service struct {
	store kvstore.Store
	// tz decides which week an activity falls into
	tz string
	mu sync.Mutex
}

func NewService(store kvstore.Store, tz string) *Service {
	return &Service{
		store: store,
		tz:    tz,
	}
}

func (s *Service) Create(ctx context.Context, userID string, activity Activity) (_ *Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.activities.create")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("kind", string(activity.Kind)))

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	activity.ID = uuid.NewString()
	list = append(list, activity)
	if err := kvstore.SetJSON(ctx, s.store, kvstore.Key(userID, collection), list); err != nil {
		return nil, fmt.Errorf("save activities: %w", err)
	}
	return &activity, nil
}

// List returns activities newest first. Empty kind lists all of them.
func (s *Service) List(ctx context.Context, userID string, kind Kind) ([]Activity, error) {
	list, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	filtered := make([]Activity, 0, len(list))
	for _, a := range list {
		if kind == "" || a.Kind == kind {
			filtered = append(filtered, a)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PerformedAt.After(filtered[j].PerformedAt)
	})
	return filtered, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.activities.delete")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		list = append(list[:i], list[i+1:]...)
		if err := kvstore.SetJSON(ctx, s.store, kvstore.Key(userID, collection), list); err != nil {
			return fmt.Errorf("save activities: %w", err)
		}
		return nil
	}
	return fmt.Errorf("delete activity [%s]: %w", id, ErrActivityNotFound)
}

// WeeklyMinutes sums up the activities performed in the given week.
func (s *Service) WeeklyMinutes(ctx context.Context, userID, weekID string) (_ *WeekSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.activities.weekly")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("week", weekID))

	if !weeks.Valid(weekID) {
		return nil, fmt.Errorf("weekly minutes [%s]: %w", weekID, weeks.ErrInvalidWeekID)
	}
	loc, err := weeks.LoadLocation(s.tz)
	if err != nil {
		return nil, err
	}

	list, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &WeekSummary{
		WeekID:    weekID,
		MinutesBy: map[Kind]int{},
	}
	for _, a := range list {
		if weeks.ID(a.PerformedAt, loc) != weekID {
			continue
		}
		summary.Count++
		summary.TotalMinutes += a.DurationMinutes
		summary.MinutesBy[a.Kind] += a.DurationMinutes
		summary.DistanceKm += a.DistanceKm
		summary.Calories += a.Calories
	}
	return summary, nil
}

func (s *Service) load(ctx context.Context, userID string) ([]Activity, error) {
	var list []Activity
	if _, err := kvstore.GetJSON(ctx, s.store, kvstore.Key(userID, collection), &list); err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	if list == nil {
		list = []Activity{}
	}
	return list, nil
}
