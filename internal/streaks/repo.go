package streaks

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/gymstreak/internal/kvstore"
	"github.com/2beens/gymstreak/internal/telemetry/tracing"
	"github.com/2beens/gymstreak/internal/weeks"
	log "github.com/sirupsen/logrus"
)

const (
	stateCollection     = "streak-state"
	summariesCollection = "week-summaries"
)

// Repo persists the streak state record and the week summaries list of every user.
type Repo struct {
	store kvstore.Store
}

func NewRepo(store kvstore.Store) *Repo {
	return &Repo{
		store: store,
	}
}

func StateKey(userID string) string {
	return kvstore.Key(userID, stateCollection)
}

func SummariesKey(userID string) string {
	return kvstore.Key(userID, summariesCollection)
}

func (r *Repo) LoadState(ctx context.Context, userID string) (_ *State, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.streaks.state.load")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	raw, err := r.get(ctx, StateKey(userID))
	if err != nil {
		return nil, err
	}

	state, migrated := decodeState(userID, raw)
	if migrated {
		log.Infof("streaks: migrating state of [%s] to schema version %d", userID, SchemaVersion)
		if err := r.SaveState(ctx, &state); err != nil {
			return nil, fmt.Errorf("save migrated state: %w", err)
		}
	}
	return &state, nil
}

func (r *Repo) SaveState(ctx context.Context, state *State) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.streaks.state.save")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	raw, err := encodeState(*state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return r.store.Set(ctx, StateKey(state.UserID), raw)
}

// LoadSummaries returns the week summaries of a user, ordered by week.
func (r *Repo) LoadSummaries(ctx context.Context, userID string) (_ *Summaries, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.streaks.summaries.load")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	raw, err := r.get(ctx, SummariesKey(userID))
	if err != nil {
		return nil, err
	}

	list, migrated := decodeSummaries(userID, raw)
	summaries := &Summaries{userID: userID, list: list}
	if migrated {
		log.Infof("streaks: migrating summaries of [%s] to schema version %d", userID, SchemaVersion)
		if err := r.SaveSummaries(ctx, summaries); err != nil {
			return nil, fmt.Errorf("save migrated summaries: %w", err)
		}
	}
	return summaries, nil
}

func (r *Repo) SaveSummaries(ctx context.Context, summaries *Summaries) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.streaks.summaries.save")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	raw, err := encodeSummaries(summaries.list)
	if err != nil {
		return fmt.Errorf("encode summaries: %w", err)
	}
	return r.store.Set(ctx, SummariesKey(summaries.userID), raw)
}

func (r *Repo) get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get [%s]: %w", key, err)
	}
	return raw, nil
}

// Summaries is the ordered week summaries list of a single user.
type Summaries struct {
	userID string
	list   []WeekSummary
}

// Find returns the summary of weekID, or nil.
func (s *Summaries) Find(weekID string) *WeekSummary {
	for i := range s.list {
		if s.list[i].WeekID == weekID {
			return &s.list[i]
		}
	}
	return nil
}

// GetOrCreate returns the summary of weekID, lazily creating an empty one.
// The returned pointer is valid until the next GetOrCreate call.
func (s *Summaries) GetOrCreate(weekID string) *WeekSummary {
	if summary := s.Find(weekID); summary != nil {
		return summary
	}

	i := len(s.list)
	for i > 0 && weeks.Compare(s.list[i-1].WeekID, weekID) > 0 {
		i--
	}
	s.list = append(s.list, WeekSummary{})
	copy(s.list[i+1:], s.list[i:])
	s.list[i] = WeekSummary{UserID: s.userID, WeekID: weekID}
	return &s.list[i]
}

// Get returns a copy of the summary of weekID, or an empty one.
func (s *Summaries) Get(weekID string) WeekSummary {
	if summary := s.Find(weekID); summary != nil {
		return *summary
	}
	return WeekSummary{UserID: s.userID, WeekID: weekID}
}

func (s *Summaries) List() []WeekSummary {
	return append([]WeekSummary(nil), s.list...)
}

func (s *Summaries) Len() int {
	return len(s.list)
}
