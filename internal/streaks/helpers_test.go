package streaks_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/2beens/gymstreak/internal/kvstore"
	"github.com/2beens/gymstreak/internal/streaks"
	"github.com/2beens/gymstreak/internal/telemetry/metrics"
	"github.com/2beens/gymstreak/internal/weeks"
)

const userID = "athlete"

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []streaks.Notification
	err           error
}

func (r *recordingNotifier) Notify(_ context.Context, n streaks.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
	return r.err
}

func (r *recordingNotifier) kinds() []streaks.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []streaks.NotificationKind
	for _, n := range r.notifications {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

type testEnv struct {
	service  *streaks.Service
	repo     *streaks.Repo
	store    kvstore.Store
	notifier *recordingNotifier
	metrics  *metrics.Manager
}

func newTestEnv(t *testing.T, policy streaks.Policy) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, policy, kvstore.NewMemoryStore())
}

func newTestEnvWithStore(t *testing.T, policy streaks.Policy, store kvstore.Store) *testEnv {
	t.Helper()
	repo := streaks.NewRepo(store)
	notifier := &recordingNotifier{}
	metricsManager := metrics.NewTestManager()
	return &testEnv{
		service: streaks.NewService(streaks.NewServiceParams{
			Repo:      repo,
			Notifier:  notifier,
			Timezones: streaks.StaticTimezone("UTC"),
			Policy:    policy,
			Metrics:   metricsManager,
		}),
		repo:     repo,
		store:    store,
		notifier: notifier,
		metrics:  metricsManager,
	}
}

func (e *testEnv) seed(t *testing.T, state streaks.State, summaries ...streaks.WeekSummary) {
	t.Helper()
	ctx := context.Background()

	state.UserID = userID
	require.NoError(t, e.repo.SaveState(ctx, &state))

	list, err := e.repo.LoadSummaries(ctx, userID)
	require.NoError(t, err)
	for _, s := range summaries {
		s.UserID = userID
		*list.GetOrCreate(s.WeekID) = s
	}
	require.NoError(t, e.repo.SaveSummaries(ctx, list))
}

func (e *testEnv) state(t *testing.T) streaks.State {
	t.Helper()
	state, err := e.repo.LoadState(context.Background(), userID)
	require.NoError(t, err)
	return *state
}

func (e *testEnv) summary(t *testing.T, weekID string) streaks.WeekSummary {
	t.Helper()
	list, err := e.repo.LoadSummaries(context.Background(), userID)
	require.NoError(t, err)
	return list.Get(weekID)
}

func (e *testEnv) record(t *testing.T, weekID string, didWeights, didAbs bool) *streaks.QualificationChange {
	t.Helper()
	change, err := e.service.RecordWorkout(context.Background(), userID, streaks.WorkoutCompletion{
		DidWeights:  didWeights,
		DidAbs:      didAbs,
		CompletedAt: midWeek(t, weekID),
		TZ:          "UTC",
	})
	require.NoError(t, err)
	return change
}

// midWeek returns Wednesday noon UTC of the week.
func midWeek(t *testing.T, weekID string) time.Time {
	t.Helper()
	start, err := weeks.Start(weekID, time.UTC)
	require.NoError(t, err)
	return start.Add(60 * time.Hour)
}

// failingStore fails writes of a single key a number of times.
type failingStore struct {
	kvstore.Store
	failKey   string
	failCount int
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if key == f.failKey && f.failCount > 0 {
		f.failCount--
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}
