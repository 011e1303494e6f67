package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymstreak/internal/jobs"
	"github.com/2beens/gymstreak/internal/streaks"
	"github.com/2beens/gymstreak/internal/weeks"
)

var fixedNow = time.Date(2024, time.March, 18, 0, 5, 0, 0, time.UTC)

func newScheduler(t *testing.T, finalizer *Mockfinalizer, spec string, users ...string) *jobs.Scheduler {
	t.Helper()
	s, err := jobs.NewScheduler(jobs.SchedulerParams{
		Finalizer: finalizer,
		UserIDs:   users,
		Spec:      spec,
		Timezone:  "Europe/Belgrade",
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return s
}

func TestScheduler_FinalizeAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	finalizerMock := NewMockfinalizer(ctrl)

	finalizerMock.EXPECT().
		Finalize(gomock.Any(), "ok", fixedNow).
		Return(&streaks.FinalizeResult{CurrentWeekID: "2024-W12", Weeks: []streaks.WeekOutcome{{WeekID: "2024-W11"}}}, nil).Times(1)
	finalizerMock.EXPECT().
		Finalize(gomock.Any(), "waiting", fixedNow).
		Return(&streaks.FinalizeResult{
			CurrentWeekID: "2024-W12",
			PendingRescue: &streaks.RescueRequest{WeekID: "2024-W11", Track: streaks.TrackAbs},
		}, nil).Times(1)
	finalizerMock.EXPECT().
		Finalize(gomock.Any(), "broken", fixedNow).
		Return(nil, errors.New("store down")).Times(1)
	finalizerMock.EXPECT().
		Finalize(gomock.Any(), "stale", fixedNow).
		Return(nil, fmt.Errorf("list weeks: %w", weeks.ErrWeekRangeTooLong)).Times(1)

	s := newScheduler(t, finalizerMock, "", "ok", "waiting", "broken", "stale")
	assert.Equal(t, 2, s.FinalizeAll(context.Background()))
}

func TestScheduler_StartRunsImmediately(t *testing.T) {
	ctrl := gomock.NewController(t)
	finalizerMock := NewMockfinalizer(ctrl)

	finalizerMock.EXPECT().
		Finalize(gomock.Any(), "athlete", fixedNow).
		Return(&streaks.FinalizeResult{CurrentWeekID: "2024-W12"}, nil).Times(1)

	// never fires during the test
	s := newScheduler(t, finalizerMock, "0 0 1 1 *", "athlete")
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestScheduler_InvalidSpec(t *testing.T) {
	ctrl := gomock.NewController(t)
	finalizerMock := NewMockfinalizer(ctrl)

	s := newScheduler(t, finalizerMock, "every monday", "athlete")
	assert.ErrorContains(t, s.Start(context.Background()), "schedule finalization")
}

func TestNewScheduler_UnknownTimezone(t *testing.T) {
	_, err := jobs.NewScheduler(jobs.SchedulerParams{Timezone: "Nowhere/Land"})
	assert.ErrorIs(t, err, weeks.ErrUnknownTimezone)
}
