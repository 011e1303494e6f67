package integration_testing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymstreak/internal/activities"
	"github.com/2beens/gymstreak/internal/progress"
	"github.com/2beens/gymstreak/internal/streaks"
	"github.com/2beens/gymstreak/internal/workouts"
)

func (s *IntegrationTestSuite) doRequest(ctx context.Context, method, path string, body any) (int, []byte) {
	t := s.T()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) snapshot(ctx context.Context) streaks.Snapshot {
	status, body := s.doRequest(ctx, "GET", "/streaks", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	var snapshot streaks.Snapshot
	require.NoError(s.T(), json.Unmarshal(body, &snapshot))
	return snapshot
}

func (s *IntegrationTestSuite) TestWorkoutsDriveStreaks() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	before := s.snapshot(ctx)
	require.NotEmpty(t, before.CurrentWeekID)
	assert.False(t, before.Provisional.Weight2)

	var lastResult workouts.CompleteResult
	for i, didAbs := range []bool{false, true} {
		status, body := s.doRequest(ctx, "POST", "/workouts/sessions", workouts.StartRequest{
			Name:       fmt.Sprintf("push %d", i),
			DidWeights: true,
			DidAbs:     didAbs,
		})
		require.Equal(t, http.StatusCreated, status, string(body))
		var session workouts.Session
		require.NoError(t, json.Unmarshal(body, &session))

		status, body = s.doRequest(ctx, "POST", "/workouts/sessions/"+session.ID+"/sets", workouts.SetLog{
			Exercise:    "Bench Press",
			MuscleGroup: "chest",
			Kilos:       100,
			Reps:        5,
			Completed:   true,
		})
		require.Equal(t, http.StatusOK, status, string(body))

		status, body = s.doRequest(ctx, "POST", "/workouts/sessions/"+session.ID+"/complete", nil)
		require.Equal(t, http.StatusOK, status, string(body))
		require.NoError(t, json.Unmarshal(body, &lastResult))
	}

	require.NotNil(t, lastResult.Streak)
	assert.ElementsMatch(t, []streaks.Track{streaks.TrackWeight2, streaks.TrackAbs}, lastResult.Streak.NewlyQualified)

	after := s.snapshot(ctx)
	assert.Equal(t, before.CurrentWeek.WeightsCount+2, after.CurrentWeek.WeightsCount)
	assert.True(t, after.Provisional.Weight2)
	assert.True(t, after.Provisional.Abs)
	assert.False(t, after.Provisional.Weight3)

	status, body := s.doRequest(ctx, "GET", "/progress/volume", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var volume []progress.WeekVolume
	require.NoError(t, json.Unmarshal(body, &volume))
	require.NotEmpty(t, volume)
	assert.Equal(t, after.CurrentWeekID, volume[len(volume)-1].WeekID)
	assert.InDelta(t, 1000, volume[len(volume)-1].Volume, 0.001)
	assert.Equal(t, 2, volume[len(volume)-1].Sessions)

	// no credits earned yet
	status, _ = s.doRequest(ctx, "POST", "/streaks/carryover", streaks.CarryoverRequest{
		Target: string(streaks.TargetNextWeek),
		Track:  string(streaks.CarryoverWeights),
	})
	assert.Equal(t, http.StatusConflict, status)
}

func (s *IntegrationTestSuite) TestActivitiesDoNotCountForStreaks() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	before := s.snapshot(ctx)

	status, body := s.doRequest(ctx, "POST", "/activities", activities.Activity{
		Kind:            activities.KindSquash,
		DurationMinutes: 45,
		Opponent:        "Misko",
		Result:          "3:1",
		PerformedAt:     time.Now(),
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = s.doRequest(ctx, "GET", "/activities/weeks/"+before.CurrentWeekID, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var summary activities.WeekSummary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, before.CurrentWeekID, summary.WeekID)
	assert.GreaterOrEqual(t, summary.MinutesBy[activities.KindSquash], 45)

	after := s.snapshot(ctx)
	assert.Equal(t, before.CurrentWeek, after.CurrentWeek)
}

func (s *IntegrationTestSuite) TestVersionAndHealth() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	status, body := s.doRequest(ctx, "GET", "/version", nil)
	require.Equal(s.T(), http.StatusOK, status)
	assert.Equal(s.T(), "test-version-info", string(body))

	status, _ = s.doRequest(ctx, "GET", "/health", nil)
	assert.Equal(s.T(), http.StatusOK, status)
}
