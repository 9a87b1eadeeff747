//go:build integration_test || all_tests

package test

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/fitcoach/pkg"
	"github.com/2beens/fitcoach/internal/session"
	"github.com/2beens/fitcoach/internal/workouts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legDayWorkout() workouts.Workout {
	return workouts.Workout{
		Name: "Leg day",
		Sections: []workouts.Section{{
			SectionName: "Main",
			Exercises: []workouts.WorkoutExercise{
				{
					CustomName:        "Back Squat",
					RestPeriodSeconds: 120,
					SetsData: []workouts.SetData{
						{SetNumber: 1, Reps: "5", Weight: 100},
						{SetNumber: 2, Reps: "5", Weight: 100},
					},
				},
				{
					CustomName: "Walking Lunge",
					SetsData:   []workouts.SetData{{SetNumber: 1, Reps: "12", Weight: 20}},
				},
			},
		}},
	}
}

func (s *IntegrationTestSuite) TestWorkoutSessionLifecycle() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := registerUser(ctx, t)

	var workout workouts.Workout
	doJSON(ctx, t, http.MethodPost, "/workouts", user.Token, legDayWorkout(), http.StatusCreated, &workout)
	require.NotZero(t, workout.ID)
	base := fmt.Sprintf("/sessions/%d", workout.ID)

	var view session.View
	doJSON(ctx, t, http.MethodPost, base+"/start", user.Token, nil, http.StatusOK, &view)
	assert.Equal(t, session.PhaseOverview, view.Phase)
	assert.Equal(t, 3, view.Progress.SetsTotal)

	doJSON(ctx, t, http.MethodPost, base+"/action", user.Token, session.Action{Type: session.ActionBegin}, http.StatusOK, &view)
	assert.Equal(t, session.PhaseTracking, view.Phase)

	doJSON(ctx, t, http.MethodPost, base+"/action", user.Token, session.Action{
		Type:          session.ActionToggleSet,
		SectionIndex:  0,
		ExerciseIndex: 0,
		SetIndex:      0,
	}, http.StatusOK, &view)
	assert.Equal(t, 1, view.Progress.SetsCompleted)
	require.NotNil(t, view.ActiveRestTimer)
	assert.Equal(t, 120, view.RestSecondsRemaining)

	// entering tracking saved the session, so it shows up as unfinished
	var unfinished []session.ActiveSession
	doJSON(ctx, t, http.MethodGet, "/sessions/unfinished", user.Token, nil, http.StatusOK, &unfinished)
	require.Len(t, unfinished, 1)
	assert.Equal(t, workout.ID, unfinished[0].WorkoutID)
	assert.Equal(t, "Leg day", unfinished[0].WorkoutName)

	status, _ := doRequest(ctx, t, http.MethodPost, base+"/exit", user.Token, nil)
	require.Equal(t, http.StatusOK, status)

	var storedSets int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT jsonb_array_length(session_data->'workoutData'->'sections'->0->'exercises'->0->'sets_data')
		FROM active_session WHERE user_id = $1`, user.ID,
	).Scan(&storedSets))
	assert.Equal(t, 2, storedSets)

	// starting again restores the stored session in tracking
	doJSON(ctx, t, http.MethodPost, base+"/start", user.Token, nil, http.StatusOK, &view)
	assert.Equal(t, session.PhaseTracking, view.Phase)
	assert.Equal(t, 1, view.Progress.SetsCompleted)

	var result session.CompletionResult
	doJSON(ctx, t, http.MethodPost, base+"/complete", user.Token, nil, http.StatusOK, &result)
	assert.Equal(t, workout.ID, result.WorkoutID)
	assert.Equal(t, pkg.FormatDate(time.Now()), result.CompletedDate)

	var completed workouts.Workout
	doJSON(ctx, t, http.MethodGet, fmt.Sprintf("/workouts/%d", workout.ID), user.Token, nil, http.StatusOK, &completed)
	assert.True(t, completed.IsCompleted)
	require.NotNil(t, completed.CompletedDate)

	var activeRows int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM active_session WHERE user_id = $1`, user.ID,
	).Scan(&activeRows))
	assert.Zero(t, activeRows)

	var dashboard struct {
		WeeklyStats workouts.WeeklyStats `json:"weekly_stats"`
	}
	doJSON(ctx, t, http.MethodGet, "/dashboard", user.Token, nil, http.StatusOK, &dashboard)
	assert.Equal(t, 1, dashboard.WeeklyStats.WorkoutsCompleted)
	// only the first squat set was ticked
	assert.Equal(t, 500.0, dashboard.WeeklyStats.TotalVolume)
}

func (s *IntegrationTestSuite) TestSessionsAreScopedToUser() {
	t := s.T()
	ctx := context.Background()

	owner := registerUser(ctx, t)
	other := registerUser(ctx, t)

	var workout workouts.Workout
	doJSON(ctx, t, http.MethodPost, "/workouts", owner.Token, legDayWorkout(), http.StatusCreated, &workout)

	status, _ := doRequest(ctx, t, http.MethodPost, fmt.Sprintf("/sessions/%d/start", workout.ID), other.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(ctx, t, http.MethodGet, fmt.Sprintf("/sessions/%d", workout.ID), owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestWorkoutUnknownPlan() {
	t := s.T()
	ctx := context.Background()
	user := registerUser(ctx, t)

	w := legDayWorkout()
	missingPlan := 987654
	w.PlanID = &missingPlan
	status, body := doRequest(ctx, t, http.MethodPost, "/workouts", user.Token, w)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "unknown plan_id or program_id")
}
