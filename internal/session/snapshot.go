package session

import (
	"fmt"
	"time"

	"github.com/2beens/fitcoach/internal/workouts"
)

// Snapshot is the persisted form of a session, stored as session_data.
// The camelCase keys are kept so stored sessions stay readable by older clients.
type Snapshot struct {
	WorkoutData           workouts.Workout `json:"workoutData"`
	CurrentSectionIndex   int              `json:"currentSectionIndex"`
	CurrentExerciseIndex  int              `json:"currentExerciseIndex"`
	OverallSecondsElapsed int              `json:"overallSecondsElapsed"`
	ActiveRestTimer       *int             `json:"activeRestTimer"`
	RestSecondsRemaining  int              `json:"restSecondsRemaining"`
}

// ActiveSession is an unfinished session as stored in the database.
type ActiveSession struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	WorkoutID     int       `json:"workout_id"`
	WorkoutName   string    `json:"workout_name"`
	StartTime     time.Time `json:"start_time"`
	LastSavedTime time.Time `json:"last_saved_time"`
	SessionData   Snapshot  `json:"session_data"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		WorkoutData:           cloneWorkout(&s.workout),
		CurrentSectionIndex:   s.sectionIndex,
		CurrentExerciseIndex:  s.exerciseIndex,
		OverallSecondsElapsed: s.elapsed,
		ActiveRestTimer:       copyInt(s.restSet),
		RestSecondsRemaining:  s.restRemaining,
	}
}

// ActiveSession builds the row to persist for this session.
func (s *Session) ActiveSession(now time.Time) ActiveSession {
	as, _ := s.persistable(now)
	return as
}

// persistable also returns the change counter the row reflects.
func (s *Session) persistable(now time.Time) (ActiveSession, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ActiveSession{
		ID:            s.id,
		UserID:        s.userID,
		WorkoutID:     s.workoutID,
		WorkoutName:   s.workoutName,
		StartTime:     s.startTime,
		LastSavedTime: now,
		SessionData:   s.snapshot(),
	}, s.changes
}

// Restore resumes a stored session. Restored sessions are always tracking.
// Indexes pointing outside of the stored workout are reset to the start.
func Restore(as ActiveSession) *Session {
	workout := cloneWorkout(&as.SessionData.WorkoutData)
	workouts.Normalize(&workout)
	if workout.ID == 0 {
		workout.ID = as.WorkoutID
	}

	s := &Session{
		id:            as.ID,
		userID:        as.UserID,
		workoutID:     as.WorkoutID,
		workoutName:   as.WorkoutName,
		workout:       workout,
		phase:         PhaseTracking,
		sectionIndex:  as.SessionData.CurrentSectionIndex,
		exerciseIndex: as.SessionData.CurrentExerciseIndex,
		elapsed:       max(as.SessionData.OverallSecondsElapsed, 0),
		restSet:       copyInt(as.SessionData.ActiveRestTimer),
		restRemaining: max(as.SessionData.RestSecondsRemaining, 0),
		startTime:     as.StartTime,
		lastSaved:     as.LastSavedTime,
	}
	if s.workoutName == "" {
		s.workoutName = "Workout"
	}
	if s.sectionIndex < 0 || s.sectionIndex >= len(workout.Sections) {
		s.sectionIndex, s.exerciseIndex = firstSectionWithExercises(workout.Sections), 0
	}
	if s.exerciseIndex < 0 || s.exerciseIndex >= len(workout.Sections[s.sectionIndex].Exercises) {
		s.exerciseIndex = 0
	}
	return s
}

// View is the API representation of a live session.
type View struct {
	Snapshot
	SessionID          int                       `json:"session_id"`
	WorkoutID          int                       `json:"workout_id"`
	WorkoutName        string                    `json:"workout_name"`
	Phase              Phase                     `json:"phase"`
	StartTime          time.Time                 `json:"start_time"`
	LastSavedTime      *time.Time                `json:"last_saved_time"`
	ElapsedFormatted   string                    `json:"elapsed_formatted"`
	RestFormatted      string                    `json:"rest_formatted"`
	SectionDisplayName string                    `json:"section_display_name"`
	CurrentExercise    *workouts.WorkoutExercise `json:"current_exercise"`
	CurrentVolume      float64                   `json:"current_volume"`
	Progress           Progress                  `json:"progress"`
	Outcome            Outcome                   `json:"outcome,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Snapshot:         s.snapshot(),
		SessionID:        s.id,
		WorkoutID:        s.workoutID,
		WorkoutName:      s.workoutName,
		Phase:            s.phase,
		StartTime:        s.startTime,
		ElapsedFormatted: FormatElapsed(s.elapsed),
		RestFormatted:    FormatRest(s.restRemaining),
		Progress:         s.progress(),
	}
	if !s.lastSaved.IsZero() {
		lastSaved := s.lastSaved
		v.LastSavedTime = &lastSaved
	}
	if s.sectionIndex < len(s.workout.Sections) {
		v.SectionDisplayName = workouts.SectionDisplayName(s.workout.Sections[s.sectionIndex].SectionName)
	}
	if ex, err := s.exercise(s.sectionIndex, s.exerciseIndex); err == nil {
		current := cloneExercises([]workouts.WorkoutExercise{*ex})[0]
		v.CurrentExercise = &current
		v.CurrentVolume = Volume(&current)
	}
	return v
}

// FormatElapsed renders seconds as m:ss, or h:mm:ss from one hour on.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	mins := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// FormatRest renders the rest countdown as m:ss.
func FormatRest(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
