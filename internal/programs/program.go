package programs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/workouts"
	"github.com/2beens/fitcoach/pkg"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"

	DefaultDurationWeeks = 4
	DefaultDaysPerWeek   = 3
)

var (
	ErrProgramNotFound        = errors.New("program not found")
	ErrProgramWorkoutNotFound = errors.New("program workout not found")
	ErrNoProgramWorkouts      = errors.New("no workouts found for this program, add workouts before starting")
	ErrNoExercises            = errors.New("no exercises found in program workouts, add exercises before starting")
	ErrInvalidDay             = errors.New("invalid day of week")
	ErrInvalidWeek            = errors.New("week number must be 1 or more")
)

// daysOfWeek is ordered the way offsets are counted.
var daysOfWeek = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// DayIndex returns the position of day in the week starting on sunday, or -1.
func DayIndex(day string) int {
	day = strings.ToLower(strings.TrimSpace(day))
	for i, d := range daysOfWeek {
		if d == day {
			return i
		}
	}
	return -1
}

type Program struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Goal          string    `json:"goal"`
	DurationWeeks int       `json:"duration_weeks"`
	DaysPerWeek   int       `json:"days_per_week"`
	Difficulty    string    `json:"difficulty"`
	Status        string    `json:"status"`
	IsActive      bool      `json:"is_active"`
	StartDate     *pkg.Date `json:"start_date"`
	EndDate       *pkg.Date `json:"end_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProgramExercise is an exercise as planned in a program day. SupersetWith
// points to the index of the exercise it is paired with.
type ProgramExercise struct {
	ExerciseID   int                `json:"exercise_id"`
	CustomName   string             `json:"custom_name"`
	SetsData     []workouts.SetData `json:"sets_data"`
	Notes        string             `json:"notes"`
	SupersetWith *int               `json:"superset_with"`
}

type ProgramWorkout struct {
	ID          int               `json:"id"`
	ProgramID   int               `json:"program_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	WeekNumber  int               `json:"week_number"`
	DayOfWeek   string            `json:"day_of_week"`
	Exercises   []ProgramExercise `json:"exercises"`
}

// Normalize fills program defaults. Unknown statuses fall back to draft.
func Normalize(p *Program) {
	p.Name = strings.TrimSpace(p.Name)
	if p.DurationWeeks <= 0 {
		p.DurationWeeks = DefaultDurationWeeks
	}
	if p.DaysPerWeek <= 0 {
		p.DaysPerWeek = DefaultDaysPerWeek
	}
	if p.Status != StatusPublished {
		p.Status = StatusDraft
	}
}

// ValidateWorkout trims and checks a program workout before it is stored.
func ValidateWorkout(pw *ProgramWorkout) error {
	pw.Name = strings.TrimSpace(pw.Name)
	if pw.Name == "" {
		return errors.New("workout name empty")
	}
	if pw.WeekNumber < 1 {
		return ErrInvalidWeek
	}
	pw.DayOfWeek = strings.ToLower(strings.TrimSpace(pw.DayOfWeek))
	if DayIndex(pw.DayOfWeek) < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidDay, pw.DayOfWeek)
	}
	if pw.Exercises == nil {
		pw.Exercises = []ProgramExercise{}
	}
	return nil
}

// ScheduledDate places a program day relative to the start date, where the
// start date is taken to fall on startDay.
func ScheduledDate(start time.Time, startDay string, weekNumber int, dayOfWeek string) (time.Time, error) {
	startIdx := DayIndex(startDay)
	if startIdx < 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, startDay)
	}
	dayIdx := DayIndex(dayOfWeek)
	if dayIdx < 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, dayOfWeek)
	}

	dayOffset := dayIdx - startIdx
	if dayOffset < 0 {
		dayOffset += 7
	}
	weekOffset := (weekNumber - 1) * 7
	return pkg.Day(start).AddDate(0, 0, weekOffset+dayOffset), nil
}

// EndDate is duration weeks after the start.
func EndDate(start time.Time, durationWeeks int) time.Time {
	return pkg.Day(start).AddDate(0, 0, durationWeeks*7)
}

func hasExercises(pw *ProgramWorkout) bool {
	return len(pw.Exercises) > 0
}

// Materialize turns program days into scheduled workouts for the user.
// Days without exercises are skipped.
func Materialize(
	userID int,
	programID int,
	programWorkouts []ProgramWorkout,
	start time.Time,
	startDay string,
) ([]workouts.Workout, error) {
	if len(programWorkouts) == 0 {
		return nil, ErrNoProgramWorkouts
	}

	scheduled := make([]workouts.Workout, 0, len(programWorkouts))
	for i := range programWorkouts {
		pw := &programWorkouts[i]
		if !hasExercises(pw) {
			continue
		}

		date, err := ScheduledDate(start, startDay, pw.WeekNumber, pw.DayOfWeek)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", pw.Name, err)
		}

		exercises := make([]workouts.WorkoutExercise, 0, len(pw.Exercises))
		for _, ex := range pw.Exercises {
			exercises = append(exercises, toWorkoutExercise(ex))
		}

		scheduledDate := pkg.NewDate(date)
		pid := programID
		scheduled = append(scheduled, workouts.Workout{
			UserID:        userID,
			ProgramID:     &pid,
			Name:          pw.Name,
			Description:   pw.Description,
			Day:           pw.DayOfWeek,
			ScheduledDate: &scheduledDate,
			Sections: []workouts.Section{
				{SectionName: workouts.SectionMain, Exercises: exercises},
			},
		})
	}

	if len(scheduled) == 0 {
		return nil, ErrNoExercises
	}
	return scheduled, nil
}

func toWorkoutExercise(ex ProgramExercise) workouts.WorkoutExercise {
	sets := make([]workouts.SetData, 0, len(ex.SetsData))
	for i, s := range ex.SetsData {
		set := workouts.SetData{
			SetNumber:   i + 1,
			Reps:        s.Reps,
			Weight:      s.Weight,
			RestSeconds: s.RestSeconds,
			Tempo:       s.Tempo,
			RPE:         positiveOrNil(s.RPE),
			RIR:         positiveOrNil(s.RIR),
		}
		if set.Reps == "" {
			set.Reps = workouts.DefaultReps
		}
		if set.Weight < 0 {
			set.Weight = 0
		}
		if set.RestSeconds <= 0 {
			set.RestSeconds = workouts.DefaultRestPeriodSeconds
		}
		sets = append(sets, set)
	}

	rest := workouts.DefaultRestPeriodSeconds
	if len(ex.SetsData) > 0 && ex.SetsData[0].RestSeconds > 0 {
		rest = ex.SetsData[0].RestSeconds
	}

	return workouts.WorkoutExercise{
		ExerciseID:        ex.ExerciseID,
		CustomName:        ex.CustomName,
		SetsData:          sets,
		RestPeriodSeconds: rest,
		NotesForExercise:  ex.Notes,
		IsSuperset:        ex.SupersetWith != nil,
	}
}

// a zero rpe/rir means "not set"
func positiveOrNil(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	c := *v
	return &c
}
