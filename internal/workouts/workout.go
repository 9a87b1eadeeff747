package workouts

import (
	"strings"
	"time"

	"github.com/2beens/fitcoach/pkg"
)

const (
	SectionWarmUp   = "warm_up"
	SectionMain     = "main"
	SectionCooldown = "cooldown"

	DefaultReps              = "10"
	DefaultRestPeriodSeconds = 90
	DefaultSetsCount         = 3
)

// Set feedback values given right after a set is completed.
const (
	FeedbackEasy = "easy"
	FeedbackOkay = "okay"
	FeedbackHard = "hard"
	FeedbackMax  = "max"
)

func ValidFeedback(f string) bool {
	switch f {
	case FeedbackEasy, FeedbackOkay, FeedbackHard, FeedbackMax:
		return true
	}
	return false
}

// SetData is one set of an exercise. Weight is always kg.
type SetData struct {
	SetNumber   int      `json:"set_number"`
	Reps        string   `json:"reps"`
	Weight      float64  `json:"weight"`
	RestSeconds int      `json:"rest_seconds,omitempty"`
	Tempo       string   `json:"tempo,omitempty"`
	RPE         *float64 `json:"rpe"`
	RIR         *float64 `json:"rir"`
	Completed   bool     `json:"completed"`
	Feedback    *string  `json:"feedback"`
	Note        string   `json:"note"`
}

type WorkoutExercise struct {
	ExerciseID        int       `json:"exercise_id,omitempty"`
	Name              string    `json:"name,omitempty"`
	CustomName        string    `json:"custom_name"`
	SetsData          []SetData `json:"sets_data"`
	RestPeriodSeconds int       `json:"rest_period_seconds"`
	NotesForExercise  string    `json:"notes_for_exercise,omitempty"`
	WorkoutNotes      string    `json:"workout_notes"`
	IsSuperset        bool      `json:"is_superset"`
}

// DisplayName prefers the custom name given in the workout.
func (e *WorkoutExercise) DisplayName() string {
	if e.CustomName != "" {
		return e.CustomName
	}
	return e.Name
}

// AllSetsCompleted is false for an exercise without sets.
func (e *WorkoutExercise) AllSetsCompleted() bool {
	if len(e.SetsData) == 0 {
		return false
	}
	for _, s := range e.SetsData {
		if !s.Completed {
			return false
		}
	}
	return true
}

// Volume is the sum of weight*reps over completed sets.
func (e *WorkoutExercise) Volume() float64 {
	total := 0.0
	for _, s := range e.SetsData {
		if s.Completed {
			total += s.Weight * float64(ParseReps(s.Reps))
		}
	}
	return total
}

type Section struct {
	SectionName string            `json:"section_name"`
	Exercises   []WorkoutExercise `json:"exercises"`
}

type Workout struct {
	ID              int       `json:"id"`
	UserID          int       `json:"user_id"`
	PlanID          *int      `json:"plan_id"`
	ProgramID       *int      `json:"program_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Day             string    `json:"day"`
	ScheduledDate   *pkg.Date `json:"scheduled_date"`
	IsTemplate      bool      `json:"is_template"`
	IsCompleted     bool      `json:"is_completed"`
	CompletedDate   *pkg.Date `json:"completed_date"`
	DurationMinutes int       `json:"duration_minutes"`
	Sections        []Section `json:"sections"`
	CreatedAt       time.Time `json:"created_at"`

	// Exercises is the legacy flat list, only read on input.
	Exercises []WorkoutExercise `json:"exercises,omitempty"`
}

// ExerciseIDs returns the distinct library ids referenced by the workout, in order.
func (w *Workout) ExerciseIDs() []int {
	var ids []int
	seen := map[int]bool{}
	for _, section := range w.Sections {
		for _, ex := range section.Exercises {
			if ex.ExerciseID == 0 || seen[ex.ExerciseID] {
				continue
			}
			seen[ex.ExerciseID] = true
			ids = append(ids, ex.ExerciseID)
		}
	}
	return ids
}

func (w *Workout) ExercisesCount() int {
	count := 0
	for _, section := range w.Sections {
		count += len(section.Exercises)
	}
	return count
}

func (w *Workout) Volume() float64 {
	total := 0.0
	for i := range w.Sections {
		for j := range w.Sections[i].Exercises {
			total += w.Sections[i].Exercises[j].Volume()
		}
	}
	return total
}

// DefaultSets returns n empty sets numbered from 1.
func DefaultSets(n int) []SetData {
	sets := make([]SetData, n)
	for i := range sets {
		sets[i] = SetData{
			SetNumber: i + 1,
			Reps:      DefaultReps,
		}
	}
	return sets
}

// Normalize brings a workout into the sectioned shape the session works with.
// Legacy exercises end up in a single main section, and every exercise gets
// its defaults filled in.
func Normalize(w *Workout) {
	if len(w.Sections) == 0 && len(w.Exercises) > 0 {
		w.Sections = []Section{{
			SectionName: SectionMain,
			Exercises:   w.Exercises,
		}}
	}
	w.Exercises = nil

	if len(w.Sections) == 0 {
		w.Sections = []Section{{
			SectionName: SectionMain,
			Exercises:   []WorkoutExercise{},
		}}
	}

	for i := range w.Sections {
		if w.Sections[i].Exercises == nil {
			w.Sections[i].Exercises = []WorkoutExercise{}
		}
		for j := range w.Sections[i].Exercises {
			normalizeExercise(&w.Sections[i].Exercises[j])
		}
	}
}

func normalizeExercise(ex *WorkoutExercise) {
	if ex.CustomName == "" && ex.Name != "" {
		ex.CustomName = ex.Name
	}
	if ex.RestPeriodSeconds <= 0 {
		ex.RestPeriodSeconds = DefaultRestPeriodSeconds
	}
	if len(ex.SetsData) == 0 {
		ex.SetsData = DefaultSets(DefaultSetsCount)
		return
	}
	for i := range ex.SetsData {
		s := &ex.SetsData[i]
		if s.SetNumber == 0 {
			s.SetNumber = i + 1
		}
		if s.Reps == "" {
			s.Reps = DefaultReps
		}
		if s.Feedback != nil && *s.Feedback == "" {
			s.Feedback = nil
		}
	}
}

func SectionDisplayName(name string) string {
	switch name {
	case SectionWarmUp:
		return "Warm Up"
	case SectionMain:
		return "Main Workout"
	case SectionCooldown:
		return "Cool Down"
	default:
		return name
	}
}

// ParseReps reads the leading integer of a reps value like "8" or "8-10".
// Anything unparsable counts as 0.
func ParseReps(reps string) int {
	n := 0
	for _, r := range strings.TrimSpace(reps) {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
