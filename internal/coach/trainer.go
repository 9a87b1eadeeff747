package coach

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/users"
	"github.com/2beens/fitcoach/internal/workouts"
)

const (
	QuestionsCount = 5
	RecentLogs     = 5

	DefaultImportedPlanName = "AI Coach Plan"

	MaxSuggestedSets = 10
)

var (
	ErrTrainerLogNotFound = errors.New("trainer log not found")
	ErrInvalidRequest     = errors.New("invalid coach request")
	ErrNoPlanToImport     = errors.New("trainer log has no workout plan")
)

type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type PlanWorkout struct {
	Day      string             `json:"day"`
	Name     string             `json:"name"`
	Sections []workouts.Section `json:"sections"`
}

type GeneratedPlan struct {
	PlanName             string        `json:"plan_name"`
	ExperienceNotes      string        `json:"experience_notes"`
	InjuryConsiderations []string      `json:"injury_considerations"`
	Workouts             []PlanWorkout `json:"workouts"`
}

// TrainerLog is one AI trainer check-in: the questions asked, the answers
// given and what the coach suggested.
type TrainerLog struct {
	ID              int               `json:"id"`
	UserID          int               `json:"user_id"`
	Questions       []string          `json:"questions"`
	Responses       []Answer          `json:"responses"`
	Feedback        string            `json:"feedback"`
	FeedbackHTML    string            `json:"feedback_html"`
	WorkoutPlan     *GeneratedPlan    `json:"workout_plan"`
	SuggestedMacros *users.MacroGoals `json:"suggested_macros"`
	PlanAccepted    *bool             `json:"plan_accepted"`
	CreatedAt       time.Time         `json:"created_at"`
}

type questionsAnswer struct {
	Questions []string `json:"questions"`
}

type planAnswer struct {
	Feedback        string            `json:"feedback"`
	WorkoutPlan     *GeneratedPlan    `json:"workout_plan"`
	SuggestedMacros *users.MacroGoals `json:"suggested_macros"`
}

// flexString accepts both "8-10" and 8.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("reps: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

type exerciseAnswer struct {
	Sets        int        `json:"sets"`
	Reps        flexString `json:"reps"`
	RestSeconds int        `json:"rest_seconds"`
	Tempo       string     `json:"tempo"`
	RIR         *float64   `json:"rir"`
}

// ExerciseSuggestion holds suggested training parameters and the sets built from them.
type ExerciseSuggestion struct {
	Sets        int                `json:"sets"`
	Reps        string             `json:"reps"`
	RestSeconds int                `json:"rest_seconds"`
	Tempo       string             `json:"tempo"`
	RIR         *float64           `json:"rir"`
	SetsData    []workouts.SetData `json:"sets_data"`
}

func newExerciseSuggestion(a exerciseAnswer) *ExerciseSuggestion {
	s := &ExerciseSuggestion{
		Sets:        min(max(a.Sets, 1), MaxSuggestedSets),
		Reps:        strings.TrimSpace(string(a.Reps)),
		RestSeconds: a.RestSeconds,
		Tempo:       strings.TrimSpace(a.Tempo),
		RIR:         a.RIR,
	}
	if s.Reps == "" {
		s.Reps = workouts.DefaultReps
	}
	if s.RestSeconds <= 0 {
		s.RestSeconds = workouts.DefaultRestPeriodSeconds
	}

	s.SetsData = make([]workouts.SetData, s.Sets)
	for i := range s.SetsData {
		var rir *float64
		if s.RIR != nil {
			v := *s.RIR
			rir = &v
		}
		s.SetsData[i] = workouts.SetData{
			SetNumber:   i + 1,
			Reps:        s.Reps,
			RestSeconds: s.RestSeconds,
			Tempo:       s.Tempo,
			RIR:         rir,
		}
	}
	return s
}

const questionsSchema = `{"questions": ["string", "string", "string", "string", "string"]}`

const planSchema = `{
  "feedback": "markdown string",
  "workout_plan": {
    "plan_name": "string",
    "experience_notes": "string",
    "injury_considerations": ["string"],
    "workouts": [{
      "day": "Monday",
      "name": "string",
      "sections": [{
        "section_name": "warm_up | main | cooldown",
        "exercises": [{
          "custom_name": "string",
          "rest_period_seconds": 90,
          "notes_for_exercise": "string",
          "sets_data": [{"set_number": 1, "reps": "8-10", "weight": 0, "rest_seconds": 90, "tempo": "2-0-2-0", "rir": 2}]
        }]
      }]
    }]
  },
  "suggested_macros": {"calories": 2200, "protein": 160, "carbs": 220, "fats": 70}
}`

const exerciseSchema = `{"sets": 3, "reps": "8-10", "rest_seconds": 90, "tempo": "3-1-1-0", "rir": 2}`

func formatKg(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64) + " kg"
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

func describeProfile(u *users.User) string {
	var b strings.Builder
	b.WriteString("User profile:\n")
	fmt.Fprintf(&b, "- fitness goal: %s\n", orUnknown(u.FitnessGoal))
	fmt.Fprintf(&b, "- experience level: %s\n", orUnknown(u.FitnessExperienceLevel))
	fmt.Fprintf(&b, "- activity level: %s\n", orUnknown(u.ActivityLevel))
	fmt.Fprintf(&b, "- current weight: %s\n", formatKg(u.CurrentWeight))
	fmt.Fprintf(&b, "- goal weight: %s\n", formatKg(u.GoalWeight))
	if u.Height != nil {
		fmt.Fprintf(&b, "- height: %.0f cm\n", *u.Height)
	}
	fmt.Fprintf(&b, "- previous injuries: %s\n", orUnknown(u.PreviousInjuries))
	fmt.Fprintf(&b, "- current injuries: %s\n", orUnknown(u.CurrentInjuries))
	goals := u.MacroGoals.OrDefaults()
	fmt.Fprintf(&b, "- macro goals: %.0f kcal, protein %.0f g, carbs %.0f g, fats %.0f g\n",
		goals.Calories, goals.Protein, goals.Carbs, goals.Fats)
	return b.String()
}

func questionsPrompt(u *users.User, recent []TrainerLog) string {
	var b strings.Builder
	b.WriteString(describeProfile(u))
	if len(recent) > 0 {
		b.WriteString("\nPrevious check-ins, newest first:\n")
		for _, l := range recent {
			fmt.Fprintf(&b, "- %s:", l.CreatedAt.Format(time.DateOnly))
			for _, a := range l.Responses {
				fmt.Fprintf(&b, " %q -> %q;", a.Question, a.Answer)
			}
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b,
		"\nAsk exactly %d short check-in questions about how the training, recovery, "+
			"nutrition and injuries went since the last check-in.",
		QuestionsCount,
	)
	return b.String()
}

func planPrompt(u *users.User, responses []Answer) string {
	var b strings.Builder
	b.WriteString(describeProfile(u))
	b.WriteString("\nCheck-in answers:\n")
	for _, a := range responses {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", a.Question, a.Answer)
	}
	b.WriteString("\nGive feedback on the check-in in markdown, a weekly workout plan " +
		"that respects the injuries, and daily macro targets. " +
		"Reps are always strings, weights are kg and may be 0.")
	return b.String()
}

func exercisePrompt(goal, exerciseName string) string {
	return fmt.Sprintf(
		"Given a %s program, suggest optimal training parameters for the exercise %q. "+
			"Return sets, reps, rest time in seconds, tempo and target RIR (reps in reserve). "+
			"Base the recommendation on exercise science and the specific goal.",
		goal, exerciseName,
	)
}
