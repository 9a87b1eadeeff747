package users

import (
	"time"

	"github.com/2beens/fitcoach/internal/units"
)

const (
	DefaultCalories = 2000
	DefaultProtein  = 150
	DefaultCarbs    = 200
	DefaultFats     = 60
)

type MacroGoals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

func DefaultMacroGoals() MacroGoals {
	return MacroGoals{
		Calories: DefaultCalories,
		Protein:  DefaultProtein,
		Carbs:    DefaultCarbs,
		Fats:     DefaultFats,
	}
}

// OrDefaults fills zero goals with the defaults.
func (g *MacroGoals) OrDefaults() MacroGoals {
	d := DefaultMacroGoals()
	if g == nil {
		return d
	}
	res := *g
	if res.Calories <= 0 {
		res.Calories = d.Calories
	}
	if res.Protein <= 0 {
		res.Protein = d.Protein
	}
	if res.Carbs <= 0 {
		res.Carbs = d.Carbs
	}
	if res.Fats <= 0 {
		res.Fats = d.Fats
	}
	return res
}

// User is stored with metric values: weights in kg, height in cm.
type User struct {
	ID                     int          `json:"id"`
	Email                  string       `json:"email"`
	PasswordHash           string       `json:"-"`
	FullName               string       `json:"full_name"`
	UnitSystem             units.System `json:"unit_system"`
	CurrentWeight          *float64     `json:"current_weight"`
	GoalWeight             *float64     `json:"goal_weight"`
	Height                 *float64     `json:"height"`
	FitnessGoal            string       `json:"fitness_goal"`
	FitnessExperienceLevel string       `json:"fitness_experience_level"`
	ActivityLevel          string       `json:"activity_level"`
	PreviousInjuries       string       `json:"previous_injuries"`
	CurrentInjuries        string       `json:"current_injuries"`
	MacroGoals             *MacroGoals  `json:"macro_goals"`
	CreatedAt              time.Time    `json:"created_at"`
}

// ProfileUpdate carries the fields a user may change about themselves.
// Nil fields are left untouched. Weight and height are in the user's unit system.
type ProfileUpdate struct {
	FullName               *string       `json:"full_name"`
	UnitSystem             *units.System `json:"unit_system"`
	CurrentWeight          *float64      `json:"current_weight"`
	GoalWeight             *float64      `json:"goal_weight"`
	Height                 *float64      `json:"height"`
	FitnessGoal            *string       `json:"fitness_goal"`
	FitnessExperienceLevel *string       `json:"fitness_experience_level"`
	ActivityLevel          *string       `json:"activity_level"`
	PreviousInjuries       *string       `json:"previous_injuries"`
	CurrentInjuries        *string       `json:"current_injuries"`
	MacroGoals             *MacroGoals   `json:"macro_goals"`
}

// Apply merges the update into u, converting body values to metric.
func (p ProfileUpdate) Apply(u *User) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.UnitSystem != nil {
		u.UnitSystem = *p.UnitSystem
	}
	system := u.UnitSystem
	if p.CurrentWeight != nil {
		v := units.WeightToMetric(*p.CurrentWeight, system)
		u.CurrentWeight = &v
	}
	if p.GoalWeight != nil {
		v := units.WeightToMetric(*p.GoalWeight, system)
		u.GoalWeight = &v
	}
	if p.Height != nil {
		v := units.LengthToMetric(*p.Height, system)
		u.Height = &v
	}
	if p.FitnessGoal != nil {
		u.FitnessGoal = *p.FitnessGoal
	}
	if p.FitnessExperienceLevel != nil {
		u.FitnessExperienceLevel = *p.FitnessExperienceLevel
	}
	if p.ActivityLevel != nil {
		u.ActivityLevel = *p.ActivityLevel
	}
	if p.PreviousInjuries != nil {
		u.PreviousInjuries = *p.PreviousInjuries
	}
	if p.CurrentInjuries != nil {
		u.CurrentInjuries = *p.CurrentInjuries
	}
	if p.MacroGoals != nil {
		goals := *p.MacroGoals
		u.MacroGoals = &goals
	}
}
