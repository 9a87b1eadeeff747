package plans

import (
	"errors"
	"strings"
	"time"
)

const (
	DefaultGoal          = "general_fitness"
	DefaultDurationWeeks = 12
	DefaultDaysPerWeek   = 4
)

var ErrPlanNotFound = errors.New("workout plan not found")

type WorkoutPlan struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Goal          string    `json:"goal"`
	DurationWeeks int       `json:"duration_weeks"`
	DaysPerWeek   int       `json:"days_per_week"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

func Normalize(p *WorkoutPlan) {
	p.Name = strings.TrimSpace(p.Name)
	p.Goal = strings.TrimSpace(p.Goal)
	if p.Goal == "" {
		p.Goal = DefaultGoal
	}
	if p.DurationWeeks <= 0 {
		p.DurationWeeks = DefaultDurationWeeks
	}
	if p.DaysPerWeek <= 0 {
		p.DaysPerWeek = DefaultDaysPerWeek
	}
}
