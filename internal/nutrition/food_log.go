package nutrition

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/users"
	"github.com/2beens/fitcoach/pkg"
)

var (
	ErrFoodLogNotFound = errors.New("food log not found")
	ErrInvalidMealType = errors.New("invalid meal type")
	ErrInvalidFoodLog  = errors.New("invalid food log")
)

const DefaultMealType = "breakfast"

// MealTypes in the order a day is presented.
var MealTypes = []string{DefaultMealType, "lunch", "dinner", "snack"}

type FoodLog struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Date        pkg.Date  `json:"date"`
	FoodName    string    `json:"food_name"`
	MealType    string    `json:"meal_type"`
	ServingSize string    `json:"serving_size"`
	Calories    float64   `json:"calories"`
	Protein     float64   `json:"protein"`
	Carbs       float64   `json:"carbs"`
	Fats        float64   `json:"fats"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

func Validate(fl *FoodLog) error {
	fl.FoodName = strings.TrimSpace(fl.FoodName)
	if fl.FoodName == "" {
		return fmt.Errorf("%w: food name empty", ErrInvalidFoodLog)
	}
	if fl.Date.IsZero() {
		return fmt.Errorf("%w: date empty", ErrInvalidFoodLog)
	}
	if fl.Calories < 0 || fl.Protein < 0 || fl.Carbs < 0 || fl.Fats < 0 {
		return fmt.Errorf("%w: negative macros", ErrInvalidFoodLog)
	}

	fl.MealType = strings.ToLower(strings.TrimSpace(fl.MealType))
	if fl.MealType == "" {
		fl.MealType = DefaultMealType
	}
	if !slices.Contains(MealTypes, fl.MealType) {
		return ErrInvalidMealType
	}
	return nil
}

type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

func (m *Macros) add(fl FoodLog) {
	m.Calories += fl.Calories
	m.Protein += fl.Protein
	m.Carbs += fl.Carbs
	m.Fats += fl.Fats
}

type Meal struct {
	MealType string    `json:"meal_type"`
	Totals   Macros    `json:"totals"`
	Logs     []FoodLog `json:"logs"`
}

type DailySummary struct {
	Date        pkg.Date         `json:"date"`
	Totals      Macros           `json:"totals"`
	Goals       users.MacroGoals `json:"goals"`
	Percentages Macros           `json:"percentages"`
	Meals       []Meal           `json:"meals"`
}

// percentOf is capped at 100.
func percentOf(value, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return math.Min(value/goal*100, 100)
}

// Summarize totals a day's logs against goals. Nil goals fall back to the defaults.
func Summarize(date time.Time, logs []FoodLog, goals *users.MacroGoals) DailySummary {
	summary := DailySummary{
		Date:  pkg.NewDate(date),
		Goals: goals.OrDefaults(),
		Meals: make([]Meal, 0, len(MealTypes)),
	}

	for _, mealType := range MealTypes {
		meal := Meal{
			MealType: mealType,
			Logs:     []FoodLog{},
		}
		for _, fl := range logs {
			if fl.MealType != mealType {
				continue
			}
			meal.Logs = append(meal.Logs, fl)
			meal.Totals.add(fl)
		}
		summary.Meals = append(summary.Meals, meal)
	}
	for _, fl := range logs {
		summary.Totals.add(fl)
	}

	summary.Percentages = Macros{
		Calories: percentOf(summary.Totals.Calories, summary.Goals.Calories),
		Protein:  percentOf(summary.Totals.Protein, summary.Goals.Protein),
		Carbs:    percentOf(summary.Totals.Carbs, summary.Goals.Carbs),
		Fats:     percentOf(summary.Totals.Fats, summary.Goals.Fats),
	}
	return summary
}
