package exercises

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrExerciseNotFound   = errors.New("exercise not found")
	ErrInvalidMuscleGroup = errors.New("invalid muscle group")
	ErrInvalidDifficulty  = errors.New("invalid difficulty level")
	ErrNameEmpty          = errors.New("exercise name empty")
)

var MuscleGroups = []string{
	"Chest",
	"Back",
	"Legs",
	"Shoulders",
	"Arms",
	"Core",
	"Glutes",
	"Calves",
	"Full Body",
	"Cardio",
}

const DefaultDifficulty = "Beginner"

var Difficulties = []string{DefaultDifficulty, "Intermediate", "Advanced"}

type Exercise struct {
	ID                    int       `json:"id"`
	Name                  string    `json:"name"`
	Instructions          string    `json:"instructions"`
	VideoURL              string    `json:"video_url"`
	ImageURL              string    `json:"image_url"`
	PrimaryMuscleGroup    string    `json:"primary_muscle_group"`
	SecondaryMuscleGroups []string  `json:"secondary_muscle_groups"`
	EquipmentNeeded       []string  `json:"equipment_needed"`
	DifficultyLevel       string    `json:"difficulty_level"`
	CreatedBy             *int      `json:"created_by"`
	CreatedAt             time.Time `json:"created_at"`
}

type ListParams struct {
	MuscleGroup string
	Difficulty  string
	Search      string
}

// canonical matches s case-insensitively against allowed and returns the stored spelling.
func canonical(allowed []string, s string) (string, bool) {
	s = strings.TrimSpace(s)
	i := slices.IndexFunc(allowed, func(a string) bool {
		return strings.EqualFold(a, s)
	})
	if i < 0 {
		return "", false
	}
	return allowed[i], true
}

func CanonicalMuscleGroup(s string) (string, bool) {
	return canonical(MuscleGroups, s)
}

func CanonicalDifficulty(s string) (string, bool) {
	return canonical(Difficulties, s)
}

// Validate normalizes ex in place.
func Validate(ex *Exercise) error {
	ex.Name = strings.TrimSpace(ex.Name)
	if ex.Name == "" {
		return ErrNameEmpty
	}

	group, ok := CanonicalMuscleGroup(ex.PrimaryMuscleGroup)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidMuscleGroup, ex.PrimaryMuscleGroup)
	}
	ex.PrimaryMuscleGroup = group

	secondary := make([]string, 0, len(ex.SecondaryMuscleGroups))
	for _, g := range ex.SecondaryMuscleGroups {
		group, ok := CanonicalMuscleGroup(g)
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidMuscleGroup, g)
		}
		if group != ex.PrimaryMuscleGroup && !slices.Contains(secondary, group) {
			secondary = append(secondary, group)
		}
	}
	ex.SecondaryMuscleGroups = secondary

	if strings.TrimSpace(ex.DifficultyLevel) == "" {
		ex.DifficultyLevel = DefaultDifficulty
	}
	level, ok := CanonicalDifficulty(ex.DifficultyLevel)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidDifficulty, ex.DifficultyLevel)
	}
	ex.DifficultyLevel = level

	equipment := make([]string, 0, len(ex.EquipmentNeeded))
	for _, e := range ex.EquipmentNeeded {
		if e = strings.TrimSpace(e); e != "" {
			equipment = append(equipment, e)
		}
	}
	ex.EquipmentNeeded = equipment

	return nil
}
