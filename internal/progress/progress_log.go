package progress

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/2beens/fitcoach/internal/units"
	"github.com/2beens/fitcoach/pkg"
)

var (
	ErrProgressLogNotFound = errors.New("progress log not found")
	ErrInvalidProgressLog  = errors.New("invalid progress log")
)

// MeasurementKeys are the body measurements a log may carry.
var MeasurementKeys = []string{"chest", "waist", "hips", "arms", "thighs"}

// ProgressLog holds metric values: weight in kg, measurements in cm.
type ProgressLog struct {
	ID                int                `json:"id"`
	UserID            int                `json:"user_id"`
	Date              pkg.Date           `json:"date"`
	Weight            *float64           `json:"weight"`
	BodyFatPercentage *float64           `json:"body_fat_percentage"`
	Measurements      map[string]float64 `json:"measurements"`
	PhotoURL          string             `json:"photo_url"`
	Notes             string             `json:"notes"`
	CreatedAt         time.Time          `json:"created_at"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ToMetric validates a log entered in system and converts it to the stored units.
// Zero weight, body fat and measurements are treated as not entered.
func ToMetric(pl *ProgressLog, system units.System) error {
	if pl.Date.IsZero() {
		return fmt.Errorf("%w: date empty", ErrInvalidProgressLog)
	}

	if pl.Weight != nil {
		switch w := *pl.Weight; {
		case w < 0:
			return fmt.Errorf("%w: negative weight", ErrInvalidProgressLog)
		case w == 0:
			pl.Weight = nil
		default:
			kg := round2(units.WeightToMetric(w, system))
			pl.Weight = &kg
		}
	}

	if pl.BodyFatPercentage != nil {
		switch bf := *pl.BodyFatPercentage; {
		case bf < 0 || bf > 100:
			return fmt.Errorf("%w: body fat out of range", ErrInvalidProgressLog)
		case bf == 0:
			pl.BodyFatPercentage = nil
		}
	}

	measurements := make(map[string]float64, len(pl.Measurements))
	for key, v := range pl.Measurements {
		if !slices.Contains(MeasurementKeys, key) {
			return fmt.Errorf("%w: unknown measurement %q", ErrInvalidProgressLog, key)
		}
		if v < 0 {
			return fmt.Errorf("%w: negative %s", ErrInvalidProgressLog, key)
		}
		if v > 0 {
			measurements[key] = round2(units.LengthToMetric(v, system))
		}
	}
	pl.Measurements = measurements

	return nil
}

// FromMetric returns a copy of pl expressed in system.
func FromMetric(pl ProgressLog, system units.System) ProgressLog {
	if pl.Weight != nil {
		w := round2(units.WeightFromMetric(*pl.Weight, system))
		pl.Weight = &w
	}
	measurements := make(map[string]float64, len(pl.Measurements))
	for key, cm := range pl.Measurements {
		measurements[key] = round2(units.LengthFromMetric(cm, system))
	}
	pl.Measurements = measurements
	return pl
}
