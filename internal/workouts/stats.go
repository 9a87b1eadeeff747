package workouts

import (
	"time"

	"github.com/2beens/fitcoach/pkg"
)

const lastPerformancesLimit = 3

// Performance is how an exercise was done in one completed workout.
type Performance struct {
	Date pkg.Date  `json:"date"`
	Sets []SetData `json:"sets"`
}

type WeeklyStats struct {
	From              pkg.Date `json:"from"`
	WorkoutsCompleted int      `json:"workouts_completed"`
	TotalMinutes      int      `json:"total_minutes"`
	TotalVolume       float64  `json:"total_volume"`
}

// LastPerformances picks, per exercise id, the sets from up to three completed
// workouts that contain it with at least one set. Workouts must be sorted most
// recent first.
func LastPerformances(completed []Workout, exerciseIDs []int) map[int][]Performance {
	result := map[int][]Performance{}
	for _, exerciseID := range exerciseIDs {
		var performances []Performance
		for i := range completed {
			ex := findExercise(&completed[i], exerciseID)
			if ex == nil || len(ex.SetsData) == 0 {
				continue
			}
			p := Performance{Sets: ex.SetsData}
			if completed[i].CompletedDate != nil {
				p.Date = *completed[i].CompletedDate
			}
			performances = append(performances, p)
			if len(performances) >= lastPerformancesLimit {
				break
			}
		}
		if len(performances) > 0 {
			result[exerciseID] = performances
		}
	}
	return result
}

func findExercise(w *Workout, exerciseID int) *WorkoutExercise {
	for i := range w.Sections {
		for j := range w.Sections[i].Exercises {
			if w.Sections[i].Exercises[j].ExerciseID == exerciseID {
				return &w.Sections[i].Exercises[j]
			}
		}
	}
	for i := range w.Exercises {
		if w.Exercises[i].ExerciseID == exerciseID {
			return &w.Exercises[i]
		}
	}
	return nil
}

// WeeklyStatsSince returns the first day counted by the weekly stats.
func WeeklyStatsSince(now time.Time) time.Time {
	return pkg.Day(now).AddDate(0, 0, -7)
}

// ComputeWeeklyStats sums up the completed workouts done on or after since.
func ComputeWeeklyStats(completed []Workout, since time.Time) WeeklyStats {
	stats := WeeklyStats{
		From: pkg.NewDate(since),
	}
	for i := range completed {
		w := &completed[i]
		if !w.IsCompleted || w.CompletedDate == nil || w.CompletedDate.Before(pkg.Day(since)) {
			continue
		}
		stats.WorkoutsCompleted++
		stats.TotalMinutes += w.DurationMinutes
		stats.TotalVolume += w.Volume()
	}
	return stats
}
