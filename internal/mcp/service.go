package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/nutrition"
	"github.com/2beens/fitcoach/internal/progress"
	"github.com/2beens/fitcoach/internal/workouts"
)

// MaxRangeDays bounds date range tools, so one call cannot pull years of logs.
const MaxRangeDays = 92

type workoutsSource interface {
	List(ctx context.Context, userID int, params workouts.ListParams) ([]workouts.Workout, error)
	WeeklyStats(ctx context.Context, userID int, now time.Time) (*workouts.WeeklyStats, error)
}

type nutritionSource interface {
	RangeSummary(ctx context.Context, userID int, from, to time.Time) ([]nutrition.DailySummary, error)
}

type progressSource interface {
	Recent(ctx context.Context, userID, limit int) ([]progress.ProgressLog, error)
}

type contextService interface {
	Schema(ctx context.Context) (string, error)
	WorkoutsForRange(ctx context.Context, userID int, from, to time.Time) ([]workouts.Workout, error)
	WeeklyStats(ctx context.Context, userID int, now time.Time) (*workouts.WeeklyStats, error)
	NutritionSummary(ctx context.Context, userID int, from, to time.Time) ([]nutrition.DailySummary, error)
	ProgressLogs(ctx context.Context, userID, limit int) ([]progress.ProgressLog, error)
}

// ContextService reads a user's fitness data for MCP clients. It never writes.
type ContextService struct {
	schema    SchemaRepo
	workouts  workoutsSource
	nutrition nutritionSource
	progress  progressSource
}

func NewContextService(
	schemaRepo SchemaRepo,
	workoutsRepo workoutsSource,
	nutritionService nutritionSource,
	progressRepo progressSource,
) *ContextService {
	return &ContextService{
		schema:    schemaRepo,
		workouts:  workoutsRepo,
		nutrition: nutritionService,
		progress:  progressRepo,
	}
}

func checkRange(from, to time.Time) error {
	if to.Before(from) {
		return errors.New("to_date before from_date")
	}
	if to.Sub(from) > MaxRangeDays*24*time.Hour {
		return fmt.Errorf("range longer than %d days", MaxRangeDays)
	}
	return nil
}

func (s *ContextService) Schema(ctx context.Context) (string, error) {
	cols, err := s.schema.Columns(ctx)
	if err != nil {
		return "", err
	}
	return formatSchema(cols), nil
}

func formatSchema(cols []SchemaColumn) string {
	if len(cols) == 0 {
		return "# Fitcoach DB Schema\n\nNo tables found in the database.\n"
	}

	byTable := make(map[string][]SchemaColumn)
	for _, c := range cols {
		byTable[c.TableName] = append(byTable[c.TableName], c)
	}
	tables := make([]string, 0, len(byTable))
	for t := range byTable {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	var b strings.Builder
	b.WriteString("# Fitcoach DB Schema\n")
	for _, table := range tables {
		b.WriteString("\n## " + table + "\n\n")
		b.WriteString("| Column | Type | Nullable | Default |\n|--------|------|----------|---------|\n")
		for _, c := range byTable[table] {
			def := "-"
			if c.ColumnDef != nil && *c.ColumnDef != "" {
				def = *c.ColumnDef
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.ColumnName, c.DataType, c.IsNullable, def)
		}
	}
	return b.String()
}

// WorkoutsForRange lists scheduled or completed workouts, templates excluded.
func (s *ContextService) WorkoutsForRange(ctx context.Context, userID int, from, to time.Time) ([]workouts.Workout, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	notTemplate := false
	list, err := s.workouts.List(ctx, userID, workouts.ListParams{
		From:       &from,
		To:         &to,
		IsTemplate: &notTemplate,
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []workouts.Workout{}
	}
	return list, nil
}

func (s *ContextService) WeeklyStats(ctx context.Context, userID int, now time.Time) (*workouts.WeeklyStats, error) {
	return s.workouts.WeeklyStats(ctx, userID, now)
}

func (s *ContextService) NutritionSummary(ctx context.Context, userID int, from, to time.Time) ([]nutrition.DailySummary, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.nutrition.RangeSummary(ctx, userID, from, to)
}

func (s *ContextService) ProgressLogs(ctx context.Context, userID, limit int) ([]progress.ProgressLog, error) {
	list, err := s.progress.Recent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []progress.ProgressLog{}
	}
	return list, nil
}
