package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/fitcoach/internal/nutrition"
	"github.com/2beens/fitcoach/internal/progress"
	"github.com/2beens/fitcoach/internal/session"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/workouts"
	"github.com/2beens/fitcoach/pkg"

	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=dashboard_test

const RecentProgressLogs = 3

type workoutsSource interface {
	List(ctx context.Context, userID int, params workouts.ListParams) ([]workouts.Workout, error)
	WeeklyStats(ctx context.Context, userID int, now time.Time) (*workouts.WeeklyStats, error)
}

type sessionsSource interface {
	ListUnfinished(ctx context.Context, userID int) ([]session.ActiveSession, error)
}

type nutritionSource interface {
	DailySummary(ctx context.Context, userID int, date time.Time) (*nutrition.DailySummary, error)
}

type progressSource interface {
	Recent(ctx context.Context, userID, limit int) ([]progress.ProgressLog, error)
}

type Dashboard struct {
	Date               pkg.Date                `json:"date"`
	TodaysWorkouts     []workouts.Workout      `json:"todays_workouts"`
	UnfinishedSessions []session.ActiveSession `json:"unfinished_sessions"`
	Nutrition          *nutrition.DailySummary `json:"nutrition"`
	RecentProgress     []progress.ProgressLog  `json:"recent_progress"`
	WeeklyStats        *workouts.WeeklyStats   `json:"weekly_stats"`
}

type Service struct {
	workouts  workoutsSource
	sessions  sessionsSource
	nutrition nutritionSource
	progress  progressSource
}

func NewService(
	workoutsRepo workoutsSource,
	sessionManager sessionsSource,
	nutritionService nutritionSource,
	progressRepo progressSource,
) *Service {
	return &Service{
		workouts:  workoutsRepo,
		sessions:  sessionManager,
		nutrition: nutritionService,
		progress:  progressRepo,
	}
}

// Build loads all dashboard parts for the day of now concurrently.
// The first failing part fails the whole dashboard.
func (s *Service) Build(ctx context.Context, userID int, now time.Time) (_ *Dashboard, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.dashboard.build")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	today := pkg.Day(now)
	d := &Dashboard{Date: pkg.NewDate(today)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		notTemplate := false
		list, err := s.workouts.List(gctx, userID, workouts.ListParams{
			ScheduledDate: &today,
			IsTemplate:    &notTemplate,
		})
		if err != nil {
			return fmt.Errorf("todays workouts: %w", err)
		}
		d.TodaysWorkouts = list
		return nil
	})
	g.Go(func() error {
		list, err := s.sessions.ListUnfinished(gctx, userID)
		if err != nil {
			return fmt.Errorf("unfinished sessions: %w", err)
		}
		d.UnfinishedSessions = list
		return nil
	})
	g.Go(func() error {
		summary, err := s.nutrition.DailySummary(gctx, userID, today)
		if err != nil {
			return fmt.Errorf("nutrition summary: %w", err)
		}
		d.Nutrition = summary
		return nil
	})
	g.Go(func() error {
		list, err := s.progress.Recent(gctx, userID, RecentProgressLogs)
		if err != nil {
			return fmt.Errorf("recent progress: %w", err)
		}
		d.RecentProgress = list
		return nil
	})
	g.Go(func() error {
		stats, err := s.workouts.WeeklyStats(gctx, userID, now)
		if err != nil {
			return fmt.Errorf("weekly stats: %w", err)
		}
		d.WeeklyStats = stats
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if d.TodaysWorkouts == nil {
		d.TodaysWorkouts = []workouts.Workout{}
	}
	if d.UnfinishedSessions == nil {
		d.UnfinishedSessions = []session.ActiveSession{}
	}
	if d.RecentProgress == nil {
		d.RecentProgress = []progress.ProgressLog{}
	}
	return d, nil
}
