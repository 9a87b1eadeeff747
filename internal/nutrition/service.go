package nutrition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/users"
	"github.com/2beens/fitcoach/pkg"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=nutrition_test

type foodLogsRepo interface {
	Add(ctx context.Context, fl FoodLog) (*FoodLog, error)
	Update(ctx context.Context, fl *FoodLog) error
	Delete(ctx context.Context, userID, id int) error
	ListByDate(ctx context.Context, userID int, date time.Time) ([]FoodLog, error)
	ListRange(ctx context.Context, userID int, from, to time.Time) ([]FoodLog, error)
}

type profileGetter interface {
	Get(ctx context.Context, id int) (*users.User, error)
}

type Service struct {
	repo     foodLogsRepo
	profiles profileGetter
}

func NewService(repo foodLogsRepo, profiles profileGetter) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
	}
}

func (s *Service) goals(ctx context.Context, userID int) (*users.MacroGoals, error) {
	user, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			log.Warnf("nutrition goals: user %d not found, using defaults", userID)
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user.MacroGoals, nil
}

func (s *Service) DailySummary(ctx context.Context, userID int, date time.Time) (_ *DailySummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.nutrition.daily_summary")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	logs, err := s.repo.ListByDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list food logs: %w", err)
	}
	goals, err := s.goals(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := Summarize(date, logs, goals)
	return &summary, nil
}

// RangeSummary returns one summary per day in [from, to], days without logs included.
func (s *Service) RangeSummary(ctx context.Context, userID int, from, to time.Time) (_ []DailySummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.nutrition.range_summary")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	from, to = pkg.Day(from), pkg.Day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end before start", ErrInvalidFoodLog)
	}

	logs, err := s.repo.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list food logs: %w", err)
	}
	goals, err := s.goals(ctx, userID)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]FoodLog)
	for _, fl := range logs {
		key := fl.Date.String()
		byDay[key] = append(byDay[key], fl)
	}

	var summaries []DailySummary
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		summaries = append(summaries, Summarize(day, byDay[pkg.FormatDate(day)], goals))
	}
	return summaries, nil
}
