package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitcoach/internal/db"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrWorkoutNotFound = errors.New("workout not found")
	// ErrUnknownReference is returned when plan_id or program_id point nowhere
	ErrUnknownReference = errors.New("unknown plan or program")
)

// how many completed workouts are scanned when looking for previous performances
const lastPerformedScanLimit = 100

const workoutColumns = `
	id, user_id, plan_id, program_id, name, description, day, scheduled_date,
	is_template, is_completed, completed_date, duration_minutes, sections, created_at
`

type ListParams struct {
	ScheduledDate *time.Time
	From          *time.Time
	To            *time.Time
	IsTemplate    *bool
	IsCompleted   *bool
	PlanID        *int
	ProgramID     *int
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func scanWorkout(row pgx.Row) (*Workout, error) {
	w := &Workout{}
	var scheduledDate, completedDate *time.Time
	var sections []byte
	err := row.Scan(
		&w.ID, &w.UserID, &w.PlanID, &w.ProgramID, &w.Name, &w.Description, &w.Day, &scheduledDate,
		&w.IsTemplate, &w.IsCompleted, &completedDate, &w.DurationMinutes, &sections, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	w.ScheduledDate = pkg.DatePtr(scheduledDate)
	w.CompletedDate = pkg.DatePtr(completedDate)
	if err := json.Unmarshal(sections, &w.Sections); err != nil {
		return nil, fmt.Errorf("unmarshal sections of workout %d: %w", w.ID, err)
	}
	return w, nil
}

func rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, *w)
	}
	return workouts, rows.Err()
}

func marshalSections(sections []Section) ([]byte, error) {
	if sections == nil {
		sections = []Section{}
	}
	b, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("marshal sections: %w", err)
	}
	return b, nil
}

// Insert stores a new workout using q, which may be a transaction.
func Insert(ctx context.Context, q db.Querier, w Workout) (*Workout, error) {
	sections, err := marshalSections(w.Sections)
	if err != nil {
		return nil, err
	}

	err = q.QueryRow(
		ctx,
		`INSERT INTO workout
			(user_id, plan_id, program_id, name, description, day, scheduled_date,
			 is_template, is_completed, completed_date, duration_minutes, sections)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at;`,
		w.UserID, w.PlanID, w.ProgramID, w.Name, w.Description, w.Day, w.ScheduledDate.TimePtr(),
		w.IsTemplate, w.IsCompleted, w.CompletedDate.TimePtr(), w.DurationMinutes, sections,
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert workout: %w", err)
	}
	w.Exercises = nil
	return &w, nil
}

// CompleteIn marks the workout completed using q, which may be a transaction.
func CompleteIn(
	ctx context.Context,
	q db.Querier,
	userID, id int,
	completedDate time.Time,
	durationMinutes int,
	sections []Section,
) error {
	sectionsJSON, err := marshalSections(sections)
	if err != nil {
		return err
	}

	tag, err := q.Exec(
		ctx,
		`UPDATE workout SET
			is_completed = true, completed_date = $1, duration_minutes = $2, sections = $3
		WHERE id = $4 AND user_id = $5;`,
		pkg.Day(completedDate), durationMinutes, sectionsJSON, id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *Repo) Add(ctx context.Context, w Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	added, err := Insert(ctx, r.db, w)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, fmt.Errorf("%w: %w", ErrUnknownReference, err)
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int("workout.id", added.ID))
	return added, nil
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return scanWorkout(r.db.QueryRow(
		ctx,
		`SELECT `+workoutColumns+` FROM workout WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
}

func (r *Repo) List(ctx context.Context, userID int, params ListParams) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+` FROM workout
			WHERE user_id = $1
			AND ($2::date IS NULL OR scheduled_date = $2)
			AND ($3::date IS NULL OR scheduled_date >= $3)
			AND ($4::date IS NULL OR scheduled_date <= $4)
			AND ($5::boolean IS NULL OR is_template = $5)
			AND ($6::boolean IS NULL OR is_completed = $6)
			AND ($7::integer IS NULL OR plan_id = $7)
			AND ($8::integer IS NULL OR program_id = $8)
		ORDER BY scheduled_date ASC NULLS LAST, id ASC;`,
		userID, params.ScheduledDate, params.From, params.To,
		params.IsTemplate, params.IsCompleted, params.PlanID, params.ProgramID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2workouts(rows)
}

func (r *Repo) Update(ctx context.Context, w *Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", w.ID))

	sections, err := marshalSections(w.Sections)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout SET
			plan_id = $1, program_id = $2, name = $3, description = $4, day = $5, scheduled_date = $6,
			is_template = $7, is_completed = $8, completed_date = $9, duration_minutes = $10, sections = $11
		WHERE id = $12 AND user_id = $13;`,
		w.PlanID, w.ProgramID, w.Name, w.Description, w.Day, w.ScheduledDate.TimePtr(),
		w.IsTemplate, w.IsCompleted, w.CompletedDate.TimePtr(), w.DurationMinutes, sections,
		w.ID, w.UserID,
	)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return fmt.Errorf("%w: %w", ErrUnknownReference, err)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM workout WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *Repo) Complete(
	ctx context.Context,
	userID, id int,
	completedDate time.Time,
	durationMinutes int,
	sections []Section,
) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.complete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return CompleteIn(ctx, r.db, userID, id, completedDate, durationMinutes, sections)
}

func (r *Repo) CountCompletedSince(ctx context.Context, userID int, since time.Time) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.count_completed_since")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	err = r.db.QueryRow(
		ctx,
		`SELECT count(*) FROM workout WHERE user_id = $1 AND is_completed AND completed_date >= $2`,
		userID, pkg.Day(since),
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repo) listCompleted(ctx context.Context, userID int, since *time.Time, limit int) ([]Workout, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+` FROM workout
			WHERE user_id = $1 AND is_completed
			AND ($2::date IS NULL OR completed_date >= $2)
		ORDER BY completed_date DESC NULLS LAST, id DESC
		LIMIT $3;`,
		userID, since, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2workouts(rows)
}

func (r *Repo) LastPerformed(ctx context.Context, userID int, exerciseIDs []int) (_ map[int][]Performance, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.last_performed")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.IntSlice("exercise.ids", exerciseIDs))

	if len(exerciseIDs) == 0 {
		return map[int][]Performance{}, nil
	}

	completed, err := r.listCompleted(ctx, userID, nil, lastPerformedScanLimit)
	if err != nil {
		return nil, fmt.Errorf("list completed workouts: %w", err)
	}
	return LastPerformances(completed, exerciseIDs), nil
}

func (r *Repo) WeeklyStats(ctx context.Context, userID int, now time.Time) (_ *WeeklyStats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.weekly_stats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	since := WeeklyStatsSince(now)
	completed, err := r.listCompleted(ctx, userID, &since, 1000)
	if err != nil {
		return nil, fmt.Errorf("list completed workouts: %w", err)
	}
	stats := ComputeWeeklyStats(completed, since)
	return &stats, nil
}
