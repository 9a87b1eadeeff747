package plans

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fitcoach/internal/db"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/workouts"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const planColumns = `id, user_id, name, description, goal, duration_weeks, days_per_week, is_active, created_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func scanPlan(row pgx.Row) (*WorkoutPlan, error) {
	p := &WorkoutPlan{}
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Goal, &p.DurationWeeks, &p.DaysPerWeek, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return p, nil
}

func getPlan(ctx context.Context, q db.Querier, userID, id int) (*WorkoutPlan, error) {
	return scanPlan(q.QueryRow(
		ctx,
		`SELECT `+planColumns+` FROM workout_plan WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
}

func insertPlan(ctx context.Context, q db.Querier, p WorkoutPlan) (*WorkoutPlan, error) {
	err := q.QueryRow(
		ctx,
		`INSERT INTO workout_plan (user_id, name, description, goal, duration_weeks, days_per_week, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at;`,
		p.UserID, p.Name, p.Description, p.Goal, p.DurationWeeks, p.DaysPerWeek, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert workout plan: %w", err)
	}
	return &p, nil
}

// replaceWorkouts drops the plan's workouts of the given kind and inserts the new ones.
func replaceWorkouts(
	ctx context.Context,
	q db.Querier,
	userID, planID int,
	isTemplate bool,
	list []workouts.Workout,
) ([]workouts.Workout, error) {
	if _, err := q.Exec(
		ctx,
		`DELETE FROM workout WHERE plan_id = $1 AND user_id = $2 AND is_template = $3`,
		planID, userID, isTemplate,
	); err != nil {
		return nil, fmt.Errorf("delete plan workouts: %w", err)
	}

	saved := make([]workouts.Workout, 0, len(list))
	for _, w := range list {
		pid := planID
		w.ID = 0
		w.UserID = userID
		w.PlanID = &pid
		w.ProgramID = nil
		w.IsTemplate = isTemplate
		workouts.Normalize(&w)

		created, err := workouts.Insert(ctx, q, w)
		if err != nil {
			return nil, err
		}
		saved = append(saved, *created)
	}
	return saved, nil
}

func (r *Repo) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()
	return fn(tx)
}

func (r *Repo) Add(ctx context.Context, p WorkoutPlan) (_ *WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return insertPlan(ctx, r.db, p)
}

// Create stores a new plan with its template workouts in one transaction.
func (r *Repo) Create(ctx context.Context, p WorkoutPlan, templates []workouts.Workout) (_ *WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("templates", len(templates)))

	var created *WorkoutPlan
	err = r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		created, err = insertPlan(ctx, tx, p)
		if err != nil {
			return err
		}
		_, err = replaceWorkouts(ctx, tx, p.UserID, created.ID, true, templates)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return getPlan(ctx, r.db, userID, id)
}

func (r *Repo) List(ctx context.Context, userID int) (_ []WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+planColumns+` FROM workout_plan WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []WorkoutPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func (r *Repo) Update(ctx context.Context, p *WorkoutPlan) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", p.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_plan SET name = $1, description = $2, goal = $3, duration_weeks = $4, days_per_week = $5
		WHERE id = $6 AND user_id = $7;`,
		p.Name, p.Description, p.Goal, p.DurationWeeks, p.DaysPerWeek, p.ID, p.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// Delete removes the plan and, through the foreign key, all of its workouts.
func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM workout_plan WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// SaveWorkouts replaces the plan's template (or scheduled) workouts.
func (r *Repo) SaveWorkouts(
	ctx context.Context,
	userID, planID int,
	isTemplate bool,
	list []workouts.Workout,
) (_ []workouts.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.save_workouts")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("plan.id", planID),
		attribute.Bool("templates", isTemplate),
		attribute.Int("workouts", len(list)),
	)

	var saved []workouts.Workout
	err = r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := getPlan(ctx, tx, userID, planID); err != nil {
			return err
		}
		var err error
		saved, err = replaceWorkouts(ctx, tx, userID, planID, isTemplate, list)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Activate makes planID the user's only active plan.
func (r *Repo) Activate(ctx context.Context, userID, planID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.activate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("plan.id", planID))

	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE workout_plan SET is_active = true WHERE id = $1 AND user_id = $2`, planID, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrPlanNotFound
		}
		_, err = tx.Exec(ctx, `UPDATE workout_plan SET is_active = false WHERE user_id = $1 AND id <> $2`, userID, planID)
		return err
	})
}
