package programs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitcoach/internal/db"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/workouts"
	"github.com/2beens/fitcoach/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const programColumns = `
	id, user_id, name, description, goal, duration_weeks, days_per_week,
	difficulty, status, is_active, start_date, end_date, created_at
`

const programWorkoutColumns = `pw.id, pw.program_id, pw.name, pw.description, pw.week_number, pw.day_of_week, pw.exercises`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// StartResult is the started program and the workouts scheduled for it.
type StartResult struct {
	Program  *Program           `json:"program"`
	Workouts []workouts.Workout `json:"workouts"`
}

func scanProgram(row pgx.Row) (*Program, error) {
	p := &Program{}
	var startDate, endDate *time.Time
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Description, &p.Goal, &p.DurationWeeks, &p.DaysPerWeek,
		&p.Difficulty, &p.Status, &p.IsActive, &startDate, &endDate, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	p.StartDate = pkg.DatePtr(startDate)
	p.EndDate = pkg.DatePtr(endDate)
	return p, nil
}

func scanProgramWorkout(row pgx.Row) (*ProgramWorkout, error) {
	pw := &ProgramWorkout{}
	var exercises []byte
	err := row.Scan(&pw.ID, &pw.ProgramID, &pw.Name, &pw.Description, &pw.WeekNumber, &pw.DayOfWeek, &exercises)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgramWorkoutNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(exercises, &pw.Exercises); err != nil {
		return nil, fmt.Errorf("unmarshal exercises of program workout %d: %w", pw.ID, err)
	}
	return pw, nil
}

func marshalExercises(exercises []ProgramExercise) ([]byte, error) {
	if exercises == nil {
		exercises = []ProgramExercise{}
	}
	b, err := json.Marshal(exercises)
	if err != nil {
		return nil, fmt.Errorf("marshal exercises: %w", err)
	}
	return b, nil
}

func getProgram(ctx context.Context, q db.Querier, userID, id int) (*Program, error) {
	return scanProgram(q.QueryRow(
		ctx,
		`SELECT `+programColumns+` FROM program WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
}

func insertProgram(ctx context.Context, q db.Querier, p Program) (*Program, error) {
	err := q.QueryRow(
		ctx,
		`INSERT INTO program
			(user_id, name, description, goal, duration_weeks, days_per_week, difficulty, status, is_active, start_date, end_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at;`,
		p.UserID, p.Name, p.Description, p.Goal, p.DurationWeeks, p.DaysPerWeek, p.Difficulty,
		p.Status, p.IsActive, p.StartDate.TimePtr(), p.EndDate.TimePtr(),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert program: %w", err)
	}
	return &p, nil
}

// listWorkouts does not check ownership, callers do.
func listWorkouts(ctx context.Context, q db.Querier, programID int) ([]ProgramWorkout, error) {
	rows, err := q.Query(
		ctx,
		`SELECT `+programWorkoutColumns+` FROM program_workout pw
			WHERE pw.program_id = $1
		ORDER BY pw.week_number, pw.id;`,
		programID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []ProgramWorkout
	for rows.Next() {
		pw, err := scanProgramWorkout(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *pw)
	}
	return list, rows.Err()
}

func insertWorkout(ctx context.Context, q db.Querier, pw ProgramWorkout) (*ProgramWorkout, error) {
	exercises, err := marshalExercises(pw.Exercises)
	if err != nil {
		return nil, err
	}
	err = q.QueryRow(
		ctx,
		`INSERT INTO program_workout (program_id, name, description, week_number, day_of_week, exercises)
			VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;`,
		pw.ProgramID, pw.Name, pw.Description, pw.WeekNumber, pw.DayOfWeek, exercises,
	).Scan(&pw.ID)
	if err != nil {
		return nil, fmt.Errorf("insert program workout: %w", err)
	}
	return &pw, nil
}

// inTx runs fn in a transaction, committing when it returns no error.
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

func (r *Repo) Add(ctx context.Context, p Program) (_ *Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	added, err := insertProgram(ctx, r.db, p)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("program.id", added.ID))
	return added, nil
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return getProgram(ctx, r.db, userID, id)
}

// List returns the user's programs, newest first.
func (r *Repo) List(ctx context.Context, userID int) (_ []Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+programColumns+` FROM program WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func (r *Repo) Update(ctx context.Context, p *Program) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", p.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE program SET
			name = $1, description = $2, goal = $3, duration_weeks = $4, days_per_week = $5,
			difficulty = $6, status = $7
		WHERE id = $8 AND user_id = $9;`,
		p.Name, p.Description, p.Goal, p.DurationWeeks, p.DaysPerWeek, p.Difficulty, p.Status,
		p.ID, p.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProgramNotFound
	}
	return nil
}

// Delete removes the program together with its program workouts.
// Workouts already scheduled from it are kept.
func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM program WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProgramNotFound
	}
	return nil
}

// Duplicate copies the program and all its workouts into a new draft.
func (r *Repo) Duplicate(ctx context.Context, userID, id int) (_ *Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.duplicate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var duplicate *Program
	err = r.inTx(ctx, func(tx pgx.Tx) error {
		original, err := getProgram(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		programWorkouts, err := listWorkouts(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("list program workouts: %w", err)
		}

		cp := *original
		cp.Name = original.Name + " (Copy)"
		cp.IsActive = false
		cp.Status = StatusDraft
		duplicate, err = insertProgram(ctx, tx, cp)
		if err != nil {
			return err
		}

		for _, pw := range programWorkouts {
			pw.ProgramID = duplicate.ID
			if _, err := insertWorkout(ctx, tx, pw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("program.duplicate.id", duplicate.ID))
	return duplicate, nil
}

// Start activates the program from startDate, deactivating the user's other
// programs, and schedules its workouts, all in one transaction.
func (r *Repo) Start(ctx context.Context, userID, id int, startDate time.Time, startDay string) (_ *StartResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.start")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	result := &StartResult{}
	err = r.inTx(ctx, func(tx pgx.Tx) error {
		program, err := getProgram(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		programWorkouts, err := listWorkouts(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("list program workouts: %w", err)
		}

		scheduled, err := Materialize(userID, id, programWorkouts, startDate, startDay)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(
			ctx,
			`UPDATE program SET is_active = false WHERE user_id = $1 AND id <> $2`,
			userID, id,
		); err != nil {
			return fmt.Errorf("deactivate programs: %w", err)
		}

		start := pkg.NewDate(startDate)
		end := pkg.NewDate(EndDate(startDate, program.DurationWeeks))
		if _, err := tx.Exec(
			ctx,
			`UPDATE program SET is_active = true, start_date = $1, end_date = $2, status = $3 WHERE id = $4`,
			start.Time, end.Time, StatusPublished, id,
		); err != nil {
			return fmt.Errorf("activate program: %w", err)
		}
		program.IsActive = true
		program.Status = StatusPublished
		program.StartDate = &start
		program.EndDate = &end
		result.Program = program

		for _, w := range scheduled {
			created, err := workouts.Insert(ctx, tx, w)
			if err != nil {
				return err
			}
			result.Workouts = append(result.Workouts, *created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("workouts.scheduled", len(result.Workouts)))
	return result, nil
}

// ListWorkouts returns the workouts of one of the user's programs.
func (r *Repo) ListWorkouts(ctx context.Context, userID, programID int) (_ []ProgramWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.list_workouts")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("program.id", programID))

	if _, err := getProgram(ctx, r.db, userID, programID); err != nil {
		return nil, err
	}
	return listWorkouts(ctx, r.db, programID)
}

func (r *Repo) AddWorkout(ctx context.Context, userID int, pw ProgramWorkout) (_ *ProgramWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.add_workout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("program.id", pw.ProgramID))

	if _, err := getProgram(ctx, r.db, userID, pw.ProgramID); err != nil {
		return nil, err
	}
	return insertWorkout(ctx, r.db, pw)
}

func (r *Repo) GetWorkout(ctx context.Context, userID, id int) (_ *ProgramWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.get_workout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return scanProgramWorkout(r.db.QueryRow(
		ctx,
		`SELECT `+programWorkoutColumns+` FROM program_workout pw
			JOIN program p ON p.id = pw.program_id
		WHERE pw.id = $1 AND p.user_id = $2`,
		id, userID,
	))
}

// UpdateWorkout keeps the program the workout belongs to.
func (r *Repo) UpdateWorkout(ctx context.Context, userID int, pw *ProgramWorkout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.update_workout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", pw.ID))

	exercises, err := marshalExercises(pw.Exercises)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(
		ctx,
		`UPDATE program_workout pw SET
			name = $1, description = $2, week_number = $3, day_of_week = $4, exercises = $5
		FROM program p
		WHERE pw.id = $6 AND pw.program_id = p.id AND p.user_id = $7
		RETURNING pw.program_id;`,
		pw.Name, pw.Description, pw.WeekNumber, pw.DayOfWeek, exercises, pw.ID, userID,
	).Scan(&pw.ProgramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProgramWorkoutNotFound
		}
		return err
	}
	return nil
}

func (r *Repo) DeleteWorkout(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.delete_workout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM program_workout pw USING program p
			WHERE pw.id = $1 AND pw.program_id = p.id AND p.user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProgramWorkoutNotFound
	}
	return nil
}
