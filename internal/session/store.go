package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/workouts"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrSessionNotFound = errors.New("active session not found")

const activeSessionColumns = `id, user_id, workout_id, workout_name, start_time, last_saved_time, session_data`

// Store persists unfinished sessions in the active_session table.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		db: db,
	}
}

func scanActiveSession(row pgx.Row) (*ActiveSession, error) {
	as := &ActiveSession{}
	var data []byte
	err := row.Scan(&as.ID, &as.UserID, &as.WorkoutID, &as.WorkoutName, &as.StartTime, &as.LastSavedTime, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &as.SessionData); err != nil {
		return nil, fmt.Errorf("unmarshal session data of %d: %w", as.ID, err)
	}
	return as, nil
}

// Save inserts or replaces the user's active session for the workout.
func (s *Store) Save(ctx context.Context, as ActiveSession) (_ *ActiveSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.session.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", as.WorkoutID))

	data, err := json.Marshal(as.SessionData)
	if err != nil {
		return nil, fmt.Errorf("marshal session data: %w", err)
	}

	err = s.db.QueryRow(
		ctx,
		`INSERT INTO active_session (user_id, workout_id, workout_name, start_time, last_saved_time, session_data)
			VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, workout_id) DO UPDATE SET
			workout_name = EXCLUDED.workout_name,
			start_time = EXCLUDED.start_time,
			last_saved_time = EXCLUDED.last_saved_time,
			session_data = EXCLUDED.session_data
		RETURNING id;`,
		as.UserID, as.WorkoutID, as.WorkoutName, as.StartTime, as.LastSavedTime, data,
	).Scan(&as.ID)
	if err != nil {
		return nil, fmt.Errorf("upsert active session: %w", err)
	}
	return &as, nil
}

func (s *Store) Get(ctx context.Context, userID, workoutID int) (_ *ActiveSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.session.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", workoutID))

	return scanActiveSession(s.db.QueryRow(
		ctx,
		`SELECT `+activeSessionColumns+` FROM active_session WHERE user_id = $1 AND workout_id = $2`,
		userID, workoutID,
	))
}

func (s *Store) GetByID(ctx context.Context, userID, id int) (_ *ActiveSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.session.get_by_id")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return scanActiveSession(s.db.QueryRow(
		ctx,
		`SELECT `+activeSessionColumns+` FROM active_session WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
}

func (s *Store) ListUnfinished(ctx context.Context, userID int) (_ []ActiveSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.session.list_unfinished")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.Query(
		ctx,
		`SELECT `+activeSessionColumns+` FROM active_session WHERE user_id = $1 ORDER BY last_saved_time DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []ActiveSession
	for rows.Next() {
		as, err := scanActiveSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *as)
	}
	return sessions, rows.Err()
}

func (s *Store) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.session.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := s.db.Exec(ctx, `DELETE FROM active_session WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Complete marks the workout completed with its final sections and drops the
// user's active session for it, in one transaction. A missing active session
// is not an error.
func (s *Store) Complete(
	ctx context.Context,
	userID, workoutID int,
	completedDate time.Time,
	durationMinutes int,
	sections []workouts.Section,
) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.session.complete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", workoutID))

	tx, err := s.db.Begin(ctx)
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

	if err = workouts.CompleteIn(ctx, tx, userID, workoutID, completedDate, durationMinutes, sections); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `DELETE FROM active_session WHERE user_id = $1 AND workout_id = $2`, userID, workoutID)
	return err
}
