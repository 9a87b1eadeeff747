package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const trainerLogColumns = `id, user_id, questions, responses, feedback, feedback_html,
	workout_plan, suggested_macros, plan_accepted, created_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func scanTrainerLog(row pgx.Row) (*TrainerLog, error) {
	l := &TrainerLog{}
	var questions, responses, plan, macros []byte
	err := row.Scan(
		&l.ID, &l.UserID, &questions, &responses, &l.Feedback, &l.FeedbackHTML,
		&plan, &macros, &l.PlanAccepted, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerLogNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(questions, &l.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	if err := json.Unmarshal(responses, &l.Responses); err != nil {
		return nil, fmt.Errorf("unmarshal responses: %w", err)
	}
	if plan != nil {
		if err := json.Unmarshal(plan, &l.WorkoutPlan); err != nil {
			return nil, fmt.Errorf("unmarshal workout plan: %w", err)
		}
	}
	if macros != nil {
		if err := json.Unmarshal(macros, &l.SuggestedMacros); err != nil {
			return nil, fmt.Errorf("unmarshal suggested macros: %w", err)
		}
	}
	return l, nil
}

// nullableJSON keeps nil pointers as SQL NULL.
func nullableJSON[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (r *Repo) Add(ctx context.Context, l TrainerLog) (_ *TrainerLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.coach.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if l.Questions == nil {
		l.Questions = []string{}
	}
	if l.Responses == nil {
		l.Responses = []Answer{}
	}
	questions, err := json.Marshal(l.Questions)
	if err != nil {
		return nil, err
	}
	responses, err := json.Marshal(l.Responses)
	if err != nil {
		return nil, err
	}
	plan, err := nullableJSON(l.WorkoutPlan)
	if err != nil {
		return nil, err
	}
	macros, err := nullableJSON(l.SuggestedMacros)
	if err != nil {
		return nil, err
	}

	return scanTrainerLog(r.db.QueryRow(
		ctx,
		`INSERT INTO ai_trainer_log
			(user_id, questions, responses, feedback, feedback_html, workout_plan, suggested_macros, plan_accepted)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+trainerLogColumns,
		l.UserID, questions, responses, l.Feedback, l.FeedbackHTML, plan, macros, l.PlanAccepted,
	))
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *TrainerLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.coach.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return scanTrainerLog(r.db.QueryRow(
		ctx,
		`SELECT `+trainerLogColumns+` FROM ai_trainer_log WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
}

// List returns the newest logs first.
func (r *Repo) List(ctx context.Context, userID, limit int) (_ []TrainerLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.coach.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+trainerLogColumns+` FROM ai_trainer_log
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []TrainerLog
	for rows.Next() {
		l, err := scanTrainerLog(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *l)
	}
	return list, rows.Err()
}

func (r *Repo) SetAccepted(ctx context.Context, userID, id int, accepted bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.coach.set_accepted")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id), attribute.Bool("accepted", accepted))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE ai_trainer_log SET plan_accepted = $1 WHERE id = $2 AND user_id = $3`,
		accepted, id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTrainerLogNotFound
	}
	return nil
}
