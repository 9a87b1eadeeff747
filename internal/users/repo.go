package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const userColumns = `
	id, email, password_hash, full_name, unit_system, current_weight, goal_weight, height,
	fitness_goal, fitness_experience_level, activity_level, previous_injuries, current_injuries,
	macro_goals, created_at
`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	var macroGoals []byte
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.UnitSystem,
		&u.CurrentWeight, &u.GoalWeight, &u.Height,
		&u.FitnessGoal, &u.FitnessExperienceLevel, &u.ActivityLevel,
		&u.PreviousInjuries, &u.CurrentInjuries,
		&macroGoals, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if len(macroGoals) > 0 {
		u.MacroGoals = &MacroGoals{}
		if err := json.Unmarshal(macroGoals, u.MacroGoals); err != nil {
			return nil, fmt.Errorf("unmarshal macro goals: %w", err)
		}
	}
	return u, nil
}

func marshalMacroGoals(g *MacroGoals) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	return json.Marshal(g)
}

func (r *Repo) Add(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	macroGoals, err := marshalMacroGoals(user.MacroGoals)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO app_user (email, password_hash, full_name, unit_system, macro_goals)
			VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at;`,
		strings.ToLower(user.Email), user.PasswordHash, user.FullName, user.UnitSystem, macroGoals,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))
	user.Email = strings.ToLower(user.Email)
	return &user, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE id = $1`, id))
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get_by_email")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return scanUser(r.db.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM app_user WHERE email = $1`,
		strings.ToLower(email),
	))
}

func (r *Repo) Update(ctx context.Context, user *User) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", user.ID))

	macroGoals, err := marshalMacroGoals(user.MacroGoals)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE app_user SET
			full_name = $1, unit_system = $2, current_weight = $3, goal_weight = $4, height = $5,
			fitness_goal = $6, fitness_experience_level = $7, activity_level = $8,
			previous_injuries = $9, current_injuries = $10, macro_goals = $11
		WHERE id = $12;`,
		user.FullName, user.UnitSystem, user.CurrentWeight, user.GoalWeight, user.Height,
		user.FitnessGoal, user.FitnessExperienceLevel, user.ActivityLevel,
		user.PreviousInjuries, user.CurrentInjuries, macroGoals,
		user.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repo) UpdateMacroGoals(ctx context.Context, userID int, goals MacroGoals) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.update_macro_goals")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", userID))

	macroGoals, err := json.Marshal(goals)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `UPDATE app_user SET macro_goals = $1 WHERE id = $2`, macroGoals, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
