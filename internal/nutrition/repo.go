package nutrition

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const foodLogColumns = `id, user_id, date, food_name, meal_type, serving_size, calories, protein, carbs, fats, notes, created_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func scanFoodLog(row pgx.Row) (*FoodLog, error) {
	fl := &FoodLog{}
	var date time.Time
	err := row.Scan(
		&fl.ID, &fl.UserID, &date, &fl.FoodName, &fl.MealType, &fl.ServingSize,
		&fl.Calories, &fl.Protein, &fl.Carbs, &fl.Fats, &fl.Notes, &fl.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFoodLogNotFound
		}
		return nil, err
	}
	fl.Date = pkg.NewDate(date)
	return fl, nil
}

func (r *Repo) Add(ctx context.Context, fl FoodLog) (_ *FoodLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.nutrition.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return scanFoodLog(r.db.QueryRow(
		ctx,
		`INSERT INTO food_log (user_id, date, food_name, meal_type, serving_size, calories, protein, carbs, fats, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+foodLogColumns,
		fl.UserID, fl.Date.Time, fl.FoodName, fl.MealType, fl.ServingSize,
		fl.Calories, fl.Protein, fl.Carbs, fl.Fats, fl.Notes,
	))
}

func (r *Repo) Update(ctx context.Context, fl *FoodLog) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.nutrition.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", fl.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE food_log SET date = $1, food_name = $2, meal_type = $3, serving_size = $4,
			calories = $5, protein = $6, carbs = $7, fats = $8, notes = $9
		WHERE id = $10 AND user_id = $11;`,
		fl.Date.Time, fl.FoodName, fl.MealType, fl.ServingSize,
		fl.Calories, fl.Protein, fl.Carbs, fl.Fats, fl.Notes, fl.ID, fl.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFoodLogNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.nutrition.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM food_log WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFoodLogNotFound
	}
	return nil
}

// ListRange returns logs with from <= date <= to, oldest first.
func (r *Repo) ListRange(ctx context.Context, userID int, from, to time.Time) (_ []FoodLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.nutrition.list_range")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("from", pkg.FormatDate(from)),
		attribute.String("to", pkg.FormatDate(to)),
	)

	rows, err := r.db.Query(
		ctx,
		`SELECT `+foodLogColumns+` FROM food_log
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC, created_at ASC, id ASC`,
		userID, pkg.Day(from), pkg.Day(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []FoodLog
	for rows.Next() {
		fl, err := scanFoodLog(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *fl)
	}
	return list, rows.Err()
}

func (r *Repo) ListByDate(ctx context.Context, userID int, date time.Time) ([]FoodLog, error) {
	return r.ListRange(ctx, userID, date, date)
}
