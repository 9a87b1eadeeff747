package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const progressLogColumns = `id, user_id, date, weight, body_fat_percentage, measurements, photo_url, notes, created_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func scanProgressLog(row pgx.Row) (*ProgressLog, error) {
	pl := &ProgressLog{}
	var (
		date         time.Time
		measurements []byte
	)
	err := row.Scan(
		&pl.ID, &pl.UserID, &date, &pl.Weight, &pl.BodyFatPercentage,
		&measurements, &pl.PhotoURL, &pl.Notes, &pl.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgressLogNotFound
		}
		return nil, err
	}
	pl.Date = pkg.NewDate(date)
	if err := json.Unmarshal(measurements, &pl.Measurements); err != nil {
		return nil, fmt.Errorf("unmarshal measurements: %w", err)
	}
	return pl, nil
}

func marshalMeasurements(m map[string]float64) ([]byte, error) {
	if m == nil {
		m = map[string]float64{}
	}
	return json.Marshal(m)
}

func (r *Repo) Add(ctx context.Context, pl ProgressLog) (_ *ProgressLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	measurements, err := marshalMeasurements(pl.Measurements)
	if err != nil {
		return nil, err
	}

	return scanProgressLog(r.db.QueryRow(
		ctx,
		`INSERT INTO progress_log (user_id, date, weight, body_fat_percentage, measurements, photo_url, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+progressLogColumns,
		pl.UserID, pl.Date.Time, pl.Weight, pl.BodyFatPercentage, measurements, pl.PhotoURL, pl.Notes,
	))
}

// Update keeps the stored photo_url, photos change through SetPhoto.
func (r *Repo) Update(ctx context.Context, pl *ProgressLog) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", pl.ID))

	measurements, err := marshalMeasurements(pl.Measurements)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(
		ctx,
		`UPDATE progress_log SET date = $1, weight = $2, body_fat_percentage = $3, measurements = $4, notes = $5
		WHERE id = $6 AND user_id = $7
		RETURNING photo_url, created_at;`,
		pl.Date.Time, pl.Weight, pl.BodyFatPercentage, measurements, pl.Notes, pl.ID, pl.UserID,
	).Scan(&pl.PhotoURL, &pl.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrProgressLogNotFound
	}
	return err
}

// Delete returns the photo url of the removed log.
func (r *Repo) Delete(ctx context.Context, userID, id int) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var photoURL string
	err = r.db.QueryRow(
		ctx,
		`DELETE FROM progress_log WHERE id = $1 AND user_id = $2 RETURNING photo_url`,
		id, userID,
	).Scan(&photoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrProgressLogNotFound
		}
		return "", err
	}
	return photoURL, nil
}

// Recent returns the newest logs first. limit <= 0 returns all of them.
func (r *Repo) Recent(ctx context.Context, userID, limit int) (_ []ProgressLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.recent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("limit", limit))

	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT `+progressLogColumns+` FROM progress_log
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC, id DESC
		LIMIT $2`,
		userID, limitArg,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []ProgressLog
	for rows.Next() {
		pl, err := scanProgressLog(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *pl)
	}
	return list, rows.Err()
}

// SetPhoto links url to the log and returns the previous photo url.
func (r *Repo) SetPhoto(ctx context.Context, userID, id int, url string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.set_photo")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var previous string
	err = r.db.QueryRow(
		ctx,
		`UPDATE progress_log p SET photo_url = $1 FROM progress_log old
		WHERE p.id = old.id AND p.id = $2 AND p.user_id = $3
		RETURNING old.photo_url`,
		url, id, userID,
	).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrProgressLogNotFound
		}
		return "", err
	}
	return previous, nil
}
