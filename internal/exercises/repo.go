package exercises

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const exerciseColumns = `id, name, instructions, video_url, image_url, primary_muscle_group,
	secondary_muscle_groups, equipment_needed, difficulty_level, created_by, created_at`

// MediaField selects which url column a media upload updates.
type MediaField string

const (
	MediaImage MediaField = "image_url"
	MediaVideo MediaField = "video_url"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func scanExercise(row pgx.Row) (*Exercise, error) {
	ex := &Exercise{}
	err := row.Scan(
		&ex.ID,
		&ex.Name,
		&ex.Instructions,
		&ex.VideoURL,
		&ex.ImageURL,
		&ex.PrimaryMuscleGroup,
		&ex.SecondaryMuscleGroups,
		&ex.EquipmentNeeded,
		&ex.DifficultyLevel,
		&ex.CreatedBy,
		&ex.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return ex, nil
}

func (r *Repo) Add(ctx context.Context, ex Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return scanExercise(r.db.QueryRow(
		ctx,
		`INSERT INTO exercise (name, instructions, video_url, image_url, primary_muscle_group,
				secondary_muscle_groups, equipment_needed, difficulty_level, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+exerciseColumns,
		ex.Name, ex.Instructions, ex.VideoURL, ex.ImageURL, ex.PrimaryMuscleGroup,
		ex.SecondaryMuscleGroups, ex.EquipmentNeeded, ex.DifficultyLevel, ex.CreatedBy,
	))
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return scanExercise(r.db.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercise WHERE id = $1`, id))
}

// List filters by muscle group (primary or secondary), difficulty and a name substring.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	if params.MuscleGroup != "" {
		span.SetAttributes(attribute.String("params.muscleGroup", params.MuscleGroup))
	}
	if params.Difficulty != "" {
		span.SetAttributes(attribute.String("params.difficulty", params.Difficulty))
	}

	rows, err := r.db.Query(
		ctx,
		`
			SELECT `+exerciseColumns+`
			FROM exercise
			WHERE ($1::text = '' OR primary_muscle_group = $1 OR $1 = ANY(secondary_muscle_groups))
				AND ($2::text = '' OR difficulty_level = $2)
				AND ($3::text = '' OR name ILIKE '%' || $3 || '%')
			ORDER BY name
		`,
		params.MuscleGroup,
		params.Difficulty,
		params.Search,
	)
	if err != nil {
		return nil, fmt.Errorf("exercises [query]: %w", err)
	}
	defer rows.Close()

	var list []Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("exercises [rows scan]: %w", err)
		}
		list = append(list, *ex)
	}
	return list, rows.Err()
}

// Update changes an exercise created by userID.
func (r *Repo) Update(ctx context.Context, userID int, ex *Exercise) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", ex.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exercise SET name = $1, instructions = $2, video_url = $3, image_url = $4, primary_muscle_group = $5,
			secondary_muscle_groups = $6, equipment_needed = $7, difficulty_level = $8
		WHERE id = $9 AND created_by = $10;`,
		ex.Name, ex.Instructions, ex.VideoURL, ex.ImageURL, ex.PrimaryMuscleGroup,
		ex.SecondaryMuscleGroups, ex.EquipmentNeeded, ex.DifficultyLevel, ex.ID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM exercise WHERE id = $1 AND created_by = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}
	return nil
}

// SetMedia stores url in the image or video column and returns the previous value.
func (r *Repo) SetMedia(ctx context.Context, userID, id int, field MediaField, url string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.set_media")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id), attribute.String("field", string(field)))

	var query string
	switch field {
	case MediaImage:
		query = `UPDATE exercise e SET image_url = $1 FROM exercise old
			WHERE e.id = old.id AND e.id = $2 AND e.created_by = $3 RETURNING old.image_url`
	case MediaVideo:
		query = `UPDATE exercise e SET video_url = $1 FROM exercise old
			WHERE e.id = old.id AND e.id = $2 AND e.created_by = $3 RETURNING old.video_url`
	default:
		return "", fmt.Errorf("unknown media field: %s", field)
	}

	var previous string
	if err := r.db.QueryRow(ctx, query, url, id, userID).Scan(&previous); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrExerciseNotFound
		}
		return "", err
	}
	return previous, nil
}
