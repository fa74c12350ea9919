package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"student-profile-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type profileRepo struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) domain.ProfileRepository {
	return &profileRepo{db: db}
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Email, &p.Profession, &p.Batch, &p.About,
		&p.ProfileImage, &p.Phone, &p.LinkedIn, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) Upsert(ctx context.Context, userID string, fields domain.ProfileFields) (*domain.Profile, bool, error) {
	p, created, err := r.upsertOnce(ctx, userID, fields)
	if isPgCode(err, pgUniqueViolation) {
		// A concurrent first save inserted the row; apply ours on top of it
		return r.upsertOnce(ctx, userID, fields)
	}
	return p, created, err
}

func (r *profileRepo) upsertOnce(ctx context.Context, userID string, fields domain.ProfileFields) (*domain.Profile, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx, `SELECT id FROM profiles WHERE user_id = $1 FOR UPDATE`, userID).Scan(&id)

	var (
		profile *domain.Profile
		created bool
	)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if isBlank(fields.Name) || isBlank(fields.Email) {
			return nil, false, domain.ErrProfileIncomplete
		}
		profile, err = insertProfile(ctx, tx, userID, fields)
		created = true
	case err != nil:
		return nil, false, err
	default:
		profile, err = updateProfile(ctx, tx, id, fields)
	}
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return profile, created, nil
}

func insertProfile(ctx context.Context, q querier, userID string, f domain.ProfileFields) (*domain.Profile, error) {
	query := `
		INSERT INTO profiles (id, user_id, name, email, profession, batch, about, profile_image, phone, linkedin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + profileColumns
	return scanProfile(q.QueryRow(ctx, query,
		uuid.NewString(), userID, *f.Name, *f.Email,
		nullable(f.Profession), nullable(f.Batch), nullable(f.About),
		nullable(f.ProfileImage), nullable(f.Phone), nullable(f.LinkedIn),
	))
}

func updateProfile(ctx context.Context, q querier, id string, f domain.ProfileFields) (*domain.Profile, error) {
	sets, args := buildProfilePatch(f, 2)
	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE id = $1 RETURNING %s`, strings.Join(sets, ", "), profileColumns)
	return scanProfile(q.QueryRow(ctx, query, append([]interface{}{id}, args...)...))
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID string) (*domain.ProfileAggregate, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID))
	if err != nil {
		return nil, err
	}
	return assembleOne(ctx, r.db, p)
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*domain.ProfileAggregate, error) {
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	return assembleOne(ctx, r.db, p)
}

func (r *profileRepo) GetIDByUserID(ctx context.Context, userID string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `SELECT id FROM profiles WHERE user_id = $1`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return id, nil
}

func (r *profileRepo) UpdateByID(ctx context.Context, id string, fields domain.ProfileFields) (*domain.Profile, error) {
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	return updateProfile(ctx, r.db, id, fields)
}

// DeleteByID removes children bottom-up, then the profile, in one transaction.
func (r *profileRepo) DeleteByID(ctx context.Context, id string) ([]string, error) {
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var profileImage *string
	err = tx.QueryRow(ctx, `SELECT profile_image FROM profiles WHERE id = $1 FOR UPDATE`, id).Scan(&profileImage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT pi.url FROM project_images pi
		JOIN projects p ON p.id = pi.project_id
		WHERE p.profile_id = $1
		ORDER BY pi.seq
	`, id)
	if err != nil {
		return nil, err
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if profileImage != nil {
		urls = append(urls, *profileImage)
	}

	statements := []string{
		`DELETE FROM project_images WHERE project_id IN (SELECT id FROM projects WHERE profile_id = $1)`,
		`DELETE FROM projects WHERE profile_id = $1`,
		`DELETE FROM skills WHERE profile_id = $1`,
		`DELETE FROM experiences WHERE profile_id = $1`,
		`DELETE FROM educations WHERE profile_id = $1`,
		`DELETE FROM profiles WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt, id); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return urls, nil
}

// List returns assembled profiles matching filter, most recently updated first.
func (r *profileRepo) List(ctx context.Context, filter domain.ProfileFilter) ([]domain.ProfileAggregate, error) {
	where, args := buildProfileFilter(filter, 1)
	query := fmt.Sprintf(`SELECT %s FROM profiles %s ORDER BY updated_at DESC, id DESC`, profileColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assemble(ctx, r.db, profiles)
}

// DistinctBatches returns every non-empty batch value in ascending order
func (r *profileRepo) DistinctBatches(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT batch
		FROM profiles
		WHERE batch IS NOT NULL AND batch != ''
		ORDER BY batch
	`)
	if err != nil {
		return nil, err
	}

	batches, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return orEmpty(batches), nil
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
