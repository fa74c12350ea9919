package postgres

import (
	"context"

	"student-profile-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// withChildTx runs fn in a transaction and bumps the owning profile's
// updated_at before committing. A missing profile surfaces as ErrNotFound.
func (r *profileRepo) withChildTx(ctx context.Context, profileID string, fn func(tx pgx.Tx) error) error {
	if !isUUID(profileID) {
		return domain.ErrNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		if isPgCode(err, pgForeignKeyViolation) {
			return domain.ErrNotFound
		}
		return err
	}

	tag, err := tx.Exec(ctx, `UPDATE profiles SET updated_at = now() WHERE id = $1`, profileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return tx.Commit(ctx)
}

func (r *profileRepo) AddEducation(ctx context.Context, profileID string, in domain.EducationInput) (*domain.Education, error) {
	e := &domain.Education{
		ID:          uuid.NewString(),
		ProfileID:   profileID,
		Institution: in.Institution,
		Degree:      in.Degree,
		Field:       in.Field,
		StartDate:   *in.StartDate,
		EndDate:     in.EndDate,
		Description: in.Description,
	}

	err := r.withChildTx(ctx, profileID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO educations (id, profile_id, institution, degree, field, start_date, end_date, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, e.ID, profileID, e.Institution, e.Degree, e.Field, e.StartDate.String(), nullableDate(e.EndDate), nullable(e.Description))
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *profileRepo) AddExperience(ctx context.Context, profileID string, in domain.ExperienceInput) (*domain.Experience, error) {
	e := &domain.Experience{
		ID:          uuid.NewString(),
		ProfileID:   profileID,
		Company:     in.Company,
		Position:    in.Position,
		StartDate:   *in.StartDate,
		EndDate:     in.EndDate,
		Description: in.Description,
	}

	err := r.withChildTx(ctx, profileID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO experiences (id, profile_id, company, position, start_date, end_date, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, e.ID, profileID, e.Company, e.Position, e.StartDate.String(), nullableDate(e.EndDate), nullable(e.Description))
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *profileRepo) AddSkill(ctx context.Context, profileID string, name string, level int) (*domain.Skill, error) {
	s := &domain.Skill{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Name:      name,
		Level:     level,
	}

	err := r.withChildTx(ctx, profileID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO skills (id, profile_id, name, level) VALUES ($1, $2, $3, $4)`,
			s.ID, profileID, s.Name, s.Level)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// AddProject inserts the project and one image row per URL, in URL order.
func (r *profileRepo) AddProject(ctx context.Context, profileID string, in domain.ProjectInput, imageURLs []string) (*domain.Project, error) {
	p := &domain.Project{
		ID:          uuid.NewString(),
		ProfileID:   profileID,
		Name:        in.Name,
		Description: in.Description,
		GithubLink:  in.GithubLink,
		Images:      make([]domain.ProjectImage, 0, len(imageURLs)),
	}

	err := r.withChildTx(ctx, profileID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO projects (id, profile_id, name, description, github_link)
			VALUES ($1, $2, $3, $4, $5)
		`, p.ID, profileID, p.Name, nullable(p.Description), nullable(p.GithubLink))
		if err != nil {
			return err
		}

		for _, url := range imageURLs {
			img := domain.ProjectImage{ID: uuid.NewString(), ProjectID: p.ID, URL: url}
			if _, err := tx.Exec(ctx, `INSERT INTO project_images (id, project_id, url) VALUES ($1, $2, $3)`,
				img.ID, img.ProjectID, img.URL); err != nil {
				return err
			}
			p.Images = append(p.Images, img)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
