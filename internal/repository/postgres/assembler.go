package postgres

import (
	"context"
	"time"

	"student-profile-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// childSet holds child rows grouped by owner id, each group in insertion order.
type childSet struct {
	education  map[string][]domain.Education
	experience map[string][]domain.Experience
	skills     map[string][]domain.Skill
	projects   map[string][]domain.Project
	images     map[string][]domain.ProjectImage // keyed by project id
}

// attach stitches children onto each profile. Collections are never nil.
func (s childSet) attach(profiles []domain.Profile) []domain.ProfileAggregate {
	out := make([]domain.ProfileAggregate, 0, len(profiles))
	for _, p := range profiles {
		agg := domain.ProfileAggregate{
			Profile:    p,
			Education:  orEmpty(s.education[p.ID]),
			Experience: orEmpty(s.experience[p.ID]),
			Skills:     orEmpty(s.skills[p.ID]),
			Projects:   make([]domain.Project, 0, len(s.projects[p.ID])),
		}
		for _, proj := range s.projects[p.ID] {
			proj.Images = orEmpty(s.images[proj.ID])
			agg.Projects = append(agg.Projects, proj)
		}
		out = append(out, agg)
	}
	return out
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// assemble loads every child collection for the given profiles in one query
// per table and returns the aggregates in the input order.
func assemble(ctx context.Context, q querier, profiles []domain.Profile) ([]domain.ProfileAggregate, error) {
	if len(profiles) == 0 {
		return []domain.ProfileAggregate{}, nil
	}

	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}

	var (
		set childSet
		err error
	)
	if set.education, err = loadEducation(ctx, q, ids); err != nil {
		return nil, err
	}
	if set.experience, err = loadExperience(ctx, q, ids); err != nil {
		return nil, err
	}
	if set.skills, err = loadSkills(ctx, q, ids); err != nil {
		return nil, err
	}
	if set.projects, err = loadProjects(ctx, q, ids); err != nil {
		return nil, err
	}
	if set.images, err = loadProjectImages(ctx, q, ids); err != nil {
		return nil, err
	}

	return set.attach(profiles), nil
}

func assembleOne(ctx context.Context, q querier, p *domain.Profile) (*domain.ProfileAggregate, error) {
	aggs, err := assemble(ctx, q, []domain.Profile{*p})
	if err != nil {
		return nil, err
	}
	return &aggs[0], nil
}

func loadEducation(ctx context.Context, q querier, ids []string) (map[string][]domain.Education, error) {
	rows, err := q.Query(ctx, `
		SELECT id, profile_id, institution, degree, field, start_date, end_date, description
		FROM educations
		WHERE profile_id = ANY($1::uuid[])
		ORDER BY seq
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]domain.Education{}
	for rows.Next() {
		var (
			e     domain.Education
			start time.Time
			end   *time.Time
		)
		if err := rows.Scan(&e.ID, &e.ProfileID, &e.Institution, &e.Degree, &e.Field, &start, &end, &e.Description); err != nil {
			return nil, err
		}
		e.StartDate = domain.NewDate(start)
		e.EndDate = toDate(end)
		out[e.ProfileID] = append(out[e.ProfileID], e)
	}
	return out, rows.Err()
}

func loadExperience(ctx context.Context, q querier, ids []string) (map[string][]domain.Experience, error) {
	rows, err := q.Query(ctx, `
		SELECT id, profile_id, company, position, start_date, end_date, description
		FROM experiences
		WHERE profile_id = ANY($1::uuid[])
		ORDER BY seq
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]domain.Experience{}
	for rows.Next() {
		var (
			e     domain.Experience
			start time.Time
			end   *time.Time
		)
		if err := rows.Scan(&e.ID, &e.ProfileID, &e.Company, &e.Position, &start, &end, &e.Description); err != nil {
			return nil, err
		}
		e.StartDate = domain.NewDate(start)
		e.EndDate = toDate(end)
		out[e.ProfileID] = append(out[e.ProfileID], e)
	}
	return out, rows.Err()
}

func loadSkills(ctx context.Context, q querier, ids []string) (map[string][]domain.Skill, error) {
	rows, err := q.Query(ctx, `
		SELECT id, profile_id, name, level
		FROM skills
		WHERE profile_id = ANY($1::uuid[])
		ORDER BY seq
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]domain.Skill{}
	for rows.Next() {
		var s domain.Skill
		if err := rows.Scan(&s.ID, &s.ProfileID, &s.Name, &s.Level); err != nil {
			return nil, err
		}
		out[s.ProfileID] = append(out[s.ProfileID], s)
	}
	return out, rows.Err()
}

func loadProjects(ctx context.Context, q querier, ids []string) (map[string][]domain.Project, error) {
	rows, err := q.Query(ctx, `
		SELECT id, profile_id, name, description, github_link
		FROM projects
		WHERE profile_id = ANY($1::uuid[])
		ORDER BY seq
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]domain.Project{}
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.ProfileID, &p.Name, &p.Description, &p.GithubLink); err != nil {
			return nil, err
		}
		out[p.ProfileID] = append(out[p.ProfileID], p)
	}
	return out, rows.Err()
}

func loadProjectImages(ctx context.Context, q querier, profileIDs []string) (map[string][]domain.ProjectImage, error) {
	rows, err := q.Query(ctx, `
		SELECT pi.id, pi.project_id, pi.url
		FROM project_images pi
		JOIN projects p ON p.id = pi.project_id
		WHERE p.profile_id = ANY($1::uuid[])
		ORDER BY pi.seq
	`, profileIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]domain.ProjectImage{}
	for rows.Next() {
		var img domain.ProjectImage
		if err := rows.Scan(&img.ID, &img.ProjectID, &img.URL); err != nil {
			return nil, err
		}
		out[img.ProjectID] = append(out[img.ProjectID], img)
	}
	return out, rows.Err()
}

func toDate(t *time.Time) *domain.Date {
	if t == nil {
		return nil
	}
	d := domain.NewDate(*t)
	return &d
}
