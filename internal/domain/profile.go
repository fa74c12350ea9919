package domain

import (
	"context"
	"time"
)

// Profile is the scalar row owned by exactly one identity.
// Optional fields are nil when unset; they are never empty strings.
type Profile struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Profession   *string   `json:"profession"`
	Batch        *string   `json:"batch"`
	About        *string   `json:"about"`
	ProfileImage *string   `json:"profile_image"`
	Phone        *string   `json:"phone"`
	LinkedIn     *string   `json:"linkedin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Education struct {
	ID          string  `json:"id"`
	ProfileID   string  `json:"profile_id"`
	Institution string  `json:"institution"`
	Degree      string  `json:"degree"`
	Field       string  `json:"field"`
	StartDate   Date    `json:"start_date"`
	EndDate     *Date   `json:"end_date"` // nil means ongoing
	Description *string `json:"description"`
}

type Experience struct {
	ID          string  `json:"id"`
	ProfileID   string  `json:"profile_id"`
	Company     string  `json:"company"`
	Position    string  `json:"position"`
	StartDate   Date    `json:"start_date"`
	EndDate     *Date   `json:"end_date"` // nil means ongoing
	Description *string `json:"description"`
}

type Skill struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
}

type Project struct {
	ID          string         `json:"id"`
	ProfileID   string         `json:"profile_id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	GithubLink  *string        `json:"github_link"`
	Images      []ProjectImage `json:"images"`
}

type ProjectImage struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	URL       string `json:"url"`
}

// ProfileAggregate is a Profile with every child collection attached.
// It is the only shape returned by profile reads.
type ProfileAggregate struct {
	Profile
	Education  []Education  `json:"education"`
	Experience []Experience `json:"experience"`
	Skills     []Skill      `json:"skills"`
	Projects   []Project    `json:"projects"`
}

// ProfileFields is a partial set of scalar profile fields.
// A nil pointer means "not supplied"; a pointer to "" clears an optional field.
type ProfileFields struct {
	Name         *string `json:"name" validate:"omitempty,max=120,valid_name"`
	Email        *string `json:"email" validate:"omitempty,email,max=254"`
	Profession   *string `json:"profession" validate:"omitempty,max=120,no_emoji"`
	Batch        *string `json:"batch" validate:"omitempty,max=40"`
	About        *string `json:"about" validate:"omitempty,max=2000"`
	ProfileImage *string `json:"profile_image" validate:"omitempty,url"`
	Phone        *string `json:"phone" validate:"omitempty,valid_phone"`
	LinkedIn     *string `json:"linkedin" validate:"omitempty,url"`
}

// IsEmpty reports whether no field was supplied.
func (f ProfileFields) IsEmpty() bool {
	return f.Name == nil && f.Email == nil && f.Profession == nil && f.Batch == nil &&
		f.About == nil && f.ProfileImage == nil && f.Phone == nil && f.LinkedIn == nil
}

type EducationInput struct {
	Institution string  `json:"institution" validate:"required,max=200"`
	Degree      string  `json:"degree" validate:"required,max=120"`
	Field       string  `json:"field" validate:"required,max=120"`
	StartDate   *Date   `json:"start_date" validate:"required"`
	EndDate     *Date   `json:"end_date"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type ExperienceInput struct {
	Company     string  `json:"company" validate:"required,max=200"`
	Position    string  `json:"position" validate:"required,max=120"`
	StartDate   *Date   `json:"start_date" validate:"required"`
	EndDate     *Date   `json:"end_date"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type SkillInput struct {
	Name  string `json:"name" validate:"required,max=80"`
	Level *int   `json:"level" validate:"omitempty,min=0,max=100"`
}

type ProjectInput struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	GithubLink  *string  `json:"github_link" validate:"omitempty,url"`
	Images      []string `json:"images" validate:"max=10"`
}

// ProfileRepository owns persistence of the profile aggregate.
type ProfileRepository interface {
	// Upsert creates the owner's profile or patches it in place. The bool is true
	// when a row was created. Creation without name and email fails with ErrProfileIncomplete.
	Upsert(ctx context.Context, userID string, fields ProfileFields) (*Profile, bool, error)
	GetByUserID(ctx context.Context, userID string) (*ProfileAggregate, error)
	GetByID(ctx context.Context, id string) (*ProfileAggregate, error)
	GetIDByUserID(ctx context.Context, userID string) (string, error)
	UpdateByID(ctx context.Context, id string, fields ProfileFields) (*Profile, error)
	// DeleteByID removes the profile and all children, returning the removed image URLs.
	DeleteByID(ctx context.Context, id string) ([]string, error)
	List(ctx context.Context, filter ProfileFilter) ([]ProfileAggregate, error)
	DistinctBatches(ctx context.Context) ([]string, error)

	AddEducation(ctx context.Context, profileID string, in EducationInput) (*Education, error)
	AddExperience(ctx context.Context, profileID string, in ExperienceInput) (*Experience, error)
	AddSkill(ctx context.Context, profileID string, name string, level int) (*Skill, error)
	AddProject(ctx context.Context, profileID string, in ProjectInput, imageURLs []string) (*Project, error)
}

// ProfileUsecase holds the operations available to a profile owner.
type ProfileUsecase interface {
	GetOwnProfile(ctx context.Context, caller Caller) (*ProfileAggregate, error)
	SaveOwnProfile(ctx context.Context, caller Caller, fields ProfileFields, imageData string) (*Profile, bool, error)
	AddEducation(ctx context.Context, caller Caller, in EducationInput) (*Education, error)
	AddExperience(ctx context.Context, caller Caller, in ExperienceInput) (*Experience, error)
	AddSkill(ctx context.Context, caller Caller, in SkillInput) (*Skill, error)
	AddProject(ctx context.Context, caller Caller, in ProjectInput) (*Project, error)
}
