package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"student-profile-backend/internal/domain"
	"student-profile-backend/pkg/apperror"
	"student-profile-backend/pkg/logger"
	"student-profile-backend/pkg/media"
	"student-profile-backend/pkg/security"

	"github.com/go-playground/validator/v10"
)

type profileUsecase struct {
	repo     domain.ProfileRepository
	media    domain.MediaStore
	uploads  UploadGate
	audit    AuditLogger
	validate *validator.Validate
}

// NewProfileUsecase wires the owner operations. uploads and audit may be nil.
func NewProfileUsecase(repo domain.ProfileRepository, store domain.MediaStore, uploads UploadGate, audit AuditLogger, validate *validator.Validate) domain.ProfileUsecase {
	return &profileUsecase{
		repo:     repo,
		media:    store,
		uploads:  uploads,
		audit:    orNopAudit(audit),
		validate: validate,
	}
}

// GetOwnProfile returns nil, nil when the caller has not created a profile yet.
func (u *profileUsecase) GetOwnProfile(ctx context.Context, caller domain.Caller) (*domain.ProfileAggregate, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	profile, err := u.repo.GetByUserID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, apperror.Internal(fmt.Errorf("get own profile: %w", err))
	}
	return profile, nil
}

// SaveOwnProfile creates or patches the caller's profile. imageData, when set,
// must be a data URI; it is stored first and its URL replaces profile_image.
func (u *profileUsecase) SaveOwnProfile(ctx context.Context, caller domain.Caller, fields domain.ProfileFields, imageData string) (*domain.Profile, bool, error) {
	if err := requireCaller(caller); err != nil {
		return nil, false, err
	}

	fields, err := normalizeFields(fields)
	if err != nil {
		return nil, false, err
	}
	if err := validateFields(u.validate, fields); err != nil {
		return nil, false, err
	}

	var uploaded []string
	refund := func(context.Context) {}
	if imageData != "" {
		if !media.IsDataURI(imageData) {
			return nil, false, apperror.Validation("Validation failed", "Profile image must be a data:image base64 payload")
		}
		release, err := u.reserveUploads(ctx, caller, 1)
		if err != nil {
			return nil, false, err
		}
		refund = release
		urls, err := u.storeImages(ctx, caller, "save_profile", []string{imageData})
		if err != nil {
			detached(ctx, refund)
			return nil, false, err
		}
		uploaded = urls
		fields.ProfileImage = &urls[0]
	}

	profile, created, err := u.repo.Upsert(ctx, caller.ID, fields)
	if err != nil {
		discardMedia(ctx, u.media, uploaded)
		detached(ctx, refund)
		if errors.Is(err, domain.ErrProfileIncomplete) {
			return nil, false, apperror.Validation("Name and email are required to create a profile",
				"Name is required", "Email is required")
		}
		return nil, false, apperror.Internal(fmt.Errorf("save profile: %w", err))
	}

	logger.Log.Info("profile saved",
		"operation", "save_profile",
		"user_id", caller.ID,
		"profile_id", profile.ID,
		"created", created,
		"request_id", requestID(ctx),
	)
	return profile, created, nil
}

func (u *profileUsecase) AddEducation(ctx context.Context, caller domain.Caller, in domain.EducationInput) (*domain.Education, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	in.Institution = *trimmed(&in.Institution)
	in.Degree = *trimmed(&in.Degree)
	in.Field = *trimmed(&in.Field)
	in.Description = optional(in.Description)
	in.StartDate = presentDate(in.StartDate)
	in.EndDate = presentDate(in.EndDate)
	if err := validateStruct(u.validate, in); err != nil {
		return nil, err
	}
	if err := checkDateRange(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	profileID, err := u.ownProfileID(ctx, caller)
	if err != nil {
		return nil, err
	}

	education, err := u.repo.AddEducation(ctx, profileID, in)
	if err != nil {
		return nil, childError("add_education", err)
	}
	u.logChild("add_education", caller, profileID)
	return education, nil
}

func (u *profileUsecase) AddExperience(ctx context.Context, caller domain.Caller, in domain.ExperienceInput) (*domain.Experience, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	in.Company = *trimmed(&in.Company)
	in.Position = *trimmed(&in.Position)
	in.Description = optional(in.Description)
	in.StartDate = presentDate(in.StartDate)
	in.EndDate = presentDate(in.EndDate)
	if err := validateStruct(u.validate, in); err != nil {
		return nil, err
	}
	if err := checkDateRange(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	profileID, err := u.ownProfileID(ctx, caller)
	if err != nil {
		return nil, err
	}

	experience, err := u.repo.AddExperience(ctx, profileID, in)
	if err != nil {
		return nil, childError("add_experience", err)
	}
	u.logChild("add_experience", caller, profileID)
	return experience, nil
}

// AddSkill defaults an absent level to 0.
func (u *profileUsecase) AddSkill(ctx context.Context, caller domain.Caller, in domain.SkillInput) (*domain.Skill, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	in.Name = *trimmed(&in.Name)
	if err := validateStruct(u.validate, in); err != nil {
		return nil, err
	}
	level := 0
	if in.Level != nil {
		level = *in.Level
	}

	profileID, err := u.ownProfileID(ctx, caller)
	if err != nil {
		return nil, err
	}

	skill, err := u.repo.AddSkill(ctx, profileID, in.Name, level)
	if err != nil {
		return nil, childError("add_skill", err)
	}
	u.logChild("add_skill", caller, profileID)
	return skill, nil
}

// AddProject stores every embedded image before touching the database. If any
// upload or the insert fails, the images already stored are deleted again.
func (u *profileUsecase) AddProject(ctx context.Context, caller domain.Caller, in domain.ProjectInput) (*domain.Project, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	in.Name = *trimmed(&in.Name)
	in.Description = optional(in.Description)
	in.GithubLink = optional(in.GithubLink)
	if err := validateStruct(u.validate, in); err != nil {
		return nil, err
	}
	var details []string
	for i, img := range in.Images {
		if !media.IsDataURI(img) {
			details = append(details, "Image "+strconv.Itoa(i+1)+" must be a data:image base64 payload")
		}
	}
	if len(details) > 0 {
		return nil, apperror.Validation("Validation failed", details...)
	}

	profileID, err := u.ownProfileID(ctx, caller)
	if err != nil {
		return nil, err
	}

	var urls []string
	refund := func(context.Context) {}
	if len(in.Images) > 0 {
		if refund, err = u.reserveUploads(ctx, caller, len(in.Images)); err != nil {
			return nil, err
		}
		if urls, err = u.storeImages(ctx, caller, "add_project", in.Images); err != nil {
			detached(ctx, refund)
			return nil, err
		}
	}

	project, err := u.repo.AddProject(ctx, profileID, in, urls)
	if err != nil {
		discardMedia(ctx, u.media, urls)
		detached(ctx, refund)
		return nil, childError("add_project", err)
	}
	u.logChild("add_project", caller, profileID)
	return project, nil
}

func (u *profileUsecase) ownProfileID(ctx context.Context, caller domain.Caller) (string, error) {
	id, err := u.repo.GetIDByUserID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", apperror.NotFound("Profile not found. Create your profile first.")
		}
		return "", apperror.Internal(fmt.Errorf("resolve profile: %w", err))
	}
	return id, nil
}

// reserveUploads takes quota for n images. A spent quota is 429; a limiter
// fault is 503.
func (u *profileUsecase) reserveUploads(ctx context.Context, caller domain.Caller, n int) (func(context.Context), error) {
	noop := func(context.Context) {}
	if u.uploads == nil {
		return noop, nil
	}
	release, err := u.uploads.Reserve(ctx, clientIP(ctx), caller.ID, n)
	if err == nil {
		if release == nil {
			release = noop
		}
		return release, nil
	}

	var quota *security.QuotaError
	if errors.As(err, &quota) {
		u.audit.LogUserEvent(ctx, security.EventUploadRateLimited, caller.ID, requestID(ctx), map[string]interface{}{
			"scope":       quota.Scope,
			"images":      n,
			"retry_after": int(quota.RetryAfter.Seconds()),
		})
		return nil, apperror.TooManyRequests("Too many uploads. Please try again later.")
	}

	logger.Log.Error("upload limiter unavailable",
		"user_id", caller.ID,
		"request_id", requestID(ctx),
		"error", err,
	)
	return nil, apperror.Unavailable("Uploads are temporarily unavailable. Please try again later.", err)
}

// storeImages uploads sequentially, in order. On failure it deletes whatever
// it already stored and returns the mapped error.
func (u *profileUsecase) storeImages(ctx context.Context, caller domain.Caller, operation string, images []string) ([]string, error) {
	urls := make([]string, 0, len(images))
	for i, img := range images {
		url, err := u.media.Store(ctx, img)
		if err != nil {
			discardMedia(ctx, u.media, urls)
			return nil, u.uploadError(ctx, caller, operation, i, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (u *profileUsecase) uploadError(ctx context.Context, caller domain.Caller, operation string, index int, err error) error {
	label := "Image " + strconv.Itoa(index+1)
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return apperror.Validation("Validation failed", label+" exceeds the size limit")
	case errors.Is(err, media.ErrInvalidImage):
		return apperror.Validation("Validation failed", label+" is not a valid jpeg, png, gif or webp image")
	}

	logger.Log.Error("image upload failed",
		"operation", operation,
		"user_id", caller.ID,
		"image_index", index,
		"request_id", requestID(ctx),
		"error", err,
	)
	u.audit.LogUserEvent(ctx, security.EventUploadFailed, caller.ID, requestID(ctx), map[string]interface{}{
		"operation":   operation,
		"image_index": index,
	})
	return apperror.Upload(err)
}

func (u *profileUsecase) logChild(operation string, caller domain.Caller, profileID string) {
	logger.Log.Info("profile child added",
		"operation", operation,
		"user_id", caller.ID,
		"profile_id", profileID,
	)
}

func childError(operation string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return apperror.NotFound("Profile not found. Create your profile first.")
	}
	return apperror.Internal(fmt.Errorf("%s: %w", operation, err))
}
