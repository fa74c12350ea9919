package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"student-profile-backend/internal/domain"
	"student-profile-backend/pkg/apperror"
	"student-profile-backend/pkg/logger"
	"student-profile-backend/pkg/security"

	"github.com/go-playground/validator/v10"
)

type adminUsecase struct {
	repo     domain.ProfileRepository
	media    domain.MediaStore
	audit    AuditLogger
	validate *validator.Validate
	now      func() time.Time
}

func NewAdminUsecase(repo domain.ProfileRepository, store domain.MediaStore, audit AuditLogger, validate *validator.Validate) domain.AdminUsecase {
	return &adminUsecase{
		repo:     repo,
		media:    store,
		audit:    orNopAudit(audit),
		validate: validate,
		now:      time.Now,
	}
}

// ListProfiles returns the filtered aggregates plus every distinct batch.
func (u *adminUsecase) ListProfiles(ctx context.Context, caller domain.Caller, filter domain.ProfileFilter) (*domain.AdminProfileList, error) {
	if err := requireAdmin(ctx, u.audit, caller, "list_profiles"); err != nil {
		return nil, err
	}

	profiles, err := u.repo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("list profiles: %w", err))
	}
	batches, err := u.repo.DistinctBatches(ctx)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("list batches: %w", err))
	}

	if profiles == nil {
		profiles = []domain.ProfileAggregate{}
	}
	return &domain.AdminProfileList{Profiles: profiles, Batches: batches}, nil
}

// GetProfile is open to admins and to the profile's owner.
func (u *adminUsecase) GetProfile(ctx context.Context, caller domain.Caller, id string) (*domain.ProfileAggregate, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	profile, err := u.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.NotFound("Profile not found")
		}
		return nil, apperror.Internal(fmt.Errorf("get profile %s: %w", id, err))
	}

	if !caller.IsAdmin && !caller.Owns(&profile.Profile) {
		u.audit.LogUserEvent(ctx, security.EventForbiddenAccess, caller.ID, requestID(ctx), map[string]interface{}{
			"operation":  "get_profile",
			"profile_id": id,
		})
		return nil, apperror.Forbidden("You can only view your own profile")
	}
	return profile, nil
}

// UpdateProfile patches scalar fields. The profile image is not editable here.
func (u *adminUsecase) UpdateProfile(ctx context.Context, caller domain.Caller, id string, fields domain.ProfileFields) (*domain.Profile, error) {
	if err := requireAdmin(ctx, u.audit, caller, "update_profile"); err != nil {
		return nil, err
	}

	fields.ProfileImage = nil
	fields, err := normalizeFields(fields)
	if err != nil {
		return nil, err
	}
	if err := validateFields(u.validate, fields); err != nil {
		return nil, err
	}

	profile, err := u.repo.UpdateByID(ctx, id, fields)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.NotFound("Profile not found")
		}
		return nil, apperror.Internal(fmt.Errorf("update profile %s: %w", id, err))
	}

	u.audit.LogUserEvent(ctx, security.EventProfileUpdated, caller.ID, requestID(ctx), map[string]interface{}{
		"profile_id": id,
		"fields":     suppliedFields(fields),
	})
	logger.Log.Info("profile updated by admin",
		"operation", "update_profile",
		"user_id", caller.ID,
		"profile_id", id,
		"request_id", requestID(ctx),
	)
	return profile, nil
}

// DeleteProfile removes the aggregate, then the stored images it referenced.
func (u *adminUsecase) DeleteProfile(ctx context.Context, caller domain.Caller, id string) error {
	if err := requireAdmin(ctx, u.audit, caller, "delete_profile"); err != nil {
		return err
	}

	urls, err := u.repo.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperror.NotFound("Profile not found")
		}
		return apperror.Internal(fmt.Errorf("delete profile %s: %w", id, err))
	}

	u.audit.LogUserEvent(ctx, security.EventProfileDeleted, caller.ID, requestID(ctx), map[string]interface{}{
		"profile_id": id,
		"images":     len(urls),
	})
	logger.Log.Info("profile deleted by admin",
		"operation", "delete_profile",
		"user_id", caller.ID,
		"profile_id", id,
		"request_id", requestID(ctx),
	)

	discardMedia(ctx, u.media, urls)
	return nil
}

func (u *adminUsecase) ExportProfiles(ctx context.Context, caller domain.Caller, req domain.ExportRequest) (*domain.ExportFile, error) {
	if err := requireAdmin(ctx, u.audit, caller, "export_profiles"); err != nil {
		return nil, err
	}

	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format != "" && format != formatXLSX && format != formatCSV {
		return nil, apperror.Validation("Validation failed", "Format must be xlsx or csv")
	}

	profiles, err := u.repo.List(ctx, req.Filter)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("export profiles: %w", err))
	}

	file, err := renderExport(profiles, format, u.now())
	if err != nil {
		return nil, apperror.Internal(err)
	}

	u.audit.LogUserEvent(ctx, security.EventProfileExported, caller.ID, requestID(ctx), map[string]interface{}{
		"format": filepath.Ext(file.Filename),
		"rows":   len(profiles),
	})
	return file, nil
}

func suppliedFields(f domain.ProfileFields) []string {
	var names []string
	add := func(name string, p *string) {
		if p != nil {
			names = append(names, name)
		}
	}
	add("name", f.Name)
	add("email", f.Email)
	add("profession", f.Profession)
	add("batch", f.Batch)
	add("about", f.About)
	add("phone", f.Phone)
	add("linkedin", f.LinkedIn)
	return names
}
