package usecase

import (
	"context"
	"strings"
	"time"

	"student-profile-backend/internal/domain"
	"student-profile-backend/pkg/apperror"
	"student-profile-backend/pkg/logger"
	"student-profile-backend/pkg/security"
	"student-profile-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// AuditLogger records security-relevant events; *security.SecurityLogger satisfies it.
type AuditLogger interface {
	LogUserEvent(ctx context.Context, event security.EventType, userID, requestID string, details map[string]interface{})
}

// UploadGate meters stored images; *security.UploadLimiter satisfies it.
// Reserve returns *security.QuotaError when the quota is spent and a non-nil
// release that refunds the reservation.
type UploadGate interface {
	Reserve(ctx context.Context, ip, userID string, images int) (release func(context.Context), err error)
}

type nopAudit struct{}

func (nopAudit) LogUserEvent(context.Context, security.EventType, string, string, map[string]interface{}) {
}

func orNopAudit(a AuditLogger) AuditLogger {
	if a == nil {
		return nopAudit{}
	}
	return a
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(domain.KeyRequestID).(string)
	return id
}

func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(domain.KeyClientIP).(string)
	return ip
}

func requireCaller(caller domain.Caller) error {
	if caller.ID == "" {
		return apperror.Unauthorized("Unauthorized")
	}
	return nil
}

func requireAdmin(ctx context.Context, audit AuditLogger, caller domain.Caller, operation string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !caller.IsAdmin {
		audit.LogUserEvent(ctx, security.EventForbiddenAccess, caller.ID, requestID(ctx), map[string]interface{}{
			"operation": operation,
		})
		return apperror.Forbidden("Admin access required")
	}
	return nil
}

// validateStruct runs go-playground validation and converts failures to a 400.
func validateStruct(v *validator.Validate, s interface{}) error {
	if err := v.Struct(s); err != nil {
		return apperror.Validation("Validation failed", validation.FormatValidationErrors(err)...)
	}
	return nil
}

// validateFields validates the supplied values. Blank optionals mean "clear"
// and are not checked against format rules.
func validateFields(v *validator.Validate, f domain.ProfileFields) error {
	check := f
	for _, p := range fieldPtrs(&check) {
		if *p != nil && **p == "" {
			*p = nil
		}
	}
	return validateStruct(v, check)
}

func fieldPtrs(f *domain.ProfileFields) []**string {
	return []**string{&f.Name, &f.Email, &f.Profession, &f.Batch, &f.About, &f.ProfileImage, &f.Phone, &f.LinkedIn}
}

// normalizeFields trims every supplied value and composes it to NFC, the form
// search terms are matched in. Name and email may not be cleared.
func normalizeFields(f domain.ProfileFields) (domain.ProfileFields, error) {
	for _, p := range fieldPtrs(&f) {
		*p = trimmed(*p)
	}

	var details []string
	if f.Name != nil && *f.Name == "" {
		details = append(details, "Name is required")
	}
	if f.Email != nil && *f.Email == "" {
		details = append(details, "Email is required")
	}
	if len(details) > 0 {
		return f, apperror.Validation("Validation failed", details...)
	}
	return f, nil
}

// trimmed returns the NFC-composed, space-trimmed copy of *p.
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := norm.NFC.String(strings.TrimSpace(*p))
	return &s
}

// optional trims p and maps blank to nil.
func optional(p *string) *string {
	t := trimmed(p)
	if t == nil || *t == "" {
		return nil
	}
	return t
}

// presentDate maps a blank (zero) date to nil.
func presentDate(d *domain.Date) *domain.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}

func checkDateRange(start, end *domain.Date) error {
	if start != nil && end != nil && end.Before(start.Time) {
		return apperror.Validation("Validation failed", "End date must not be before start date")
	}
	return nil
}

// detached runs fn with a fresh timeout that survives request cancellation.
func detached(ctx context.Context, fn func(context.Context)) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	fn(ctx)
}

// discardMedia best-effort deletes stored objects, detached from request
// cancellation so cleanup still runs after the client goes away.
func discardMedia(ctx context.Context, store domain.MediaStore, urls []string) {
	if len(urls) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()

	for _, url := range urls {
		if err := store.Delete(ctx, url); err != nil {
			logger.Log.Warn("failed to delete stored image",
				"url", url,
				"request_id", requestID(ctx),
				"error", err,
			)
		}
	}
}
