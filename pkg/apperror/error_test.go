package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"student-profile-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsMapToStatusCodes(t *testing.T) {
	cases := map[int]*apperror.AppError{
		http.StatusUnauthorized:        apperror.Unauthorized("no"),
		http.StatusForbidden:           apperror.Forbidden("no"),
		http.StatusNotFound:            apperror.NotFound("no"),
		http.StatusBadRequest:          apperror.Validation("bad", "name is required"),
		http.StatusInternalServerError: apperror.Upload(errors.New("s3 down")),
		http.StatusTooManyRequests:     apperror.TooManyRequests("slow down"),
		http.StatusServiceUnavailable:  apperror.Unavailable("try later", errors.New("redis down")),
	}
	for code, err := range cases {
		assert.Equal(t, code, err.Code)
	}
}

func TestUploadKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("bucket credentials rejected")
	err := apperror.Upload(cause)

	assert.Equal(t, "Failed to upload image", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestAsFindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("saving profile: %w", apperror.NotFound("Profile not found"))

	appErr, ok := apperror.As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
	assert.True(t, apperror.HasCode(wrapped, http.StatusNotFound))
	assert.False(t, apperror.HasCode(errors.New("plain"), http.StatusNotFound))
}
