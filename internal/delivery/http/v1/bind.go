package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"student-profile-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// bindJSON decodes the body into dst, translating decode failures into a 400
// a client can act on.
func bindJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return apperror.New(http.StatusRequestEntityTooLarge, "Request body too large", err)
	case errors.Is(err, io.EOF):
		return apperror.Validation("Invalid request body", "Request body is required")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperror.Validation("Invalid request body", "Malformed JSON")
	case errors.As(err, &typeErr):
		return apperror.Validation("Invalid request body", fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.Kind()))
	default:
		// domain.Date reports its own layout problems
		return apperror.Validation("Invalid request body", err.Error())
	}
}
