package v1

import (
	"net/http"
	"strconv"

	"student-profile-backend/internal/delivery/http/middleware"
	"student-profile-backend/internal/delivery/http/response"
	"student-profile-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminUC domain.AdminUsecase
}

type ProfileResponse struct {
	Profile *domain.ProfileAggregate `json:"profile"`
}

type UpdateProfileResponse struct {
	Success bool            `json:"success"`
	Profile *domain.Profile `json:"profile"`
}

// adminBodyLimit caps admin edits, which carry scalar profile fields only.
const adminBodyLimit = 64 << 10

func NewAdminHandler(protected *gin.RouterGroup, adminUC domain.AdminUsecase) {
	handler := &AdminHandler{adminUC: adminUC}

	admin := protected.Group("/admin")
	admin.Use(middleware.BodyLimit(adminBodyLimit))
	{
		admin.GET("/profiles", handler.ListProfiles)
		admin.GET("/profiles/export", handler.ExportProfiles)
		admin.GET("/profiles/:id", handler.GetProfile)
		admin.PUT("/profiles/:id", handler.UpdateProfile)
		admin.DELETE("/profiles/:id", handler.DeleteProfile)
	}
}

func filterFromQuery(c *gin.Context) domain.ProfileFilter {
	return domain.ProfileFilter{
		Search: c.Query("search"),
		Batch:  c.Query("batch"),
	}
}

// ListProfiles godoc
// @Summary      List student profiles
// @Description  Case-insensitive search over name and profession, exact batch match ("all" disables it). Newest updates first.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Substring of name or profession"
// @Param        batch   query     string  false  "Exact batch, or all"
// @Success      200     {object}  domain.AdminProfileList
// @Failure      401     {object}  response.ErrorBody
// @Failure      403     {object}  response.ErrorBody
// @Router       /admin/profiles [get]
func (h *AdminHandler) ListProfiles(c *gin.Context) {
	list, err := h.adminUC.ListProfiles(c.Request.Context(), middleware.CallerFrom(c), filterFromQuery(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ExportProfiles godoc
// @Summary      Export student profiles
// @Description  Same filter as the listing, returned as an xlsx (default) or csv attachment
// @Tags         admin
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,text/csv
// @Security     BearerAuth
// @Param        search  query     string  false  "Substring of name or profession"
// @Param        batch   query     string  false  "Exact batch, or all"
// @Param        format  query     string  false  "xlsx or csv"
// @Success      200     {file}    file
// @Failure      400     {object}  response.ErrorBody
// @Failure      401     {object}  response.ErrorBody
// @Failure      403     {object}  response.ErrorBody
// @Router       /admin/profiles/export [get]
func (h *AdminHandler) ExportProfiles(c *gin.Context) {
	file, err := h.adminUC.ExportProfiles(c.Request.Context(), middleware.CallerFrom(c), domain.ExportRequest{
		Filter: filterFromQuery(c),
		Format: c.Query("format"),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// GetProfile godoc
// @Summary      Get a profile by id
// @Description  Admins may read any profile; other callers only their own
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Profile ID"
// @Success      200  {object}  ProfileResponse
// @Failure      401  {object}  response.ErrorBody
// @Failure      403  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /admin/profiles/{id} [get]
func (h *AdminHandler) GetProfile(c *gin.Context) {
	profile, err := h.adminUC.GetProfile(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{Profile: profile})
}

// UpdateProfile godoc
// @Summary      Update a profile's scalar fields
// @Description  Partial update; profile_image is ignored
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Profile ID"
// @Param        request  body      domain.ProfileFields  true  "Fields to change"
// @Success      200      {object}  UpdateProfileResponse
// @Failure      400      {object}  response.ErrorBody
// @Failure      401      {object}  response.ErrorBody
// @Failure      403      {object}  response.ErrorBody
// @Failure      404      {object}  response.ErrorBody
// @Router       /admin/profiles/{id} [put]
func (h *AdminHandler) UpdateProfile(c *gin.Context) {
	var fields domain.ProfileFields
	if err := bindJSON(c, &fields); err != nil {
		c.Error(err)
		return
	}

	profile, err := h.adminUC.UpdateProfile(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), fields)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, UpdateProfileResponse{Success: true, Profile: profile})
}

// DeleteProfile godoc
// @Summary      Delete a profile
// @Description  Removes the profile, every child record and the stored images
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Profile ID"
// @Success      200  {object}  response.MessageBody
// @Failure      401  {object}  response.ErrorBody
// @Failure      403  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /admin/profiles/{id} [delete]
func (h *AdminHandler) DeleteProfile(c *gin.Context) {
	if err := h.adminUC.DeleteProfile(c.Request.Context(), middleware.CallerFrom(c), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Profile deleted", nil)
}
