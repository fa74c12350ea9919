package v1

import (
	"net/http"

	"student-profile-backend/internal/delivery/http/middleware"
	"student-profile-backend/internal/delivery/http/response"
	"student-profile-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileUC domain.ProfileUsecase
}

// OwnProfileResponse is the GET /profile body. Profile is absent when exists is false.
type OwnProfileResponse struct {
	Exists  bool                     `json:"exists"`
	Profile *domain.ProfileAggregate `json:"profile,omitempty"`
}

// SaveProfileRequest carries the scalar fields plus an optional inline image.
type SaveProfileRequest struct {
	domain.ProfileFields
	ProfileImageBase64 string `json:"profile_image_base64"`
}

type SaveProfileResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Profile *domain.Profile `json:"profile"`
}

func NewProfileHandler(protected *gin.RouterGroup, profileUC domain.ProfileUsecase, bodyLimit int64) {
	handler := &ProfileHandler{profileUC: profileUC}

	profile := protected.Group("/profile")
	profile.Use(middleware.BodyLimit(bodyLimit))
	{
		profile.GET("", handler.GetOwn)
		profile.POST("", handler.Save)
		profile.POST("/education", handler.AddEducation)
		profile.POST("/experience", handler.AddExperience)
		profile.POST("/skills", handler.AddSkill)
		profile.POST("/projects", handler.AddProject)
	}
}

// GetOwn godoc
// @Summary      Get own profile
// @Description  Returns the caller's profile aggregate, or exists=false when none has been created
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  OwnProfileResponse
// @Failure      401  {object}  response.ErrorBody
// @Router       /profile [get]
func (h *ProfileHandler) GetOwn(c *gin.Context) {
	profile, err := h.profileUC.GetOwnProfile(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, OwnProfileResponse{Exists: profile != nil, Profile: profile})
}

// Save godoc
// @Summary      Create or update own profile
// @Description  Creates the caller's profile (name and email required) or patches the supplied fields. An empty string clears an optional field.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SaveProfileRequest  true  "Profile fields"
// @Success      200      {object}  SaveProfileResponse
// @Failure      400      {object}  response.ErrorBody
// @Failure      401      {object}  response.ErrorBody
// @Failure      429      {object}  response.ErrorBody
// @Failure      500      {object}  response.ErrorBody
// @Failure      503      {object}  response.ErrorBody
// @Router       /profile [post]
func (h *ProfileHandler) Save(c *gin.Context) {
	var req SaveProfileRequest
	if err := bindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	profile, created, err := h.profileUC.SaveOwnProfile(c.Request.Context(), middleware.CallerFrom(c), req.ProfileFields, req.ProfileImageBase64)
	if err != nil {
		c.Error(err)
		return
	}

	message := "Profile updated"
	if created {
		message = "Profile created"
	}
	c.JSON(http.StatusOK, SaveProfileResponse{Success: true, Message: message, Profile: profile})
}

// AddEducation godoc
// @Summary      Add education entry
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.EducationInput  true  "Education entry"
// @Success      201      {object}  map[string]interface{}
// @Failure      400      {object}  response.ErrorBody
// @Failure      401      {object}  response.ErrorBody
// @Failure      404      {object}  response.ErrorBody
// @Router       /profile/education [post]
func (h *ProfileHandler) AddEducation(c *gin.Context) {
	var in domain.EducationInput
	if err := bindJSON(c, &in); err != nil {
		c.Error(err)
		return
	}
	education, err := h.profileUC.AddEducation(c.Request.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "", gin.H{"education": education})
}

// AddExperience godoc
// @Summary      Add work experience entry
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.ExperienceInput  true  "Experience entry"
// @Success      201      {object}  map[string]interface{}
// @Failure      400      {object}  response.ErrorBody
// @Failure      401      {object}  response.ErrorBody
// @Failure      404      {object}  response.ErrorBody
// @Router       /profile/experience [post]
func (h *ProfileHandler) AddExperience(c *gin.Context) {
	var in domain.ExperienceInput
	if err := bindJSON(c, &in); err != nil {
		c.Error(err)
		return
	}
	experience, err := h.profileUC.AddExperience(c.Request.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "", gin.H{"experience": experience})
}

// AddSkill godoc
// @Summary      Add skill
// @Description  Level is 0-100 and defaults to 0
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.SkillInput  true  "Skill"
// @Success      201      {object}  map[string]interface{}
// @Failure      400      {object}  response.ErrorBody
// @Failure      401      {object}  response.ErrorBody
// @Failure      404      {object}  response.ErrorBody
// @Router       /profile/skills [post]
func (h *ProfileHandler) AddSkill(c *gin.Context) {
	var in domain.SkillInput
	if err := bindJSON(c, &in); err != nil {
		c.Error(err)
		return
	}
	skill, err := h.profileUC.AddSkill(c.Request.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "", gin.H{"skill": skill})
}

// AddProject godoc
// @Summary      Add project
// @Description  images are data:image base64 payloads; each is uploaded before the project is saved
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.ProjectInput  true  "Project"
// @Success      201      {object}  map[string]interface{}
// @Failure      400      {object}  response.ErrorBody
// @Failure      401      {object}  response.ErrorBody
// @Failure      404      {object}  response.ErrorBody
// @Failure      429      {object}  response.ErrorBody
// @Failure      500      {object}  response.ErrorBody
// @Failure      503      {object}  response.ErrorBody
// @Router       /profile/projects [post]
func (h *ProfileHandler) AddProject(c *gin.Context) {
	var in domain.ProjectInput
	if err := bindJSON(c, &in); err != nil {
		c.Error(err)
		return
	}
	project, err := h.profileUC.AddProject(c.Request.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "", gin.H{"project": project})
}
