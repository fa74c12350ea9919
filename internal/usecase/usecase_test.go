package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"student-profile-backend/internal/domain"
	"student-profile-backend/internal/usecase"
	"student-profile-backend/pkg/apperror"
	"student-profile-backend/pkg/security"
	"student-profile-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock Repositories
type MockProfileRepo struct {
	mock.Mock
}

func (m *MockProfileRepo) Upsert(ctx context.Context, userID string, fields domain.ProfileFields) (*domain.Profile, bool, error) {
	args := m.Called(ctx, userID, fields)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.Profile), args.Bool(1), args.Error(2)
}

func (m *MockProfileRepo) GetByUserID(ctx context.Context, userID string) (*domain.ProfileAggregate, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProfileAggregate), args.Error(1)
}

func (m *MockProfileRepo) GetByID(ctx context.Context, id string) (*domain.ProfileAggregate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProfileAggregate), args.Error(1)
}

func (m *MockProfileRepo) GetIDByUserID(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockProfileRepo) UpdateByID(ctx context.Context, id string, fields domain.ProfileFields) (*domain.Profile, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileRepo) DeleteByID(ctx context.Context, id string) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProfileRepo) List(ctx context.Context, filter domain.ProfileFilter) ([]domain.ProfileAggregate, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProfileAggregate), args.Error(1)
}

func (m *MockProfileRepo) DistinctBatches(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProfileRepo) AddEducation(ctx context.Context, profileID string, in domain.EducationInput) (*domain.Education, error) {
	args := m.Called(ctx, profileID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Education), args.Error(1)
}

func (m *MockProfileRepo) AddExperience(ctx context.Context, profileID string, in domain.ExperienceInput) (*domain.Experience, error) {
	args := m.Called(ctx, profileID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Experience), args.Error(1)
}

func (m *MockProfileRepo) AddSkill(ctx context.Context, profileID string, name string, level int) (*domain.Skill, error) {
	args := m.Called(ctx, profileID, name, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Skill), args.Error(1)
}

func (m *MockProfileRepo) AddProject(ctx context.Context, profileID string, in domain.ProjectInput, imageURLs []string) (*domain.Project, error) {
	args := m.Called(ctx, profileID, in, imageURLs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Store(ctx context.Context, encoded string) (string, error) {
	args := m.Called(ctx, encoded)
	return args.String(0), args.Error(1)
}

func (m *MockMediaStore) Delete(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

type recordingAudit struct {
	mu     sync.Mutex
	events []security.EventType
}

func (a *recordingAudit) LogUserEvent(_ context.Context, event security.EventType, _, _ string, _ map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

// countingGate hands out image quota and tracks refunds.
type countingGate struct {
	refuse   bool
	fault    error
	reserved int
	refunded int
}

func (g *countingGate) Reserve(_ context.Context, _, _ string, images int) (func(context.Context), error) {
	noop := func(context.Context) {}
	if g.fault != nil {
		return noop, g.fault
	}
	if g.refuse {
		return noop, &security.QuotaError{Scope: "user", RetryAfter: time.Hour}
	}
	g.reserved += images
	return func(context.Context) { g.refunded += images }, nil
}

const (
	imgA = "data:image/png;base64,iVBORw0KGgoAAAA"
	imgB = "data:image/jpeg;base64,/9j/4AAQSkZJRg"
)

var (
	owner = domain.Caller{ID: "user-1", Email: "ana@example.com"}
	other = domain.Caller{ID: "user-2"}
	admin = domain.Caller{ID: "admin-1", IsAdmin: true}
)

func strPtr(s string) *string { return &s }

func assertCode(t *testing.T, err error, code int) *apperror.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected *AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func newProfileUC(repo *MockProfileRepo, store *MockMediaStore, audit *recordingAudit) domain.ProfileUsecase {
	return newProfileUCWithGate(repo, store, &countingGate{}, audit)
}

func newProfileUCWithGate(repo *MockProfileRepo, store *MockMediaStore, gate *countingGate, audit *recordingAudit) domain.ProfileUsecase {
	return usecase.NewProfileUsecase(repo, store, gate, audit, validation.New())
}

func TestSaveOwnProfile(t *testing.T) {
	t.Run("creates with uploaded image", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		uc := newProfileUC(repo, store, &recordingAudit{})

		store.On("Store", mock.Anything, imgA).Return("https://cdn.example.com/p/a.jpg", nil)
		repo.On("Upsert", mock.Anything, "user-1", mock.MatchedBy(func(f domain.ProfileFields) bool {
			return f.ProfileImage != nil && *f.ProfileImage == "https://cdn.example.com/p/a.jpg" &&
				f.Name != nil && *f.Name == "Ana García"
		})).Return(&domain.Profile{ID: "p1", UserID: "user-1"}, true, nil)

		profile, created, err := uc.SaveOwnProfile(context.Background(), owner, domain.ProfileFields{
			Name:  strPtr("  Ana García "),
			Email: strPtr("ana@example.com"),
		}, imgA)

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "p1", profile.ID)
		repo.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("upload failure aborts the save", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		audit := &recordingAudit{}
		uc := newProfileUC(repo, store, audit)

		store.On("Store", mock.Anything, imgA).Return("", errors.New("bucket down"))

		_, _, err := uc.SaveOwnProfile(context.Background(), owner, domain.ProfileFields{Name: strPtr("Ana")}, imgA)

		appErr := assertCode(t, err, http.StatusInternalServerError)
		assert.Equal(t, "Failed to upload image", appErr.Message)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
		assert.Contains(t, audit.events, security.EventUploadFailed)
	})

	t.Run("storage not configured is an upload error", func(t *testing.T) {
		repo := new(MockProfileRepo)
		uc := usecase.NewProfileUsecase(repo, disabledStore{}, nil, nil, validation.New())

		_, _, err := uc.SaveOwnProfile(context.Background(), owner, domain.ProfileFields{}, imgA)

		assertCode(t, err, http.StatusInternalServerError)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("incomplete create is a validation error", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		uc := newProfileUC(repo, store, &recordingAudit{})

		repo.On("Upsert", mock.Anything, "user-1", mock.Anything).Return(nil, false, domain.ErrProfileIncomplete)

		_, _, err := uc.SaveOwnProfile(context.Background(), owner, domain.ProfileFields{Profession: strPtr("Analyst")}, "")

		appErr := assertCode(t, err, http.StatusBadRequest)
		assert.ElementsMatch(t, []string{"Name is required", "Email is required"}, appErr.Details)
	})

	t.Run("rejects invalid fields before touching storage", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		uc := newProfileUC(repo, store, &recordingAudit{})

		_, _, err := uc.SaveOwnProfile(context.Background(), owner, domain.ProfileFields{
			Email: strPtr("not-an-email"),
			Phone: strPtr("12"),
		}, imgA)

		appErr := assertCode(t, err, http.StatusBadRequest)
		assert.Len(t, appErr.Details, 2)
		store.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("blank name cannot be saved", func(t *testing.T) {
		uc := newProfileUC(new(MockProfileRepo), new(MockMediaStore), &recordingAudit{})

		_, _, err := uc.SaveOwnProfile(context.Background(), owner, domain.ProfileFields{Name: strPtr("   ")}, "")

		appErr := assertCode(t, err, http.StatusBadRequest)
		assert.Equal(t, []string{"Name is required"}, appErr.Details)
	})

	t.Run("blank optionals clear without format errors", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		uc := newProfileUC(repo, store, &recordingAudit{})

		repo.On("Upsert", mock.Anything, "user-1", mock.MatchedBy(func(f domain.ProfileFields) bool {
			return f.LinkedIn != nil && *f.LinkedIn == "" && f.Phone != nil && *f.Phone == ""
		})).Return(&domain.Profile{ID: "p1"}, false, nil)

		_, created, err := uc.SaveOwnProfile(context.Background(), owner, domain.ProfileFields{
			LinkedIn: strPtr(" "),
			Phone:    strPtr(""),
		}, "")

		require.NoError(t, err)
		assert.False(t, created)
		repo.AssertExpectations(t)
	})

	t.Run("non data URI image is rejected", func(t *testing.T) {
		uc := newProfileUC(new(MockProfileRepo), new(MockMediaStore), &recordingAudit{})

		_, _, err := uc.SaveOwnProfile(context.Background(), owner, domain.ProfileFields{}, "https://example.com/a.png")

		assertCode(t, err, http.StatusBadRequest)
	})

	t.Run("upload rate limit", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		audit := &recordingAudit{}
		uc := newProfileUCWithGate(repo, store, &countingGate{refuse: true}, audit)

		_, _, err := uc.SaveOwnProfile(context.Background(), owner, domain.ProfileFields{}, imgA)

		assertCode(t, err, http.StatusTooManyRequests)
		store.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
		assert.Contains(t, audit.events, security.EventUploadRateLimited)
	})

	t.Run("limiter fault is unavailable, not a quota", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		audit := &recordingAudit{}
		uc := newProfileUCWithGate(repo, store, &countingGate{fault: errors.New("redis: connection refused")}, audit)

		_, _, err := uc.SaveOwnProfile(context.Background(), owner, domain.ProfileFields{}, imgA)

		appErr := assertCode(t, err, http.StatusServiceUnavailable)
		assert.NotContains(t, appErr.Message, "redis")
		store.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
		assert.NotContains(t, audit.events, security.EventUploadRateLimited)
	})

	t.Run("failed upload refunds quota", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		gate := &countingGate{}
		uc := newProfileUCWithGate(repo, store, gate, &recordingAudit{})
		store.On("Store", mock.Anything, imgA).Return("", errors.New("s3 timeout"))

		_, _, err := uc.SaveOwnProfile(context.Background(), owner, domain.ProfileFields{}, imgA)

		assertCode(t, err, http.StatusInternalServerError)
		assert.Equal(t, 1, gate.reserved)
		assert.Equal(t, 1, gate.refunded)
	})

	t.Run("stores text composed to NFC", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		uc := newProfileUC(repo, store, &recordingAudit{})
		repo.On("Upsert", mock.Anything, "user-1", mock.MatchedBy(func(f domain.ProfileFields) bool {
			return *f.Name == "Ana Garc\u00eda" && *f.Profession == "Ingenier\u00eda"
		})).Return(&domain.Profile{ID: "p1"}, false, nil)

		_, _, err := uc.SaveOwnProfile(context.Background(), owner, domain.ProfileFields{
			Name:       strPtr(" Ana Garci\u0301a "),
			Profession: strPtr("Ingenieri\u0301a"),
		}, "")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		uc := newProfileUC(new(MockProfileRepo), new(MockMediaStore), &recordingAudit{})

		_, _, err := uc.SaveOwnProfile(context.Background(), domain.Caller{}, domain.ProfileFields{}, "")

		assertCode(t, err, http.StatusUnauthorized)
	})
}

type disabledStore struct{}

func (disabledStore) Store(context.Context, string) (string, error) {
	return "", errors.New("media storage is not configured")
}

func (disabledStore) Delete(context.Context, string) error { return nil }

func TestGetOwnProfile(t *testing.T) {
	repo := new(MockProfileRepo)
	uc := newProfileUC(repo, new(MockMediaStore), &recordingAudit{})

	repo.On("GetByUserID", mock.Anything, "user-2").Return(nil, domain.ErrNotFound)
	repo.On("GetByUserID", mock.Anything, "user-1").Return(&domain.ProfileAggregate{
		Profile: domain.Profile{ID: "p1", UserID: "user-1"},
	}, nil)

	profile, err := uc.GetOwnProfile(context.Background(), other)
	require.NoError(t, err)
	assert.Nil(t, profile)

	profile, err = uc.GetOwnProfile(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, "p1", profile.ID)
}

func TestAddProject(t *testing.T) {
	t.Run("two images become two rows in order", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		gate := &countingGate{}
		uc := newProfileUCWithGate(repo, store, gate, &recordingAudit{})

		repo.On("GetIDByUserID", mock.Anything, "user-1").Return("p1", nil)
		store.On("Store", mock.Anything, imgA).Return("https://cdn/a.jpg", nil).Once()
		store.On("Store", mock.Anything, imgB).Return("https://cdn/b.jpg", nil).Once()
		repo.On("AddProject", mock.Anything, "p1", mock.Anything, []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}).
			Return(&domain.Project{ID: "pr1", Images: []domain.ProjectImage{{URL: "https://cdn/a.jpg"}, {URL: "https://cdn/b.jpg"}}}, nil)

		project, err := uc.AddProject(context.Background(), owner, domain.ProjectInput{
			Name:   "Portfolio",
			Images: []string{imgA, imgB},
		})

		require.NoError(t, err)
		assert.Len(t, project.Images, 2)
		repo.AssertExpectations(t)
		assert.Equal(t, 2, gate.reserved)
		assert.Zero(t, gate.refunded)
	})

	t.Run("second upload failure persists nothing", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		gate := &countingGate{}
		uc := newProfileUCWithGate(repo, store, gate, &recordingAudit{})

		repo.On("GetIDByUserID", mock.Anything, "user-1").Return("p1", nil)
		store.On("Store", mock.Anything, imgA).Return("https://cdn/a.jpg", nil).Once()
		store.On("Store", mock.Anything, imgB).Return("", errors.New("timeout")).Once()
		store.On("Delete", mock.Anything, "https://cdn/a.jpg").Return(nil).Once()

		_, err := uc.AddProject(context.Background(), owner, domain.ProjectInput{
			Name:   "Portfolio",
			Images: []string{imgA, imgB},
		})

		assertCode(t, err, http.StatusInternalServerError)
		repo.AssertNotCalled(t, "AddProject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		store.AssertExpectations(t)
		assert.Equal(t, 2, gate.reserved, "quota is per image")
		assert.Equal(t, 2, gate.refunded)
	})

	t.Run("insert failure discards uploads", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		uc := newProfileUC(repo, store, &recordingAudit{})

		repo.On("GetIDByUserID", mock.Anything, "user-1").Return("p1", nil)
		store.On("Store", mock.Anything, imgA).Return("https://cdn/a.jpg", nil)
		store.On("Delete", mock.Anything, "https://cdn/a.jpg").Return(nil).Once()
		repo.On("AddProject", mock.Anything, "p1", mock.Anything, mock.Anything).Return(nil, errors.New("conn reset"))

		_, err := uc.AddProject(context.Background(), owner, domain.ProjectInput{Name: "X", Images: []string{imgA}})

		assertCode(t, err, http.StatusInternalServerError)
		store.AssertExpectations(t)
	})

	t.Run("plain URLs are not accepted as images", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		uc := newProfileUC(repo, store, &recordingAudit{})

		_, err := uc.AddProject(context.Background(), owner, domain.ProjectInput{
			Name:   "X",
			Images: []string{"https://example.com/a.png"},
		})

		appErr := assertCode(t, err, http.StatusBadRequest)
		assert.Equal(t, []string{"Image 1 must be a data:image base64 payload"}, appErr.Details)
		store.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
	})

	t.Run("no profile yet", func(t *testing.T) {
		repo, store := new(MockProfileRepo), new(MockMediaStore)
		uc := newProfileUC(repo, store, &recordingAudit{})

		repo.On("GetIDByUserID", mock.Anything, "user-1").Return("", domain.ErrNotFound)

		_, err := uc.AddProject(context.Background(), owner, domain.ProjectInput{Name: "X", Images: []string{imgA}})

		assertCode(t, err, http.StatusNotFound)
		store.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
	})
}

func TestAddEducation(t *testing.T) {
	start, _ := domain.ParseDate("2020-09-01")
	end, _ := domain.ParseDate("2019-06-30")

	t.Run("end before start", func(t *testing.T) {
		uc := newProfileUC(new(MockProfileRepo), new(MockMediaStore), &recordingAudit{})

		_, err := uc.AddEducation(context.Background(), owner, domain.EducationInput{
			Institution: "ITB", Degree: "BSc", Field: "CS", StartDate: &start, EndDate: &end,
		})

		appErr := assertCode(t, err, http.StatusBadRequest)
		assert.Equal(t, []string{"End date must not be before start date"}, appErr.Details)
	})

	t.Run("missing required fields", func(t *testing.T) {
		uc := newProfileUC(new(MockProfileRepo), new(MockMediaStore), &recordingAudit{})

		_, err := uc.AddEducation(context.Background(), owner, domain.EducationInput{Institution: "  "})

		appErr := assertCode(t, err, http.StatusBadRequest)
		assert.Contains(t, appErr.Details, "Institution is required")
	})

	t.Run("no profile yet", func(t *testing.T) {
		repo := new(MockProfileRepo)
		uc := newProfileUC(repo, new(MockMediaStore), &recordingAudit{})
		repo.On("GetIDByUserID", mock.Anything, "user-1").Return("", domain.ErrNotFound)

		_, err := uc.AddEducation(context.Background(), owner, domain.EducationInput{
			Institution: "ITB", Degree: "BSc", Field: "CS", StartDate: &start,
		})

		appErr := assertCode(t, err, http.StatusNotFound)
		assert.Equal(t, "Profile not found. Create your profile first.", appErr.Message)
	})

	t.Run("ongoing education", func(t *testing.T) {
		repo := new(MockProfileRepo)
		uc := newProfileUC(repo, new(MockMediaStore), &recordingAudit{})
		repo.On("GetIDByUserID", mock.Anything, "user-1").Return("p1", nil)
		repo.On("AddEducation", mock.Anything, "p1", mock.MatchedBy(func(in domain.EducationInput) bool {
			return in.EndDate == nil && in.Description == nil && in.Institution == "ITB"
		})).Return(&domain.Education{ID: "e1", ProfileID: "p1"}, nil)

		edu, err := uc.AddEducation(context.Background(), owner, domain.EducationInput{
			Institution: " ITB ", Degree: "BSc", Field: "CS", StartDate: &start, Description: strPtr(""),
		})

		require.NoError(t, err)
		assert.Equal(t, "e1", edu.ID)
		repo.AssertExpectations(t)
	})
}

func TestAddEducationBlankEndDateIsOngoing(t *testing.T) {
	var in domain.EducationInput
	require.NoError(t, json.Unmarshal([]byte(`{"institution":"ITB","degree":"BSc","field":"CS","start_date":"2020-09-01","end_date":""}`), &in))

	repo := new(MockProfileRepo)
	uc := newProfileUC(repo, new(MockMediaStore), &recordingAudit{})
	repo.On("GetIDByUserID", mock.Anything, "user-1").Return("p1", nil)
	repo.On("AddEducation", mock.Anything, "p1", mock.MatchedBy(func(in domain.EducationInput) bool {
		return in.EndDate == nil && in.StartDate != nil && in.StartDate.String() == "2020-09-01"
	})).Return(&domain.Education{ID: "e1", ProfileID: "p1"}, nil)

	_, err := uc.AddEducation(context.Background(), owner, in)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAddExperienceBlankDates(t *testing.T) {
	t.Run("blank end date is ongoing", func(t *testing.T) {
		var in domain.ExperienceInput
		require.NoError(t, json.Unmarshal([]byte(`{"company":"Acme","position":"Dev","start_date":"2022-01-10","end_date":""}`), &in))

		repo := new(MockProfileRepo)
		uc := newProfileUC(repo, new(MockMediaStore), &recordingAudit{})
		repo.On("GetIDByUserID", mock.Anything, "user-1").Return("p1", nil)
		repo.On("AddExperience", mock.Anything, "p1", mock.MatchedBy(func(in domain.ExperienceInput) bool {
			return in.EndDate == nil && in.StartDate != nil
		})).Return(&domain.Experience{ID: "x1", ProfileID: "p1"}, nil)

		_, err := uc.AddExperience(context.Background(), owner, in)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("blank start date is still required", func(t *testing.T) {
		var in domain.ExperienceInput
		require.NoError(t, json.Unmarshal([]byte(`{"company":"Acme","position":"Dev","start_date":""}`), &in))

		uc := newProfileUC(new(MockProfileRepo), new(MockMediaStore), &recordingAudit{})
		_, err := uc.AddExperience(context.Background(), owner, in)

		appErr := assertCode(t, err, http.StatusBadRequest)
		assert.Contains(t, appErr.Details, "Start date is required")
	})
}

func TestAddExperienceRequiresStartDate(t *testing.T) {
	uc := newProfileUC(new(MockProfileRepo), new(MockMediaStore), &recordingAudit{})

	_, err := uc.AddExperience(context.Background(), owner, domain.ExperienceInput{Company: "Acme", Position: "Dev"})

	appErr := assertCode(t, err, http.StatusBadRequest)
	assert.Contains(t, appErr.Details, "Start date is required")
}

func TestAddSkill(t *testing.T) {
	repo := new(MockProfileRepo)
	uc := newProfileUC(repo, new(MockMediaStore), &recordingAudit{})
	repo.On("GetIDByUserID", mock.Anything, "user-1").Return("p1", nil)
	repo.On("AddSkill", mock.Anything, "p1", "Go", 0).Return(&domain.Skill{ID: "s1", Name: "Go"}, nil)

	skill, err := uc.AddSkill(context.Background(), owner, domain.SkillInput{Name: "Go"})
	require.NoError(t, err)
	assert.Equal(t, "s1", skill.ID)

	level := 101
	_, err = uc.AddSkill(context.Background(), owner, domain.SkillInput{Name: "Go", Level: &level})
	assertCode(t, err, http.StatusBadRequest)
	repo.AssertNumberOfCalls(t, "AddSkill", 1)
}

func newAdminUC(repo *MockProfileRepo, store *MockMediaStore, audit *recordingAudit) domain.AdminUsecase {
	return usecase.NewAdminUsecase(repo, store, audit, validation.New())
}

func TestAdminRequiresPrivilege(t *testing.T) {
	repo := new(MockProfileRepo)
	audit := &recordingAudit{}
	uc := newAdminUC(repo, new(MockMediaStore), audit)
	ctx := context.Background()

	_, err := uc.ListProfiles(ctx, owner, domain.ProfileFilter{})
	assertCode(t, err, http.StatusForbidden)

	_, err = uc.UpdateProfile(ctx, owner, "p1", domain.ProfileFields{Name: strPtr("X")})
	assertCode(t, err, http.StatusForbidden)

	err = uc.DeleteProfile(ctx, owner, "p1")
	assertCode(t, err, http.StatusForbidden)

	_, err = uc.ExportProfiles(ctx, domain.Caller{}, domain.ExportRequest{})
	assertCode(t, err, http.StatusUnauthorized)

	assert.Len(t, audit.events, 3)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestAdminListProfiles(t *testing.T) {
	repo := new(MockProfileRepo)
	uc := newAdminUC(repo, new(MockMediaStore), &recordingAudit{})
	filter := domain.ProfileFilter{Search: "ana", Batch: "2023"}

	repo.On("List", mock.Anything, filter).Return(nil, nil)
	repo.On("DistinctBatches", mock.Anything).Return([]string{"2022", "2023"}, nil)

	list, err := uc.ListProfiles(context.Background(), admin, filter)

	require.NoError(t, err)
	assert.NotNil(t, list.Profiles)
	assert.Empty(t, list.Profiles)
	assert.Equal(t, []string{"2022", "2023"}, list.Batches)
}

func TestAdminGetProfile(t *testing.T) {
	repo := new(MockProfileRepo)
	uc := newAdminUC(repo, new(MockMediaStore), &recordingAudit{})
	ctx := context.Background()

	agg := &domain.ProfileAggregate{Profile: domain.Profile{ID: "p1", UserID: "user-1"}}
	repo.On("GetByID", mock.Anything, "p1").Return(agg, nil)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	got, err := uc.GetProfile(ctx, owner, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	_, err = uc.GetProfile(ctx, other, "p1")
	assertCode(t, err, http.StatusForbidden)

	_, err = uc.GetProfile(ctx, admin, "p1")
	require.NoError(t, err)

	_, err = uc.GetProfile(ctx, other, "missing")
	assertCode(t, err, http.StatusNotFound)
}

func TestAdminUpdateProfile(t *testing.T) {
	repo := new(MockProfileRepo)
	audit := &recordingAudit{}
	uc := newAdminUC(repo, new(MockMediaStore), audit)

	repo.On("UpdateByID", mock.Anything, "p1", mock.MatchedBy(func(f domain.ProfileFields) bool {
		return f.ProfileImage == nil && f.Batch != nil && *f.Batch == "2024"
	})).Return(&domain.Profile{ID: "p1"}, nil)
	repo.On("UpdateByID", mock.Anything, "gone", mock.Anything).Return(nil, domain.ErrNotFound)

	_, err := uc.UpdateProfile(context.Background(), admin, "p1", domain.ProfileFields{
		Batch:        strPtr(" 2024 "),
		ProfileImage: strPtr("https://evil.example.com/x.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, []security.EventType{security.EventProfileUpdated}, audit.events)

	_, err = uc.UpdateProfile(context.Background(), admin, "gone", domain.ProfileFields{Batch: strPtr("2024")})
	assertCode(t, err, http.StatusNotFound)
}

func TestAdminDeleteProfileRemovesImages(t *testing.T) {
	repo, store := new(MockProfileRepo), new(MockMediaStore)
	uc := newAdminUC(repo, store, &recordingAudit{})

	repo.On("DeleteByID", mock.Anything, "p1").Return([]string{"https://cdn/a.jpg", "https://cdn/avatar.jpg"}, nil)
	repo.On("DeleteByID", mock.Anything, "missing").Return(nil, domain.ErrNotFound)
	store.On("Delete", mock.Anything, "https://cdn/a.jpg").Return(nil)
	store.On("Delete", mock.Anything, "https://cdn/avatar.jpg").Return(errors.New("ignored"))

	require.NoError(t, uc.DeleteProfile(context.Background(), admin, "p1"))
	store.AssertExpectations(t)

	err := uc.DeleteProfile(context.Background(), admin, "missing")
	assertCode(t, err, http.StatusNotFound)
}

func TestAdminExportProfiles(t *testing.T) {
	repo := new(MockProfileRepo)
	audit := &recordingAudit{}
	uc := newAdminUC(repo, new(MockMediaStore), audit)

	rows := []domain.ProfileAggregate{{
		Profile: domain.Profile{ID: "p1", Name: "Ana García", Email: "ana@example.com", Batch: strPtr("2023")},
		Skills:  []domain.Skill{{Name: "Go"}, {Name: "SQL"}},
	}}
	repo.On("List", mock.Anything, domain.ProfileFilter{Batch: "2023"}).Return(rows, nil)

	file, err := uc.ExportProfiles(context.Background(), admin, domain.ExportRequest{
		Filter: domain.ProfileFilter{Batch: "2023"},
		Format: "CSV",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^student_profiles_\d{8}_\d{6}\.csv$`, file.Filename)
	assert.Contains(t, string(file.Data), "Ana García,ana@example.com,,2023")
	assert.Contains(t, string(file.Data), `"Go, SQL"`)
	assert.Equal(t, []security.EventType{security.EventProfileExported}, audit.events)

	_, err = uc.ExportProfiles(context.Background(), admin, domain.ExportRequest{Format: "pdf"})
	assertCode(t, err, http.StatusBadRequest)
}
