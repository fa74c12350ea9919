package domain

import "context"

// BatchAll is the batch selector value that disables batch filtering.
const BatchAll = "all"

// ProfileFilter narrows the admin listing. Zero value lists everything.
type ProfileFilter struct {
	Search string
	Batch  string
}

type AdminProfileList struct {
	Profiles []ProfileAggregate `json:"profiles"`
	Batches  []string           `json:"batches"`
}

// ExportRequest selects the rows and format of a profile export.
type ExportRequest struct {
	Filter ProfileFilter
	Format string // xlsx (default) or csv
}

type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AdminUsecase holds the operations that need elevated privilege.
// GetProfile is also open to the profile owner.
type AdminUsecase interface {
	ListProfiles(ctx context.Context, caller Caller, filter ProfileFilter) (*AdminProfileList, error)
	GetProfile(ctx context.Context, caller Caller, id string) (*ProfileAggregate, error)
	UpdateProfile(ctx context.Context, caller Caller, id string, fields ProfileFields) (*Profile, error)
	DeleteProfile(ctx context.Context, caller Caller, id string) error
	ExportProfiles(ctx context.Context, caller Caller, req ExportRequest) (*ExportFile, error)
}
