package catalog

import "context"

// Repositories own one collection each. Create validates mandatory fields,
// assigns a fresh id and appends; Update merges the supplied fields over the
// stored record (absent fields retained, explicit null clears); Delete is
// physical. List returns document order.

type DepartmentRepository interface {
	List(ctx context.Context) ([]Department, error)
	GetByID(ctx context.Context, id string) (*Department, error)
	Create(ctx context.Context, d Department) (*Department, error)
	Update(ctx context.Context, id string, fields map[string]any) (*Department, error)
	Delete(ctx context.Context, id string) error
}

type ProfileRepository interface {
	List(ctx context.Context) ([]Profile, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
	ListByDepartment(ctx context.Context, fachbereichID string) ([]Profile, error)
	Create(ctx context.Context, p Profile) (*Profile, error)
	Update(ctx context.Context, id string, fields map[string]any) (*Profile, error)
	// Delete removes the profile and cascades to its profil_werte links.
	Delete(ctx context.Context, id string) error
}

type LabValueRepository interface {
	List(ctx context.Context) ([]LabValue, error)
	GetByID(ctx context.Context, id string) (*LabValue, error)
	// GetByName is the secondary lookup strategy for rows imported without
	// the machine-generated id convention.
	GetByName(ctx context.Context, name string) (*LabValue, error)
	Search(ctx context.Context, term string) ([]LabValue, error)
	Create(ctx context.Context, v LabValue) (*LabValue, error)
	Update(ctx context.Context, id string, fields map[string]any) (*LabValue, error)
	// Delete removes the value and cascades to its profil_werte links.
	Delete(ctx context.Context, id string) error
}

type ProfileValueRepository interface {
	List(ctx context.Context) ([]ProfileValue, error)
	GetByID(ctx context.Context, id string) (*ProfileValue, error)
	ListByProfile(ctx context.Context, profilID string) ([]ProfileValue, error)
	ListByValue(ctx context.Context, wertID string) ([]ProfileValue, error)
	Create(ctx context.Context, pv ProfileValue) (*ProfileValue, error)
	Update(ctx context.Context, id string, fields map[string]any) (*ProfileValue, error)
	Delete(ctx context.Context, id string) error
	// Cascade filters used by profile and lab value deletion.
	DeleteByProfile(ctx context.Context, profilID string) error
	DeleteByValue(ctx context.Context, wertID string) error
}
