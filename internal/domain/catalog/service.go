package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Service bundles the four repositories and implements the cross-entity
// queries. Handlers talk to the service only.
type Service struct {
	departments DepartmentRepository
	profiles    ProfileRepository
	values      LabValueRepository
	links       ProfileValueRepository
	logger      zerolog.Logger
}

func NewService(
	departments DepartmentRepository,
	profiles ProfileRepository,
	values LabValueRepository,
	links ProfileValueRepository,
	logger zerolog.Logger,
) *Service {
	return &Service{
		departments: departments,
		profiles:    profiles,
		values:      values,
		links:       links,
		logger:      logger,
	}
}

// decodeFields turns a partial JSON object into a typed record. Unknown keys
// are dropped, matching the column set of the collection.
func decodeFields[T any](fields map[string]any) (T, error) {
	var rec T
	raw, err := json.Marshal(fields)
	if err != nil {
		return rec, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return rec, nil
}

// coerceVerguetung normalizes the reimbursement field in place. Forms and
// imports deliver it as text; the stored value is a number or null, never a
// numeric string and never zero-for-empty.
func coerceVerguetung(fields map[string]any) error {
	raw, ok := fields["verguetung"]
	if !ok {
		return nil
	}
	s, isString := raw.(string)
	if !isString {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		fields["verguetung"] = nil
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: verguetung %q is not a number", ErrValidation, s)
	}
	fields["verguetung"] = f
	return nil
}

// -- Departments --

func (s *Service) Departments(ctx context.Context) ([]Department, error) {
	return s.departments.List(ctx)
}

func (s *Service) Department(ctx context.Context, id string) (*Department, error) {
	return s.departments.GetByID(ctx, id)
}

func (s *Service) CreateDepartment(ctx context.Context, fields map[string]any) (*Department, error) {
	d, err := decodeFields[Department](fields)
	if err != nil {
		return nil, err
	}
	return s.departments.Create(ctx, d)
}

func (s *Service) UpdateDepartment(ctx context.Context, id string, fields map[string]any) (*Department, error) {
	return s.departments.Update(ctx, id, fields)
}

func (s *Service) DeleteDepartment(ctx context.Context, id string) error {
	return s.departments.Delete(ctx, id)
}

// -- Profiles --

func (s *Service) Profiles(ctx context.Context) ([]Profile, error) {
	return s.profiles.List(ctx)
}

func (s *Service) Profile(ctx context.Context, id string) (*Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

func (s *Service) ProfilesByDepartment(ctx context.Context, fachbereichID string) ([]Profile, error) {
	return s.profiles.ListByDepartment(ctx, fachbereichID)
}

func (s *Service) CreateProfile(ctx context.Context, fields map[string]any) (*Profile, error) {
	p, err := decodeFields[Profile](fields)
	if err != nil {
		return nil, err
	}
	return s.profiles.Create(ctx, p)
}

func (s *Service) UpdateProfile(ctx context.Context, id string, fields map[string]any) (*Profile, error) {
	return s.profiles.Update(ctx, id, fields)
}

func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	return s.profiles.Delete(ctx, id)
}

// -- Lab values --

// LabValues returns the catalog, filtered by a case-insensitive name
// substring when term is non-empty.
func (s *Service) LabValues(ctx context.Context, term string) ([]LabValue, error) {
	return s.values.Search(ctx, term)
}

// LabValue resolves a lookup key to a catalog entry: exact id first, then
// the URL-decoded key as an exact name. The fallback keeps bulk-imported
// rows without the id convention reachable.
func (s *Service) LabValue(ctx context.Context, key string) (*LabValue, error) {
	v, err := s.values.GetByID(ctx, key)
	if err == nil {
		return v, nil
	}

	name := key
	if decoded, derr := url.QueryUnescape(key); derr == nil {
		name = decoded
	}
	return s.values.GetByName(ctx, name)
}

func (s *Service) CreateLabValue(ctx context.Context, fields map[string]any) (*LabValue, error) {
	if err := coerceVerguetung(fields); err != nil {
		return nil, err
	}
	v, err := decodeFields[LabValue](fields)
	if err != nil {
		return nil, err
	}
	return s.values.Create(ctx, v)
}

func (s *Service) UpdateLabValue(ctx context.Context, id string, fields map[string]any) (*LabValue, error) {
	if err := coerceVerguetung(fields); err != nil {
		return nil, err
	}
	return s.values.Update(ctx, id, fields)
}

func (s *Service) DeleteLabValue(ctx context.Context, id string) error {
	return s.values.Delete(ctx, id)
}

// -- Links --

func (s *Service) Links(ctx context.Context, profilID string) ([]ProfileValue, error) {
	if profilID != "" {
		return s.links.ListByProfile(ctx, profilID)
	}
	return s.links.List(ctx)
}

func (s *Service) Link(ctx context.Context, id string) (*ProfileValue, error) {
	return s.links.GetByID(ctx, id)
}

func (s *Service) CreateLink(ctx context.Context, fields map[string]any) (*ProfileValue, error) {
	pv, err := decodeFields[ProfileValue](fields)
	if err != nil {
		return nil, err
	}
	return s.links.Create(ctx, pv)
}

func (s *Service) UpdateLink(ctx context.Context, id string, fields map[string]any) (*ProfileValue, error) {
	return s.links.Update(ctx, id, fields)
}

func (s *Service) DeleteLink(ctx context.Context, id string) error {
	return s.links.Delete(ctx, id)
}

// -- Cross-entity queries --

// LabValuesForProfile joins the profile's links against the catalog, sorted
// ascending by Reihenfolge (null sorts as 0). Links whose value no longer
// exists are dropped.
func (s *Service) LabValuesForProfile(ctx context.Context, profilID string) ([]OrderedLabValue, error) {
	links, err := s.links.ListByProfile(ctx, profilID)
	if err != nil {
		return nil, err
	}
	result := []OrderedLabValue{}
	if len(links) == 0 {
		return result, nil
	}

	values, err := s.values.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]LabValue, len(values))
	for _, v := range values {
		byID[v.ID] = v
	}

	for _, link := range links {
		v, ok := byID[link.WertID]
		if !ok {
			s.logger.Debug().Str("wert_id", link.WertID).Str("profil_id", profilID).
				Msg("link target missing, skipping")
			continue
		}
		result = append(result, OrderedLabValue{LabValue: v, Reihenfolge: link.Reihenfolge})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].order() < result[j].order()
	})
	return result, nil
}

// ProfilesForLabValue lists the profiles containing a lab value, each joined
// with its department name ("Unbekannt" when the reference dangles). The key
// goes through the same id-then-name resolution as LabValue; an unresolvable
// key yields an empty list, not an error.
func (s *Service) ProfilesForLabValue(ctx context.Context, key string) ([]ProfileWithDepartment, error) {
	result := []ProfileWithDepartment{}

	v, err := s.LabValue(ctx, key)
	if err != nil {
		return result, nil
	}

	links, err := s.links.ListByValue(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return result, nil
	}
	inProfile := make(map[string]bool, len(links))
	for _, link := range links {
		inProfile[link.ProfilID] = true
	}

	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, err
	}
	deptName := make(map[string]string, len(departments))
	for _, d := range departments {
		deptName[d.ID] = d.Name
	}

	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if !inProfile[p.ID] {
			continue
		}
		name, ok := deptName[p.FachbereichID]
		if !ok {
			name = "Unbekannt"
		}
		result = append(result, ProfileWithDepartment{Profile: p, FachbereichName: name})
	}
	return result, nil
}
