package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/labkatalog/labkatalog/internal/platform/ident"
	"github.com/labkatalog/labkatalog/internal/platform/store"
)

// mergeRecord applies a partial update over an existing record. The merge is
// key-based: keys absent from fields keep their stored value, keys present
// with null clear the stored value. The id can never be reassigned.
func mergeRecord[T any](rec T, fields map[string]any) (T, error) {
	var merged T

	raw, err := json.Marshal(rec)
	if err != nil {
		return merged, fmt.Errorf("marshal record: %w", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return merged, fmt.Errorf("unmarshal record: %w", err)
	}

	for k, v := range fields {
		if k == "id" {
			continue
		}
		m[k] = v
	}

	raw, err = json.Marshal(m)
	if err != nil {
		return merged, fmt.Errorf("marshal merged record: %w", err)
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return merged, fmt.Errorf("apply update: %w", err)
	}
	return merged, nil
}

// -- Departments --

type DepartmentRepoJSON struct {
	st  *store.Store
	ids ident.Generator
}

func NewDepartmentRepoJSON(st *store.Store, ids ident.Generator) *DepartmentRepoJSON {
	return &DepartmentRepoJSON{st: st, ids: ids}
}

func (r *DepartmentRepoJSON) List(ctx context.Context) ([]Department, error) {
	return store.Read[Department](r.st, CollectionDepartments), nil
}

func (r *DepartmentRepoJSON) GetByID(ctx context.Context, id string) (*Department, error) {
	for _, d := range store.Read[Department](r.st, CollectionDepartments) {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (r *DepartmentRepoJSON) Create(ctx context.Context, d Department) (*Department, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	var created Department
	err := r.st.WithLock(CollectionDepartments, func() error {
		records := store.Read[Department](r.st, CollectionDepartments)
		d.ID = r.ids.NewID(PrefixDepartment)
		records = append(records, d)
		if err := store.Write(r.st, CollectionDepartments, records); err != nil {
			return err
		}
		created = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *DepartmentRepoJSON) Update(ctx context.Context, id string, fields map[string]any) (*Department, error) {
	var updated Department
	err := r.st.WithLock(CollectionDepartments, func() error {
		records := store.Read[Department](r.st, CollectionDepartments)
		for i, d := range records {
			if d.ID != id {
				continue
			}
			merged, err := mergeRecord(d, fields)
			if err != nil {
				return err
			}
			merged.ID = id
			records[i] = merged
			if err := store.Write(r.st, CollectionDepartments, records); err != nil {
				return err
			}
			updated = merged
			return nil
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the department only. Profiles referencing it stay behind
// and render with an unknown department downstream.
func (r *DepartmentRepoJSON) Delete(ctx context.Context, id string) error {
	return r.st.WithLock(CollectionDepartments, func() error {
		records := store.Read[Department](r.st, CollectionDepartments)
		kept := records[:0:0]
		for _, d := range records {
			if d.ID != id {
				kept = append(kept, d)
			}
		}
		if len(kept) == len(records) {
			return ErrNotFound
		}
		return store.Write(r.st, CollectionDepartments, kept)
	})
}

// -- Profiles --

type ProfileRepoJSON struct {
	st    *store.Store
	ids   ident.Generator
	links ProfileValueRepository
}

func NewProfileRepoJSON(st *store.Store, ids ident.Generator, links ProfileValueRepository) *ProfileRepoJSON {
	return &ProfileRepoJSON{st: st, ids: ids, links: links}
}

func (r *ProfileRepoJSON) List(ctx context.Context) ([]Profile, error) {
	return store.Read[Profile](r.st, CollectionProfiles), nil
}

func (r *ProfileRepoJSON) GetByID(ctx context.Context, id string) (*Profile, error) {
	for _, p := range store.Read[Profile](r.st, CollectionProfiles) {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *ProfileRepoJSON) ListByDepartment(ctx context.Context, fachbereichID string) ([]Profile, error) {
	matches := []Profile{}
	for _, p := range store.Read[Profile](r.st, CollectionProfiles) {
		if p.FachbereichID == fachbereichID {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func (r *ProfileRepoJSON) Create(ctx context.Context, p Profile) (*Profile, error) {
	if p.Name == "" || p.FachbereichID == "" {
		return nil, fmt.Errorf("%w: name and fachbereich_id are required", ErrValidation)
	}

	var created Profile
	err := r.st.WithLock(CollectionProfiles, func() error {
		records := store.Read[Profile](r.st, CollectionProfiles)
		p.ID = r.ids.NewID(PrefixProfile)
		records = append(records, p)
		if err := store.Write(r.st, CollectionProfiles, records); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *ProfileRepoJSON) Update(ctx context.Context, id string, fields map[string]any) (*Profile, error) {
	var updated Profile
	err := r.st.WithLock(CollectionProfiles, func() error {
		records := store.Read[Profile](r.st, CollectionProfiles)
		for i, p := range records {
			if p.ID != id {
				continue
			}
			merged, err := mergeRecord(p, fields)
			if err != nil {
				return err
			}
			merged.ID = id
			records[i] = merged
			if err := store.Write(r.st, CollectionProfiles, records); err != nil {
				return err
			}
			updated = merged
			return nil
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the profile and, as a second write, every link naming it.
func (r *ProfileRepoJSON) Delete(ctx context.Context, id string) error {
	err := r.st.WithLock(CollectionProfiles, func() error {
		records := store.Read[Profile](r.st, CollectionProfiles)
		kept := records[:0:0]
		for _, p := range records {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(records) {
			return ErrNotFound
		}
		return store.Write(r.st, CollectionProfiles, kept)
	})
	if err != nil {
		return err
	}
	return r.links.DeleteByProfile(ctx, id)
}

// -- Lab values --

type LabValueRepoJSON struct {
	st    *store.Store
	ids   ident.Generator
	links ProfileValueRepository
}

func NewLabValueRepoJSON(st *store.Store, ids ident.Generator, links ProfileValueRepository) *LabValueRepoJSON {
	return &LabValueRepoJSON{st: st, ids: ids, links: links}
}

func (r *LabValueRepoJSON) List(ctx context.Context) ([]LabValue, error) {
	return store.Read[LabValue](r.st, CollectionLabValues), nil
}

func (r *LabValueRepoJSON) GetByID(ctx context.Context, id string) (*LabValue, error) {
	for _, v := range store.Read[LabValue](r.st, CollectionLabValues) {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, ErrNotFound
}

func (r *LabValueRepoJSON) GetByName(ctx context.Context, name string) (*LabValue, error) {
	for _, v := range store.Read[LabValue](r.st, CollectionLabValues) {
		if v.Name == name {
			return &v, nil
		}
	}
	return nil, ErrNotFound
}

// Search matches the term case-insensitively against the value name. An
// empty term returns the full collection.
func (r *LabValueRepoJSON) Search(ctx context.Context, term string) ([]LabValue, error) {
	records := store.Read[LabValue](r.st, CollectionLabValues)
	if term == "" {
		return records, nil
	}
	needle := strings.ToLower(term)
	matches := []LabValue{}
	for _, v := range records {
		if strings.Contains(strings.ToLower(v.Name), needle) {
			matches = append(matches, v)
		}
	}
	return matches, nil
}

func (r *LabValueRepoJSON) Create(ctx context.Context, v LabValue) (*LabValue, error) {
	if v.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	var created LabValue
	err := r.st.WithLock(CollectionLabValues, func() error {
		records := store.Read[LabValue](r.st, CollectionLabValues)
		v.ID = r.ids.NewID(PrefixLabValue)
		records = append(records, v)
		if err := store.Write(r.st, CollectionLabValues, records); err != nil {
			return err
		}
		created = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *LabValueRepoJSON) Update(ctx context.Context, id string, fields map[string]any) (*LabValue, error) {
	var updated LabValue
	err := r.st.WithLock(CollectionLabValues, func() error {
		records := store.Read[LabValue](r.st, CollectionLabValues)
		for i, v := range records {
			if v.ID != id {
				continue
			}
			merged, err := mergeRecord(v, fields)
			if err != nil {
				return err
			}
			merged.ID = id
			records[i] = merged
			if err := store.Write(r.st, CollectionLabValues, records); err != nil {
				return err
			}
			updated = merged
			return nil
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the value and, as a second write, every link naming it.
func (r *LabValueRepoJSON) Delete(ctx context.Context, id string) error {
	err := r.st.WithLock(CollectionLabValues, func() error {
		records := store.Read[LabValue](r.st, CollectionLabValues)
		kept := records[:0:0]
		for _, v := range records {
			if v.ID != id {
				kept = append(kept, v)
			}
		}
		if len(kept) == len(records) {
			return ErrNotFound
		}
		return store.Write(r.st, CollectionLabValues, kept)
	})
	if err != nil {
		return err
	}
	return r.links.DeleteByValue(ctx, id)
}

// -- Profile/value links --

type ProfileValueRepoJSON struct {
	st  *store.Store
	ids ident.Generator
}

func NewProfileValueRepoJSON(st *store.Store, ids ident.Generator) *ProfileValueRepoJSON {
	return &ProfileValueRepoJSON{st: st, ids: ids}
}

func (r *ProfileValueRepoJSON) List(ctx context.Context) ([]ProfileValue, error) {
	return store.Read[ProfileValue](r.st, CollectionLinks), nil
}

func (r *ProfileValueRepoJSON) GetByID(ctx context.Context, id string) (*ProfileValue, error) {
	for _, pv := range store.Read[ProfileValue](r.st, CollectionLinks) {
		if pv.ID == id {
			return &pv, nil
		}
	}
	return nil, ErrNotFound
}

func (r *ProfileValueRepoJSON) ListByProfile(ctx context.Context, profilID string) ([]ProfileValue, error) {
	matches := []ProfileValue{}
	for _, pv := range store.Read[ProfileValue](r.st, CollectionLinks) {
		if pv.ProfilID == profilID {
			matches = append(matches, pv)
		}
	}
	return matches, nil
}

func (r *ProfileValueRepoJSON) ListByValue(ctx context.Context, wertID string) ([]ProfileValue, error) {
	matches := []ProfileValue{}
	for _, pv := range store.Read[ProfileValue](r.st, CollectionLinks) {
		if pv.WertID == wertID {
			matches = append(matches, pv)
		}
	}
	return matches, nil
}

// Create appends a new link. A second link for the same (profil_id, wert_id)
// pair is rejected. When no Reihenfolge is supplied the link goes to the end
// of the profile: max existing order + 1, starting at 1.
func (r *ProfileValueRepoJSON) Create(ctx context.Context, pv ProfileValue) (*ProfileValue, error) {
	if pv.ProfilID == "" || pv.WertID == "" {
		return nil, fmt.Errorf("%w: profil_id and wert_id are required", ErrValidation)
	}

	var created ProfileValue
	err := r.st.WithLock(CollectionLinks, func() error {
		records := store.Read[ProfileValue](r.st, CollectionLinks)

		maxOrder := 0
		for _, existing := range records {
			if existing.ProfilID == pv.ProfilID && existing.WertID == pv.WertID {
				return fmt.Errorf("%w: link %s/%s", ErrExists, pv.ProfilID, pv.WertID)
			}
			if existing.ProfilID == pv.ProfilID && existing.order() > maxOrder {
				maxOrder = existing.order()
			}
		}

		if pv.Reihenfolge == nil {
			next := maxOrder + 1
			pv.Reihenfolge = &next
		}
		pv.ID = r.ids.NewID(PrefixLink)
		records = append(records, pv)
		if err := store.Write(r.st, CollectionLinks, records); err != nil {
			return err
		}
		created = pv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *ProfileValueRepoJSON) Update(ctx context.Context, id string, fields map[string]any) (*ProfileValue, error) {
	var updated ProfileValue
	err := r.st.WithLock(CollectionLinks, func() error {
		records := store.Read[ProfileValue](r.st, CollectionLinks)
		for i, pv := range records {
			if pv.ID != id {
				continue
			}
			merged, err := mergeRecord(pv, fields)
			if err != nil {
				return err
			}
			merged.ID = id
			records[i] = merged
			if err := store.Write(r.st, CollectionLinks, records); err != nil {
				return err
			}
			updated = merged
			return nil
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *ProfileValueRepoJSON) Delete(ctx context.Context, id string) error {
	return r.st.WithLock(CollectionLinks, func() error {
		records := store.Read[ProfileValue](r.st, CollectionLinks)
		kept := records[:0:0]
		for _, pv := range records {
			if pv.ID != id {
				kept = append(kept, pv)
			}
		}
		if len(kept) == len(records) {
			return ErrNotFound
		}
		return store.Write(r.st, CollectionLinks, kept)
	})
}

// DeleteByProfile drops every link for the profile. Removing zero links is
// not an error; cascades run after the owning record is already gone.
func (r *ProfileValueRepoJSON) DeleteByProfile(ctx context.Context, profilID string) error {
	return r.st.WithLock(CollectionLinks, func() error {
		records := store.Read[ProfileValue](r.st, CollectionLinks)
		kept := records[:0:0]
		for _, pv := range records {
			if pv.ProfilID != profilID {
				kept = append(kept, pv)
			}
		}
		if len(kept) == len(records) {
			return nil
		}
		return store.Write(r.st, CollectionLinks, kept)
	})
}

// DeleteByValue drops every link for the lab value.
func (r *ProfileValueRepoJSON) DeleteByValue(ctx context.Context, wertID string) error {
	return r.st.WithLock(CollectionLinks, func() error {
		records := store.Read[ProfileValue](r.st, CollectionLinks)
		kept := records[:0:0]
		for _, pv := range records {
			if pv.WertID != wertID {
				kept = append(kept, pv)
			}
		}
		if len(kept) == len(records) {
			return nil
		}
		return store.Write(r.st, CollectionLinks, kept)
	})
}
