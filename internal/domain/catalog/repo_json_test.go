package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/labkatalog/labkatalog/internal/platform/ident"
	"github.com/labkatalog/labkatalog/internal/platform/store"
)

type testRepos struct {
	departments *DepartmentRepoJSON
	profiles    *ProfileRepoJSON
	values      *LabValueRepoJSON
	links       *ProfileValueRepoJSON
}

func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	st := store.New(t.TempDir(), zerolog.Nop())
	ids := ident.NewSequence()
	links := NewProfileValueRepoJSON(st, ids)
	return testRepos{
		departments: NewDepartmentRepoJSON(st, ids),
		profiles:    NewProfileRepoJSON(st, ids, links),
		values:      NewLabValueRepoJSON(st, ids, links),
		links:       links,
	}
}

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }

func TestDepartmentCreate_AssignsID(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	d, err := r.departments.Create(ctx, Department{Name: "Kardiologie"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.ID != "fb-1" {
		t.Errorf("expected generated id fb-1, got %s", d.ID)
	}

	all, _ := r.departments.List(ctx)
	if len(all) != 1 || all[0].ID != d.ID {
		t.Fatalf("list should contain exactly the created record, got %+v", all)
	}
}

func TestDepartmentCreate_RequiresName(t *testing.T) {
	r := newTestRepos(t)

	_, err := r.departments.Create(context.Background(), Department{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProfileCreate_RequiresDepartment(t *testing.T) {
	r := newTestRepos(t)

	_, err := r.profiles.Create(context.Background(), Profile{Name: "Basisprofil"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdate_PartialMerge(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	created, err := r.values.Create(ctx, LabValue{
		Name:       "Natrium",
		EBMZiffer:  strptr("32081"),
		Erklaerung: strptr("Elektrolyt"),
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := r.values.Update(ctx, created.ID, map[string]any{"name": "Natrium i.S."})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Natrium i.S." {
		t.Errorf("name not updated: %s", updated.Name)
	}
	if updated.EBMZiffer == nil || *updated.EBMZiffer != "32081" {
		t.Errorf("untouched field changed: %v", updated.EBMZiffer)
	}
	if updated.Erklaerung == nil || *updated.Erklaerung != "Elektrolyt" {
		t.Errorf("untouched field changed: %v", updated.Erklaerung)
	}

	// Re-read from disk, not just the returned value.
	stored, err := r.values.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Name != "Natrium i.S." || stored.EBMZiffer == nil {
		t.Errorf("stored record wrong: %+v", stored)
	}
}

func TestUpdate_ExplicitNullClearsField(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	created, _ := r.values.Create(ctx, LabValue{Name: "Kalium", EBMZiffer: strptr("32082")})

	updated, err := r.values.Update(ctx, created.ID, map[string]any{"ebm_ziffer": nil})
	if err != nil {
		t.Fatal(err)
	}
	if updated.EBMZiffer != nil {
		t.Errorf("expected cleared field, got %v", *updated.EBMZiffer)
	}
	if updated.Name != "Kalium" {
		t.Errorf("name should be retained, got %s", updated.Name)
	}
}

func TestUpdate_CannotReassignID(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	created, _ := r.departments.Create(ctx, Department{Name: "Labor"})
	updated, err := r.departments.Update(ctx, created.ID, map[string]any{"id": "fb-evil", "name": "Labor 2"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.ID != created.ID {
		t.Errorf("id changed on update: %s", updated.ID)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	r := newTestRepos(t)

	_, err := r.departments.Update(context.Background(), "fb-404", map[string]any{"name": "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	r := newTestRepos(t)

	if err := r.values.Delete(context.Background(), "wert-404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLinkCreate_OrderDefaults(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	first, err := r.links.Create(ctx, ProfileValue{ProfilID: "profil-1", WertID: "wert-1"})
	if err != nil {
		t.Fatal(err)
	}
	if first.Reihenfolge == nil || *first.Reihenfolge != 1 {
		t.Errorf("first link should get order 1, got %v", first.Reihenfolge)
	}

	second, err := r.links.Create(ctx, ProfileValue{ProfilID: "profil-1", WertID: "wert-2"})
	if err != nil {
		t.Fatal(err)
	}
	if second.Reihenfolge == nil || *second.Reihenfolge != 2 {
		t.Errorf("second link should append after max, got %v", second.Reihenfolge)
	}

	// An explicit order is kept as supplied.
	third, err := r.links.Create(ctx, ProfileValue{ProfilID: "profil-1", WertID: "wert-3", Reihenfolge: intptr(10)})
	if err != nil {
		t.Fatal(err)
	}
	if *third.Reihenfolge != 10 {
		t.Errorf("explicit order overridden: %v", *third.Reihenfolge)
	}

	// Orders count per profile, not globally.
	other, err := r.links.Create(ctx, ProfileValue{ProfilID: "profil-2", WertID: "wert-1"})
	if err != nil {
		t.Fatal(err)
	}
	if *other.Reihenfolge != 1 {
		t.Errorf("other profile should start at 1, got %v", *other.Reihenfolge)
	}
}

func TestLinkCreate_RejectsDuplicatePair(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	if _, err := r.links.Create(ctx, ProfileValue{ProfilID: "profil-1", WertID: "wert-1"}); err != nil {
		t.Fatal(err)
	}
	_, err := r.links.Create(ctx, ProfileValue{ProfilID: "profil-1", WertID: "wert-1"})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestLinkCreate_RequiresBothIDs(t *testing.T) {
	r := newTestRepos(t)

	_, err := r.links.Create(context.Background(), ProfileValue{ProfilID: "profil-1"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProfileDelete_CascadesLinks(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	p, _ := r.profiles.Create(ctx, Profile{Name: "Basisprofil", FachbereichID: "fb-1"})
	r.links.Create(ctx, ProfileValue{ProfilID: p.ID, WertID: "wert-1"})
	r.links.Create(ctx, ProfileValue{ProfilID: p.ID, WertID: "wert-2"})
	r.links.Create(ctx, ProfileValue{ProfilID: "profil-other", WertID: "wert-1"})

	if err := r.profiles.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	remaining, _ := r.links.List(ctx)
	if len(remaining) != 1 || remaining[0].ProfilID != "profil-other" {
		t.Fatalf("expected only the unrelated link to survive, got %+v", remaining)
	}
}

func TestLabValueDelete_CascadesLinks(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	v, _ := r.values.Create(ctx, LabValue{Name: "Natrium"})
	r.links.Create(ctx, ProfileValue{ProfilID: "profil-1", WertID: v.ID})
	r.links.Create(ctx, ProfileValue{ProfilID: "profil-2", WertID: v.ID})
	r.links.Create(ctx, ProfileValue{ProfilID: "profil-1", WertID: "wert-other"})

	if err := r.values.Delete(ctx, v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	remaining, _ := r.links.List(ctx)
	if len(remaining) != 1 || remaining[0].WertID != "wert-other" {
		t.Fatalf("expected only the unrelated link to survive, got %+v", remaining)
	}
}

func TestDepartmentDelete_DoesNotCascade(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	d, _ := r.departments.Create(ctx, Department{Name: "Kardiologie"})
	p, _ := r.profiles.Create(ctx, Profile{Name: "Basisprofil", FachbereichID: d.ID})

	if err := r.departments.Delete(ctx, d.ID); err != nil {
		t.Fatal(err)
	}

	orphan, err := r.profiles.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("profile should be orphaned, not deleted: %v", err)
	}
	if orphan.FachbereichID != d.ID {
		t.Errorf("dangling reference should stay, got %s", orphan.FachbereichID)
	}
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	r.values.Create(ctx, LabValue{Name: "Natrium"})
	r.values.Create(ctx, LabValue{Name: "Kalium"})
	r.values.Create(ctx, LabValue{Name: "Kreatinin"})

	matches, _ := r.values.Search(ctx, "KAL")
	if len(matches) != 1 || matches[0].Name != "Kalium" {
		t.Fatalf("expected Kalium, got %+v", matches)
	}

	all, _ := r.values.Search(ctx, "")
	if len(all) != 3 {
		t.Fatalf("empty term should return full collection, got %d", len(all))
	}

	none, _ := r.values.Search(ctx, "xyz")
	if len(none) != 0 {
		t.Fatalf("expected zero matches, got %+v", none)
	}
}
