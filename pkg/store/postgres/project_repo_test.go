package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grantforge/grantforge/pkg/model"
)

func TestProjectUpdateSnapshotsVersions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	company := seedCompany(t, store, "acme")
	owner := seedUser(t, store, company.ID, "owner@acme.test", model.RoleEditor)
	project := seedProject(t, store, company.ID, owner.ID, "original name")

	repo := NewProjectRepository(store.DB())

	firstName := "renamed once"
	if _, err := repo.Update(ctx, company.ID, project.ID, owner.ID, ProjectUpdate{Name: &firstName}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	secondName := "renamed twice"
	updated, err := repo.Update(ctx, company.ID, project.ID, owner.ID, ProjectUpdate{Name: &secondName})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if updated.Name != "renamed twice" {
		t.Fatalf("expected updated name, got %q", updated.Name)
	}

	versions, err := repo.ListVersions(ctx, company.ID, project.ID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	// Newest first.
	if versions[0].VersionNumber != 2 || versions[1].VersionNumber != 1 {
		t.Fatalf("expected version numbers [2 1], got [%d %d]", versions[0].VersionNumber, versions[1].VersionNumber)
	}
	if versions[1].Name != "original name" {
		t.Fatalf("version 1 should snapshot the pre-update name, got %q", versions[1].Name)
	}
	if versions[0].Name != "renamed once" {
		t.Fatalf("version 2 should snapshot the intermediate name, got %q", versions[0].Name)
	}
	if versions[0].ChangedBy != owner.ID {
		t.Fatalf("version should record who changed it")
	}
}

func TestProjectUpdateScopedToCompany(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	company := seedCompany(t, store, "acme")
	other := seedCompany(t, store, "rival")
	owner := seedUser(t, store, company.ID, "owner@acme.test", model.RoleEditor)
	project := seedProject(t, store, company.ID, owner.ID, "scoped")

	repo := NewProjectRepository(store.DB())

	name := "stolen"
	if _, err := repo.Update(ctx, other.ID, project.ID, owner.ID, ProjectUpdate{Name: &name}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for foreign company, got %v", err)
	}

	versions, err := repo.ListVersions(ctx, company.ID, project.ID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("failed update must not leave a version row, got %d", len(versions))
	}
}

func TestProjectListFilters(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	company := seedCompany(t, store, "acme")
	owner := seedUser(t, store, company.ID, "owner@acme.test", model.RoleEditor)

	seedProject(t, store, company.ID, owner.ID, "alpha")
	beta := seedProject(t, store, company.ID, owner.ID, "beta")

	repo := NewProjectRepository(store.DB())
	if err := repo.SetArchived(ctx, company.ID, beta.ID, true); err != nil {
		t.Fatalf("SetArchived: %v", err)
	}

	archived := true
	projects, total, err := repo.List(ctx, company.ID, ProjectFilter{Archived: &archived}, 50, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(projects) != 1 || projects[0].ID != beta.ID {
		t.Fatalf("expected only the archived project, got total=%d len=%d", total, len(projects))
	}

	notArchived := false
	projects, total, err = repo.List(ctx, company.ID, ProjectFilter{Archived: &notArchived, Sort: "name"}, 50, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || projects[0].Name != "alpha" {
		t.Fatalf("expected only alpha, got total=%d", total)
	}
}

func TestProjectListExcludesOtherCompanies(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	company := seedCompany(t, store, "acme")
	other := seedCompany(t, store, "rival")
	owner := seedUser(t, store, company.ID, "owner@acme.test", model.RoleEditor)
	rivalOwner := seedUser(t, store, other.ID, "owner@rival.test", model.RoleEditor)

	mine := seedProject(t, store, company.ID, owner.ID, "mine")
	seedProject(t, store, other.ID, rivalOwner.ID, "theirs")

	repo := NewProjectRepository(store.DB())
	projects, total, err := repo.List(ctx, company.ID, ProjectFilter{}, 50, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(projects) != 1 || projects[0].ID != mine.ID {
		t.Fatalf("expected one scoped project, got total=%d len=%d", total, len(projects))
	}

	if _, err := repo.GetByID(ctx, other.ID, mine.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound fetching across companies, got %v", err)
	}
}

func TestProjectDeleteNotFound(t *testing.T) {
	store := openTestStore(t)

	company := seedCompany(t, store, "acme")
	repo := NewProjectRepository(store.DB())

	if err := repo.Delete(context.Background(), company.ID, uuid.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestSaveAndListNarratives(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	company := seedCompany(t, store, "acme")
	owner := seedUser(t, store, company.ID, "owner@acme.test", model.RoleEditor)
	project := seedProject(t, store, company.ID, owner.ID, "narrated")

	repo := NewProjectRepository(store.DB())
	narrative := &model.Narrative{
		ProjectID:  project.ID,
		Content:    "narrated\n\n1. Q\nA\n",
		CompiledBy: owner.ID,
	}
	if err := repo.SaveNarrative(ctx, narrative); err != nil {
		t.Fatalf("SaveNarrative: %v", err)
	}

	narratives, err := repo.ListNarratives(ctx, company.ID, project.ID)
	if err != nil {
		t.Fatalf("ListNarratives: %v", err)
	}
	if len(narratives) != 1 || narratives[0].Content != narrative.Content {
		t.Fatalf("expected saved narrative back, got %d", len(narratives))
	}
}
