package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/grantforge/grantforge/pkg/model"
)

// openTestStore opens a private in-memory database per test. cache=shared
// keeps the schema visible across pooled connections.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	store := NewStoreWithDB(db)
	if err := store.AutoMigrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() { store.Close() })
	return store
}

func seedCompany(t *testing.T, store *Store, name string) *model.Company {
	t.Helper()
	company := &model.Company{Name: name}
	if err := NewCompanyRepository(store.DB()).Create(context.Background(), company); err != nil {
		t.Fatalf("seed company: %v", err)
	}
	return company
}

func seedUser(t *testing.T, store *Store, companyID uuid.UUID, email string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		Name:         email,
		PasswordHash: "x",
		Role:         role,
		Approved:     true,
		CompanyID:    &companyID,
	}
	if err := NewUserRepository(store.DB()).Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedProject(t *testing.T, store *Store, companyID, ownerID uuid.UUID, name string) *model.Project {
	t.Helper()
	project := &model.Project{
		CompanyID: companyID,
		OwnerID:   ownerID,
		Name:      name,
		Status:    model.ProjectDraft,
	}
	if err := NewProjectRepository(store.DB()).Create(context.Background(), project); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project
}
