package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/grantforge/grantforge/pkg/model"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager([]byte("test-secret"), time.Hour)

	companyID := uuid.New()
	user := &model.User{
		ID:        uuid.New(),
		CompanyID: &companyID,
		Role:      model.RoleEditor,
	}

	token, err := manager.Generate(user)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	if claims.UserUUID() != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, claims.UserID)
	}
	if claims.CompanyUUID() != companyID {
		t.Fatalf("expected company %s, got %s", companyID, claims.CompanyID)
	}
	if claims.Role != string(model.RoleEditor) {
		t.Fatalf("expected role editor, got %s", claims.Role)
	}
	if claims.IsAdmin() {
		t.Fatal("editor should not be admin")
	}
}

func TestValidateRejectsWrongKey(t *testing.T) {
	issuer := NewTokenManager([]byte("key-one"), time.Hour)
	verifier := NewTokenManager([]byte("key-two"), time.Hour)

	token, err := issuer.Generate(&model.User{ID: uuid.New(), Role: model.RoleViewer})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if _, err := verifier.Validate(token); err == nil {
		t.Fatal("expected validation failure with wrong signing key")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	manager := NewTokenManager([]byte("test-secret"), -time.Minute)

	token, err := manager.Generate(&model.User{ID: uuid.New(), Role: model.RoleViewer})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if _, err := manager.Validate(token); err == nil {
		t.Fatal("expected validation failure for expired token")
	}
}

func TestClaimsWithoutCompany(t *testing.T) {
	manager := NewTokenManager([]byte("test-secret"), time.Hour)

	token, err := manager.Generate(&model.User{ID: uuid.New(), Role: model.RoleViewer})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if claims.CompanyUUID() != uuid.Nil {
		t.Fatalf("expected nil company, got %s", claims.CompanyUUID())
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2-hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == "hunter2-hunter2" {
		t.Fatal("hash should not equal plaintext")
	}
	if !CheckPassword(hash, "hunter2-hunter2") {
		t.Fatal("correct password should verify")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Fatal("wrong password should not verify")
	}
}
