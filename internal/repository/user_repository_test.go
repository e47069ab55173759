package repository

import (
	"errors"
	"testing"

	"github.com/gks77/user-account-service/internal/domain"
)

func TestUserRepositoryCreateAndFind(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)

	u := &domain.User{Username: "alice", Email: "alice@example.com", HashedPassword: "x", IsActive: true}
	if err := repo.Create(u); err != nil {
		t.Fatalf("create: %v", err)
	}

	byEmail, err := repo.FindByEmail("  ALICE@example.com ") // normalized
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("find by email: %+v err=%v", byEmail, err)
	}
	byName, err := repo.FindByUsername("alice")
	if err != nil || byName.ID != u.ID {
		t.Fatalf("find by username: %+v err=%v", byName, err)
	}

	dup := &domain.User{Username: "alice2", Email: "alice@example.com", HashedPassword: "x"}
	if err := repo.Create(dup); !errors.Is(err, ErrDuplicateResource) {
		t.Fatalf("expected ErrDuplicateResource on reused email, got %v", err)
	}

	ok, err := repo.Exists(u.ID)
	if err != nil || !ok {
		t.Fatalf("exists: %v %v", ok, err)
	}
}

func TestUserRepositoryListPagedSearch(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)

	for _, u := range []*domain.User{
		{Username: "alice", Email: "alice@example.com", HashedPassword: "x", IsActive: true},
		{Username: "bob", Email: "bob@example.com", HashedPassword: "x", IsActive: true},
		{Username: "carol", Email: "carol@other.org", HashedPassword: "x", IsActive: false},
	} {
		if err := repo.Create(u); err != nil {
			t.Fatalf("create %s: %v", u.Email, err)
		}
	}

	page, err := repo.ListPaged(UserListQuery{
		PageRequest: PageRequest{Page: 1, PageSize: 10},
		Search:      "example.com",
		ActiveOnly:  true,
	})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("expected 2 active example.com users, got total=%d items=%d", page.Total, len(page.Items))
	}

	all, err := repo.ListPaged(UserListQuery{PageRequest: PageRequest{Page: 1, PageSize: 2}})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if all.Total != 3 || all.TotalPages != 2 || len(all.Items) != 2 {
		t.Fatalf("unexpected pagination: %+v", all)
	}
}

func TestUserRepositorySoftDeleteHidesUser(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)

	u := &domain.User{Username: "dan", Email: "dan@example.com", HashedPassword: "x", IsActive: true}
	if err := repo.Create(u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after soft delete, got %v", err)
	}
	if err := repo.Delete(u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound deleting twice, got %v", err)
	}
}

func TestProfileRepositoryOnePerUser(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewProfileRepository(db)
	user := createUserForTest(t, db, "eva", "eva@example.com")

	p := &domain.Profile{UserID: user.ID, FirstName: "Eva", Visibility: domain.ProfilePrivate}
	if err := repo.Create(p); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := &domain.Profile{UserID: user.ID, FirstName: "Eve"}
	if err := repo.Create(second); !errors.Is(err, ErrDuplicateResource) {
		t.Fatalf("expected ErrDuplicateResource on second profile, got %v", err)
	}

	loaded, err := repo.FindByUserID(user.ID)
	if err != nil || loaded.FirstName != "Eva" {
		t.Fatalf("find: %+v err=%v", loaded, err)
	}

	loaded.Bio = "hello"
	if err := repo.Update(loaded); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.DeleteByUserID(user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByUserID(user.ID); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestUserTypeRepositoryEnsureIsIdempotent(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserTypeRepository(db)

	admin := &domain.UserType{Name: "Administrator", Code: "ADMIN", IsActive: true}
	if err := repo.Ensure(admin); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	again := &domain.UserType{Name: "Administrator", Code: "ADMIN", IsActive: true}
	if err := repo.Ensure(again); err != nil {
		t.Fatalf("ensure twice: %v", err)
	}
	if again.ID != admin.ID {
		t.Fatal("second Ensure must return the existing row")
	}

	byCode, err := repo.FindByCode("admin")
	if err != nil || byCode.ID != admin.ID {
		t.Fatalf("find by code: %+v err=%v", byCode, err)
	}

	types, err := repo.List(true)
	if err != nil || len(types) != 1 {
		t.Fatalf("list: %d err=%v", len(types), err)
	}
}
