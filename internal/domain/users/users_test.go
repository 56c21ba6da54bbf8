package users_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bibliotheca/bibliotheca/internal/domain/users"
	memstore "github.com/bibliotheca/bibliotheca/internal/storage/memory"
)

func TestServiceRegisterNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	svc := users.NewService(memstore.NewUserRepository())

	user, err := svc.Register(ctx, users.RegisterInput{
		FirstName: " Grace ",
		LastName:  "Hopper",
		Email:     " Grace@Navy.MIL ",
		BirthDate: "1906-12-09",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected ID to be set")
	}
	if user.Email != "grace@navy.mil" {
		t.Fatalf("expected lower-cased email, got %q", user.Email)
	}
	if user.FirstName != "Grace" {
		t.Fatalf("expected trimmed first name, got %q", user.FirstName)
	}
	if user.Role != users.RoleUser {
		t.Fatalf("expected default role %q, got %q", users.RoleUser, user.Role)
	}
	if user.BorrowedBooks == nil || len(user.BorrowedBooks) != 0 {
		t.Fatalf("expected empty borrowed books, got %v", user.BorrowedBooks)
	}

	_, err = svc.Register(ctx, users.RegisterInput{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "GRACE@navy.mil",
		BirthDate: "1990-01-01",
	})
	if !errors.Is(err, users.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestServiceRegisterValidation(t *testing.T) {
	svc := users.NewService(memstore.NewUserRepository())
	valid := users.RegisterInput{FirstName: "A", LastName: "B", Email: "a@b.c", BirthDate: "2000-02-29"}

	cases := map[string]func(in *users.RegisterInput){
		"missing first name": func(in *users.RegisterInput) { in.FirstName = "  " },
		"missing last name":  func(in *users.RegisterInput) { in.LastName = "" },
		"missing email":      func(in *users.RegisterInput) { in.Email = "" },
		"malformed email":    func(in *users.RegisterInput) { in.Email = "nobody" },
		"trailing at":        func(in *users.RegisterInput) { in.Email = "nobody@" },
		"bad birth date":     func(in *users.RegisterInput) { in.BirthDate = "29/02/2000" },
		"impossible date":    func(in *users.RegisterInput) { in.BirthDate = "2001-02-29" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			if _, err := svc.Register(context.Background(), in); !errors.Is(err, users.ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	svc := users.NewService(memstore.NewUserRepository())
	user, err := svc.Register(ctx, users.RegisterInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", BirthDate: "1815-12-10"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	role := " ADMIN "
	email := "Countess@Example.com"
	updated, err := svc.Update(ctx, user.ID, users.Patch{Role: &role, Email: &email})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Role != users.RoleAdmin || updated.Email != "countess@example.com" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	bogus := "librarian"
	if _, err := svc.Update(ctx, user.ID, users.Patch{Role: &bogus}); !errors.Is(err, users.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown role, got %v", err)
	}

	same, err := svc.Update(ctx, user.ID, users.Patch{})
	if err != nil || same.ID != user.ID {
		t.Fatalf("empty patch should return the user, got %+v, %v", same, err)
	}

	if _, err := svc.Update(ctx, "missing", users.Patch{Role: &role}); !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceSearch(t *testing.T) {
	ctx := context.Background()
	svc := users.NewService(memstore.NewUserRepository())
	for _, in := range []users.RegisterInput{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", BirthDate: "1815-12-10"},
		{FirstName: "Ada", LastName: "Yonath", Email: "yonath@example.com", BirthDate: "1939-06-22"},
	} {
		if _, err := svc.Register(ctx, in); err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}

	if _, err := svc.Search(ctx, users.Query{}); !errors.Is(err, users.ErrNoCriteria) {
		t.Fatalf("expected ErrNoCriteria, got %v", err)
	}

	first := "Ada"
	list, err := svc.Search(ctx, users.Query{FirstName: &first})
	if err != nil || len(list) != 2 {
		t.Fatalf("expected two matches, got %d (%v)", len(list), err)
	}

	last := "Yonath"
	list, err = svc.Search(ctx, users.Query{FirstName: &first, LastName: &last})
	if err != nil || len(list) != 1 || list[0].LastName != "Yonath" {
		t.Fatalf("expected one match, got %+v (%v)", list, err)
	}

	email := "ADA@EXAMPLE.COM"
	list, err = svc.Search(ctx, users.Query{Email: &email})
	if err != nil || len(list) != 1 {
		t.Fatalf("expected email search to ignore case, got %d (%v)", len(list), err)
	}
}

func TestUserHolds(t *testing.T) {
	u := users.User{BorrowedBooks: []string{"a", "b"}}
	if !u.Holds("b") || u.Holds("c") {
		t.Fatalf("unexpected Holds result for %v", u.BorrowedBooks)
	}
}
