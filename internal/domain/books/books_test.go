package books_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bibliotheca/bibliotheca/internal/domain/books"
	memstore "github.com/bibliotheca/bibliotheca/internal/storage/memory"
)

type genreSet map[string]bool

func (g genreSet) Exists(_ context.Context, id string) (bool, error) { return g[id], nil }

func TestServiceCreateDefaults(t *testing.T) {
	svc := books.NewService(memstore.NewBookRepository(), nil)

	book, err := svc.Create(context.Background(), books.CreateInput{Title: " Dune ", Author: "Frank Herbert", Year: 1965})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if book.ID == "" {
		t.Fatalf("expected ID to be set")
	}
	if book.Title != "Dune" {
		t.Fatalf("expected trimmed title, got %q", book.Title)
	}
	if !book.Availability {
		t.Fatalf("new books must be available")
	}
	if book.GenreID != books.NoGenre {
		t.Fatalf("expected placeholder genre, got %q", book.GenreID)
	}
}

func TestServiceCreateValidation(t *testing.T) {
	svc := books.NewService(memstore.NewBookRepository(), nil)
	next := time.Now().Year() + 1

	cases := []struct {
		name  string
		input books.CreateInput
		ok    bool
	}{
		{"missing title", books.CreateInput{Author: "A", Year: 2000}, false},
		{"missing author", books.CreateInput{Title: "T", Year: 2000}, false},
		{"far future", books.CreateInput{Title: "T", Author: "A", Year: next + 1}, false},
		{"next year", books.CreateInput{Title: "T", Author: "A", Year: next}, true},
		{"ancient", books.CreateInput{Title: "Iliad", Author: "Homer", Year: -750}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, books.ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestServiceUpdateGenre(t *testing.T) {
	ctx := context.Background()
	svc := books.NewService(memstore.NewBookRepository(), genreSet{"g1": true})
	book, err := svc.Create(ctx, books.CreateInput{Title: "Dune", Author: "Frank Herbert", Year: 1965})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	genre := "g1"
	updated, err := svc.Update(ctx, book.ID, books.Patch{GenreID: &genre})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.GenreID != "g1" {
		t.Fatalf("expected genre g1, got %q", updated.GenreID)
	}

	unknown := "g2"
	if _, err := svc.Update(ctx, book.ID, books.Patch{GenreID: &unknown}); !errors.Is(err, books.ErrUnknownGenre) {
		t.Fatalf("expected ErrUnknownGenre, got %v", err)
	}

	blank := ""
	updated, err = svc.Update(ctx, book.ID, books.Patch{GenreID: &blank})
	if err != nil || updated.GenreID != books.NoGenre {
		t.Fatalf("blank genre should reset to placeholder, got %q (%v)", updated.GenreID, err)
	}

	empty := " "
	if _, err := svc.Update(ctx, book.ID, books.Patch{Title: &empty}); !errors.Is(err, books.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for blank title, got %v", err)
	}
}

func TestServiceSearch(t *testing.T) {
	ctx := context.Background()
	svc := books.NewService(memstore.NewBookRepository(), nil)
	for _, in := range []books.CreateInput{
		{Title: "Dune", Author: "Frank Herbert", Year: 1965},
		{Title: "Dune Messiah", Author: "Frank Herbert", Year: 1969},
		{Title: "Hyperion", Author: "Dan Simmons", Year: 1989},
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	list, err := svc.Search(ctx, books.Query{})
	if err != nil || len(list) != 0 {
		t.Fatalf("empty query should match nothing, got %d (%v)", len(list), err)
	}

	author := "Frank Herbert"
	list, err = svc.Search(ctx, books.Query{Author: &author})
	if err != nil || len(list) != 2 {
		t.Fatalf("expected two books by author, got %d (%v)", len(list), err)
	}

	year := 1969
	list, err = svc.Search(ctx, books.Query{Author: &author, Year: &year})
	if err != nil || len(list) != 1 || list[0].Title != "Dune Messiah" {
		t.Fatalf("expected Dune Messiah, got %+v (%v)", list, err)
	}
}

func TestServiceListPagination(t *testing.T) {
	ctx := context.Background()
	svc := books.NewService(memstore.NewBookRepository(), nil)
	for _, title := range []string{"a", "b", "c"} {
		if _, err := svc.Create(ctx, books.CreateInput{Title: title, Author: "x", Year: 2000}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	all, _ := svc.List(ctx, 0, 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 books, got %d", len(all))
	}
	window, _ := svc.List(ctx, 1, 1)
	if len(window) != 1 || window[0].ID != all[1].ID {
		t.Fatalf("unexpected page: %+v", window)
	}
	past, _ := svc.List(ctx, 10, 0)
	if len(past) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(past))
	}
}

func TestNullRepository(t *testing.T) {
	svc := books.NewService(books.NullRepository{}, nil)
	if _, err := svc.Get(context.Background(), "x"); !errors.Is(err, books.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}
