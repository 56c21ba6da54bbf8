package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/bibliotheca/bibliotheca/internal/domain"
	"github.com/bibliotheca/bibliotheca/internal/domain/books"
	"github.com/bibliotheca/bibliotheca/internal/domain/comments"
	"github.com/bibliotheca/bibliotheca/internal/domain/genres"
	"github.com/bibliotheca/bibliotheca/internal/domain/users"
)

// SeedCmd loads sample genres, books, members and reviews.
type SeedCmd struct{}

type sampleBook struct {
	input books.CreateInput
	genre string
}

var (
	sampleGenres = []string{"science fiction", "fantasy", "classics"}

	sampleBooks = []sampleBook{
		{books.CreateInput{Title: "Dune", Author: "Frank Herbert", Year: 1965, Resume: "Desert planet politics and spice."}, "science fiction"},
		{books.CreateInput{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", Year: 1969, Resume: "An envoy on the winter world Gethen."}, "science fiction"},
		{books.CreateInput{Title: "The Hobbit", Author: "J. R. R. Tolkien", Year: 1937, Resume: "A burglar joins a company of dwarves."}, "fantasy"},
		{books.CreateInput{Title: "Middlemarch", Author: "George Eliot", Year: 1871, Resume: "Provincial life in the Midlands."}, "classics"},
	}

	sampleUsers = []users.RegisterInput{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", BirthDate: "1815-12-10"},
		{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com", BirthDate: "1912-06-23"},
	}
)

func (s *SeedCmd) Run(g *Global) error {
	ctx := context.Background()
	logr := g.Logger

	be, err := openBackend(ctx, g.Config, logr, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := be.Close(ctx); cerr != nil {
			logr.Error("error closing backend", "err", cerr)
		}
	}()

	return seed(ctx, be.Container, func(kind, id string) {
		logr.Info("seeded", "kind", kind, "id", id)
	})
}

// seed populates c. Existing genres and members are reused so the command
// can run more than once.
func seed(ctx context.Context, c domain.Container, report func(kind, id string)) error {
	genreIDs := make(map[string]string, len(sampleGenres))
	for _, name := range sampleGenres {
		genre, err := c.Genres.Create(ctx, name)
		if errors.Is(err, genres.ErrExists) {
			shelf, serr := c.Genres.BooksByName(ctx, name)
			if serr != nil {
				return fmt.Errorf("load genre %q: %w", name, serr)
			}
			genre, err = *shelf.Genre, nil
		}
		if err != nil {
			return fmt.Errorf("seed genre %q: %w", name, err)
		}
		genreIDs[name] = genre.ID
		report("genre", genre.ID)
	}

	bookIDs := make([]string, 0, len(sampleBooks))
	for _, sb := range sampleBooks {
		book, err := c.Books.Create(ctx, sb.input)
		if err != nil {
			return fmt.Errorf("seed book %q: %w", sb.input.Title, err)
		}
		genreID := genreIDs[sb.genre]
		if _, err := c.Books.Update(ctx, book.ID, books.Patch{GenreID: &genreID}); err != nil {
			return fmt.Errorf("shelve book %q: %w", sb.input.Title, err)
		}
		bookIDs = append(bookIDs, book.ID)
		report("book", book.ID)
	}

	userIDs := make([]string, 0, len(sampleUsers))
	for _, in := range sampleUsers {
		user, err := c.Users.Register(ctx, in)
		if errors.Is(err, users.ErrEmailExists) {
			email := in.Email
			found, serr := c.Users.Search(ctx, users.Query{Email: &email})
			if serr != nil || len(found) == 0 {
				return fmt.Errorf("load user %q: %w", in.Email, errors.Join(err, serr))
			}
			user, err = found[0], nil
		}
		if err != nil {
			return fmt.Errorf("seed user %q: %w", in.Email, err)
		}
		userIDs = append(userIDs, user.ID)
		report("user", user.ID)
	}

	for i, bookID := range bookIDs {
		in := comments.CreateInput{
			UserID:  userIDs[i%len(userIDs)],
			BookID:  bookID,
			Comment: "Worth a read.",
			Rating:  3 + i%3,
		}
		comment, err := c.Comments.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("seed comment: %w", err)
		}
		report("comment", comment.ID)
	}
	return nil
}
