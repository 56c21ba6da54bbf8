package domain

import (
	"github.com/bibliotheca/bibliotheca/internal/domain/books"
	"github.com/bibliotheca/bibliotheca/internal/domain/comments"
	"github.com/bibliotheca/bibliotheca/internal/domain/genres"
	"github.com/bibliotheca/bibliotheca/internal/domain/loans"
	"github.com/bibliotheca/bibliotheca/internal/domain/users"
)

// Container wires domain services together.
type Container struct {
	Books    books.Service
	Users    users.Service
	Genres   genres.Service
	Comments comments.Service
	Loans    loans.Service
}

// Options configures the domain container.
type Options struct {
	BookRepo    books.Repository
	UserRepo    users.Repository
	GenreRepo   genres.Repository
	CommentRepo comments.Repository
	LoanRepo    loans.Repository

	LoanRecorder loans.Recorder
}

// New constructs a domain container with provided repositories.
func New(opts Options) Container {
	bookRepo := opts.BookRepo
	if bookRepo == nil {
		bookRepo = books.NullRepository{}
	}

	userRepo := opts.UserRepo
	if userRepo == nil {
		userRepo = users.NullRepository{}
	}

	genreRepo := opts.GenreRepo
	if genreRepo == nil {
		genreRepo = genres.NullRepository{}
	}

	commentRepo := opts.CommentRepo
	if commentRepo == nil {
		commentRepo = comments.NullRepository{}
	}

	loanRepo := opts.LoanRepo
	if loanRepo == nil {
		loanRepo = loans.NullRepository{}
	}

	genreSvc := genres.NewService(genreRepo, bookRepo)

	return Container{
		Books:    books.NewService(bookRepo, genreSvc),
		Users:    users.NewService(userRepo),
		Genres:   genreSvc,
		Comments: comments.NewService(commentRepo, bookRepo, userRepo),
		Loans:    loans.NewService(loanRepo, opts.LoanRecorder),
	}
}
