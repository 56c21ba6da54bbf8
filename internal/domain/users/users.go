package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// BirthDateLayout is the accepted birth_date format.
const BirthDateLayout = "2006-01-02"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrNotImplemented = errors.New("users repository: not implemented")
	ErrNotFound       = errors.New("user not found")
	ErrInvalid        = errors.New("invalid user")
	ErrEmailExists    = errors.New("email already in use")
	ErrNoCriteria     = errors.New("no search criteria provided")
	ErrHasLoans       = errors.New("user still has borrowed books")
)

// User is a library member.
type User struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	BirthDate     string    `json:"birth_date"`
	BorrowedBooks []string  `json:"borrowed_books"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Holds reports whether the user currently has bookID on loan.
func (u User) Holds(bookID string) bool {
	for _, id := range u.BorrowedBooks {
		if id == bookID {
			return true
		}
	}
	return false
}

// Query filters users by exact field values. Nil fields are ignored.
type Query struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// Empty reports whether no criteria are set.
func (q Query) Empty() bool {
	return q.FirstName == nil && q.LastName == nil && q.Email == nil
}

// Matches reports whether u satisfies every criterion in q.
func (q Query) Matches(u User) bool {
	if q.FirstName != nil && u.FirstName != *q.FirstName {
		return false
	}
	if q.LastName != nil && u.LastName != *q.LastName {
		return false
	}
	if q.Email != nil && u.Email != *q.Email {
		return false
	}
	return true
}

// Patch carries a partial update. Borrowed books are owned by the loans
// package and cannot be patched.
type Patch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	BirthDate *string `json:"birth_date,omitempty"`
	Role      *string `json:"role,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.BirthDate == nil && p.Role == nil
}

// Apply returns u with the patch's fields applied.
func (p Patch) Apply(u User) User {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.BirthDate != nil {
		u.BirthDate = *p.BirthDate
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	return u
}

// Repository defines persistence behaviour for users.
type Repository interface {
	FindByID(ctx context.Context, id string) (User, error)
	List(ctx context.Context, offset, limit int) ([]User, error)
	Search(ctx context.Context, q Query) ([]User, error)
	// Create stores a new user and returns ErrEmailExists when the email
	// is already registered.
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, id string, patch Patch) (User, error)
	// Delete removes a user without loans. It returns ErrHasLoans otherwise.
	Delete(ctx context.Context, id string) (User, error)
}

// NullRepository can be used when no storage is configured.
type NullRepository struct{}

func (NullRepository) FindByID(context.Context, string) (User, error) { return User{}, ErrNotImplemented }
func (NullRepository) List(context.Context, int, int) ([]User, error)  { return nil, ErrNotImplemented }
func (NullRepository) Search(context.Context, Query) ([]User, error)   { return nil, ErrNotImplemented }
func (NullRepository) Create(context.Context, User) (User, error)      { return User{}, ErrNotImplemented }
func (NullRepository) Update(context.Context, string, Patch) (User, error) {
	return User{}, ErrNotImplemented
}
func (NullRepository) Delete(context.Context, string) (User, error) { return User{}, ErrNotImplemented }

// Service exposes membership logic.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (User, error)
	Get(ctx context.Context, id string) (User, error)
	List(ctx context.Context, offset, limit int) ([]User, error)
	Update(ctx context.Context, id string, patch Patch) (User, error)
	Delete(ctx context.Context, id string) (User, error)
	Search(ctx context.Context, q Query) ([]User, error)
}

type service struct {
	repo Repository
}

// RegisterInput captures data required to create a member.
type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	BirthDate string `json:"birth_date"`
}

// NewService constructs a user service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (User, error) {
	user := User{
		FirstName:     strings.TrimSpace(input.FirstName),
		LastName:      strings.TrimSpace(input.LastName),
		Email:         normalizeEmail(input.Email),
		BirthDate:     strings.TrimSpace(input.BirthDate),
		BorrowedBooks: []string{},
		Role:          RoleUser,
	}
	if user.FirstName == "" {
		return User{}, fmt.Errorf("%w: first_name is required", ErrInvalid)
	}
	if user.LastName == "" {
		return User{}, fmt.Errorf("%w: last_name is required", ErrInvalid)
	}
	if err := validateEmail(user.Email); err != nil {
		return User{}, err
	}
	if err := validateBirthDate(user.BirthDate); err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, user)
}

func (s *service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, offset, limit int) ([]User, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *service) Update(ctx context.Context, id string, patch Patch) (User, error) {
	if patch.Empty() {
		return s.repo.FindByID(ctx, id)
	}

	if patch.FirstName != nil {
		v := strings.TrimSpace(*patch.FirstName)
		if v == "" {
			return User{}, fmt.Errorf("%w: first_name cannot be empty", ErrInvalid)
		}
		patch.FirstName = &v
	}
	if patch.LastName != nil {
		v := strings.TrimSpace(*patch.LastName)
		if v == "" {
			return User{}, fmt.Errorf("%w: last_name cannot be empty", ErrInvalid)
		}
		patch.LastName = &v
	}
	if patch.Email != nil {
		v := normalizeEmail(*patch.Email)
		if err := validateEmail(v); err != nil {
			return User{}, err
		}
		patch.Email = &v
	}
	if patch.BirthDate != nil {
		v := strings.TrimSpace(*patch.BirthDate)
		if err := validateBirthDate(v); err != nil {
			return User{}, err
		}
		patch.BirthDate = &v
	}
	if patch.Role != nil {
		v := strings.ToLower(strings.TrimSpace(*patch.Role))
		if v != RoleUser && v != RoleAdmin {
			return User{}, fmt.Errorf("%w: role must be %q or %q", ErrInvalid, RoleUser, RoleAdmin)
		}
		patch.Role = &v
	}

	return s.repo.Update(ctx, id, patch)
}

func (s *service) Delete(ctx context.Context, id string) (User, error) {
	return s.repo.Delete(ctx, id)
}

func (s *service) Search(ctx context.Context, q Query) ([]User, error) {
	if q.Empty() {
		return nil, ErrNoCriteria
	}
	if q.Email != nil {
		email := normalizeEmail(*q.Email)
		q.Email = &email
	}
	return s.repo.Search(ctx, q)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalid)
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("%w: email %q is malformed", ErrInvalid, email)
	}
	return nil
}

func validateBirthDate(date string) error {
	if _, err := time.Parse(BirthDateLayout, date); err != nil {
		return fmt.Errorf("%w: birth_date must use YYYY-MM-DD", ErrInvalid)
	}
	return nil
}
