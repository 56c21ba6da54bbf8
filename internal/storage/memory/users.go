package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bibliotheca/bibliotheca/internal/domain/users"
)

// UserRepository implements users.Repository in-memory.
type UserRepository struct {
	mu    sync.RWMutex
	store map[string]users.User
}

// NewUserRepository constructs repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{store: make(map[string]users.User)}
}

func (r *UserRepository) FindByID(_ context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.store[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return clone(user), nil
}

func (r *UserRepository) List(_ context.Context, offset, limit int) ([]users.User, error) {
	return page(r.filter(func(users.User) bool { return true }), offset, limit), nil
}

func (r *UserRepository) Search(_ context.Context, q users.Query) ([]users.User, error) {
	return r.filter(q.Matches), nil
}

func (r *UserRepository) Create(_ context.Context, user users.User) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(user.Email, "") {
		return users.User{}, users.ErrEmailExists
	}

	now := time.Now().UTC()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.BorrowedBooks == nil {
		user.BorrowedBooks = []string{}
	}
	r.store[user.ID] = clone(user)
	return user, nil
}

func (r *UserRepository) Update(_ context.Context, id string, patch users.Patch) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.store[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	if patch.Email != nil && r.emailTaken(*patch.Email, id) {
		return users.User{}, users.ErrEmailExists
	}
	updated := patch.Apply(existing)
	updated.UpdatedAt = time.Now().UTC()
	r.store[id] = updated
	return clone(updated), nil
}

func (r *UserRepository) Delete(_ context.Context, id string) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.store[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	if len(user.BorrowedBooks) > 0 {
		return users.User{}, users.ErrHasLoans
	}
	delete(r.store, id)
	return user, nil
}

// put stores u as-is. Callers must hold r.mu.
func (r *UserRepository) put(u users.User) {
	u.UpdatedAt = time.Now().UTC()
	r.store[u.ID] = clone(u)
}

func (r *UserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.store {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) filter(keep func(users.User) bool) []users.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]users.User, 0, len(r.store))
	for _, u := range r.store {
		if keep(u) {
			res = append(res, clone(u))
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res
}

// clone copies the borrowed books slice so callers cannot alias stored state.
func clone(u users.User) users.User {
	u.BorrowedBooks = append([]string{}, u.BorrowedBooks...)
	return u
}

// Ensure interface satisfaction at compile time.
var _ users.Repository = (*UserRepository)(nil)
