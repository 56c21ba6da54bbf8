package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bibliotheca/bibliotheca/internal/domain/users"
)

// userSelect reads users together with their current loans, oldest first.
const userSelect = `
    SELECT u.id, u.first_name, u.last_name, u.email, u.birth_date, u.role,
           u.created_at, u.updated_at,
           COALESCE((SELECT string_agg(l.book_id::text, ',' ORDER BY l.borrowed_at)
                       FROM loans l
                      WHERE l.user_id = u.id), '')
      FROM users u
`

// UserRepository persists users in Postgres.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository constructs a postgres-backed user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (users.User, error) {
	var (
		u    users.User
		held string
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.BirthDate, &u.Role, &u.CreatedAt, &u.UpdatedAt, &held)
	if err != nil {
		return users.User{}, err
	}
	u.BorrowedBooks = splitIDs(held)
	return u, nil
}

func splitIDs(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (users.User, error) {
	return findUser(ctx, r.db, id)
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]users.User, error) {
	query := userSelect + ` ORDER BY u.created_at, u.id` + limitClause(offset, limit)
	return r.query(ctx, "list users", query)
}

func (r *UserRepository) Search(ctx context.Context, q users.Query) ([]users.User, error) {
	var f filterBuilder
	if q.FirstName != nil {
		f.eq("u.first_name", *q.FirstName)
	}
	if q.LastName != nil {
		f.eq("u.last_name", *q.LastName)
	}
	if q.Email != nil {
		f.eq("u.email", strings.ToLower(*q.Email))
	}
	query := userSelect + f.clause() + ` ORDER BY u.created_at, u.id`
	return r.query(ctx, "search users", query, f.args...)
}

func (r *UserRepository) Create(ctx context.Context, user users.User) (users.User, error) {
	now := time.Now().UTC()

	const insert = `
        INSERT INTO users (first_name, last_name, email, birth_date, role, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id
    `
	if err := r.db.QueryRowContext(ctx, insert,
		user.FirstName,
		user.LastName,
		strings.ToLower(user.Email),
		user.BirthDate,
		user.Role,
		now,
		now,
	).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return users.User{}, users.ErrEmailExists
		}
		return users.User{}, fmt.Errorf("insert user: %w", err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	user.BorrowedBooks = []string{}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, patch users.Patch) (users.User, error) {
	if !validID(id) {
		return users.User{}, users.ErrNotFound
	}

	var u updateBuilder
	if patch.FirstName != nil {
		u.set("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		u.set("last_name", *patch.LastName)
	}
	if patch.Email != nil {
		u.set("email", strings.ToLower(*patch.Email))
	}
	if patch.BirthDate != nil {
		u.set("birth_date", *patch.BirthDate)
	}
	if patch.Role != nil {
		u.set("role", *patch.Role)
	}
	u.set("updated_at", time.Now().UTC())
	sets, key := u.where(id)

	res, err := r.db.ExecContext(ctx, `UPDATE users SET `+sets+` WHERE id = `+key, u.args...)
	if err != nil {
		if isUniqueViolation(err) {
			return users.User{}, users.ErrEmailExists
		}
		return users.User{}, fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return users.User{}, users.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) Delete(ctx context.Context, id string) (users.User, error) {
	if !validID(id) {
		return users.User{}, users.ErrNotFound
	}
	const query = `
        DELETE FROM users u
         WHERE u.id = $1
           AND NOT EXISTS (SELECT 1 FROM loans l WHERE l.user_id = u.id)
        RETURNING u.id, u.first_name, u.last_name, u.email, u.birth_date, u.role,
                  u.created_at, u.updated_at, ''
    `
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == nil {
		return user, nil
	}
	// A borrow committed during the delete escapes NOT EXISTS but not the
	// loans foreign key.
	if isForeignKeyViolation(err) {
		return users.User{}, users.ErrHasLoans
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return users.User{}, fmt.Errorf("delete user: %w", err)
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return users.User{}, err
	}
	return users.User{}, users.ErrHasLoans
}

func (r *UserRepository) query(ctx context.Context, op, query string, args ...any) ([]users.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	list := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// findUser loads one user through q, which may be a transaction.
func findUser(ctx context.Context, q querier, id string) (users.User, error) {
	if !validID(id) {
		return users.User{}, users.ErrNotFound
	}
	u, err := scanUser(q.QueryRowContext(ctx, userSelect+` WHERE u.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

var _ users.Repository = (*UserRepository)(nil)
