package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibliotheca/bibliotheca/internal/auth"
	"github.com/bibliotheca/bibliotheca/internal/domain"
	"github.com/bibliotheca/bibliotheca/internal/domain/books"
	"github.com/bibliotheca/bibliotheca/internal/domain/loans"
	"github.com/bibliotheca/bibliotheca/internal/domain/users"
	"github.com/bibliotheca/bibliotheca/internal/storage/memory"
)

type apiClient struct {
	t      *testing.T
	router chi.Router
	token  string
}

func newAPI(t *testing.T, tokens *auth.Manager) *apiClient {
	t.Helper()
	bookRepo := memory.NewBookRepository()
	userRepo := memory.NewUserRepository()
	container := domain.New(domain.Options{
		BookRepo:    bookRepo,
		UserRepo:    userRepo,
		GenreRepo:   memory.NewGenreRepository(),
		CommentRepo: memory.NewCommentRepository(),
		LoanRepo:    memory.NewLoanRepository(bookRepo, userRepo),
	})

	router := chi.NewRouter()
	Register(router, slog.New(slog.NewTextHandler(io.Discard, nil)), container, tokens)
	return &apiClient{t: t, router: router}
}

func (c *apiClient) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

func (c *apiClient) createBook(title string) books.Book {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/book", map[string]any{"title": title, "author": "Frank Herbert", "year": 1965})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[books.Book](c.t, rec)
}

func (c *apiClient) createUser(email string) users.User {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/user", map[string]any{
		"first_name": "Ada", "last_name": "Lovelace", "email": email, "birth_date": "1815-12-10",
	})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[users.User](c.t, rec)
}

func TestPing(t *testing.T) {
	api := newAPI(t, nil)
	rec := api.do(http.MethodGet, "/api/ping", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
}

func TestBookLifecycle(t *testing.T) {
	api := newAPI(t, nil)

	book := api.createBook("Dune")
	assert.True(t, book.Availability)
	assert.Equal(t, books.NoGenre, book.GenreID)

	rec := api.do(http.MethodGet, "/api/book/"+book.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPut, "/api/book/"+book.ID, map[string]any{"title": "Dune Messiah"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dune Messiah", decode[books.Book](t, rec).Title)

	rec = api.do(http.MethodGet, "/api/book?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse[books.Book]](t, rec).Count)

	rec = api.do(http.MethodGet, "/api/book?offset=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodDelete, "/api/book/"+book.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/book/"+book.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "book not found", decode[map[string]string](t, rec)["error"])
}

func TestBookValidation(t *testing.T) {
	api := newAPI(t, nil)

	rec := api.do(http.MethodPost, "/api/book", map[string]any{"author": "Nobody", "year": 2000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/book", map[string]any{"title": "Future", "author": "Nobody", "year": time.Now().Year() + 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	book := api.createBook("Dune")
	rec = api.do(http.MethodPut, "/api/book/"+book.ID, map[string]any{"genre_id": "missing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/book", bytes.NewBufferString("{"))
	raw := httptest.NewRecorder()
	api.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestBookSearch(t *testing.T) {
	api := newAPI(t, nil)
	api.createBook("Dune")
	api.createBook("Children of Dune")

	rec := api.do(http.MethodPost, "/api/book/search", map[string]any{"title": "Dune"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse[books.Book]](t, rec).Count)

	rec = api.do(http.MethodPost, "/api/book/search", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[listResponse[books.Book]](t, rec).Count)
}

func TestUserRoutes(t *testing.T) {
	api := newAPI(t, nil)

	user := api.createUser("Ada@Example.com")
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, users.RoleUser, user.Role)
	assert.Empty(t, user.BorrowedBooks)

	rec := api.do(http.MethodPost, "/api/user", map[string]any{
		"first_name": "Other", "last_name": "Person", "email": "ada@example.com", "birth_date": "1990-01-01",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/user", map[string]any{
		"first_name": "Bad", "last_name": "Date", "email": "bad@example.com", "birth_date": "10/12/1815",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/user/search", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/user/search", map[string]any{"email": "ADA@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse[users.User]](t, rec).Count)

	rec = api.do(http.MethodPut, "/api/user/"+user.ID, map[string]any{"role": "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, users.RoleAdmin, decode[users.User](t, rec).Role)

	rec = api.do(http.MethodDelete, "/api/user/"+user.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodGet, "/api/user/"+user.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBorrowAndReturn(t *testing.T) {
	api := newAPI(t, nil)
	book := api.createBook("Dune")
	ada := api.createUser("ada@example.com")
	alan := api.createUser("alan@example.com")

	borrow := fmt.Sprintf("/api/book/%s/%s/borrow", book.ID, ada.ID)
	rec := api.do(http.MethodPost, borrow, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	loan := decode[loans.Loan](t, rec)
	assert.False(t, loan.Book.Availability)
	assert.Equal(t, []string{book.ID}, loan.User.BorrowedBooks)

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/book/%s/%s/borrow", book.ID, alan.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/book/%s/%s/return", book.ID, alan.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodDelete, "/api/book/"+book.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodDelete, "/api/user/"+ada.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/book/%s/%s/return", book.ID, ada.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/book/"+book.ID, nil)
	assert.True(t, decode[books.Book](t, rec).Availability)
	rec = api.do(http.MethodGet, "/api/user/"+ada.ID, nil)
	assert.Empty(t, decode[users.User](t, rec).BorrowedBooks)

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/book/%s/%s/borrow", "missing", ada.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenres(t *testing.T) {
	api := newAPI(t, nil)

	rec := api.do(http.MethodPost, "/api/genre", map[string]any{"name": "fantasy"})
	require.Equal(t, http.StatusCreated, rec.Code)
	genre := decode[map[string]string](t, rec)

	rec = api.do(http.MethodPost, "/api/genre", map[string]any{"name": "fantasy"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	book := api.createBook("The Hobbit")
	rec = api.do(http.MethodPut, "/api/book/"+book.ID, map[string]any{"genre_id": genre["id"]})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/genre/fantasy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shelf := decode[struct {
		Genre map[string]string `json:"genre"`
		Data  []books.Book      `json:"data"`
		Count int               `json:"count"`
	}](t, rec)
	assert.Equal(t, "fantasy", shelf.Genre["name"])
	assert.Equal(t, 1, shelf.Count)

	rec = api.do(http.MethodGet, "/api/genre/horror", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[listResponse[books.Book]](t, rec).Count)

	rec = api.do(http.MethodGet, "/api/genre", nil)
	assert.Equal(t, 1, decode[listResponse[map[string]string]](t, rec).Count)
}

func TestCommentsAndRatings(t *testing.T) {
	api := newAPI(t, nil)
	dune := api.createBook("Dune")
	hobbit := api.createBook("The Hobbit")
	ada := api.createUser("ada@example.com")

	for _, c := range []struct {
		book   string
		rating int
	}{{dune.ID, 5}, {dune.ID, 3}, {dune.ID, 4}, {hobbit.ID, 2}} {
		rec := api.do(http.MethodPost, "/api/comment", map[string]any{
			"user_id": ada.ID, "book_id": c.book, "comment": "noted", "rating": c.rating,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := api.do(http.MethodPost, "/api/comment", map[string]any{"user_id": ada.ID, "book_id": dune.ID, "rating": 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(http.MethodPost, "/api/comment", map[string]any{"user_id": ada.ID, "book_id": "missing", "rating": 3})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/comment/"+dune.ID, nil)
	assert.Equal(t, 3, decode[listResponse[map[string]any]](t, rec).Count)
	rec = api.do(http.MethodGet, "/api/comment/user/"+ada.ID, nil)
	assert.Equal(t, 4, decode[listResponse[map[string]any]](t, rec).Count)
	rec = api.do(http.MethodGet, "/api/comment", nil)
	assert.Equal(t, 4, decode[listResponse[map[string]any]](t, rec).Count)

	rec = api.do(http.MethodGet, "/api/comment/rating/"+dune.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[map[string]any](t, rec)
	assert.InDelta(t, 4.0, summary["average"], 1e-9)
	assert.EqualValues(t, 3, summary["count"])

	rec = api.do(http.MethodGet, "/api/comment/rating/unrated", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary = decode[map[string]any](t, rec)
	assert.NotContains(t, summary, "average")
	assert.EqualValues(t, 0, summary["count"])

	rec = api.do(http.MethodGet, "/api/comment/search/rating?operator=%3E%3D&rating=4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rated := decode[listResponse[map[string]any]](t, rec)
	require.Equal(t, 1, rated.Count)
	assert.Equal(t, "Dune", rated.Data[0]["title"])

	rec = api.do(http.MethodPost, "/api/comment/search/rating", map[string]any{"operator": "<", "rating": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	rated = decode[listResponse[map[string]any]](t, rec)
	require.Equal(t, 1, rated.Count)
	assert.Equal(t, "The Hobbit", rated.Data[0]["title"])

	rec = api.do(http.MethodGet, "/api/comment/search/rating?operator=~&rating=4", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(http.MethodPost, "/api/comment/search/rating", map[string]any{"operator": ">"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthorization(t *testing.T) {
	tokens, err := auth.NewManager("test-secret", time.Hour)
	require.NoError(t, err)
	api := newAPI(t, tokens)

	rec := api.do(http.MethodPost, "/api/book", map[string]any{"title": "Dune", "author": "Frank Herbert", "year": 1965})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	member := api.createUser("ada@example.com")
	memberTok, err := tokens.Issue(member.ID, users.RoleUser, 0)
	require.NoError(t, err)
	api.token = memberTok.AccessToken
	rec = api.do(http.MethodPost, "/api/book", map[string]any{"title": "Dune", "author": "Frank Herbert", "year": 1965})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminTok, err := tokens.Issue("admin-1", users.RoleAdmin, 0)
	require.NoError(t, err)
	api.token = adminTok.AccessToken
	book := api.createBook("Dune")
	other := api.createUser("alan@example.com")

	api.token = memberTok.AccessToken
	rec = api.do(http.MethodPost, fmt.Sprintf("/api/book/%s/%s/borrow", book.ID, other.ID), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(http.MethodPost, fmt.Sprintf("/api/book/%s/%s/borrow", book.ID, member.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	api.token = ""
	rec = api.do(http.MethodGet, "/api/book/"+book.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusForUnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
	assert.Equal(t, http.StatusNotImplemented, statusFor(books.ErrNotImplemented))
}

func TestGenreNameWithEscapedSlash(t *testing.T) {
	api := newAPI(t, nil)

	rec := api.do(http.MethodPost, "/api/genre", map[string]any{"name": "sci/fi"})
	require.Equal(t, http.StatusCreated, rec.Code)
	genre := decode[map[string]string](t, rec)

	book := api.createBook("Neuromancer")
	rec = api.do(http.MethodPut, "/api/book/"+book.ID, map[string]any{"genre_id": genre["id"]})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/genre/sci%2Ffi", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shelf := decode[struct {
		Genre map[string]string `json:"genre"`
		Count int               `json:"count"`
	}](t, rec)
	assert.Equal(t, "sci/fi", shelf.Genre["name"])
	assert.Equal(t, 1, shelf.Count)

	rec = api.do(http.MethodPost, "/api/genre", map[string]any{"name": "100%"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = api.do(http.MethodGet, "/api/genre/100%25", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100%", decode[map[string]any](t, rec)["genre"].(map[string]any)["name"])

	req := httptest.NewRequest(http.MethodGet, "/api/genre/x", nil)
	req.URL.Path = "/api/genre/%zz"
	req.URL.RawPath = "/api/genre/%zz"
	bad := httptest.NewRecorder()
	api.router.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestRatingSearchRejectsNonFinite(t *testing.T) {
	api := newAPI(t, nil)
	for _, v := range []string{"NaN", "Inf", "-Inf"} {
		rec := api.do(http.MethodGet, "/api/comment/search/rating?operator=%21%3D&rating="+v, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, v)
	}
}
