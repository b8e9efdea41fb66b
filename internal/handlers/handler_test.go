// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL or Valkey are
// unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"ratehub/internal/database"
	"ratehub/internal/middleware"
	"ratehub/internal/models"
	"ratehub/internal/store"
	"ratehub/internal/token"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "ratehub")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "ratehub")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"confirm:*", "token:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

var errMailDown = errors.New("smtp relay unreachable")

// recordingSender captures outbound mail so tests can read the codes.
type recordingSender struct {
	To      []string
	Subject string
	Body    string
	Err     error
}

func (s *recordingSender) Send(_ context.Context, subject, body string, to ...string) error {
	if s.Err != nil {
		return s.Err
	}
	s.To = to
	s.Subject = subject
	s.Body = body
	return nil
}

// lastCode extracts the confirmation code from the recorded mail body.
func (s *recordingSender) lastCode(t *testing.T) string {
	t.Helper()
	idx := strings.LastIndex(s.Body, ": ")
	if idx == -1 {
		t.Fatalf("no code in mail body %q", s.Body)
	}
	return strings.TrimSpace(s.Body[idx+2:])
}

// testEnv holds all dependencies for handler integration tests, plus the
// fully routed handler the tests drive through httptest.
type testEnv struct {
	DB        *sql.DB
	Valkey    *redis.Client
	Users     *store.UserStore
	Cats      *store.CategoryStore
	Genres    *store.GenreStore
	Titles    *store.TitleStore
	Reviews   *store.ReviewStore
	Comments  *store.CommentStore
	Confirmer *token.Confirmer
	Bearer    *token.Bearer
	Mailer    *recordingSender
	Handler   http.Handler
}

// newTestEnv creates a complete test environment with all handler
// dependencies wired through the real router.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	users := store.NewUserStore(db)
	cats := store.NewCategoryStore(db)
	genres := store.NewGenreStore(db)
	titles := store.NewTitleStore(db)
	reviews := store.NewReviewStore(db)
	comments := store.NewCommentStore(db)

	confirmer := token.NewConfirmer(vk, "handler-test-secret", time.Minute)
	bearer := token.NewBearer(vk, time.Minute)
	mailer := &recordingSender{}

	// router.New would import-cycle here, so the tree is rebuilt inline
	// with the same layout.
	env := &testEnv{
		DB:        db,
		Valkey:    vk,
		Users:     users,
		Cats:      cats,
		Genres:    genres,
		Titles:    titles,
		Reviews:   reviews,
		Comments:  comments,
		Confirmer: confirmer,
		Bearer:    bearer,
		Mailer:    mailer,
	}
	env.Handler = buildRouter(env)
	return env
}

// do runs a request through the routed handler. A non-empty token is set
// as the bearer credential.
func (env *testEnv) do(t *testing.T, method, path, bearerToken string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	rr := httptest.NewRecorder()
	env.Handler.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals a recorded response body into dst.
func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

// loginAs creates a user with the given role and returns a live bearer
// token for it. Cleanup removes the user row.
func (env *testEnv) loginAs(t *testing.T, username string, role models.Role, superuser bool) (*models.User, string) {
	t.Helper()

	t.Cleanup(func() { env.DB.Exec("DELETE FROM users WHERE username = $1", username) })

	user, err := env.Users.Create(&models.User{
		Username:    username,
		Email:       username + "@handler-test.local",
		Role:        role,
		IsSuperuser: superuser,
	})
	if err != nil {
		t.Fatalf("create %s: %v", username, err)
	}

	tok, err := env.Bearer.Issue(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return user, tok
}

// mustCategory creates a category fixture and registers cleanup.
func (env *testEnv) mustCategory(t *testing.T, name, slug string) *models.Category {
	t.Helper()
	t.Cleanup(func() { env.DB.Exec("DELETE FROM categories WHERE slug = $1", slug) })

	c, err := env.Cats.Create(&models.Category{Name: name, Slug: slug})
	if err != nil {
		t.Fatalf("fixture category %s: %v", slug, err)
	}
	return c
}

// mustTitle creates a title fixture and registers cleanup.
func (env *testEnv) mustTitle(t *testing.T, name string, year int) *models.Title {
	t.Helper()
	t.Cleanup(func() { env.DB.Exec("DELETE FROM titles WHERE name = $1", name) })

	title, err := env.Titles.Create(&models.Title{Name: name, Year: year}, nil)
	if err != nil {
		t.Fatalf("fixture title %s: %v", name, err)
	}
	return title
}

// mustReview creates a review fixture.
func (env *testEnv) mustReview(t *testing.T, titleID, authorID uuid.UUID, score int) *models.Review {
	t.Helper()
	r, err := env.Reviews.Create(&models.Review{
		TitleID:  titleID,
		AuthorID: authorID,
		Text:     "fixture review",
		Score:    score,
	})
	if err != nil {
		t.Fatalf("fixture review: %v", err)
	}
	return r
}

// buildRouter mirrors the production route tree for tests.
func buildRouter(env *testEnv) http.Handler {
	auth := NewAuth(env.Users, env.Confirmer, env.Bearer, env.Mailer)
	categories := NewCategories(env.Cats)
	genres := NewGenres(env.Genres)
	titles := NewTitles(env.Titles, env.Cats, env.Genres)
	reviews := NewReviews(env.Titles, env.Reviews)
	comments := NewComments(env.Titles, env.Reviews, env.Comments)
	accounts := NewUsers(env.Users)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Authenticate(env.Bearer, env.Users))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup/", auth.Signup)
		r.Post("/auth/token/", auth.Token)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categories.List)
			r.Post("/", categories.Create)
			r.Delete("/{slug}/", categories.Delete)
		})

		r.Route("/genres", func(r chi.Router) {
			r.Get("/", genres.List)
			r.Post("/", genres.Create)
			r.Delete("/{slug}/", genres.Delete)
		})

		r.Route("/titles", func(r chi.Router) {
			r.Get("/", titles.List)
			r.Post("/", titles.Create)

			r.Route("/{titleID}", func(r chi.Router) {
				r.Get("/", titles.Get)
				r.Patch("/", titles.Update)
				r.Delete("/", titles.Delete)

				r.Route("/reviews", func(r chi.Router) {
					r.Get("/", reviews.List)
					r.Post("/", reviews.Create)

					r.Route("/{reviewID}", func(r chi.Router) {
						r.Get("/", reviews.Get)
						r.Patch("/", reviews.Update)
						r.Delete("/", reviews.Delete)

						r.Route("/comments", func(r chi.Router) {
							r.Get("/", comments.List)
							r.Post("/", comments.Create)

							r.Route("/{commentID}", func(r chi.Router) {
								r.Get("/", comments.Get)
								r.Patch("/", comments.Update)
								r.Delete("/", comments.Delete)
							})
						})
					})
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", accounts.List)
			r.Post("/", accounts.Create)
			r.Get("/me/", accounts.Me)
			r.Patch("/me/", accounts.UpdateMe)

			r.Route("/{username}", func(r chi.Router) {
				r.Get("/", accounts.Get)
				r.Patch("/", accounts.Update)
				r.Delete("/", accounts.Delete)
			})
		})
	})

	return r
}
