/*
Package fakeapi runs an in-process OASIP backend for tests.

It is test support: only _test.go files import it, never production packages.

It serves the REST surface the client consumes under /api, mints real HS256 tokens,
sets the refresh cookie and keeps its data in memory. Knobs let tests expire access
tokens, reject refreshes, delay them and inject failures; counters and the recorded
multipart payload let them assert what the client sent.
*/
package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/crypto/bcrypt"

	"oasip/internal/app/user"
	"oasip/internal/pkg/auth/jwt"
)

// Seeded accounts. They all use Password.
const (
	AdminEmail    = "admin@oasip.test"
	LecturerEmail = "lecturer@oasip.test"
	StudentEmail  = "student@oasip.test"
	Password      = "oasip-pass"

	RefreshCookieName = "refreshToken"
)

// Server is a running fake backend.
type Server struct {
	// URL is the API root to configure the client with.
	URL string

	ts     *httptest.Server
	secret string

	mu         sync.Mutex
	accounts   map[string]*account
	nextUserID int
	categories map[int]*category
	events     map[int]*event
	nextEvent  int
	files      map[string]*file
	revoked    map[string]bool
	issued     map[string]bool
	lastForm   []Part
	failNext   int

	refreshes    atomic.Int64
	unauthorized atomic.Int64
	refreshDelay atomic.Int64
	rejectAll    atomic.Bool

	// refreshGate, when set, holds refreshes until it is closed.
	refreshGate chan struct{}
}

// New starts a seeded server and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:     "fakeapi-secret",
		accounts:   make(map[string]*account),
		categories: make(map[int]*category),
		events:     make(map[int]*event),
		nextEvent:  1,
		nextUserID: 1,
		files:      make(map[string]*file),
		revoked:    make(map[string]bool),
		issued:     make(map[string]bool),
	}
	s.seed()

	s.ts = httptest.NewServer(s.routes())
	s.URL = s.ts.URL + "/api"
	t.Cleanup(s.ts.Close)

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)
	r.Use(middleware.Recoverer)
	r.Use(s.injectFailure)

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(s.secret))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", s.handleLogin)
			auth.Post("/refresh", s.handleRefresh)
			auth.Post("/logout", s.handleLogout)
			auth.Post("/match", s.handleMatch)
		})

		api.Get("/events/allocatedTimeSlots", s.handleTimeSlots)
		api.Post("/events", s.handleCreateEvent)
		api.Get("/categories", s.handleListCategories)
		api.Patch("/categories/{id}", s.handleUpdateCategory)

		api.Group(func(authed chi.Router) {
			authed.Use(s.rejectRevoked)
			authed.Use(s.requireIdentity)

			authed.Get("/events", s.handleListEvents)
			authed.Get("/events/{id}", s.handleGetEvent)
			authed.Patch("/events/{id}", s.handleUpdateEvent)
			authed.Delete("/events/{id}", s.handleDeleteEvent)
			authed.Get("/events/files/{uuid}", s.handleGetFile)

			authed.Get("/categories/lecturer", s.handleLecturerCategories)

			authed.Get("/users", s.handleListUsers)
			authed.Get("/users/roles", s.handleListRoles)
			authed.Get("/users/{id}", s.handleGetUser)
			authed.Post("/users", s.handleCreateUser)
			authed.Patch("/users/{id}", s.handleUpdateUser)
			authed.Delete("/users/{id}", s.handleDeleteUser)
		})
	})

	return r
}

// requireIdentity counts and answers the 401s the refresh guard reacts to.
func (s *Server) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if jwt.GetPayloadFromContext(r) == nil {
			s.unauthorized.Add(1)
		}
		jwt.RequireIdentity(next).ServeHTTP(w, r)
	})
}

// rejectRevoked answers 401 for tokens retired by ExpireAccessTokens.
func (s *Server) rejectRevoked(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			s.mu.Lock()
			revoked := s.revoked[payload.Id]
			s.mu.Unlock()
			if revoked {
				s.unauthorized.Add(1)
				writeError(w, r, http.StatusUnauthorized, "Access token has expired", nil)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := s.failNext
		s.failNext = 0
		s.mu.Unlock()

		if status != 0 {
			writeError(w, r, status, http.StatusText(status), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AccessToken mints a valid access token for a seeded or created account.
func (s *Server) AccessToken(t testing.TB, email string) string {
	t.Helper()

	s.mu.Lock()
	acc, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		t.Fatalf("fakeapi: unknown account %q", email)
	}

	token, err := s.issueAccessToken(acc)
	if err != nil {
		t.Fatalf("fakeapi: minting token: %v", err)
	}
	return token
}

// ExpireAccessTokens makes every access token issued so far answer 401.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.issued {
		s.revoked[id] = true
	}
}

// RejectRefresh makes /auth/refresh answer 401 while reject is true.
func (s *Server) RejectRefresh(reject bool) {
	s.rejectAll.Store(reject)
}

// DelayRefresh holds every refresh response for d.
func (s *Server) DelayRefresh(d time.Duration) {
	s.refreshDelay.Store(int64(d))
}

// GateRefresh holds refreshes until the returned function is called.
func (s *Server) GateRefresh() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.refreshGate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// FailNext makes the next request, whatever its route, answer status.
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	s.failNext = status
	s.mu.Unlock()
}

// Refreshes returns how many times /auth/refresh was called.
func (s *Server) Refreshes() int {
	return int(s.refreshes.Load())
}

// Unauthorized returns how many bearer requests were answered 401.
func (s *Server) Unauthorized() int {
	return int(s.unauthorized.Load())
}

// LastEventForm returns the parts of the last multipart event request.
func (s *Server) LastEventForm() []Part {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Part(nil), s.lastForm...)
}

// AddFile stores an attachment and returns its bucket uuid.
func (s *Server) AddFile(name, contentType string, content []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeFileLocked(name, contentType, content)
}

func hashPassword(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}

func (s *Server) seed() {
	for _, seed := range []struct {
		name  string
		email string
		role  user.Role
	}{
		{"Admin", AdminEmail, user.RoleAdmin},
		{"Lecturer", LecturerEmail, user.RoleLecturer},
		{"Student", StudentEmail, user.RoleStudent},
	} {
		s.addAccountLocked(seed.name, seed.email, Password, seed.role)
	}

	s.categories[1] = &category{ID: 1, Name: "Project Management Clinic", Description: "Project advice", Duration: 30, Owners: []string{LecturerEmail}}
	s.categories[2] = &category{ID: 2, Name: "DevOps/Infra Clinic", Duration: 20}

	s.addEventLocked(&event{
		BookingName:  "Student",
		BookingEmail: StudentEmail,
		StartTime:    time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC),
		CategoryID:   1,
		Notes:        "seeded",
	})
}
