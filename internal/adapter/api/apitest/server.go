// Package apitest provides an in-memory fake of the remote expense-splitting API
// for tests. It follows the documented wire schema and signs real JWTs.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/infrastructure/auth"
)

// IdempotencyKeyHeader is the header the fake uses to replay duplicate writes.
const IdempotencyKeyHeader = "Idempotency-Key"

var secret = []byte("apitest-secret")

// Server is a fake remote API backed by an httptest.Server.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	now         func() time.Time
	tokenTTL    time.Duration
	nextID      int
	users       map[string]*user
	groups      map[string]*group
	expenses    []*expense
	settlements []*settlement
	resetTokens map[string]string
	replays     map[string][]byte
	notified    []string
	requests    []Request
	failures    []int
}

// Request is a request the fake received.
type Request struct {
	Method         string
	Path           string
	Query          string
	Authorization  string
	IdempotencyKey string
}

type user struct {
	ID       int
	Name     string
	Email    string
	Password string
}

type group struct {
	ID          int
	Name        string
	Description string
	members     []membership
}

type membership struct {
	email    string
	accepted bool
}

type expense struct {
	ID          int
	GroupID     int
	Amount      decimal.Decimal
	Description string
	Date        string
	PayerEmail  string
	Splits      []split
}

type split struct {
	ID        int
	UserEmail string
	Share     decimal.Decimal
}

type settlement struct {
	ID         int
	GroupID    int
	PayerEmail string
	PayeeEmail string
	Amount     decimal.Decimal
	Date       string
}

// NewServer starts a fake API. Close it when done.
func NewServer() *Server {
	s := &Server{
		now:         time.Now,
		tokenTTL:    time.Hour,
		nextID:      1,
		users:       make(map[string]*user),
		groups:      make(map[string]*group),
		resetTokens: make(map[string]string),
		replays:     make(map[string][]byte),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/register", s.register)
		r.Post("/forgot-password", s.forgotPassword)
		r.Post("/reset-password", s.resetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Use(s.idempotent)

		r.Route("/groups", func(r chi.Router) {
			r.Get("/my-groups", s.myGroups)
			r.Get("/pending-invitations", s.pendingInvitations)
			r.Post("/create", s.createGroup)
			r.Post("/invite", s.invite)
			r.Post("/{id}/add-member", s.addMember)
			r.Post("/{id}/accept", s.accept)
			r.Delete("/{id}/decline", s.decline)
			r.Post("/{id}/join", s.join)
			r.Delete("/{id}/remove", s.removeMember)
			r.Delete("/{id}", s.deleteGroup)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Post("/add", s.addExpense)
			r.Get("/group/{id}", s.listExpenses)
			r.Post("/notify/{id}", s.notify)
		})

		r.Route("/settlements", func(r chi.Router) {
			r.Post("/record", s.recordSettlement)
			r.Get("/group/{id}", s.listSettlements)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/user/{id}", s.userReport)
			r.Get("/group/{id}", s.groupReport)
			r.Get("/group/{id}/export/{format}", s.export)
		})
	})

	return r
}

// SetClock overrides the time used for token expiry.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetTokenTTL sets the lifetime of issued tokens.
func (s *Server) SetTokenTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTTL = ttl
}

// AddUser registers a user directly and returns its ID.
func (s *Server) AddUser(name, email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strconv.Itoa(s.addUserLocked(name, email, password).ID)
}

// AddGroup creates a group whose members are the given emails, all accepted.
func (s *Server) AddGroup(name string, emails ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := &group{ID: s.id(), Name: name}
	for _, email := range emails {
		g.members = append(g.members, membership{email: email, accepted: true})
	}
	s.groups[strconv.Itoa(g.ID)] = g
	return strconv.Itoa(g.ID)
}

// Token issues a token for a registered user.
func (s *Server) Token(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return ""
	}
	token, _ := s.issue(u)
	return token
}

// ResetToken returns the last reset token sent to email.
func (s *Server) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetTokens[strings.ToLower(email)]
}

// FailNext makes the next requests fail with the given statuses, in order.
func (s *Server) FailNext(statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, statuses...)
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// ExpenseCount returns the number of stored expenses.
func (s *Server) ExpenseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expenses)
}

// Notified returns the IDs of expenses members were notified about.
func (s *Server) Notified() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.notified...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:         r.Method,
			Path:           r.URL.Path,
			Query:          r.URL.RawQuery,
			Authorization:  r.Header.Get("Authorization"),
			IdempotencyKey: r.Header.Get(IdempotencyKeyHeader),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := 0
		if len(s.failures) > 0 {
			status = s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			writeError(w, status, "injected", http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		s.mu.Lock()
		now := s.now
		s.mu.Unlock()

		claims := &auth.Claims{}
		_, err := jwt.ParseWithClaims(parts[1], claims, func(*jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(now))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, strings.ToLower(claims.Email))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// idempotent replays the stored answer of a POST already seen with the same key.
func (s *Server) idempotent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(IdempotencyKeyHeader)
		if r.Method != http.MethodPost || key == "" {
			next.ServeHTTP(w, r)
			return
		}

		s.mu.Lock()
		cached, ok := s.replays[key]
		s.mu.Unlock()
		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Idempotency-Replay", "true")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(cached)
			return
		}

		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.status >= 200 && rec.status < 300 {
			s.mu.Lock()
			s.replays[key] = rec.body
			s.mu.Unlock()
		}
	})
}

type recorder struct {
	http.ResponseWriter
	status int
	body   []byte
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body = append(r.body, b...)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func caller(r *http.Request) string {
	email, _ := r.Context().Value(ctxKey{}).(string)
	return email
}

func (s *Server) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) addUserLocked(name, email, password string) *user {
	key := strings.ToLower(email)
	if u, ok := s.users[key]; ok {
		return u
	}
	u := &user{ID: s.id(), Name: name, Email: email, Password: password}
	s.users[key] = u
	return u
}

func (s *Server) issue(u *user) (string, error) {
	now := s.now()
	claims := auth.Claims{
		UserID: strconv.Itoa(u.ID),
		Email:  u.Email,
		Name:   u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *Server) userJSON(email string) userJSON {
	if u, ok := s.users[strings.ToLower(email)]; ok {
		return userJSON{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return userJSON{Email: email}
}

func (s *Server) userByID(id int) (*user, bool) {
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

func (s *Server) lookupGroup(w http.ResponseWriter, r *http.Request) (*group, bool) {
	g, ok := s.groups[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "group not found")
		return nil, false
	}
	return g, true
}

func (g *group) member(email string) (int, bool) {
	for i, m := range g.members {
		if strings.EqualFold(m.email, email) {
			return i, true
		}
	}
	return -1, false
}

func (g *group) accepted(email string) bool {
	i, ok := g.member(email)
	return ok && g.members[i].accepted
}

func (s *Server) groupJSON(g *group) groupJSON {
	out := groupJSON{ID: g.ID, Name: g.Name, Description: g.Description, Members: []memberJSON{}}
	for _, m := range g.members {
		out.Members = append(out.Members, memberJSON{User: s.userJSON(m.email), Accepted: m.accepted})
	}
	return out
}

func (s *Server) expenseJSON(e *expense) expenseJSON {
	out := expenseJSON{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Amount:      jsonAmount(e.Amount),
		Description: e.Description,
		Date:        e.Date,
		Payer:       s.userJSON(e.PayerEmail),
		Splits:      []splitJSON{},
	}
	for _, sp := range e.Splits {
		out.Splits = append(out.Splits, splitJSON{ID: sp.ID, User: s.userJSON(sp.UserEmail), Share: jsonAmount(sp.Share)})
	}
	return out
}

func (s *Server) settlementJSON(st *settlement) settlementJSON {
	return settlementJSON{
		ID:      st.ID,
		GroupID: st.GroupID,
		Payer:   s.userJSON(st.PayerEmail),
		Payee:   s.userJSON(st.PayeeEmail),
		Amount:  jsonAmount(st.Amount),
		Date:    st.Date,
	}
}

func (s *Server) sortedGroups(keep func(*group) bool) []groupJSON {
	out := []groupJSON{}
	for _, g := range s.groups {
		if keep(g) {
			out = append(out, s.groupJSON(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorJSON{Error: code, Message: message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("invalid body: %v", err))
		return false
	}
	return true
}

func parseAmount(n json.Number) (decimal.Decimal, error) {
	return decimal.NewFromString(n.String())
}

func jsonAmount(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
