// Package mockapi is an in-memory implementation of the Melo backend REST
// contract. It backs cmd/melomock and the client and integration tests.
package mockapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type user struct {
	ID       int
	Username string
	Password string
	Email    string
}

type message struct {
	Text      string
	Sender    string
	Timestamp time.Time
}

type conversation struct {
	ID        int
	UserID    int
	StartedAt time.Time
	Ended     bool
	Messages  []message
}

// Server holds users and conversations in memory.
type Server struct {
	mu            sync.Mutex
	users         map[string]*user
	conversations map[int]*conversation
	nextUser      int
	nextConv      int
	calls         map[string]int
	faults        map[string]*Fault

	responder Responder
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithResponder replaces the default keyword responder.
func WithResponder(r Responder) Option {
	return func(s *Server) { s.responder = r }
}

// WithClock replaces time.Now, for cleanup tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger enables request logging.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty backend.
func New(opts ...Option) *Server {
	s := &Server{
		users:         make(map[string]*user),
		conversations: make(map[int]*conversation),
		calls:         make(map[string]int),
		faults:        make(map[string]*Fault),
		responder:     KeywordResponder{},
		now:           time.Now,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Route names used by Calls and Inject.
const (
	RouteSignup   = "signup"
	RouteLogin    = "login"
	RouteChat     = "chat"
	RouteList     = "list"
	RouteMessages = "messages"
	RouteDelete   = "delete"
	RouteEnd      = "end"
	RouteCleanup  = "cleanup"
	RouteHealth   = "health"
)

// Handler returns the router with every endpoint mounted under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.With(s.track(RouteHealth)).Get("/health", s.health)
		r.With(s.track(RouteSignup)).Post("/auth/signup", s.signup)
		r.With(s.track(RouteLogin)).Post("/auth/login", s.login)
		r.With(s.track(RouteChat)).Post("/chat", s.chat)
		r.With(s.track(RouteList)).Get("/conversations", s.listConversations)
		r.With(s.track(RouteCleanup)).Post("/conversations/cleanup", s.cleanup)
		r.With(s.track(RouteMessages)).Get("/conversations/{id}/messages", s.messages)
		r.With(s.track(RouteEnd)).Post("/conversations/{id}/end", s.end)
		r.With(s.track(RouteDelete)).Delete("/conversations/{id}", s.deleteConversation)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
		)
	})
}

// Calls returns how many requests reached the named route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// SeedConversation inserts a conversation for userID started at startedAt
// and returns its id. Messages alternate user/bot starting with user.
func (s *Server) SeedConversation(userID int, startedAt time.Time, texts ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextConv++
	c := &conversation{ID: s.nextConv, UserID: userID, StartedAt: startedAt}
	for i, text := range texts {
		sender := "user"
		if i%2 == 1 {
			sender = "bot"
		}
		c.Messages = append(c.Messages, message{Text: text, Sender: sender, Timestamp: startedAt.Add(time.Duration(i) * time.Second)})
	}
	s.conversations[c.ID] = c
	return c.ID
}

// Ended reports whether an end notice was received for the conversation.
func (s *Server) Ended(conversationID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[conversationID]
	return ok && c.Ended
}

// ConversationCount returns how many conversations userID owns.
func (s *Server) ConversationCount(userID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.userConversations(userID))
}

// userConversations returns userID's conversations, newest first. Caller holds mu.
func (s *Server) userConversations(userID int) []*conversation {
	var out []*conversation
	for _, c := range s.conversations {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// parseID accepts a JSON number, a quoted number, or a path segment.
func parseID(raw string) (int, bool) {
	if n := len(raw); n >= 2 && raw[0] == '"' && raw[n-1] == '"' {
		raw = raw[1 : n-1]
	}
	id, err := strconv.Atoi(raw)
	return id, err == nil
}
