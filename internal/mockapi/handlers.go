package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// startedAtLayout matches what a SQLite CURRENT_TIMESTAMP column returns.
const startedAtLayout = "2006-01-02 15:04:05"

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.Username]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "Username already exists")
		return
	}
	s.nextUser++
	u := &user{ID: s.nextUser, Username: req.Username, Password: req.Password, Email: req.Email}
	s.users[u.Username] = u
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"user_id": u.ID, "username": u.Username})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	u, ok := s.users[strings.TrimSpace(req.Username)]
	s.mu.Unlock()
	if !ok || u.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": u.ID, "username": u.Username})
}

type chatRequest struct {
	Message        string          `json:"message"`
	UserID         json.RawMessage `json:"user_id"`
	ConversationID json.RawMessage `json:"conversation_id"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	userID, ok := parseID(string(req.UserID))
	if !ok {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	reply := s.responder.Respond(req.Message)
	now := s.now()

	s.mu.Lock()
	var conv *conversation
	if raw := string(req.ConversationID); raw != "" && raw != "null" {
		id, ok := parseID(raw)
		if ok {
			conv = s.conversations[id]
		}
		if conv == nil || conv.UserID != userID {
			s.mu.Unlock()
			writeError(w, http.StatusNotFound, "Conversation not found")
			return
		}
	} else {
		s.nextConv++
		conv = &conversation{ID: s.nextConv, UserID: userID, StartedAt: now}
		s.conversations[conv.ID] = conv
	}
	conv.Messages = append(conv.Messages,
		message{Text: req.Message, Sender: "user", Timestamp: now},
		message{Text: reply.Text, Sender: "bot", Timestamp: now},
	)
	convID := conv.ID
	s.mu.Unlock()

	resp := map[string]any{
		"reply":           reply.Text,
		"conversation_id": convID,
	}
	if reply.Emotion != "" {
		resp["emotion"] = reply.Emotion
		resp["confidence"] = reply.Confidence
	}
	if reply.NeedsEscalation {
		resp["needs_escalation"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(r.URL.Query().Get("user_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	s.mu.Lock()
	convs := s.userConversations(userID)
	out := make([]map[string]any, 0, len(convs))
	for _, c := range convs {
		out = append(out, map[string]any{
			"conversation_id": c.ID,
			"started_at":      c.StartedAt.UTC().Format(startedAtLayout),
			"message_count":   len(c.Messages),
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"conversations": out})
}

// lookup resolves the {id} path parameter. Caller holds mu.
func (s *Server) lookup(r *http.Request) (*conversation, bool) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		return nil, false
	}
	c, ok := s.conversations[id]
	return c, ok
}

func (s *Server) messages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c, ok := s.lookup(r)
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	out := make([]map[string]any, 0, len(c.Messages))
	for _, m := range c.Messages {
		out = append(out, map[string]any{
			"message_text": m.Text,
			"sender_type":  m.Sender,
			"timestamp":    m.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c, ok := s.lookup(r)
	if ok {
		delete(s.conversations, c.ID)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) end(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c, ok := s.lookup(r)
	if ok {
		c.Ended = true
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) cleanup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, ok := parseID(q.Get("user_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	days, err := strconv.Atoi(q.Get("days"))
	if err != nil || days < 1 {
		writeError(w, http.StatusBadRequest, "days must be a positive integer")
		return
	}

	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	deleted := 0
	s.mu.Lock()
	for id, c := range s.conversations {
		if c.UserID == userID && c.StartedAt.Before(cutoff) {
			delete(s.conversations, id)
			deleted++
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]int{"deleted_count": deleted})
}
