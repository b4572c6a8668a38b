package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/matheus3301/melo/internal/domain"
)

// wireID encodes an identifier sent to the backend. An id that reads back
// unchanged as a decimal integer goes out as a JSON number, unless the backend
// sent it to us as a string; anything else is a JSON string.
func wireID(id string, quoted bool) json.RawMessage {
	if !quoted && canonicalInt(id) {
		return json.RawMessage(id)
	}
	data, _ := json.Marshal(id)
	return data
}

func canonicalInt(s string) bool {
	n, err := strconv.ParseInt(s, 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == s
}

// quotedID reports the id carried by raw when the backend encoded a numeric
// id as a JSON string.
func quotedID(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || !canonicalInt(s) {
		return "", false
	}
	return s, true
}

// SignupRequest is the request body for POST /auth/signup.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authResponse is the success body of both auth endpoints. user_id shares
// the string-or-number encoding of conversation ids.
type authResponse struct {
	UserID   domain.ConversationID `json:"user_id"`
	Username string                `json:"username"`

	quoted bool
}

func (r *authResponse) UnmarshalJSON(data []byte) error {
	type plain authResponse
	var aux struct {
		plain
		RawID json.RawMessage `json:"user_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = authResponse(aux.plain)
	if len(aux.RawID) > 0 {
		if err := r.UserID.UnmarshalJSON(aux.RawID); err != nil {
			return err
		}
	}
	_, r.quoted = quotedID(aux.RawID)
	return nil
}

func (c *Client) identity(r authResponse) (*domain.Identity, error) {
	id := &domain.Identity{UserID: r.UserID.String(), Username: r.Username}
	if !id.Valid() {
		return nil, domain.NewTransportError("malformed response", http.StatusOK, nil)
	}
	if r.quoted {
		c.quotedUsers.Store(id.UserID, struct{}{})
	}
	return id, nil
}

// Signup registers a new account. A rejected signup is an AuthError carrying
// the server's message.
func (c *Client) Signup(ctx context.Context, req *SignupRequest) (*domain.Identity, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", nil, req, &resp); err != nil {
		return nil, authFailure(err)
	}
	return c.identity(resp)
}

// Login authenticates an existing account.
func (c *Client) Login(ctx context.Context, req *LoginRequest) (*domain.Identity, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, authFailure(err)
	}
	return c.identity(resp)
}

// ChatRequest is the request body for POST /chat. An empty ConversationID
// is sent as null and asks the server to start a conversation.
type ChatRequest struct {
	Message        string
	UserID         string
	ConversationID string
}

func (r ChatRequest) MarshalJSON() ([]byte, error) {
	return r.encode(func(string) bool { return false }, func(string) bool { return false })
}

func (r ChatRequest) encode(userQuoted, convQuoted func(string) bool) ([]byte, error) {
	body := struct {
		Message        string          `json:"message"`
		UserID         json.RawMessage `json:"user_id"`
		ConversationID json.RawMessage `json:"conversation_id"`
	}{
		Message:        r.Message,
		UserID:         wireID(r.UserID, userQuoted(r.UserID)),
		ConversationID: json.RawMessage("null"),
	}
	if r.ConversationID != "" {
		body.ConversationID = wireID(r.ConversationID, convQuoted(r.ConversationID))
	}
	return json.Marshal(body)
}

// ChatResponse is the response from POST /chat.
type ChatResponse struct {
	Reply           string                `json:"reply"`
	ConversationID  domain.ConversationID `json:"conversation_id"`
	Emotion         string                `json:"emotion,omitempty"`
	Confidence      float64               `json:"confidence,omitempty"`
	NeedsEscalation bool                  `json:"needs_escalation,omitempty"`

	quoted bool
}

func (r *ChatResponse) UnmarshalJSON(data []byte) error {
	type plain ChatResponse
	var aux struct {
		plain
		RawID json.RawMessage `json:"conversation_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = ChatResponse(aux.plain)
	if len(aux.RawID) > 0 {
		if err := r.ConversationID.UnmarshalJSON(aux.RawID); err != nil {
			return err
		}
	}
	_, r.quoted = quotedID(aux.RawID)
	return nil
}

// Annotation returns the emotion attached to the reply, or nil.
func (r *ChatResponse) Annotation() *domain.Emotion {
	if r == nil || r.Emotion == "" {
		return nil
	}
	return &domain.Emotion{Label: r.Emotion, Confidence: r.Confidence}
}

// Chat sends one user message and returns the bot reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := req.encode(c.isQuoted(&c.quotedUsers), c.isQuoted(&c.quotedConvs))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", nil, json.RawMessage(body), &resp); err != nil {
		return nil, general(err)
	}
	if resp.quoted {
		c.quotedConvs.Store(resp.ConversationID.String(), struct{}{})
	}
	return &resp, nil
}

type conversationsResponse struct {
	Conversations []domain.Conversation
	quoted        []string
}

func (r *conversationsResponse) UnmarshalJSON(data []byte) error {
	var aux struct {
		Conversations []json.RawMessage `json:"conversations"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Conversations == nil {
		return nil
	}
	r.Conversations = make([]domain.Conversation, 0, len(aux.Conversations))
	for _, raw := range aux.Conversations {
		var conv domain.Conversation
		if err := json.Unmarshal(raw, &conv); err != nil {
			return err
		}
		var id struct {
			Raw json.RawMessage `json:"conversation_id"`
		}
		if err := json.Unmarshal(raw, &id); err == nil {
			if s, ok := quotedID(id.Raw); ok {
				r.quoted = append(r.quoted, s)
			}
		}
		r.Conversations = append(r.Conversations, conv)
	}
	return nil
}

// ListConversations returns every saved conversation of userID, in server order.
func (c *Client) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	var resp conversationsResponse
	query := url.Values{"user_id": {userID}}
	if err := c.do(ctx, http.MethodGet, "/conversations", query, nil, &resp); err != nil {
		return nil, general(err)
	}
	for _, id := range resp.quoted {
		c.quotedConvs.Store(id, struct{}{})
	}
	if resp.Conversations == nil {
		return []domain.Conversation{}, nil
	}
	return resp.Conversations, nil
}

type historyMessage struct {
	Text      string           `json:"message_text"`
	Sender    string           `json:"sender_type"`
	Timestamp domain.Timestamp `json:"timestamp"`
}

type messagesResponse struct {
	Messages []historyMessage `json:"messages"`
}

// GetMessages returns the history of one conversation in server order.
// The returned messages carry no ID; callers assign one when appending.
func (c *Client) GetMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	var resp messagesResponse
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, general(err)
	}
	out := make([]domain.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		out = append(out, domain.Message{
			Text:      m.Text,
			Sender:    domain.Sender(m.Sender),
			Timestamp: m.Timestamp.Time,
		})
	}
	return out, nil
}

// DeleteConversation removes a conversation on the server.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	path := "/conversations/" + url.PathEscape(conversationID)
	return general(c.do(ctx, http.MethodDelete, path, nil, nil, nil))
}

type cleanupResponse struct {
	DeletedCount int `json:"deleted_count"`
}

// Cleanup asks the server to delete conversations of userID older than days.
// Returns the number deleted.
func (c *Client) Cleanup(ctx context.Context, userID string, days int) (int, error) {
	var resp cleanupResponse
	query := url.Values{
		"user_id": {userID},
		"days":    {strconv.Itoa(days)},
	}
	if err := c.do(ctx, http.MethodPost, "/conversations/cleanup", query, nil, &resp); err != nil {
		return 0, general(err)
	}
	return resp.DeletedCount, nil
}

// EndConversation tells the server the user has left a conversation.
func (c *Client) EndConversation(ctx context.Context, conversationID string) error {
	path := "/conversations/" + url.PathEscape(conversationID) + "/end"
	return general(c.do(ctx, http.MethodPost, path, nil, nil, nil))
}

// Health probes GET /health.
func (c *Client) Health(ctx context.Context) error {
	return general(c.do(ctx, http.MethodGet, "/health", nil, nil, nil))
}
