package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/matheus3301/melo/internal/bus"
	"github.com/matheus3301/melo/internal/client"
	"github.com/matheus3301/melo/internal/domain"
)

const (
	DefaultRequestTimeout  = 30 * time.Second
	DefaultMaxMessageChars = 1000
	DefaultEmotionDwell    = 8 * time.Second
)

// Escalation is the payload of session.escalation events.
type Escalation struct {
	Emotion        *domain.Emotion
	Reply          string
	ConversationID string
}

// Options tunes a Session. Zero values take the defaults.
type Options struct {
	RequestTimeout  time.Duration
	MaxMessageChars int
	EmotionDwell    time.Duration
	Clock           Clock
	// EndNotice sends POST /conversations/{id}/end when StartNew leaves a
	// conversation.
	EndNotice bool
	// OnEscalation runs when a reply is flagged needs_escalation.
	OnEscalation func(Escalation)
}

func (o *Options) applyDefaults() {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.MaxMessageChars <= 0 {
		o.MaxMessageChars = DefaultMaxMessageChars
	}
	if o.EmotionDwell <= 0 {
		o.EmotionDwell = DefaultEmotionDwell
	}
}

// Session owns the active conversation and the send gate. At most one
// message is in flight at a time.
type Session struct {
	mu             sync.Mutex
	identity       *domain.Identity
	conversationID string
	inFlight       bool
	// epoch increments on every focus change; replies from an older epoch
	// are discarded.
	epoch uint64

	backend    Backend
	transcript *Transcript
	emotion    *EmotionDisplay
	refresher  Refresher
	opts       Options
	bus        *bus.Bus
	logger     *zap.Logger
	notices    sync.WaitGroup
}

// NewSession creates a signed-out session.
func NewSession(backend Backend, b *bus.Bus, logger *zap.Logger, opts Options) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.applyDefaults()
	return &Session{
		backend:    backend,
		transcript: NewTranscript(b),
		emotion:    NewEmotionDisplay(b, opts.Clock, opts.EmotionDwell),
		opts:       opts,
		bus:        b,
		logger:     logger,
	}
}

// SetRefresher wires the list that is reloaded after each successful reply.
func (s *Session) SetRefresher(r Refresher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresher = r
}

// SetIdentity installs or clears (nil) the signed-in user.
func (s *Session) SetIdentity(id *domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == nil {
		s.identity = nil
		return
	}
	copied := *id
	s.identity = &copied
}

// Identity returns the signed-in user, or nil.
func (s *Session) Identity() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	copied := *s.identity
	return &copied
}

// CurrentConversationID returns the active conversation id, "" for a new chat.
func (s *Session) CurrentConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// InFlight reports whether a send is outstanding.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Transcript returns the active transcript.
func (s *Session) Transcript() *Transcript { return s.transcript }

// Emotion returns the emotion indicator.
func (s *Session) Emotion() *EmotionDisplay { return s.emotion }

// MaxMessageChars returns the composer limit.
func (s *Session) MaxMessageChars() int { return s.opts.MaxMessageChars }

// Submit validates raw, appends it to the transcript and sends it. A failed
// send appends FallbackReply and returns nil; only validation and gate
// rejections are returned as errors, and those change nothing.
func (s *Session) Submit(ctx context.Context, raw string) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(text); n > s.opts.MaxMessageChars {
		return fmt.Errorf("%w: %d/%d characters", ErrMessageTooLong, n, s.opts.MaxMessageChars)
	}

	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	s.inFlight = true
	req := client.ChatRequest{
		Message:        text,
		UserID:         s.identity.UserID,
		ConversationID: s.conversationID,
	}
	epoch := s.epoch
	s.transcript.Append(domain.Message{Text: text, Sender: domain.SenderUser})
	refresher := s.refresher
	s.mu.Unlock()

	if s.exchange(ctx, req, epoch) && refresher != nil {
		if _, err := refresher.Refresh(ctx); err != nil {
			s.logger.Warn("refresh after reply failed", zap.Error(err))
		}
	}
	return nil
}

// exchange performs the request for one submitted message and reports
// whether the server answered. The gate is released on every path.
func (s *Session) exchange(ctx context.Context, req client.ChatRequest, epoch uint64) bool {
	s.bus.Emit(bus.SessionSendStarted, req.ConversationID)
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
		s.bus.Emit(bus.SessionSendFinished, nil)
	}()

	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	resp, err := s.backend.Chat(reqCtx, req)
	if err == nil && strings.TrimSpace(resp.Reply) == "" {
		err = domain.NewTransportError("empty reply", 0, nil)
	}
	if err != nil {
		s.logger.Warn("send failed",
			zap.String("conversation_id", req.ConversationID),
			zap.Error(err),
		)
		s.appendIfCurrent(epoch, FallbackReply, "")
		return false
	}

	conversationID := resp.ConversationID.String()
	if s.appendIfCurrent(epoch, resp.Reply, conversationID) {
		if e := resp.Annotation(); e != nil {
			s.emotion.Show(*e)
		}
	} else {
		s.logger.Info("reply arrived after focus change, discarded",
			zap.String("conversation_id", conversationID))
	}

	if resp.NeedsEscalation {
		esc := Escalation{Emotion: resp.Annotation(), Reply: resp.Reply, ConversationID: conversationID}
		s.logger.Warn("reply flagged for escalation", zap.String("conversation_id", conversationID))
		s.bus.Emit(bus.SessionEscalation, esc)
		if s.opts.OnEscalation != nil {
			s.opts.OnEscalation(esc)
		}
	}
	return true
}

// appendIfCurrent appends a bot message and adopts conversationID (when
// non-empty) unless the focus moved since epoch.
func (s *Session) appendIfCurrent(epoch uint64, text, conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	if conversationID != "" {
		s.conversationID = conversationID
	}
	s.transcript.Append(domain.Message{Text: text, Sender: domain.SenderBot})
	return true
}

// focus switches the active conversation and empties the transcript.
// Returns the previous id. Caller holds mu.
func (s *Session) focus(conversationID string) string {
	prev := s.conversationID
	s.conversationID = conversationID
	s.epoch++
	s.transcript.Reset()
	return prev
}

// StartNew leaves the active conversation for an empty one. Nothing is
// deleted on the server.
func (s *Session) StartNew(ctx context.Context) {
	s.mu.Lock()
	prev := s.focus("")
	s.mu.Unlock()
	s.bus.Emit(bus.SessionFocusChanged, "")

	if s.opts.EndNotice && prev != "" {
		s.sendEndNotice(ctx, prev)
	}
}

func (s *Session) sendEndNotice(ctx context.Context, conversationID string) {
	s.notices.Add(1)
	go func() {
		defer s.notices.Done()
		noticeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.RequestTimeout)
		defer cancel()
		if err := s.backend.EndConversation(noticeCtx, conversationID); err != nil {
			s.logger.Warn("end conversation notice failed",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		}
	}()
}

// LoadExisting focuses conversationID and replays its history. On failure
// the transcript shows the error inline and the error is returned.
func (s *Session) LoadExisting(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	s.focus(conversationID)
	epoch := s.epoch
	s.mu.Unlock()
	s.bus.Emit(bus.SessionFocusChanged, conversationID)

	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()
	history, err := s.backend.GetMessages(reqCtx, conversationID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	if err != nil {
		s.logger.Warn("load conversation failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		s.transcript.Fail(err)
		return fmt.Errorf("load conversation %s: %w", conversationID, err)
	}
	for _, m := range history {
		s.transcript.Append(m)
	}
	return nil
}

// Reset returns to the empty new-chat state without any network traffic.
func (s *Session) Reset() {
	s.mu.Lock()
	s.focus("")
	s.mu.Unlock()
	s.bus.Emit(bus.SessionFocusChanged, "")
}

// ResetIfActive resets the session when conversationID is the active one.
func (s *Session) ResetIfActive(conversationID string) bool {
	s.mu.Lock()
	if conversationID == "" || s.conversationID != conversationID {
		s.mu.Unlock()
		return false
	}
	s.focus("")
	s.mu.Unlock()
	s.bus.Emit(bus.SessionFocusChanged, "")
	return true
}

// Wait blocks until pending end-conversation notices finish.
func (s *Session) Wait() {
	s.notices.Wait()
}
