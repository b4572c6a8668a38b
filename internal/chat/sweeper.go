package chat

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultRetentionDays is how old a conversation gets before a sweep removes it.
const DefaultRetentionDays = 7

// Sweeper asks the server to delete expired conversations. Each user is
// swept at most once per process.
type Sweeper struct {
	mu    sync.Mutex
	swept map[string]bool
	wg    sync.WaitGroup

	backend   Backend
	refresher Refresher
	days      int
	timeout   time.Duration
	logger    *zap.Logger
}

// NewSweeper creates a sweeper for conversations older than days.
func NewSweeper(backend Backend, refresher Refresher, days int, timeout time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if days < 1 {
		days = DefaultRetentionDays
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Sweeper{
		swept:     make(map[string]bool),
		backend:   backend,
		refresher: refresher,
		days:      days,
		timeout:   timeout,
		logger:    logger,
	}
}

// Sweep runs one cleanup request for userID and refreshes the list when
// anything was deleted.
func (s *Sweeper) Sweep(ctx context.Context, userID string) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	deleted, err := s.backend.Cleanup(reqCtx, userID, s.days)
	if err != nil {
		return 0, err
	}
	if deleted > 0 && s.refresher != nil {
		if _, err := s.refresher.Refresh(ctx); err != nil {
			s.logger.Warn("refresh after sweep failed", zap.Error(err))
		}
	}
	return deleted, nil
}

// Start sweeps userID in the background unless it was already swept by this
// process. Failures are logged only. Reports whether a sweep was started.
func (s *Sweeper) Start(userID string) bool {
	s.mu.Lock()
	if s.swept[userID] {
		s.mu.Unlock()
		return false
	}
	s.swept[userID] = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		deleted, err := s.Sweep(context.Background(), userID)
		if err != nil {
			s.logger.Warn("retention sweep failed", zap.String("user_id", userID), zap.Error(err))
			return
		}
		s.logger.Info("retention sweep done",
			zap.String("user_id", userID),
			zap.Int("deleted", deleted),
			zap.Int("days", s.days),
		)
	}()
	return true
}

// Wait blocks until running sweeps finish.
func (s *Sweeper) Wait() {
	s.wg.Wait()
}
