package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSweepRefreshesWhenDeleted(t *testing.T) {
	backend := newFakeBackend()
	backend.cleanupN = 2
	s, _ := newTestSession(backend, Options{})
	list := NewConversationList(backend, s, nil, nil, nil)
	sw := NewSweeper(backend, list, 7, 0, nil)

	n, err := sw.Sweep(context.Background(), "7")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 1, backend.listCount())
}

func TestSweepNothingDeleted(t *testing.T) {
	backend := newFakeBackend()
	s, _ := newTestSession(backend, Options{})
	list := NewConversationList(backend, s, nil, nil, nil)
	sw := NewSweeper(backend, list, 7, 0, nil)

	n, err := sw.Sweep(context.Background(), "7")
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, backend.listCount())
}

func TestStartSweepsOncePerUser(t *testing.T) {
	backend := newFakeBackend()
	backend.cleanupErr = errors.New("unreachable")
	sw := NewSweeper(backend, nil, 7, 0, nil)

	require.True(t, sw.Start("7"))
	require.False(t, sw.Start("7"), "failed sweeps are not retried")
	require.True(t, sw.Start("8"))
	sw.Wait()

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.ElementsMatch(t, []string{"7", "8"}, backend.cleanupUsers)
}
