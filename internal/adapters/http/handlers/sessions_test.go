package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
)

func TestSessionRegistry_OpenGetRemove(t *testing.T) {
	reg := prometheus.NewRegistry()
	sessions := NewSessionRegistry(2, reg)

	s, err := sessions.Open("a")
	require.NoError(t, err)
	assert.Equal(t, "a", s.ID())

	got, err := sessions.Get("a")
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.InDelta(t, 1, testutil.ToFloat64(sessions.active), 0)

	sessions.Remove("a")
	sessions.Remove("a")

	_, err = sessions.Get("a")
	require.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, sessions.Len())
	assert.InDelta(t, 0, testutil.ToFloat64(sessions.active), 0)

	count, err := testutil.GatherAndCount(reg, "quote_stream_sessions_active")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSessionRegistry_Limits(t *testing.T) {
	sessions := NewSessionRegistry(1, nil)

	_, err := sessions.Open("a")
	require.NoError(t, err)

	_, err = sessions.Open("a")
	require.ErrorIs(t, err, ErrDuplicateSession)

	_, err = sessions.Open("b")
	require.ErrorIs(t, err, ErrTooManySessions)

	sessions.Remove("a")

	_, err = sessions.Open("b")
	require.NoError(t, err)
}

func TestSession_Push(t *testing.T) {
	sessions := NewSessionRegistry(1, nil)
	s, err := sessions.Open("a")
	require.NoError(t, err)

	received := make(chan domain.Intent, 1)
	go func() { received <- <-s.Intents() }()

	require.NoError(t, s.Push(context.Background(), domain.IntentRefreshRequested))
	assert.Equal(t, domain.IntentRefreshRequested, <-received)
}

func TestSession_PushAfterRemove(t *testing.T) {
	sessions := NewSessionRegistry(1, nil)
	s, err := sessions.Open("a")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Push(context.Background(), domain.IntentRefreshRequested) }()

	sessions.Remove("a")

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrSessionNotFound)
	case <-time.After(2 * time.Second):
		t.Fatal("push did not return after remove")
	}
}

func TestSession_PushContextDone(t *testing.T) {
	sessions := NewSessionRegistry(1, nil)
	s, err := sessions.Open("a")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Push(ctx, domain.IntentRefreshRequested), context.Canceled)
}
