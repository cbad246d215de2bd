package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
	"github.com/jsamuelsen/quote-viewmodel/internal/mocks"
)

const streamTimeout = 3 * time.Second

var testQuote = &domain.Quote{Content: "Make it work, make it right, make it fast.", Author: "Kent Beck"}

type frame struct {
	event string
	data  string
}

// sseReader reads frames from a stream response, skipping comments.
type sseReader struct {
	t       *testing.T
	frames  chan frame
	heartbs chan struct{}
}

func newSSEReader(t *testing.T, resp *http.Response) *sseReader {
	t.Helper()

	r := &sseReader{t: t, frames: make(chan frame, 16), heartbs: make(chan struct{}, 16)}

	go func() {
		defer close(r.frames)

		scanner := bufio.NewScanner(resp.Body)

		var cur frame
		for scanner.Scan() {
			line := scanner.Text()

			switch {
			case line == "":
				if cur.event != "" {
					r.frames <- cur
				}

				cur = frame{}
			case strings.HasPrefix(line, ":"):
				select {
				case r.heartbs <- struct{}{}:
				default:
				}
			case strings.HasPrefix(line, "event:"):
				cur.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				cur.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
		}
	}()

	return r
}

func (r *sseReader) next() frame {
	r.t.Helper()

	select {
	case f, ok := <-r.frames:
		require.True(r.t, ok, "stream ended early")
		return f
	case <-time.After(streamTimeout):
		r.t.Fatal("timed out waiting for frame")
		return frame{}
	}
}

type streamFixture struct {
	server   *httptest.Server
	sessions *SessionRegistry
}

func newStreamFixture(t *testing.T, fetcher *mocks.MockQuoteFetcher, maxSessions int, heartbeat time.Duration) *streamFixture {
	t.Helper()

	sessions := NewSessionRegistry(maxSessions, nil)
	handler := NewStreamHandler(StreamHandlerConfig{
		Fetcher:   fetcher,
		Sessions:  sessions,
		Heartbeat: heartbeat,
	})

	router := gin.New()
	handler.RegisterStreamRoutes(router.Group("/api/v1"))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &streamFixture{server: server, sessions: sessions}
}

func (f *streamFixture) open(t *testing.T) (*http.Response, *sseReader, string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+"/api/v1/quotes/stream", nil)
	require.NoError(t, err)

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		return resp, nil, ""
	}

	reader := newSSEReader(t, resp)

	first := reader.next()
	require.Equal(t, dto.EventTypeSession, first.event)

	var session dto.SessionEvent
	require.NoError(t, json.Unmarshal([]byte(first.data), &session))
	assert.Equal(t, resp.Header.Get(HeaderSessionID), session.SessionID)

	return resp, reader, session.SessionID
}

func (f *streamFixture) post(t *testing.T, sessionID, body string) *http.Response {
	t.Helper()

	resp, err := f.server.Client().Post(
		f.server.URL+"/api/v1/quotes/stream/"+sessionID+"/intents",
		"application/json",
		strings.NewReader(body),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func expectCycle(t *testing.T, r *sseReader, terminal frame) {
	t.Helper()

	assert.Equal(t, frame{event: domain.EventTypeButtonEnabled, data: `{"enabled":false}`}, r.next())
	assert.Equal(t, frame{event: domain.EventTypeButtonEnabled, data: `{"enabled":true}`}, r.next())
	assert.Equal(t, terminal, r.next())
}

func TestNewStreamHandler_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "StreamHandler: Fetcher is required", func() {
		NewStreamHandler(StreamHandlerConfig{Sessions: NewSessionRegistry(1, nil)})
	})
	assert.PanicsWithValue(t, "StreamHandler: Sessions is required", func() {
		NewStreamHandler(StreamHandlerConfig{Fetcher: mocks.NewMockQuoteFetcher(t)})
	})
}

func TestStreamHandler_ViewAppearedOnOpen(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	fetcher.EXPECT().FetchRandomQuote(mock.Anything).Return(testQuote, nil).Once()

	f := newStreamFixture(t, fetcher, 5, 0)
	resp, reader, _ := f.open(t)

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	expectCycle(t, reader, frame{
		event: domain.EventTypeFetchSucceeded,
		data:  `{"content":"Make it work, make it right, make it fast.","author":"Kent Beck"}`,
	})
}

func TestStreamHandler_RefreshIntent(t *testing.T) {
	fetchErr := domain.NewFetchError("quote-service", "rate limit exceeded")

	fetcher := mocks.NewMockQuoteFetcher(t)
	fetcher.EXPECT().FetchRandomQuote(mock.Anything).Return(testQuote, nil).Once()
	fetcher.EXPECT().FetchRandomQuote(mock.Anything).Return(nil, fetchErr).Once()

	f := newStreamFixture(t, fetcher, 5, 0)
	_, reader, id := f.open(t)

	expectCycle(t, reader, frame{
		event: domain.EventTypeFetchSucceeded,
		data:  `{"content":"Make it work, make it right, make it fast.","author":"Kent Beck"}`,
	})

	resp := f.post(t, id, `{"intent":"refresh_requested"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	expectCycle(t, reader, frame{
		event: domain.EventTypeFetchFailed,
		data:  `{"message":"fetch quote from \"quote-service\" failed: rate limit exceeded"}`,
	})
}

func TestStreamHandler_PostIntentErrors(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	fetcher.EXPECT().FetchRandomQuote(mock.Anything).Return(testQuote, nil).Maybe()

	f := newStreamFixture(t, fetcher, 5, 0)
	_, _, id := f.open(t)

	tests := []struct {
		name     string
		session  string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "unknown session", session: "nope", body: `{"intent":"refresh_requested"}`, wantCode: http.StatusNotFound, wantErr: dto.ErrorCodeNotFound},
		{name: "unknown intent", session: id, body: `{"intent":"dance"}`, wantCode: http.StatusBadRequest, wantErr: dto.ErrorCodeValidation},
		{name: "malformed body", session: id, body: `{`, wantCode: http.StatusBadRequest, wantErr: dto.ErrorCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.post(t, tt.session, tt.body)
			require.Equal(t, tt.wantCode, resp.StatusCode)

			var errResp dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
			assert.Equal(t, tt.wantErr, errResp.Error.Code)
		})
	}
}

func TestStreamHandler_SessionLimit(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	fetcher.EXPECT().FetchRandomQuote(mock.Anything).Return(testQuote, nil).Maybe()

	f := newStreamFixture(t, fetcher, 1, 0)
	_, _, _ = f.open(t)

	resp, _, _ := f.open(t)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStreamHandler_DisconnectEndsSession(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	fetcher.EXPECT().FetchRandomQuote(mock.Anything).Return(testQuote, nil).Maybe()

	f := newStreamFixture(t, fetcher, 5, 0)
	resp, _, id := f.open(t)
	require.Equal(t, 1, f.sessions.Len())

	require.NoError(t, resp.Body.Close())

	assert.Eventually(t, func() bool { return f.sessions.Len() == 0 }, streamTimeout, 10*time.Millisecond)

	_, err := f.sessions.Get(id)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStreamHandler_Heartbeat(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	fetcher.EXPECT().FetchRandomQuote(mock.Anything).Return(testQuote, nil).Maybe()

	f := newStreamFixture(t, fetcher, 5, 20*time.Millisecond)
	_, reader, _ := f.open(t)

	select {
	case <-reader.heartbs:
	case <-time.After(streamTimeout):
		t.Fatal("no heartbeat received")
	}
}
