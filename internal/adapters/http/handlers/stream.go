package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-viewmodel/internal/app"
	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/logging"
	"github.com/jsamuelsen/quote-viewmodel/internal/ports"
)

const (
	// HeaderSessionID carries the stream session ID on the stream response.
	HeaderSessionID = "X-Session-ID"

	// defaultWriteTimeout bounds each frame write on a stream.
	defaultWriteTimeout = 10 * time.Second
)

// StreamHandlerConfig contains the dependencies of a StreamHandler.
type StreamHandlerConfig struct {
	Fetcher  ports.QuoteFetcher
	Sessions *SessionRegistry

	// Heartbeat is the interval of keep-alive comments. Zero disables them.
	Heartbeat time.Duration

	// WriteTimeout bounds each frame write. Defaults to 10s.
	WriteTimeout time.Duration
}

// StreamHandler serves quote streams: one view-model per SSE connection,
// driven by intents posted against the session.
type StreamHandler struct {
	fetcher      ports.QuoteFetcher
	sessions     *SessionRegistry
	heartbeat    time.Duration
	writeTimeout time.Duration
}

// NewStreamHandler creates a stream handler. Panics if Fetcher or Sessions is nil.
func NewStreamHandler(cfg StreamHandlerConfig) *StreamHandler {
	if cfg.Fetcher == nil {
		panic("StreamHandler: Fetcher is required")
	}

	if cfg.Sessions == nil {
		panic("StreamHandler: Sessions is required")
	}

	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	return &StreamHandler{
		fetcher:      cfg.Fetcher,
		sessions:     cfg.Sessions,
		heartbeat:    cfg.Heartbeat,
		writeTimeout: cfg.WriteTimeout,
	}
}

// Stream handles GET /api/v1/quotes/stream.
// It opens a session, announces its ID, sends the view-appeared intent and
// streams presentation events until the client disconnects.
func (h *StreamHandler) Stream(c *gin.Context) {
	id := uuid.NewString()

	session, err := h.sessions.Open(id)
	if err != nil {
		dto.RespondWithErrorCode(c, dto.ErrorCodeUnavailable, err.Error())
		return
	}
	defer h.sessions.Remove(id)

	ctx := logging.WithSessionID(c.Request.Context(), id)
	logger := logging.FromContext(ctx)

	vm := app.NewQuoteViewModel(app.QuoteViewModelConfig{Fetcher: h.fetcher})

	sub, err := vm.Transform(ctx, session.Intents())
	if err != nil {
		dto.RespondWithErrorCode(c, dto.ErrorCodeInternal, "an internal error occurred")
		return
	}
	defer func() { _ = sub.Close() }()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header(HeaderSessionID, id)
	c.Status(http.StatusOK)

	w := newFrameWriter(c, h.writeTimeout)

	if err := w.event(dto.EventTypeSession, dto.SessionEvent{SessionID: id}); err != nil {
		logger.WarnContext(ctx, "stream write failed", slog.Any("error", err))
		return
	}

	logger.InfoContext(ctx, "stream session opened", slog.Int("active_sessions", h.sessions.Len()))

	if err := session.Push(ctx, domain.IntentViewAppeared); err != nil {
		return
	}

	var heartbeat <-chan time.Time
	if h.heartbeat > 0 {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		heartbeat = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "stream session closed by client")
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}

			payload, err := dto.FromPresentationEvent(ev)
			if err != nil {
				logger.ErrorContext(ctx, "dropping event", slog.Any("error", err))
				continue
			}

			if err := w.event(ev.EventType(), payload); err != nil {
				logger.WarnContext(ctx, "stream write failed", slog.Any("error", err))
				return
			}
		case <-heartbeat:
			if err := w.comment("heartbeat"); err != nil {
				logger.WarnContext(ctx, "stream write failed", slog.Any("error", err))
				return
			}
		}
	}
}

// PostIntent handles POST /api/v1/quotes/stream/:session/intents.
func (h *StreamHandler) PostIntent(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("session"))
	if err != nil {
		dto.RespondWithErrorCode(c, dto.ErrorCodeNotFound, err.Error())
		return
	}

	var req dto.IntentRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	intent, err := domain.ParseIntent(req.Intent)
	if err != nil {
		dto.RespondWithErrorCode(c, dto.ErrorCodeValidation, err.Error())
		return
	}

	ctx := logging.WithSessionID(c.Request.Context(), session.ID())

	switch err := session.Push(ctx, intent); {
	case err == nil:
		c.Status(http.StatusAccepted)
	case errors.Is(err, ErrSessionNotFound):
		dto.RespondWithErrorCode(c, dto.ErrorCodeNotFound, err.Error())
	default:
		logging.FromContext(ctx).WarnContext(ctx, "intent not delivered", slog.Any("error", err))
		dto.RespondWithErrorCode(c, dto.ErrorCodeUnavailable, "intent not delivered")
	}
}

// RegisterStreamRoutes registers the stream routes on the given router group.
func (h *StreamHandler) RegisterStreamRoutes(rg *gin.RouterGroup) {
	stream := rg.Group("/quotes/stream")
	stream.GET("", h.Stream)
	stream.POST("/:session/intents", h.PostIntent)
}

// frameWriter writes SSE frames, moving the write deadline forward before
// each one so a long-lived stream outlives the server's write timeout.
type frameWriter struct {
	c       *gin.Context
	rc      *http.ResponseController
	timeout time.Duration
}

func newFrameWriter(c *gin.Context, timeout time.Duration) *frameWriter {
	return &frameWriter{c: c, rc: http.NewResponseController(c.Writer), timeout: timeout}
}

func (w *frameWriter) event(name string, data any) error {
	if err := w.extendDeadline(); err != nil {
		return err
	}

	w.c.SSEvent(name, data)

	return w.flush()
}

func (w *frameWriter) comment(text string) error {
	if err := w.extendDeadline(); err != nil {
		return err
	}

	if _, err := io.WriteString(w.c.Writer, ": "+text+"\n\n"); err != nil {
		return fmt.Errorf("writing comment: %w", err)
	}

	return w.flush()
}

func (w *frameWriter) extendDeadline() error {
	err := w.rc.SetWriteDeadline(time.Now().Add(w.timeout))
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("setting write deadline: %w", err)
	}

	return nil
}

func (w *frameWriter) flush() error {
	w.c.Writer.Flush()

	if err := w.c.Request.Context().Err(); err != nil {
		return fmt.Errorf("client gone: %w", context.Cause(w.c.Request.Context()))
	}

	return nil
}
