// Package app contains the application layer: the quote view-model that turns
// user intents into presentation events. It depends only on the domain and
// on ports, never on a concrete quote source or presentation adapter.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/logging"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-viewmodel/internal/ports"
)

// ErrAlreadyTransformed is returned by a second call to Transform.
var ErrAlreadyTransformed = errors.New("view-model already transformed")

// errEmptyResult stands in for a fetcher that returned neither quote nor error.
var errEmptyResult = domain.NewFetchError("", "empty result")

// QuoteViewModelConfig contains the dependencies of a QuoteViewModel.
type QuoteViewModelConfig struct {
	Fetcher ports.QuoteFetcher

	// Logger is optional. Without it the logger carried by the Transform
	// context is used, falling back to slog.Default.
	Logger *slog.Logger
}

// QuoteViewModel turns a stream of intents into presentation events. Every
// intent starts its own fetch, even while earlier fetches are outstanding,
// and produces exactly:
//
//	ButtonEnabled(false), ButtonEnabled(true), FetchSucceeded | FetchFailed
//
// Events of one intent keep that order; events of overlapping intents may
// interleave. A view-model drives a single subscription.
type QuoteViewModel struct {
	fetcher     ports.QuoteFetcher
	logger      *slog.Logger
	transformed atomic.Bool
	tracer      trace.Tracer
	metrics     *viewModelMetrics
}

// NewQuoteViewModel creates a view-model. Panics if Fetcher is nil.
func NewQuoteViewModel(cfg QuoteViewModelConfig) *QuoteViewModel {
	if cfg.Fetcher == nil {
		panic("QuoteViewModel: Fetcher is required")
	}

	return &QuoteViewModel{
		fetcher: cfg.Fetcher,
		logger:  cfg.Logger,
		tracer:  telemetry.Tracer(),
		metrics: sharedMetrics(),
	}
}

// Subscription is the live output of Transform. Receive from Events until it
// is closed; call Close to dispose the stream early.
type Subscription struct {
	events chan domain.PresentationEvent
	done   chan struct{}
	cancel context.CancelFunc
	group  errgroup.Group
	end    sync.Once
}

// Events returns the output stream. It is unbuffered, so the consumer paces
// delivery, and it is closed when the stream ends.
func (s *Subscription) Events() <-chan domain.PresentationEvent {
	return s.events
}

// Done is closed once the stream has ended and Events is closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close disposes the subscription: it stops reading intents, abandons
// outstanding fetches, and waits until no goroutine can emit. No event is
// delivered after Close returns. Close is idempotent and always returns nil.
func (s *Subscription) Close() error {
	s.cancel()
	<-s.done

	return nil
}

func (s *Subscription) finish() {
	s.end.Do(func() {
		close(s.events)
		close(s.done)
	})
}

// emit delivers ev unless the subscription has been disposed.
func (s *Subscription) emit(ctx context.Context, ev domain.PresentationEvent) bool {
	if ctx.Err() != nil {
		return false
	}

	select {
	case s.events <- ev:
		logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "event emitted",
			slog.String("event", ev.EventType()))

		return true
	case <-ctx.Done():
		return false
	}
}

// Transform subscribes to input and returns the event stream. The stream
// ends when Close is called, when ctx is cancelled, or when input is closed
// and every fetch already started has been reported. Transform may be
// called once; later calls return ErrAlreadyTransformed.
func (vm *QuoteViewModel) Transform(ctx context.Context, input <-chan domain.Intent) (*Subscription, error) {
	if !vm.transformed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyTransformed
	}

	logger := vm.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	ctx = logging.WithContext(ctx, logger.With(slog.String("component", "QuoteViewModel")))
	ctx, cancel := context.WithCancel(ctx)

	sub := &Subscription{
		events: make(chan domain.PresentationEvent),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	sub.group.Go(func() error {
		vm.dispatch(ctx, input, sub)
		return nil
	})

	go func() {
		_ = sub.group.Wait()
		cancel()
		sub.finish()
	}()

	return sub, nil
}

// dispatch reads intents until input closes or the subscription is disposed.
// The disable event goes out before the intent's goroutine starts, which is
// what keeps each intent's events in order.
func (vm *QuoteViewModel) dispatch(ctx context.Context, input <-chan domain.Intent, sub *Subscription) {
	logger := logging.FromContext(ctx)

	for {
		var (
			intent domain.Intent
			ok     bool
		)

		select {
		case <-ctx.Done():
			return
		case intent, ok = <-input:
		}

		if !ok {
			logger.DebugContext(ctx, "intent stream closed")
			return
		}

		if !intent.Valid() {
			logger.WarnContext(ctx, "ignoring unknown intent", slog.Int("intent", int(intent)))
			continue
		}

		logger.DebugContext(ctx, "intent received", slog.String("intent", intent.String()))
		vm.metrics.intents.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", intent.String())))

		if !sub.emit(ctx, domain.ButtonEnabled{Enabled: false}) {
			return
		}

		sub.group.Go(func() error {
			vm.fetch(ctx, intent, sub)
			return nil
		})
	}
}

// fetch runs one fetch and reports it. If the subscription is disposed first
// the result is dropped and nothing is emitted.
func (vm *QuoteViewModel) fetch(ctx context.Context, intent domain.Intent, sub *Subscription) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	fetchCtx, span := vm.tracer.Start(ctx, "QuoteViewModel.fetch",
		trace.WithAttributes(attribute.String("intent", intent.String())))

	var res Result[*domain.Quote]

	select {
	case res = <-Async(fetchCtx, vm.fetcher.FetchRandomQuote):
	case <-ctx.Done():
		span.SetStatus(codes.Error, "disposed")
		span.End()
		logger.DebugContext(ctx, "fetch abandoned", slog.String("intent", intent.String()))

		return
	}

	if res.Err == nil && res.Value == nil {
		res.Err = errEmptyResult
	}

	outcome := "success"
	if res.Err != nil {
		outcome = "failure"
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}

	span.End()

	elapsed := time.Since(start)
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	vm.metrics.fetches.Add(ctx, 1, attrs)
	vm.metrics.duration.Record(ctx, elapsed.Seconds(), attrs)

	if !sub.emit(ctx, domain.ButtonEnabled{Enabled: true}) {
		return
	}

	if res.Err != nil {
		logger.WarnContext(ctx, "quote fetch failed",
			slog.String("intent", intent.String()),
			slog.Duration("duration", elapsed),
			slog.Any("error", res.Err))
		sub.emit(ctx, domain.FetchFailed{Err: res.Err})

		return
	}

	logger.InfoContext(ctx, "quote fetched",
		slog.String("intent", intent.String()),
		slog.Duration("duration", elapsed),
		slog.String("author", res.Value.Author))
	sub.emit(ctx, domain.FetchSucceeded{Quote: *res.Value})
}

type viewModelMetrics struct {
	intents  metric.Int64Counter
	fetches  metric.Int64Counter
	duration metric.Float64Histogram
}

// sharedMetrics creates the view-model instruments once per process.
// Instrument errors are reported to otel and leave a no-op in place.
var sharedMetrics = sync.OnceValue(func() *viewModelMetrics {
	meter := telemetry.Meter()

	intents, err := meter.Int64Counter("quote.viewmodel.intents",
		metric.WithDescription("Intents accepted by quote view-models"))
	if err != nil {
		otel.Handle(err)
	}

	fetches, err := meter.Int64Counter("quote.viewmodel.fetches",
		metric.WithDescription("Quote fetches completed, by outcome"))
	if err != nil {
		otel.Handle(err)
	}

	duration, err := meter.Float64Histogram("quote.viewmodel.fetch.duration",
		metric.WithDescription("Quote fetch latency as seen by the view-model"),
		metric.WithUnit("s"))
	if err != nil {
		otel.Handle(err)
	}

	return &viewModelMetrics{intents: intents, fetches: fetches, duration: duration}
})
