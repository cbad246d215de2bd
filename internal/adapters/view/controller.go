package view

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/quote-viewmodel/internal/app"
	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/logging"
)

// Controller binds a QuoteView to a view-model. Commands are read line by
// line: "r" or an empty line refreshes, "q" quits.
type Controller struct {
	vm       *app.QuoteViewModel
	view     *QuoteView
	renderer *Renderer
}

// NewController creates a controller rendering to out.
func NewController(vm *app.QuoteViewModel, out io.Writer) *Controller {
	return &Controller{
		vm:       vm,
		view:     NewQuoteView(),
		renderer: NewRenderer(out),
	}
}

// View returns the controller's view state.
func (c *Controller) View() *QuoteView {
	return c.view
}

// Run drives the view until "q" is read, ctx is cancelled, or commands is
// exhausted. At end of input the outstanding fetches are still rendered.
func (c *Controller) Run(ctx context.Context, commands io.Reader) error {
	logger := logging.FromContext(ctx)
	intents := make(chan domain.Intent)

	sub, err := c.vm.Transform(ctx, intents)
	if err != nil {
		return fmt.Errorf("binding view-model: %w", err)
	}
	defer func() { _ = sub.Close() }()

	quit := make(chan struct{})

	go func() {
		defer close(intents)

		if !send(intents, domain.IntentViewAppeared, sub.Done()) {
			return
		}

		scanner := bufio.NewScanner(commands)
		for scanner.Scan() {
			switch cmd := strings.ToLower(strings.TrimSpace(scanner.Text())); cmd {
			case "", "r":
				if !send(intents, domain.IntentRefreshRequested, sub.Done()) {
					return
				}
			case "q":
				close(quit)
				return
			default:
				logger.WarnContext(ctx, "unknown command", slog.String("command", cmd))
			}
		}

		if err := scanner.Err(); err != nil {
			logger.ErrorContext(ctx, "reading commands", slog.Any("error", err))
		}
	}()

	if err := c.renderer.Render(c.view); err != nil {
		return fmt.Errorf("rendering view: %w", err)
	}

	for {
		select {
		case <-quit:
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}

			c.view.Apply(ev)

			if err := c.renderer.Render(c.view); err != nil {
				return fmt.Errorf("rendering view: %w", err)
			}
		}
	}
}

func send(intents chan<- domain.Intent, intent domain.Intent, done <-chan struct{}) bool {
	select {
	case intents <- intent:
		return true
	case <-done:
		return false
	}
}
