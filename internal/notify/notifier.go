// Package notify fans operator alerts out to chat channels (Telegram,
// Discord). Alerts are filtered by event type so operators receive only the
// ones they subscribed to.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Event types understood by the filter.
const (
	EventFocusChanged  = "focus_changed"
	EventRefreshFailed = "refresh_failed"
)

// Sender is one alert channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	// Name identifies the channel in logs and errors.
	Name() string
}

// Notifier fans an event out to every Sender, dropping event types the
// operator did not subscribe to.
type Notifier struct {
	senders    []Sender
	subscribed map[string]struct{}
	logger     *slog.Logger
}

// NewNotifier subscribes to events; an empty list subscribes to all of them.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	subscribed := make(map[string]struct{})
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			subscribed[e] = struct{}{}
		}
	}
	return &Notifier{
		senders:    senders,
		subscribed: subscribed,
		logger:     logger.With(slog.String("component", "notify")),
	}
}

// Enabled reports whether at least one sender is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && len(n.senders) > 0
}

func (n *Notifier) wants(event string) bool {
	if len(n.subscribed) == 0 {
		return true
	}
	_, ok := n.subscribed[event]
	return ok
}

// Notify delivers to every sender even when some fail; the failures are
// joined into the returned error.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if !n.Enabled() || !n.wants(event) {
		return nil
	}

	var errs []error
	for _, s := range n.senders {
		log := n.logger.With(slog.String("sender", s.Name()), slog.String("event", event))
		if err := s.Send(ctx, title, message); err != nil {
			log.WarnContext(ctx, "delivery failed", slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		log.DebugContext(ctx, "delivered")
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}
