package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// FocusChanged reports whether next picks a different crypto or sports market
// than prev.
func FocusChanged(prev, next domain.FocusPair) bool {
	return focusID(prev.Crypto) != focusID(next.Crypto) ||
		focusID(prev.Sports) != focusID(next.Sports)
}

// NotifyFocusChanged sends a focus_changed alert describing next. It is a
// no-op when the focus did not change.
func (n *Notifier) NotifyFocusChanged(ctx context.Context, prev, next domain.FocusPair) error {
	if !FocusChanged(prev, next) {
		return nil
	}
	return n.Notify(ctx, EventFocusChanged, "Focus markets changed", FormatFocus(next))
}

// FormatFocus renders a focus pair as two plain-text lines.
func FormatFocus(p domain.FocusPair) string {
	var b strings.Builder
	writeSlot(&b, "Crypto", p.Crypto)
	b.WriteByte('\n')
	writeSlot(&b, "Sports", p.Sports)
	return b.String()
}

func writeSlot(b *strings.Builder, label string, r *domain.MarketRecord) {
	b.WriteString(label)
	b.WriteString(": ")
	if r == nil {
		b.WriteString("none")
		return
	}
	if r.Question != nil && *r.Question != "" {
		b.WriteString(*r.Question)
	} else {
		b.WriteString(r.ID)
	}
	if r.HoursToClose != nil {
		fmt.Fprintf(b, " (closes in %sh", strconv.FormatFloat(*r.HoursToClose, 'f', -1, 64))
		if r.YesPrice != nil {
			fmt.Fprintf(b, ", yes %s", strconv.FormatFloat(*r.YesPrice, 'f', -1, 64))
		}
		b.WriteByte(')')
	}
}

func focusID(r *domain.MarketRecord) string {
	if r == nil {
		return ""
	}
	return r.ID
}
