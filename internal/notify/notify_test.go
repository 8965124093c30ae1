package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

type recordingSender struct {
	name   string
	err    error
	titles []string
	bodies []string
}

func (r *recordingSender) Send(_ context.Context, title, message string) error {
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, message)
	return r.err
}

func (r *recordingSender) Name() string { return r.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rec(id, question string, hours float64) *domain.MarketRecord {
	return &domain.MarketRecord{ID: id, Question: &question, HoursToClose: &hours}
}

func TestNotifierFiltersEvents(t *testing.T) {
	s := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{s}, []string{" focus_changed "}, quietLogger())

	require.NoError(t, n.Notify(context.Background(), EventRefreshFailed, "t", "m"))
	assert.Empty(t, s.titles)

	require.NoError(t, n.Notify(context.Background(), EventFocusChanged, "t", "m"))
	assert.Equal(t, []string{"t"}, s.titles)
}

func TestNotifierEmptyFilterAllowsAll(t *testing.T) {
	s := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{s}, nil, quietLogger())
	require.NoError(t, n.Notify(context.Background(), "anything", "t", "m"))
	assert.Len(t, s.titles, 1)
}

func TestNotifierContinuesAfterFailure(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("down")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, quietLogger())

	err := n.Notify(context.Background(), EventFocusChanged, "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: down")
	assert.Len(t, good.titles, 1)
}

func TestNotifierWithoutSenders(t *testing.T) {
	n := NewNotifier(nil, nil, quietLogger())
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Notify(context.Background(), EventFocusChanged, "t", "m"))

	var nilNotifier *Notifier
	assert.False(t, nilNotifier.Enabled())
}

func TestFocusChanged(t *testing.T) {
	a := rec("1", "BTC up?", 3)
	b := rec("2", "Lakers vs. Celtics", 5)

	assert.False(t, FocusChanged(domain.FocusPair{}, domain.FocusPair{}))
	assert.False(t, FocusChanged(domain.FocusPair{Crypto: a}, domain.FocusPair{Crypto: rec("1", "other", 9)}))
	assert.True(t, FocusChanged(domain.FocusPair{Crypto: a}, domain.FocusPair{Crypto: a, Sports: b}))
	assert.True(t, FocusChanged(domain.FocusPair{Crypto: a}, domain.FocusPair{}))
}

func TestNotifyFocusChanged(t *testing.T) {
	s := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{s}, nil, quietLogger())
	a := rec("1", "BTC up?", 3.25)

	require.NoError(t, n.NotifyFocusChanged(context.Background(), domain.FocusPair{}, domain.FocusPair{Crypto: a}))
	require.NoError(t, n.NotifyFocusChanged(context.Background(), domain.FocusPair{Crypto: a}, domain.FocusPair{Crypto: a}))

	require.Len(t, s.bodies, 1)
	assert.Equal(t, "Crypto: BTC up? (closes in 3.25h)\nSports: none", s.bodies[0])
}

func TestFormatFocusFallsBackToID(t *testing.T) {
	yes := 0.4
	r := &domain.MarketRecord{ID: "77", YesPrice: &yes}
	h := 1.0
	r.HoursToClose = &h
	assert.Equal(t, "Crypto: none\nSports: 77 (closes in 1h, yes 0.4)", FormatFocus(domain.FocusPair{Sports: r}))
}

func TestDiscordSender(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL)
	require.NoError(t, d.Send(context.Background(), "Focus", strings.Repeat("é", 3000)))
	content := got["content"].(string)
	assert.True(t, strings.HasPrefix(content, "**Focus**\n"))
	assert.Len(t, []rune(content), discordMaxContent)
	assert.Equal(t, "discord", d.Name())
}

func TestDiscordSenderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 429")
}

func TestTelegramSender(t *testing.T) {
	var path string
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := NewTelegramSender("tok", "42")
	s.apiBase = srv.URL
	require.NoError(t, s.Send(context.Background(), "Focus", "body"))

	assert.Equal(t, "/bottok/sendMessage", path)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "*Focus*\nbody", got["text"])
	assert.Equal(t, "telegram", s.Name())
}

func TestTelegramSenderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	s := NewTelegramSender("tok", "42")
	s.apiBase = srv.URL
	err := s.Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramSenderRedactsToken(t *testing.T) {
	s := NewTelegramSender("secret-token", "42")
	s.apiBase = "http://127.0.0.1:1"
	err := s.Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 3))
	assert.Equal(t, "ab…", truncateRunes("abcd", 3))
}
