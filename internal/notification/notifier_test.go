package notification

import (
	"context"
	"errors"
	"strings"
	"testing"

	"goldsys/internal/strategy"
)

func TestSignalAlert(t *testing.T) {
	alert := SignalAlert("XAUUSD", strategy.Long, 2650.25, 1.85)
	if alert.Level != AlertWarning {
		t.Errorf("level = %s", alert.Level)
	}
	if alert.Title != "XAUUSD LONG breakout" {
		t.Errorf("title = %q", alert.Title)
	}
	for _, want := range []string{"2650.25", "1.85x", strategy.MotiveBullish} {
		if !strings.Contains(alert.Message, want) {
			t.Errorf("message %q missing %q", alert.Message, want)
		}
	}
}

type recordingNotifier struct {
	sent []Alert
	err  error
}

func (r *recordingNotifier) Send(ctx context.Context, alert Alert) error {
	r.sent = append(r.sent, alert)
	return r.err
}

func TestMultiNotifierDeliversToAll(t *testing.T) {
	a := &recordingNotifier{}
	b := &recordingNotifier{err: errors.New("down")}
	c := &recordingNotifier{}
	multi := NewMultiNotifier(a, b, c)

	err := multi.Send(context.Background(), Alert{Level: AlertInfo, Title: "t"})
	if err == nil {
		t.Error("expected error from failing backend")
	}
	for i, r := range []*recordingNotifier{a, b, c} {
		if len(r.sent) != 1 {
			t.Errorf("backend %d got %d alerts, want 1", i, len(r.sent))
		}
	}
}

func TestEscapeMarkdown(t *testing.T) {
	got := escapeMarkdown("Vol 1.85x (4H)")
	want := `Vol 1\.85x \(4H\)`
	if got != want {
		t.Errorf("escaped = %q, want %q", got, want)
	}
}
