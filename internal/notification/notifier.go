// Package notification delivers signal alerts to external channels
// (Telegram, webhooks) and to the log.
package notification

import (
	"context"
	"fmt"
	"log"

	"goldsys/internal/strategy"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// SignalAlert builds the alert sent when the detector flips to LONG or SHORT.
func SignalAlert(symbol string, kind strategy.Kind, price, volRatio float64) Alert {
	return Alert{
		Level: AlertWarning,
		Title: fmt.Sprintf("%s %s breakout", symbol, kind),
		Message: fmt.Sprintf("%s @ %.2f: %s (volume %.2fx)",
			kind, price, strategy.Motive(kind), volRatio),
	}
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier logs alerts instead of delivering them (useful for development
// and as the fallback when no Telegram credentials are configured).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// MultiNotifier fans an alert out to several backends. A failing backend is
// logged and does not stop delivery to the others.
type MultiNotifier struct {
	backends []Notifier
}

// NewMultiNotifier creates a notifier that delivers to every backend.
func NewMultiNotifier(backends ...Notifier) *MultiNotifier {
	return &MultiNotifier{backends: backends}
}

func (n *MultiNotifier) Send(ctx context.Context, alert Alert) error {
	var lastErr error
	for _, b := range n.backends {
		if err := b.Send(ctx, alert); err != nil {
			log.Printf("[notify] backend %T failed: %v", b, err)
			lastErr = err
		}
	}
	return lastErr
}
