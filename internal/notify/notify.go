// Package notify delivers templated notifications after content
// lifecycle events. Delivery is strictly best-effort: a failed send is
// logged by the caller and never blocks the triggering operation.
package notify

import (
	"context"
	"fmt"

	"github.com/johnallens/content-platform/pkg/logger"
)

// Sender delivers one notification identified by template name.
type Sender interface {
	Send(ctx context.Context, template, recipient string, data map[string]string) error
}

// template bodies are deliberately plain; rich rendering lives in the
// external mail system, not here.
var templates = map[string]struct{ subject, body string }{
	"award_listing_published": {
		subject: "New award listing: %s",
		body:    "A new award listing %q (id %s) was published.",
	},
	"media_entry_published": {
		subject: "New media entry: %s",
		body:    "A new media entry %q (id %s) was published.",
	},
}

func render(template string, data map[string]string) (string, string, error) {
	t, ok := templates[template]
	if !ok {
		return "", "", fmt.Errorf("unknown notification template %q", template)
	}
	title := data["title"]
	return fmt.Sprintf(t.subject, title), fmt.Sprintf(t.body, title, data["id"]), nil
}

// LogSender logs instead of sending. Used when SMTP is not configured
// and in tests.
type LogSender struct{}

func NewLogSender() *LogSender { return &LogSender{} }

func (s *LogSender) Send(_ context.Context, template, recipient string, data map[string]string) error {
	subject, _, err := render(template, data)
	if err != nil {
		return err
	}
	logger.Infof("notification (log only): template=%s recipient=%s subject=%q", template, recipient, subject)
	return nil
}
