// Package notifier delivers seat-available messages to subscribers.
package notifier

import (
	"context"
	"fmt"
	"strings"

	"seat-notifier/internal/logger"
)

// Notifier sends one message to a set of recipients.
type Notifier interface {
	Notify(ctx context.Context, to []string, subject, body string) error
}

// NotifyError reports a failed delivery attempt.
type NotifyError struct {
	Recipients []string
	Err        error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify %s: %v", strings.Join(e.Recipients, ","), e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// SeatAvailableSubject is the subject line sent when a section opens up.
func SeatAvailableSubject(courseTitle, sectionLabel string) string {
	return fmt.Sprintf("Course [%s] section [%s] has a seat available!", courseTitle, sectionLabel)
}

// SeatAvailableBody is the plain text body sent when a section opens up.
func SeatAvailableBody(remaining, capacity int) string {
	return fmt.Sprintf("%d/%d seats available", remaining, capacity)
}

// LogNotifier only logs messages. It stands in for the mailer when no SMTP
// server is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, to []string, subject, body string) error {
	logger.Info("Notification (mail disabled)", "to", strings.Join(to, ","), "subject", subject, "text", body)
	return nil
}
