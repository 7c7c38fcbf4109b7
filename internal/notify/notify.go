// Package notify hands email jobs to the notifier worker through a pgmq queue.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erfajc97/anko-back/internal/pgmq"
)

// Templates known to the notifier worker.
const (
	TemplateVerification        = "verification"
	TemplatePasswordReset       = "password_reset"
	TemplatePackagePurchase     = "package_purchase"
	TemplateBookingConfirmation = "booking_confirmation"
	TemplateBookingCancellation = "booking_cancellation"
)

// Job is the queued representation of one email.
type Job struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

// Notifier sends an email without waiting for delivery.
type Notifier interface {
	Send(ctx context.Context, to, subject, template string, data map[string]any) error
}

// Enqueuer is the queue operation a QueueNotifier needs.
type Enqueuer interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

var _ Enqueuer = (*pgmq.Client)(nil)

// QueueNotifier enqueues jobs for cmd/notifier.
type QueueNotifier struct {
	queue Enqueuer
	name  string
}

func NewQueueNotifier(queue Enqueuer, queueName string) *QueueNotifier {
	return &QueueNotifier{queue: queue, name: queueName}
}

func (n *QueueNotifier) Send(ctx context.Context, to, subject, template string, data map[string]any) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("email job %q has no recipient", template)
	}
	payload, err := json.Marshal(Job{To: to, Subject: subject, Template: template, Data: data})
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}
	if err := n.queue.Send(ctx, n.name, payload); err != nil {
		return fmt.Errorf("enqueue email job %q: %w", template, err)
	}
	return nil
}

// Discard drops every message. Useful when no queue is configured.
type Discard struct{}

func (Discard) Send(context.Context, string, string, string, map[string]any) error { return nil }
