package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type recordingQueue struct {
	queue    string
	payloads [][]byte
	err      error
}

func (q *recordingQueue) Send(_ context.Context, queue string, payload []byte) error {
	if q.err != nil {
		return q.err
	}
	q.queue = queue
	q.payloads = append(q.payloads, payload)
	return nil
}

func TestQueueNotifierEnqueuesJob(t *testing.T) {
	q := &recordingQueue{}
	n := NewQueueNotifier(q, "email_queue")
	err := n.Send(context.Background(), "a@example.com", "Hi", TemplateVerification, map[string]any{"link": "https://x"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if q.queue != "email_queue" || len(q.payloads) != 1 {
		t.Fatalf("unexpected queue state: %q, %d payloads", q.queue, len(q.payloads))
	}
	var job Job
	if err := json.Unmarshal(q.payloads[0], &job); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if job.To != "a@example.com" || job.Template != TemplateVerification || job.Data["link"] != "https://x" {
		t.Errorf("unexpected job: %+v", job)
	}
}

func TestQueueNotifierErrors(t *testing.T) {
	n := NewQueueNotifier(&recordingQueue{}, "email_queue")
	if err := n.Send(context.Background(), " ", "Hi", TemplateVerification, nil); err == nil {
		t.Error("expected error for empty recipient")
	}
	boom := errors.New("boom")
	n = NewQueueNotifier(&recordingQueue{err: boom}, "email_queue")
	if err := n.Send(context.Background(), "a@example.com", "Hi", TemplateVerification, nil); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}
