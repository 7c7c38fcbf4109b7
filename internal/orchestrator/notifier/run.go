package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/erfajc97/anko-back/internal/config"
	"github.com/erfajc97/anko-back/internal/email"
	"github.com/erfajc97/anko-back/internal/notify"
	"github.com/erfajc97/anko-back/internal/pgmq"

	"github.com/rs/zerolog"
)

// Queue is the pgmq surface the notifier needs.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, visibilitySec, timeoutSec, maxMessages int) ([]*pgmq.Message, error)
	Send(ctx context.Context, queue string, payload []byte) error
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

type Mailer interface {
	Send(ctx context.Context, m email.Message) error
}

var (
	_ Queue  = (*pgmq.Client)(nil)
	_ Mailer = (*email.Client)(nil)
)

type Options struct {
	Queue           string
	DeadLetterQueue string
	VisibilitySec   int
	PollTimeoutSec  int
	PollMaxMsg      int
	MaxRetries      int
	MaxDeliveries   int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Queue:           cfg.EmailQueueName,
		DeadLetterQueue: cfg.EmailDeadLetterQueueName,
		VisibilitySec:   cfg.EmailVisibilitySec,
		PollTimeoutSec:  cfg.EmailPollTimeoutSec,
		PollMaxMsg:      cfg.EmailPollMaxMsg,
		MaxRetries:      max(1, cfg.EmailMaxRetries),
		MaxDeliveries:   cfg.EmailMaxDeliveries,
		BackoffInitial:  time.Duration(cfg.EmailBackoffInitialSec) * time.Second,
		BackoffMax:      time.Duration(cfg.EmailBackoffMaxSec) * time.Second,
	}
}

// errRedelivered marks a job that kept coming back without being acknowledged,
// usually because a worker died mid-send.
var errRedelivered = errors.New("message redelivered too many times")

// deadLetter is what lands on the dead-letter queue.
type deadLetter struct {
	Job      json.RawMessage `json:"job"`
	Error    string          `json:"error"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failed_at"`
}

// Run drains the email queue until ctx is cancelled.
func Run(ctx context.Context, logger zerolog.Logger, q Queue, renderer *email.Renderer, mailer Mailer, opts Options) error {
	logger = logger.With().Str("orchestrator", "notifier").Logger()
	logger.Info().Str("queue", opts.Queue).Msg("Starting email notifier")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down email notifier")
			return nil
		default:
		}

		msgs, err := q.ReadWithPoll(ctx, opts.Queue, opts.VisibilitySec, opts.PollTimeoutSec, opts.PollMaxMsg)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error().Err(err).Msg("Error reading email queue")
			sleep(ctx, time.Second)
			continue
		}
		for _, msg := range msgs {
			process(ctx, logger, q, renderer, mailer, opts, msg)
		}
	}
}

// process delivers one queued email. The message is always removed from the
// queue unless acknowledging it fails, in which case it reappears after the
// visibility timeout.
func process(ctx context.Context, logger zerolog.Logger, q Queue, renderer *email.Renderer, mailer Mailer, opts Options, msg *pgmq.Message) {
	log := logger.With().Int64("msg_id", msg.ID).Int("read_count", msg.ReadCnt).Logger()

	if opts.MaxDeliveries > 0 && msg.ReadCnt > opts.MaxDeliveries {
		log.Error().Msg("Email job keeps reappearing; moving to DLQ")
		toDeadLetter(ctx, log, q, opts, msg, errRedelivered, 0)
		return
	}

	var job notify.Job
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal email job; moving to DLQ")
		toDeadLetter(ctx, log, q, opts, msg, err, 0)
		return
	}
	log = log.With().Str("template", job.Template).Str("to", job.To).Logger()

	html, err := renderer.Render(job.Template, job.Data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to render email; moving to DLQ")
		toDeadLetter(ctx, log, q, opts, msg, err, 0)
		return
	}

	maxRetries := max(1, opts.MaxRetries)
	backoff := opts.BackoffInitial
	var sendErr error
	attempts := 0
	for attempts < maxRetries {
		attempts++
		start := time.Now()
		sendErr = mailer.Send(ctx, email.Message{To: job.To, Subject: job.Subject, HTML: html})
		if sendErr == nil {
			log.Info().Str("duration", time.Since(start).String()).Msg("Email sent")
			break
		}
		if email.Permanent(sendErr) || ctx.Err() != nil {
			break
		}
		log.Warn().Err(sendErr).Int("attempt", attempts).Msg("Email API call failed, retrying")
		if attempts < maxRetries {
			sleep(ctx, backoff)
			backoff *= 2
			if backoff > opts.BackoffMax {
				backoff = opts.BackoffMax
			}
		}
	}

	if sendErr != nil {
		if ctx.Err() != nil {
			// leave it for the next run
			return
		}
		log.Warn().Err(sendErr).Int("attempts", attempts).Msg("Giving up on email; moving job to DLQ")
		toDeadLetter(ctx, log, q, opts, msg, sendErr, attempts)
		return
	}

	if err := q.Delete(ctx, opts.Queue, []int64{msg.ID}); err != nil {
		log.Error().Err(err).Msg("Error deleting email message")
	}
}

func toDeadLetter(ctx context.Context, log zerolog.Logger, q Queue, opts Options, msg *pgmq.Message, cause error, attempts int) {
	job := json.RawMessage(msg.Data)
	if !json.Valid(job) {
		quoted, _ := json.Marshal(string(msg.Data))
		job = quoted
	}
	payload, err := json.Marshal(deadLetter{Job: job, Error: cause.Error(), Attempts: attempts, FailedAt: time.Now().UTC()})
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal payload for dead-letter queue")
		return
	}
	if err := q.Send(ctx, opts.DeadLetterQueue, payload); err != nil {
		// keep the original so it is retried after the visibility timeout
		log.Error().Err(err).Str("dlq", opts.DeadLetterQueue).Msg("Failed to send message to dead-letter queue")
		return
	}
	if err := q.Delete(ctx, opts.Queue, []int64{msg.ID}); err != nil {
		log.Error().Err(err).Msg("Error deleting email message after failure")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
