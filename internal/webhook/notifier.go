// Package webhook delivers "new code tracked" events to the external automation endpoint.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tradelens/hts-tracker/internal/config"
	"github.com/tradelens/hts-tracker/internal/hscode"
	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Attempt describes the outcome of one POST to the automation endpoint.
type Attempt struct {
	Payload    Payload
	Number     int
	StatusCode int
	Err        error
}

// Succeeded reports whether the endpoint accepted the payload.
func (a Attempt) Succeeded() bool {
	return a.Err == nil && a.StatusCode == http.StatusOK
}

// DeliveryRecorder is told about every attempt, successful or not.
type DeliveryRecorder interface {
	RecordAttempt(ctx context.Context, attempt Attempt) error
}

// Option customises a Notifier.
type Option func(*Notifier)

// WithSleeper replaces the wait between attempts.
func WithSleeper(s Sleeper) Option {
	return func(n *Notifier) { n.sleep = s }
}

// WithRecorder attaches a delivery audit recorder.
func WithRecorder(r DeliveryRecorder) Option {
	return func(n *Notifier) { n.recorder = r }
}

// WithClock overrides the payload timestamp source.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// Notifier posts tracking events with bounded, linearly backed-off retries.
type Notifier struct {
	client      *resty.Client
	url         string
	maxAttempts int
	baseDelay   time.Duration
	sleep       Sleeper
	recorder    DeliveryRecorder
	now         func() time.Time
}

// NewNotifier builds a notifier for the configured endpoint. Zero values in cfg fall
// back to a 10s timeout, 3 attempts and a 1s base delay.
func NewNotifier(cfg config.WebhookConfig, opts ...Option) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")

	n := &Notifier{
		client:      client,
		url:         cfg.URL,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		sleep:       sleepContext,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify announces a newly tracked HS code. Arguments are validated before any
// network call. Failed attempts are retried up to the attempt budget, waiting
// attempt×baseDelay after each failure; the same payload (and request id) is sent
// every time. The final failure is returned as a classified *model.TrackingError.
func (n *Notifier) Notify(ctx context.Context, hsCode, description string, direction model.TradeDirection) error {
	code, err := hscode.ValidateTrackable(hsCode)
	if err != nil {
		return model.NewError(model.KindInvalidArgument, "Invalid HTS code format. Must be exactly 10 digits.", err)
	}
	if !direction.Valid() {
		return model.NewError(model.KindInvalidArgument, `Invalid trade type. Must be "Import" or "Export".`, nil)
	}

	payload := newPayload(code, description, direction, n.now())

	var last Attempt
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		last = n.send(ctx, payload, attempt)
		n.record(ctx, last)

		if last.Succeeded() {
			slog.InfoContext(ctx, "webhook delivered",
				"requestID", payload.RequestID,
				"hsCode", payload.HSCode,
				"tradeType", payload.TradeType,
				"attempt", attempt)
			return nil
		}

		if attempt == n.maxAttempts {
			break
		}

		delay := time.Duration(attempt) * n.baseDelay
		slog.WarnContext(ctx, "webhook attempt failed, retrying",
			"requestID", payload.RequestID,
			"attempt", attempt,
			"statusCode", last.StatusCode,
			"error", last.Err,
			"retryIn", delay)
		if err := n.sleep(ctx, delay); err != nil {
			// an expired deadline is a timeout; a cancelled caller is not
			if isTimeout(err) {
				return model.NewError(model.KindTimeout, "", err)
			}
			return model.NewError(model.KindUnknown, "", err)
		}
	}

	classified := classify(last)
	slog.ErrorContext(ctx, "webhook delivery failed",
		"requestID", payload.RequestID,
		"hsCode", payload.HSCode,
		"attempts", n.maxAttempts,
		"kind", classified.Kind,
		"error", classified)
	return classified
}

func (n *Notifier) send(ctx context.Context, payload Payload, number int) Attempt {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(n.url)

	attempt := Attempt{Payload: payload, Number: number, Err: err}
	if resp != nil {
		attempt.StatusCode = resp.StatusCode()
	}
	return attempt
}

func (n *Notifier) record(ctx context.Context, attempt Attempt) {
	if n.recorder == nil {
		return
	}
	if err := n.recorder.RecordAttempt(ctx, attempt); err != nil {
		slog.WarnContext(ctx, "failed to record webhook attempt",
			"requestID", attempt.Payload.RequestID,
			"attempt", attempt.Number,
			"error", err)
	}
}

// classify maps the last failed attempt onto the user-facing error taxonomy.
func classify(attempt Attempt) *model.TrackingError {
	if attempt.Err != nil {
		if isTimeout(attempt.Err) {
			return model.NewError(model.KindTimeout, "", attempt.Err)
		}
		if attempt.StatusCode == 0 {
			return model.NewError(model.KindNetworkUnavailable, "", attempt.Err)
		}
	}

	switch attempt.StatusCode {
	case http.StatusBadRequest:
		return model.NewError(model.KindInvalidRequest, "", nil)
	case http.StatusUnauthorized:
		return model.NewError(model.KindUnauthorized, "", nil)
	case http.StatusInternalServerError:
		return model.NewError(model.KindServerError, "", nil)
	}

	cause := attempt.Err
	if cause == nil {
		cause = fmt.Errorf("request failed with status %d", attempt.StatusCode)
	}
	return model.NewError(model.KindUnknown, "", cause)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
