package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tradelens/hts-tracker/internal/webhook"
)

// ErrDeliveryNotFound is returned when no delivery carries the requested id.
var ErrDeliveryNotFound = errors.New("delivery not found")

// ErrInvalidStatus is returned for response statuses outside 100-599.
var ErrInvalidStatus = errors.New("invalid response status")

// SinkService receives webhook deliveries and decides what to answer.
type SinkService interface {
	// Receive stores the body and returns the status the sink answers with.
	Receive(ctx context.Context, body []byte) (*Delivery, error)

	// ListDeliveries returns received deliveries, optionally filtered by HS code.
	ListDeliveries(ctx context.Context, hsCode string) ([]Delivery, error)

	// GetDeliveries returns all attempts that share a request id.
	GetDeliveries(ctx context.Context, requestID string) ([]Delivery, error)

	// ScriptResponses queues statuses answered to the next requests, in order.
	// Once the queue is empty the default status is used again.
	ScriptResponses(statuses []int) error

	Reset(ctx context.Context) (int64, error)

	Close() error
}

// Delivery is a received webhook request as shown by the sink's API.
type Delivery struct {
	RequestID      string          `json:"requestId"`
	HSCode         string          `json:"hsCode"`
	TradeType      string          `json:"tradeType"`
	Payload        webhook.Payload `json:"payload"`
	ResponseStatus int             `json:"responseStatus"`
	ReceivedAt     time.Time       `json:"receivedAt"`
}

type sinkService struct {
	store         *DeliveryStore
	defaultStatus int
	now           func() time.Time

	mu     sync.Mutex
	script []int
}

// NewSinkService answers defaultStatus unless responses have been scripted.
func NewSinkService(store *DeliveryStore, defaultStatus int) SinkService {
	if defaultStatus == 0 {
		defaultStatus = http.StatusOK
	}
	return &sinkService{store: store, defaultStatus: defaultStatus, now: time.Now}
}

func (s *sinkService) nextStatus() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.script) == 0 {
		return s.defaultStatus
	}
	status := s.script[0]
	s.script = s.script[1:]
	return status
}

func (s *sinkService) Receive(ctx context.Context, body []byte) (*Delivery, error) {
	var payload webhook.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	var raw JSONB
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	record := &DeliveryRecord{
		RequestID:      payload.RequestID,
		HSCode:         payload.HSCode,
		TradeType:      string(payload.TradeType),
		Body:           raw,
		ResponseStatus: s.nextStatus(),
		ReceivedAt:     s.now().UTC(),
	}
	if err := s.store.Create(record); err != nil {
		return nil, fmt.Errorf("failed to store delivery: %w", err)
	}

	slog.InfoContext(ctx, "webhook delivery received",
		"requestID", record.RequestID,
		"hsCode", record.HSCode,
		"tradeType", record.TradeType,
		"responseStatus", record.ResponseStatus)

	d := toDelivery(*record)
	return &d, nil
}

func (s *sinkService) ListDeliveries(_ context.Context, hsCode string) ([]Delivery, error) {
	records, err := s.store.List(hsCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return toDeliveries(records), nil
}

func (s *sinkService) GetDeliveries(_ context.Context, requestID string) ([]Delivery, error) {
	records, err := s.store.GetByRequestID(requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deliveries: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrDeliveryNotFound
	}
	return toDeliveries(records), nil
}

func (s *sinkService) ScriptResponses(statuses []int) error {
	for _, status := range statuses {
		if status < 100 || status > 599 {
			return fmt.Errorf("%w: %d", ErrInvalidStatus, status)
		}
	}
	s.mu.Lock()
	s.script = append([]int(nil), statuses...)
	s.mu.Unlock()
	return nil
}

func (s *sinkService) Reset(ctx context.Context) (int64, error) {
	s.mu.Lock()
	s.script = nil
	s.mu.Unlock()

	n, err := s.store.DeleteAll()
	if err != nil {
		return 0, fmt.Errorf("failed to clear deliveries: %w", err)
	}
	slog.InfoContext(ctx, "sink reset", "deleted", n)
	return n, nil
}

func (s *sinkService) Close() error {
	return s.store.Close()
}

func toDelivery(r DeliveryRecord) Delivery {
	d := Delivery{
		RequestID:      r.RequestID,
		HSCode:         r.HSCode,
		TradeType:      r.TradeType,
		ResponseStatus: r.ResponseStatus,
		ReceivedAt:     r.ReceivedAt,
	}
	if raw, err := json.Marshal(r.Body); err == nil {
		_ = json.Unmarshal(raw, &d.Payload)
	}
	return d
}

func toDeliveries(records []DeliveryRecord) []Delivery {
	out := make([]Delivery, 0, len(records))
	for _, r := range records {
		out = append(out, toDelivery(r))
	}
	return out
}
