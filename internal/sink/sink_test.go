package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelens/hts-tracker/internal/config"
	"github.com/tradelens/hts-tracker/internal/tracker/model"
	"github.com/tradelens/hts-tracker/internal/webhook"
)

func setupSink(t *testing.T, defaultStatus int) (*sinkService, *httptest.Server) {
	t.Helper()

	store, err := NewDeliveryStore(":memory:")
	require.NoError(t, err)

	svc := NewSinkService(store, defaultStatus).(*sinkService)
	base := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	srv := httptest.NewServer(NewHandler(svc).Routes())
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Close()
	})
	return svc, srv
}

func newNotifier(url string) *webhook.Notifier {
	return webhook.NewNotifier(
		config.WebhookConfig{URL: url + "/webhook", Timeout: 2 * time.Second, MaxAttempts: 3, BaseDelay: time.Millisecond},
		webhook.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
}

func TestSink_ReceivesNotifierRetries(t *testing.T) {
	svc, srv := setupSink(t, http.StatusOK)
	require.NoError(t, svc.ScriptResponses([]int{http.StatusInternalServerError, http.StatusOK}))

	err := newNotifier(srv.URL).Notify(context.Background(), "0101210010", "horses", model.TradeDirectionImport)
	require.NoError(t, err)

	deliveries, err := svc.ListDeliveries(context.Background(), "0101210010")
	require.NoError(t, err)
	require.Len(t, deliveries, 2)

	attempts, err := svc.GetDeliveries(context.Background(), deliveries[0].RequestID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, http.StatusInternalServerError, attempts[0].ResponseStatus)
	assert.Equal(t, http.StatusOK, attempts[1].ResponseStatus)
	assert.Equal(t, attempts[0].Payload, attempts[1].Payload)
	assert.Equal(t, "horses", attempts[1].Payload.HSCodeDescription)
}

func TestSink_DefaultStatusDrivesClassification(t *testing.T) {
	_, srv := setupSink(t, http.StatusUnauthorized)

	err := newNotifier(srv.URL).Notify(context.Background(), "0101210010", "horses", model.TradeDirectionExport)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestSink_HTTPEndpoints(t *testing.T) {
	svc, srv := setupSink(t, http.StatusOK)

	t.Run("rejects invalid json", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("scripted statuses are validated", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/responses", strings.NewReader(`{"statuses":[700]}`))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown request id", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/deliveries/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("list and reset", func(t *testing.T) {
		body := `{"hsCode":"0202300010","hsCodeDescription":"beef","tradeType":"Export","timestamp":"2024-03-05T10:20:30.000Z","requestId":"r-1"}`
		resp, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = http.Get(srv.URL + "/api/deliveries?hsCode=0202300010")
		require.NoError(t, err)
		var listed []Delivery
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
		resp.Body.Close()
		require.Len(t, listed, 1)
		assert.Equal(t, "r-1", listed[0].RequestID)
		assert.Equal(t, "2024-03-05T10:20:30.000Z", listed[0].Payload.Timestamp)

		n, err := svc.Reset(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
