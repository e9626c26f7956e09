package tracker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradelens/hts-tracker/internal/auth"
	"github.com/tradelens/hts-tracker/internal/config"
	"github.com/tradelens/hts-tracker/internal/database/dbtest"
	"github.com/tradelens/hts-tracker/internal/reports"
	"github.com/tradelens/hts-tracker/internal/reports/drivers"
	"github.com/tradelens/hts-tracker/internal/tracker"
	"github.com/tradelens/hts-tracker/internal/tracker/model"
	"github.com/tradelens/hts-tracker/internal/tracker/router"
	"github.com/tradelens/hts-tracker/internal/webhook"
)

const (
	testUser   = "user-1"
	testSecret = "test-secret"
)

type testEnv struct {
	db       *gorm.DB
	engine   *gin.Engine
	token    string
	hookHits *atomic.Int32
	status   *atomic.Int32
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.SQLite(t)

	env := &testEnv{db: db, hookHits: &atomic.Int32{}, status: &atomic.Int32{}}
	env.status.Store(http.StatusOK)

	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.hookHits.Add(1)
		w.WriteHeader(int(env.status.Load()))
	}))
	t.Cleanup(hook.Close)

	notifier := webhook.NewNotifier(
		config.WebhookConfig{URL: hook.URL, Timeout: 2 * time.Second, MaxAttempts: 3, BaseDelay: time.Millisecond},
		webhook.WithSleeper(func(context.Context, time.Duration) error { return nil }),
		webhook.WithRecorder(webhook.NewGormRecorder(db)),
	)

	driver, err := drivers.NewLocalFSDriver(t.TempDir(), "/api/v1/reports")
	require.NoError(t, err)
	reportService := reports.NewReportService(driver)

	authCfg := config.AuthConfig{JWTSecret: testSecret, Issuer: "hts-tracker", TokenTTL: time.Hour}
	extractor := auth.NewTokenExtractor(authCfg)
	env.token, err = extractor.IssueToken(testUser)
	require.NoError(t, err)

	engine := gin.New()
	api := engine.Group("/api/v1")
	api.Use(auth.RequireAuth(auth.NewAuthService(db), extractor))
	tracker.NewManager(db, notifier, reportService).RegisterRoutes(api)
	api.GET("/reports/*key", reports.NewHTTPHandler(reportService).Download)
	env.engine = engine

	require.NoError(t, db.Create(&[]model.HSCode{
		{ID: "0101210010", Description: "Purebred breeding horses"},
		{ID: "0101210020", Description: "Purebred breeding asses"},
		{ID: "0202300010"},
	}).Error)

	return env
}

func (e *testEnv) activate(t *testing.T) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Subscription{UserID: testUser, Status: model.SubscriptionStatusActive, PlanType: "pro"}).Error)
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) router.ErrorResponse {
	t.Helper()
	var resp router.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRoutes_RequireToken(t *testing.T) {
	env := setupEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tracked", nil)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutes_Search(t *testing.T) {
	env := setupEnv(t)

	w := env.do(http.MethodGet, "/api/v1/hscodes?q=010121", "")
	require.Equal(t, http.StatusOK, w.Code)

	var result model.HSCodeSearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Prefix)
	assert.Len(t, result.HSCodes, 2)

	w = env.do(http.MethodGet, "/api/v1/hscodes?q=01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.KindInvalidFormat, decodeError(t, w).Error)

	w = env.do(http.MethodGet, "/api/v1/hscodes?q=010121&limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/v1/hscodes/9999999999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_TrackLifecycle(t *testing.T) {
	env := setupEnv(t)
	env.activate(t)

	w := env.do(http.MethodPost, "/api/v1/tracked", `{"hsCode":"0101210010","tradeType":"Import"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var entry model.TrackedCodeView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "0101210010", entry.HSCode)
	assert.Equal(t, "Purebred breeding horses", entry.Description)
	assert.Equal(t, model.TradeDirectionImport, entry.TradeType)
	assert.Equal(t, int32(1), env.hookHits.Load())

	var deliveries []model.WebhookDelivery
	require.NoError(t, env.db.Find(&deliveries).Error)
	require.Len(t, deliveries, 1)
	assert.Equal(t, http.StatusOK, deliveries[0].StatusCode)

	// second attempt on the same code is rejected before the webhook fires
	w = env.do(http.MethodPost, "/api/v1/tracked", `{"hsCode":"0101210010","tradeType":"Export"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, model.KindAlreadyTracked, decodeError(t, w).Error)
	assert.Equal(t, int32(1), env.hookHits.Load())

	w = env.do(http.MethodGet, "/api/v1/tracked", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		TrackedCodes []model.TrackedCodeView `json:"trackedCodes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.TrackedCodes, 1)

	w = env.do(http.MethodDelete, "/api/v1/tracked/0101210010", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodDelete, "/api/v1/tracked/0101210010", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_TrackErrors(t *testing.T) {
	t.Run("no subscription", func(t *testing.T) {
		env := setupEnv(t)
		w := env.do(http.MethodPost, "/api/v1/tracked", `{"hsCode":"0101210010","tradeType":"Import"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, model.KindNoActiveSubscription, decodeError(t, w).Error)
		assert.Zero(t, env.hookHits.Load())
	})

	t.Run("missing body fields", func(t *testing.T) {
		env := setupEnv(t)
		w := env.do(http.MethodPost, "/api/v1/tracked", `{"hsCode":"0101210010"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad direction", func(t *testing.T) {
		env := setupEnv(t)
		env.activate(t)
		w := env.do(http.MethodPost, "/api/v1/tracked", `{"hsCode":"0101210010","tradeType":"import"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, model.KindInvalidArgument, decodeError(t, w).Error)
	})

	t.Run("webhook rejects", func(t *testing.T) {
		env := setupEnv(t)
		env.activate(t)
		env.status.Store(http.StatusInternalServerError)

		w := env.do(http.MethodPost, "/api/v1/tracked", `{"hsCode":"0101210010","tradeType":"Import"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, model.KindServerError, resp.Error)
		assert.Equal(t, "Server error: Failed to process trade data", resp.Message)
		assert.Equal(t, int32(3), env.hookHits.Load())

		var count int64
		require.NoError(t, env.db.Model(&model.TrackedCode{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestRoutes_TradeStats(t *testing.T) {
	env := setupEnv(t)

	year, jan, feb := 2024, 1, 2
	require.NoError(t, env.db.Create(&[]model.TradeStatRecord{
		{HSCodeID: "0101210010", Year: &year, Month: &jan, Value: decimal.NewNullDecimal(decimal.NewFromInt(100))},
		{HSCodeID: "0101210010", Year: &year, Month: &feb, Value: decimal.NewNullDecimal(decimal.NewFromInt(250))},
	}).Error)

	w := env.do(http.MethodGet, "/api/v1/trade-stats/0101210010/chart", "")
	require.Equal(t, http.StatusOK, w.Code)
	var chart model.TradeChart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	require.Len(t, chart.Points, 2)
	assert.True(t, chart.Points[1].IsLatest)
	assert.Equal(t, "February 2024", chart.LatestLabel)

	w = env.do(http.MethodGet, "/api/v1/trade-stats/0101210010/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, reports.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "trade-0101210010-")
	assert.NotZero(t, w.Body.Len())

	w = env.do(http.MethodPost, "/api/v1/trade-stats/0101210010/reports", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var report reports.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.True(t, strings.HasPrefix(report.Key, "0101210010/"))

	w = env.do(http.MethodGet, "/api/v1/reports/"+report.Key, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, reports.ContentTypeXLSX, w.Header().Get("Content-Type"))

	w = env.do(http.MethodGet, "/api/v1/trade-stats/010121/chart", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutes_Dashboard(t *testing.T) {
	env := setupEnv(t)
	require.NoError(t, env.db.Create(&auth.Profile{ID: testUser, Email: "ada@example.com", FullName: "Ada Lovelace"}).Error)
	env.activate(t)

	w := env.do(http.MethodPost, "/api/v1/tracked", `{"hsCode":"0202300010","tradeType":"Export"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)

	var dash struct {
		DisplayName  string                  `json:"displayName"`
		Email        string                  `json:"email"`
		TrackedCodes []model.TrackedCodeView `json:"trackedCodes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Equal(t, "Ada Lovelace", dash.DisplayName)
	assert.Equal(t, "ada@example.com", dash.Email)
	require.Len(t, dash.TrackedCodes, 1)
	assert.Equal(t, model.DescriptionNotAvailable, dash.TrackedCodes[0].Description)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, router.StatusFor(model.KindAttemptInProgress))
	assert.Equal(t, http.StatusGatewayTimeout, router.StatusFor(model.KindTimeout))
	assert.Equal(t, http.StatusInternalServerError, router.StatusFor(model.ErrorKind("SOMETHING_NEW")))
}
