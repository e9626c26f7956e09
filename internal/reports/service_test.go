package reports

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tradelens/hts-tracker/internal/config"
	"github.com/tradelens/hts-tracker/internal/reports/drivers"
	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

// MockDriver implements StorageDriver for testing
type MockDriver struct {
	SavedKey       drivers.ReportKey
	SavedBody      []byte
	GenerateURLErr error
	DeleteCalled   bool
	DeleteKey      drivers.ReportKey
	OpenCalled     bool
}

func (m *MockDriver) Save(ctx context.Context, key drivers.ReportKey, body io.Reader) error {
	m.SavedKey = key
	content, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.SavedBody = content
	return nil
}

func (m *MockDriver) Open(ctx context.Context, key drivers.ReportKey) (io.ReadCloser, error) {
	m.OpenCalled = true
	return io.NopCloser(bytes.NewReader(m.SavedBody)), nil
}

func (m *MockDriver) Delete(ctx context.Context, key drivers.ReportKey) error {
	m.DeleteCalled = true
	m.DeleteKey = key
	return nil
}

func (m *MockDriver) GenerateURL(ctx context.Context, key drivers.ReportKey, expires time.Duration) (string, error) {
	if m.GenerateURLErr != nil {
		return "", m.GenerateURLErr
	}
	return "/test/" + key.String(), nil
}

func sampleChart() *model.TradeChart {
	return &model.TradeChart{
		HSCode: "0101210010",
		Points: []model.ChartPoint{
			{Month: "2024-01-01", TotalValue: decimal.NewFromInt(150)},
			{Month: "2024-02-01", TotalValue: decimal.NewFromInt(200), IsLatest: true},
		},
		LatestLabel: "February 2024",
	}
}

func TestRenderWorkbook(t *testing.T) {
	buf, err := RenderWorkbook(sampleChart())
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Trade"}, f.GetSheetList())

	rows, err := f.GetRows("Trade")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Month", "Total Value"}, rows[0])
	assert.Equal(t, []string{"2024-01-01", "150"}, rows[1])
	assert.Equal(t, []string{"2024-02-01", "200"}, rows[2])
}

func TestRenderWorkbook_Empty(t *testing.T) {
	buf, err := RenderWorkbook(&model.TradeChart{HSCode: "0101210010", Points: []model.ChartPoint{}})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Trade")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReportService_Archive(t *testing.T) {
	mock := &MockDriver{}
	service := NewReportService(mock)
	service.now = func() time.Time { return time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC) }

	report, err := service.Archive(context.Background(), sampleChart())
	require.NoError(t, err)

	assert.Equal(t, "0101210010", mock.SavedKey.HSCode)
	assert.Equal(t, mock.SavedKey.ID, report.ID)
	assert.Equal(t, mock.SavedKey.String(), report.Key)
	assert.Equal(t, "/test/"+report.Key, report.URL)
	assert.Equal(t, ContentTypeXLSX, report.MimeType)
	assert.Equal(t, int64(len(mock.SavedBody)), report.Size)
	assert.Equal(t, "trade-0101210010-20240309.xlsx", report.FileName)
}

func TestReportService_GenerateURLFailureCleansUp(t *testing.T) {
	mock := &MockDriver{GenerateURLErr: io.ErrUnexpectedEOF}
	service := NewReportService(mock)

	_, err := service.Archive(context.Background(), sampleChart())
	require.Error(t, err)
	assert.True(t, mock.DeleteCalled)
	assert.Equal(t, mock.SavedKey, mock.DeleteKey)
}

func TestHTTPHandler_Download(t *testing.T) {
	gin.SetMode(gin.TestMode)

	driver, err := drivers.NewLocalFSDriver(t.TempDir(), "/api/v1/reports")
	require.NoError(t, err)
	service := NewReportService(driver)
	report, err := service.Archive(context.Background(), sampleChart())
	require.NoError(t, err)

	engine := gin.New()
	engine.GET("/api/v1/reports/*key", NewHTTPHandler(service).Download)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, report.URL, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Equal(t, report.Size, int64(rec.Body.Len()))

	missing, err := drivers.NewReportKey("0101210010")
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+missing.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/0101210010/missing.xlsx", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportService_ArchiveRejectsMalformedCode(t *testing.T) {
	mock := &MockDriver{}
	service := NewReportService(mock)

	_, err := service.Archive(context.Background(), &model.TradeChart{HSCode: "010121"})
	assert.ErrorIs(t, err, drivers.ErrInvalidKey)
	assert.Nil(t, mock.SavedBody)
}

func TestReportService_DownloadRejectsMalformedKey(t *testing.T) {
	mock := &MockDriver{}
	service := NewReportService(mock)

	_, err := service.Download(context.Background(), "0101210010/../../etc/passwd")
	assert.ErrorIs(t, err, drivers.ErrInvalidKey)
	assert.False(t, mock.OpenCalled)
}

func TestNewStorageFromConfig(t *testing.T) {
	driver, err := NewStorageFromConfig(context.Background(), config.StorageConfig{Type: "local", LocalBaseDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &drivers.LocalFSDriver{}, driver)

	driver, err = NewStorageFromConfig(context.Background(), config.StorageConfig{
		Type: "s3", S3Bucket: "hts-reports", S3Region: "us-east-1",
		S3Endpoint: "http://localhost:9000", S3AccessKey: "key", S3SecretKey: "secret",
	})
	require.NoError(t, err)
	assert.IsType(t, &drivers.S3Driver{}, driver)
}

func TestNewStorageFromConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StorageConfig
		want string
	}{
		{"unknown type", config.StorageConfig{Type: "ftp"}, "unsupported storage type"},
		{"local without dir", config.StorageConfig{Type: "local"}, "STORAGE_LOCAL_BASE_DIR"},
		{"s3 without bucket", config.StorageConfig{Type: "s3", S3Region: "us-east-1"}, "STORAGE_S3_BUCKET"},
		{"s3 without region", config.StorageConfig{Type: "s3", S3Bucket: "b"}, "STORAGE_S3_REGION"},
		{"half a key pair", config.StorageConfig{Type: "s3", S3Bucket: "b", S3Region: "us-east-1", S3AccessKey: "key"}, "must be set together"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStorageFromConfig(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, ErrStorageConfig)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
