package sink

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// JSONB stores an arbitrary JSON object in a SQLite text column.
type JSONB map[string]any

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}
	return json.Unmarshal(raw, j)
}

// DeliveryRecord is one webhook request received by the sink, together with the
// status the sink answered with.
type DeliveryRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestID      string    `gorm:"type:varchar(64);index"`
	HSCode         string    `gorm:"type:varchar(10);index"`
	TradeType      string    `gorm:"type:varchar(10)"`
	Body           JSONB     `gorm:"type:text"`
	ResponseStatus int       `gorm:"not null"`
	ReceivedAt     time.Time `gorm:"autoCreateTime"`
}

func (DeliveryRecord) TableName() string {
	return "received_deliveries"
}

// DeliveryStore keeps received deliveries in SQLite.
type DeliveryStore struct {
	db *gorm.DB
}

// NewDeliveryStore opens (and migrates) the SQLite database at dbPath.
// ":memory:" is accepted for tests.
func NewDeliveryStore(dbPath string) (*DeliveryStore, error) {
	if dbPath == "" {
		dbPath = "webhook_sink.db"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&DeliveryRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &DeliveryStore{db: db}, nil
}

func (s *DeliveryStore) Create(record *DeliveryRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return s.db.Create(record).Error
}

// List returns deliveries newest first, optionally restricted to one HS code.
func (s *DeliveryStore) List(hsCode string) ([]DeliveryRecord, error) {
	var records []DeliveryRecord
	query := s.db.Order("received_at DESC")
	if hsCode != "" {
		query = query.Where("hs_code = ?", hsCode)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// GetByRequestID returns every retry received for requestID, oldest first.
func (s *DeliveryStore) GetByRequestID(requestID string) ([]DeliveryRecord, error) {
	var records []DeliveryRecord
	if err := s.db.Where("request_id = ?", requestID).Order("received_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteAll clears the store.
func (s *DeliveryStore) DeleteAll() (int64, error) {
	result := s.db.Where("1 = 1").Delete(&DeliveryRecord{})
	return result.RowsAffected, result.Error
}

func (s *DeliveryStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
