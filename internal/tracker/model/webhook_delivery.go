package model

// WebhookDelivery is the audit row written for every webhook attempt.
type WebhookDelivery struct {
	BaseModel
	RequestID  string         `gorm:"type:varchar(36);column:request_id;not null;index" json:"requestId"`
	HSCode     string         `gorm:"type:varchar(10);column:hs_code;not null" json:"hsCode"`
	TradeType  TradeDirection `gorm:"type:varchar(10);column:trade_type;not null" json:"tradeType"`
	Attempt    int            `gorm:"column:attempt;not null" json:"attempt"`
	StatusCode int            `gorm:"column:status_code" json:"statusCode"`
	Succeeded  bool           `gorm:"column:succeeded;not null;default:false" json:"succeeded"`
	Error      string         `gorm:"type:text;column:error" json:"error,omitempty"`
}

func (w *WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}
