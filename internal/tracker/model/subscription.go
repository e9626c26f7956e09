package model

import "time"

const SubscriptionStatusActive = "active"

// Subscription is owned by the billing side; the tracker only reads it.
type Subscription struct {
	BaseModel
	UserID           string     `gorm:"type:varchar(255);column:user_id;not null;index" json:"userId"`
	Status           string     `gorm:"type:varchar(30);column:status;not null" json:"status"`
	PlanType         string     `gorm:"type:varchar(50);column:plan_type" json:"planType"`
	CurrentPeriodEnd *time.Time `gorm:"column:current_period_end" json:"currentPeriodEnd,omitempty"`
}

func (s *Subscription) TableName() string {
	return "subscriptions"
}

// Active reports whether the subscription entitles its owner to track new codes.
func (s *Subscription) Active() bool {
	return s != nil && s.Status == SubscriptionStatusActive
}
