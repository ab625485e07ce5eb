package domain

import "time"

// Notification kinds emitted by the dedup state machine.
const (
	NotifyPriceDrop     = "price_drop"
	NotifyTargetReached = "target_reached"
	NotifyBackInStock   = "back_in_stock"
	NotifyOutOfStock    = "out_of_stock"
)

// NotificationEvent is a pending or delivered alert for a monitor. Sent flips
// exactly once; rows are never deleted by the scheduler.
type NotificationEvent struct {
	ID        int64      `gorm:"primaryKey" json:"id,string"`
	ProductID int64      `gorm:"index" json:"product_id,string"`
	Type      string     `gorm:"index;size:32" json:"type"`
	Message   string     `gorm:"size:2048" json:"message"`
	Sent      bool       `gorm:"index" json:"sent"`
	SentAt    *time.Time `json:"sent_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName Specify table name
func (NotificationEvent) TableName() string {
	return "notifications"
}
