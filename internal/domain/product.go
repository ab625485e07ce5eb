package domain

import "time"

// ProductMonitor represents one tracked product, identified by its canonical URL.
// Deactivated monitors keep their history but are skipped by the scheduler.
type ProductMonitor struct {
	ID           int64      `gorm:"primaryKey" json:"id,string" form:"id"`
	URL          string     `gorm:"uniqueIndex;size:2048" json:"url" form:"url"`
	Store        string     `gorm:"index;size:64" json:"store" form:"store"`
	ProductKey   string     `gorm:"size:255" json:"product_key" form:"product_key"`
	Name         string     `gorm:"size:512" json:"name" form:"name"`
	ImageURL     string     `gorm:"size:2048" json:"image_url" form:"image_url"`
	Selector     string     `gorm:"size:512" json:"selector" form:"selector"`
	CurrentPrice *float64   `json:"current_price" form:"current_price"`
	TargetPrice  *float64   `json:"target_price" form:"target_price"`
	IsActive     bool       `gorm:"index" json:"is_active" form:"is_active"`
	LastChecked  *time.Time `json:"last_checked" form:"last_checked"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName Specify table name
func (ProductMonitor) TableName() string {
	return "products"
}
