package domain

import "time"

// PriceObservation is one timestamped price/availability reading. Rows are
// append-only and purged past the retention horizon.
type PriceObservation struct {
	ID          int64     `gorm:"primaryKey" json:"id,string"`
	ProductID   int64     `gorm:"index" json:"product_id,string"`
	Price       float64   `json:"price"`
	Currency    string    `gorm:"size:8" json:"currency"`
	IsAvailable bool      `json:"is_available"`
	ScrapedAt   time.Time `gorm:"index" json:"scraped_at"`
}

// TableName Specify table name
func (PriceObservation) TableName() string {
	return "price_history"
}
