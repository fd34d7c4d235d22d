package models

import "time"

// DailyReport is the end-of-day farm snapshot archived by the reporting job.
type DailyReport struct {
	ID             string    `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	Date           string    `bson:"date" json:"date" gorm:"size:10;index"`
	ActiveBatches  int       `bson:"active_batches" json:"active_batches"`
	Population     int       `bson:"population" json:"population"`
	Mortality      int       `bson:"mortality" json:"mortality"`
	EggsCollected  int       `bson:"eggs_collected" json:"eggs_collected"`
	FeedConsumedKg float64   `bson:"feed_consumed_kg" json:"feed_consumed_kg"`
	Income         float64   `bson:"income" json:"income"`
	Expenses       float64   `bson:"expenses" json:"expenses"`
	Profit         float64   `bson:"profit" json:"profit"`
	LowStockCount  int       `bson:"low_stock_count" json:"low_stock_count"`
	AlertCount     int       `bson:"alert_count" json:"alert_count"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// TableName pins the gorm table name.
func (DailyReport) TableName() string { return "daily_reports" }
