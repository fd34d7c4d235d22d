package models

import "time"

// FeedType is the growth-stage formulation of a feed.
type FeedType string

const (
	FeedStarter  FeedType = "starter"
	FeedGrower   FeedType = "grower"
	FeedFinisher FeedType = "finisher"
	FeedLayer    FeedType = "layer"
)

// Valid reports whether the feed type is known.
func (t FeedType) Valid() bool {
	switch t {
	case FeedStarter, FeedGrower, FeedFinisher, FeedLayer:
		return true
	}
	return false
}

// DefaultMinStockAlertKg is the low-stock threshold applied when none is given.
const DefaultMinStockAlertKg = 100

// FeedInventory is a stocked feed item. CurrentStockKg only moves through
// FeedStockMovement application.
type FeedInventory struct {
	ID             string    `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	Name           string    `json:"name" bson:"name" gorm:"not null"`
	Type           FeedType  `json:"type" bson:"type" gorm:"size:16;not null"`
	ProteinContent string    `json:"protein_content,omitempty" bson:"protein_content,omitempty"`
	CurrentStockKg float64   `json:"current_stock_kg" bson:"current_stock_kg" gorm:"not null;default:0"`
	MinStockAlert  float64   `json:"min_stock_alert" bson:"min_stock_alert" gorm:"not null"`
	UnitPrice      *float64  `json:"unit_price,omitempty" bson:"unit_price,omitempty"`
	Supplier       string    `json:"supplier,omitempty" bson:"supplier,omitempty"`
	Notes          string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// TableName pins the gorm table name.
func (FeedInventory) TableName() string { return "feed_inventory" }

// LowStock reports whether stock is at or below the alert threshold.
func (f FeedInventory) LowStock() bool {
	return f.CurrentStockKg <= f.MinStockAlert
}

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

// Valid reports whether the movement type is in or out.
func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut
}

// FeedStockMovement is a purchase (in) or consumption (out) of feed.
type FeedStockMovement struct {
	ID         string       `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	FeedID     string       `json:"feed_id" bson:"feed_id" gorm:"size:36;not null;index"`
	Type       MovementType `json:"type" bson:"type" gorm:"size:8;not null"`
	QuantityKg float64      `json:"quantity_kg" bson:"quantity_kg" gorm:"not null"`
	Date       time.Time    `json:"date" bson:"date" gorm:"not null;index"`
	BatchID    *string      `json:"batch_id,omitempty" bson:"batch_id,omitempty" gorm:"size:36"`
	Notes      string       `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt  time.Time    `json:"created_at" bson:"created_at"`
}

// TableName pins the gorm table name.
func (FeedStockMovement) TableName() string { return "feed_stock_movements" }
