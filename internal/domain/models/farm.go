package models

import "time"

// BarnStatus is the lifecycle state of a barn (kandang).
type BarnStatus string

const (
	BarnActive      BarnStatus = "active"
	BarnInactive    BarnStatus = "inactive"
	BarnMaintenance BarnStatus = "maintenance"
)

// Valid reports whether the status is one of the known values.
func (s BarnStatus) Valid() bool {
	switch s {
	case BarnActive, BarnInactive, BarnMaintenance:
		return true
	}
	return false
}

// BatchStatus is the lifecycle state of a batch.
type BatchStatus string

const (
	BatchActive    BatchStatus = "active"
	BatchCompleted BatchStatus = "completed"
	BatchCancelled BatchStatus = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchActive, BatchCompleted, BatchCancelled:
		return true
	}
	return false
}

// DefaultTargetHarvestAge is used when a batch is created without a target.
const DefaultTargetHarvestAge = 45

// Barn is a physical housing unit.
type Barn struct {
	ID          string     `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	Code        string     `json:"code" bson:"code" gorm:"uniqueIndex;size:16;not null"`
	Name        string     `json:"name" bson:"name" gorm:"not null"`
	Capacity    int        `json:"capacity" bson:"capacity" gorm:"not null"`
	Location    string     `json:"location,omitempty" bson:"location,omitempty"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	Status      BarnStatus `json:"status" bson:"status" gorm:"size:16;not null;default:active"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// TableName pins the gorm table name.
func (Barn) TableName() string { return "barns" }

// Batch is one cohort of birds raised together from start date to harvest.
type Batch struct {
	ID                 string      `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	Code               string      `json:"code" bson:"code" gorm:"uniqueIndex;size:16;not null"`
	Name               string      `json:"name,omitempty" bson:"name,omitempty"`
	StartDate          time.Time   `json:"start_date" bson:"start_date" gorm:"not null"`
	InitialPopulation  int         `json:"initial_population" bson:"initial_population" gorm:"not null"`
	CurrentPopulation  int         `json:"current_population" bson:"current_population" gorm:"not null"`
	TargetHarvestAge   int         `json:"target_harvest_age" bson:"target_harvest_age" gorm:"not null;default:45"`
	DOCWeightGr        *float64    `json:"doc_weight_gr,omitempty" bson:"doc_weight_gr,omitempty" gorm:"column:doc_weight_gr"`
	BarnID             *string     `json:"barn_id,omitempty" bson:"barn_id,omitempty" gorm:"size:36;index"`
	Status             BatchStatus `json:"status" bson:"status" gorm:"size:16;not null;default:active;index"`
	HarvestDate        *time.Time  `json:"harvest_date,omitempty" bson:"harvest_date,omitempty"`
	HarvestWeightTotal *float64    `json:"harvest_weight_total,omitempty" bson:"harvest_weight_total,omitempty"`
	Notes              string      `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt          time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" bson:"updated_at"`
}

// TableName pins the gorm table name.
func (Batch) TableName() string { return "batches" }

// DisplayName prefers the batch name, then its code.
func (b Batch) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	return b.Code
}

// DailyRecord captures one day of mortality and feeding for a batch.
type DailyRecord struct {
	ID             string    `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	BatchID        string    `json:"batch_id" bson:"batch_id" gorm:"size:36;not null;index"`
	RecordDate     time.Time `json:"record_date" bson:"record_date" gorm:"not null;index"`
	MortalityCount int       `json:"mortality_count" bson:"mortality_count" gorm:"not null;default:0"`
	MortalityCause string    `json:"mortality_cause,omitempty" bson:"mortality_cause,omitempty"`
	FeedMorningKg  float64   `json:"feed_morning_kg" bson:"feed_morning_kg" gorm:"not null;default:0"`
	FeedEveningKg  float64   `json:"feed_evening_kg" bson:"feed_evening_kg" gorm:"not null;default:0"`
	FeedType       string    `json:"feed_type,omitempty" bson:"feed_type,omitempty"`
	Notes          string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at" gorm:"index"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// TableName pins the gorm table name.
func (DailyRecord) TableName() string { return "daily_records" }

// WeightRecord is a sampled average live weight.
type WeightRecord struct {
	ID              string    `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	BatchID         string    `json:"batch_id" bson:"batch_id" gorm:"size:36;not null;index"`
	RecordDate      time.Time `json:"record_date" bson:"record_date" gorm:"not null;index"`
	AverageWeightGr float64   `json:"average_weight_gr" bson:"average_weight_gr" gorm:"not null"`
	SampleSize      int       `json:"sample_size" bson:"sample_size" gorm:"not null;default:10"`
	BirdAgeDays     int       `json:"bird_age_days" bson:"bird_age_days" gorm:"not null"`
	Notes           string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at" gorm:"index"`
}

// TableName pins the gorm table name.
func (WeightRecord) TableName() string { return "weight_records" }

// EggRecord is an egg collection entry.
type EggRecord struct {
	ID          string    `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	BatchID     string    `json:"batch_id" bson:"batch_id" gorm:"size:36;not null;index"`
	RecordDate  time.Time `json:"record_date" bson:"record_date" gorm:"not null;index"`
	TotalEggs   int       `json:"total_eggs" bson:"total_eggs" gorm:"not null;default:0"`
	GoodEggs    int       `json:"good_eggs" bson:"good_eggs" gorm:"not null;default:0"`
	DamagedEggs int       `json:"damaged_eggs" bson:"damaged_eggs" gorm:"not null;default:0"`
	SmallEggs   int       `json:"small_eggs" bson:"small_eggs" gorm:"not null;default:0"`
	Notes       string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" gorm:"index"`
}

// TableName pins the gorm table name.
func (EggRecord) TableName() string { return "egg_records" }

// FinanceType separates income from expense transactions.
type FinanceType string

const (
	FinanceIncome  FinanceType = "income"
	FinanceExpense FinanceType = "expense"
)

// Valid reports whether the type is income or expense.
func (t FinanceType) Valid() bool {
	return t == FinanceIncome || t == FinanceExpense
}

// Conventional finance categories.
const (
	CategoryDOC       = "doc"
	CategoryFeed      = "pakan"
	CategoryMedicine  = "obat"
	CategoryLabor     = "tenaga_kerja"
	CategoryPower     = "listrik"
	CategoryDuckSales = "penjualan_bebek"
	CategoryEggSales  = "penjualan_telur"
	CategoryOther     = "lainnya"
)

// FinanceRecord is an income or expense transaction in whole rupiah.
type FinanceRecord struct {
	ID              string      `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	BatchID         *string     `json:"batch_id,omitempty" bson:"batch_id,omitempty" gorm:"size:36;index"`
	TransactionDate time.Time   `json:"transaction_date" bson:"transaction_date" gorm:"not null;index"`
	Type            FinanceType `json:"type" bson:"type" gorm:"size:16;not null"`
	Category        string      `json:"category" bson:"category" gorm:"size:64;not null"`
	Amount          float64     `json:"amount" bson:"amount" gorm:"not null"`
	Description     string      `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt       time.Time   `json:"created_at" bson:"created_at" gorm:"index"`
}

// TableName pins the gorm table name.
func (FinanceRecord) TableName() string { return "finance_records" }

// BatchRef returns the owning batch id or "" for general transactions.
func (f FinanceRecord) BatchRef() string {
	if f.BatchID == nil {
		return ""
	}
	return *f.BatchID
}
