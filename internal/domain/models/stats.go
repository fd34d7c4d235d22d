package models

import "time"

// BatchStats is the consolidated metric view of one batch.
type BatchStats struct {
	TotalDeaths       int     `json:"total_deaths"`
	MortalityRate     float64 `json:"mortality_rate"`
	BirdAge           int     `json:"bird_age"`
	FCR               float64 `json:"fcr"`
	TotalFeedKg       float64 `json:"total_feed_kg"`
	TotalWeightGainKg float64 `json:"total_weight_gain_kg"`
	CurrentPopulation int     `json:"current_population"`
	LatestWeightGr    float64 `json:"latest_weight_gr"`
	ADG               float64 `json:"adg"`
	DaysUntilHarvest  int     `json:"days_until_harvest"`
	TotalEggs         int     `json:"total_eggs"`
	EggProductionRate float64 `json:"egg_production_rate"`
	TotalIncome       float64 `json:"total_income"`
	TotalExpense      float64 `json:"total_expense"`
	CostPerBird       float64 `json:"cost_per_bird"`
	CostPerKg         float64 `json:"cost_per_kg"`
}

// BatchDetail is a batch merged with its related records and stats.
type BatchDetail struct {
	Batch
	Barn           *Barn           `json:"barn,omitempty"`
	DailyRecords   []DailyRecord   `json:"daily_records"`
	WeightRecords  []WeightRecord  `json:"weight_records"`
	EggRecords     []EggRecord     `json:"egg_records"`
	FinanceRecords []FinanceRecord `json:"finance_records"`
	Stats          BatchStats      `json:"stats"`
}

// BatchOverview summarises all batches.
type BatchOverview struct {
	TotalBatches          int     `json:"total_batches"`
	ActiveBatches         int     `json:"active_batches"`
	TotalActivePopulation int     `json:"total_active_population"`
	TotalDeaths           int     `json:"total_deaths"`
	MortalityRate         float64 `json:"mortality_rate"`
}

// WeightPoint is one sample on a growth curve.
type WeightPoint struct {
	Age    int     `json:"age"`
	Weight float64 `json:"weight"`
	Date   string  `json:"date"`
}

// FeedConsumption totals daily feeding over a date range.
type FeedConsumption struct {
	TotalMorningFeed float64       `json:"total_morning_feed"`
	TotalEveningFeed float64       `json:"total_evening_feed"`
	TotalFeed        float64       `json:"total_feed"`
	Records          []DailyRecord `json:"records"`
}

// BarnStats is the occupancy view of one barn.
type BarnStats struct {
	TotalBatches    int     `json:"total_batches"`
	ActiveBatches   int     `json:"active_batches"`
	TotalPopulation int     `json:"total_population"`
	CapacityUsed    float64 `json:"capacity_used"`
}

// BarnDetail is a barn with its batches and occupancy.
type BarnDetail struct {
	Barn
	Batches []Batch   `json:"batches"`
	Stats   BarnStats `json:"stats"`
}

// BarnPerformance averages outcomes of completed batches in a barn.
type BarnPerformance struct {
	AvgMortalityRate float64 `json:"avg_mortality_rate"`
	AvgFCR           float64 `json:"avg_fcr"`
	TotalBatches     int     `json:"total_batches"`
	CompletedBatches int     `json:"completed_batches"`
}

// DashboardStats is the farm-wide snapshot.
type DashboardStats struct {
	ActiveBatches          int     `json:"active_batches"`
	TotalActivePopulation  int     `json:"total_active_population"`
	TotalInitialPopulation int     `json:"total_initial_population"`
	TodayMortality         int     `json:"today_mortality"`
	MortalityRate          float64 `json:"mortality_rate"`
	TodayEggs              int     `json:"today_eggs"`
	LowStockCount          int     `json:"low_stock_count"`
	MonthIncome            float64 `json:"month_income"`
	MonthExpense           float64 `json:"month_expense"`
	MonthProfit            float64 `json:"month_profit"`
}

// AlertType names the source that raised an alert.
type AlertType string

const (
	AlertMortality AlertType = "mortality"
	AlertFeedStock AlertType = "feed_stock"
	AlertHarvest   AlertType = "harvest"
)

// Severity ranks alerts.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Alert is a recomputed, unpersisted warning.
type Alert struct {
	Type     AlertType `json:"type"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	BatchID  string    `json:"batch_id,omitempty"`
	FeedID   string    `json:"feed_id,omitempty"`
}

// ActivityType names the record kind in the activity feed.
type ActivityType string

const (
	ActivityDaily   ActivityType = "daily_record"
	ActivityWeight  ActivityType = "weight_record"
	ActivityFinance ActivityType = "finance"
)

// Activity is one line of the recent-activity feed.
type Activity struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Description string       `json:"description"`
	BatchName   string       `json:"batch_name"`
	Date        time.Time    `json:"date"`
}

// CategoryTotal is the sum of one (type, category) pair.
type CategoryTotal struct {
	Type     FinanceType `json:"type"`
	Category string      `json:"category"`
	Amount   float64     `json:"amount"`
}

// FinanceSummary totals transactions.
type FinanceSummary struct {
	Income       float64         `json:"income"`
	Expense      float64         `json:"expense"`
	Balance      float64         `json:"balance"`
	ByCategory   []CategoryTotal `json:"by_category"`
	TotalRecords int             `json:"total_records"`
}

// BatchFinance splits a batch's spending by conventional category.
type BatchFinance struct {
	DOCCost      float64 `json:"doc_cost"`
	FeedCost     float64 `json:"feed_cost"`
	MedicineCost float64 `json:"medicine_cost"`
	LaborCost    float64 `json:"labor_cost"`
	OtherCosts   float64 `json:"other_costs"`
	TotalExpense float64 `json:"total_expense"`
	TotalIncome  float64 `json:"total_income"`
	Profit       float64 `json:"profit"`
}

// EggDay is one date bucket of egg production.
type EggDay struct {
	Date        string `json:"date"`
	TotalEggs   int    `json:"total_eggs"`
	GoodEggs    int    `json:"good_eggs"`
	DamagedEggs int    `json:"damaged_eggs"`
	SmallEggs   int    `json:"small_eggs"`
}

// EggSummary totals egg production.
type EggSummary struct {
	TotalEggs   int      `json:"total_eggs"`
	GoodEggs    int      `json:"good_eggs"`
	DamagedEggs int      `json:"damaged_eggs"`
	SmallEggs   int      `json:"small_eggs"`
	GoodRate    float64  `json:"good_rate"`
	DamagedRate float64  `json:"damaged_rate"`
	ByDate      []EggDay `json:"by_date"`
}

// FeedConsumptionSummary totals "out" movements per feed.
type FeedConsumptionSummary struct {
	TotalConsumption float64            `json:"total_consumption"`
	ByFeed           map[string]float64 `json:"by_feed"`
	LowStock         []FeedInventory    `json:"low_stock"`
}

// FeedStockReport is inventory plus low-stock and consumption views.
type FeedStockReport struct {
	Inventory   []FeedInventory        `json:"inventory"`
	LowStock    []FeedInventory        `json:"low_stock"`
	Consumption FeedConsumptionSummary `json:"consumption"`
}

// FeedDetail is a feed item with its movement history.
type FeedDetail struct {
	FeedInventory
	Movements []FeedStockMovement `json:"movements"`
}

// DaySummary totals one calendar day across all batches.
type DaySummary struct {
	Date           string  `json:"date"`
	ActiveBatches  int     `json:"active_batches"`
	Population     int     `json:"population"`
	Mortality      int     `json:"mortality"`
	Eggs           int     `json:"eggs"`
	FeedConsumedKg float64 `json:"feed_consumed_kg"`
	Income         float64 `json:"income"`
	Expense        float64 `json:"expense"`
	LowStockCount  int     `json:"low_stock_count"`
}
