package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongodb"
)

// LLM providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Farm      FarmConfig
	AI        AIConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level  string
	Format string
}

// StoreConfig picks the storage driver.
type StoreConfig struct {
	Driver string
	DSN    string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// FarmConfig carries the metric and alert policy.
type FarmConfig struct {
	Timezone                string
	DOCWeightGr             float64
	DailyMortalityThreshold float64
	MortalityMediumPct      float64
	MortalityHighPct        float64
	HarvestLeadDays         int
	RecentActivityLimit     int
}

// AIConfig holds settings for LLM providers.
type AIConfig struct {
	Provider       string
	AnthropicKey   string
	AnthropicModel string
	OpenAIKey      string
	OpenAIBaseURL  string
	OpenAIModel    string
	MaxSteps       int
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
	GroupID       string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	p := &parser{}
	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level:  getenvWithDefault("LOG_LEVEL", "info"),
			Format: getenvWithDefault("LOG_FORMAT", "json"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getenvWithDefault("STORE_DRIVER", DriverMemory)),
			DSN:    getenvWithDefault("DATABASE_DSN", "file:bebeku.db"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "bebeku"),
		},
		Farm: FarmConfig{
			Timezone:                getenvWithDefault("TIMEZONE", "Asia/Jakarta"),
			DOCWeightGr:             p.float("DOC_WEIGHT_GR", 40),
			DailyMortalityThreshold: p.float("DAILY_MORTALITY_THRESHOLD_PCT", 0.5),
			MortalityMediumPct:      p.float("ALERT_MORTALITY_MEDIUM_PCT", 5),
			MortalityHighPct:        p.float("ALERT_MORTALITY_HIGH_PCT", 10),
			HarvestLeadDays:         p.int("ALERT_HARVEST_LEAD_DAYS", 3),
			RecentActivityLimit:     p.int("RECENT_ACTIVITY_LIMIT", 10),
		},
		AI: AIConfig{
			Provider:       strings.ToLower(getenvWithDefault("LLM_PROVIDER", ProviderAnthropic)),
			AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicModel: getenvWithDefault("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
			OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
			OpenAIModel:    getenvWithDefault("OPENAI_MODEL", "gpt-4o-mini"),
			MaxSteps:       p.int("ASSISTANT_MAX_STEPS", 8),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			GroupID:       os.Getenv("WHATSAPP_GROUP_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
		},
	}
	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Driver {
	case DriverMemory, DriverMongo:
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			return errors.New("DATABASE_DSN must be provided for sql drivers")
		}
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.Store.Driver)
	}

	if c.Store.Driver == DriverMongo && (c.MongoDB.URI == "" || c.MongoDB.DBName == "") {
		return errors.New("MONGODB_URI and MONGODB_DB_NAME must be provided for the mongodb driver")
	}

	if _, err := time.LoadLocation(c.Farm.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Farm.Timezone, err)
	}

	f := c.Farm
	switch {
	case f.DOCWeightGr <= 0:
		return errors.New("DOC_WEIGHT_GR must be greater than 0")
	case f.DailyMortalityThreshold <= 0:
		return errors.New("DAILY_MORTALITY_THRESHOLD_PCT must be greater than 0")
	case f.MortalityMediumPct <= 0 || f.MortalityHighPct <= f.MortalityMediumPct:
		return errors.New("ALERT_MORTALITY_HIGH_PCT must be greater than ALERT_MORTALITY_MEDIUM_PCT > 0")
	case f.HarvestLeadDays < 0:
		return errors.New("ALERT_HARVEST_LEAD_DAYS must not be negative")
	case f.RecentActivityLimit <= 0:
		return errors.New("RECENT_ACTIVITY_LIMIT must be greater than 0")
	}

	switch c.AI.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("LLM_PROVIDER %q is not supported", c.AI.Provider)
	}
	if c.AI.MaxSteps <= 0 {
		return errors.New("ASSISTANT_MAX_STEPS must be greater than 0")
	}

	if c.WhatsApp.AccessToken != "" || c.WhatsApp.PhoneNumberID != "" || c.WhatsApp.VerifyToken != "" {
		switch {
		case c.WhatsApp.AccessToken == "":
			return errors.New("WHATSAPP_TOKEN must be provided")
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	return nil
}

// Location resolves the configured farm time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Farm.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// WhatsAppEnabled reports whether WhatsApp credentials are configured.
func (c *Config) WhatsAppEnabled() bool {
	return c.WhatsApp.AccessToken != ""
}

// SheetsEnabled reports whether the Google Sheets report sink is configured.
func (c *Config) SheetsEnabled() bool {
	return c.Sheets.SpreadsheetID != ""
}

// AssistantEnabled reports whether the selected LLM provider has a key.
func (c *Config) AssistantEnabled() bool {
	if c.AI.Provider == ProviderOpenAI {
		return c.AI.OpenAIKey != ""
	}
	return c.AI.AnthropicKey != ""
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parser keeps the first numeric parse error.
type parser struct {
	err error
}

func (p *parser) float(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s must be a number: %w", key, err)
	}
	return v
}

func (p *parser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v
}
