package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/homestead/internal/domain/models"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
	DriverRedis    = "redis"
	DriverS3       = "s3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Store     StoreConfig
	Ledger    LedgerConfig
	Reporting ReportingConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	MongoDB   MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

type LogConfig struct {
	Level string
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	Driver         string
	SQLitePath     string
	PostgresDSN    string
	RedisURL       string
	RedisKeyPrefix string
	S3             S3Config
}

type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// LedgerConfig carries domain settings.
type LedgerConfig struct {
	// CustomEventTypes is a comma separated name:add|subtract list.
	CustomEventTypes string
	EventTypes       models.EventTypes
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule           string
	Timezone               string
	KindlingHorizonDays    int
	VaccinationHorizonDays int
}

// WhatsAppConfig contains credentials for the Meta WhatsApp Cloud API. Digest
// delivery is disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	RecipientID   string
}

// Enabled reports whether reminder digests should be sent.
func (c WhatsAppConfig) Enabled() bool { return c.AccessToken != "" }

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

func (c SheetsConfig) Enabled() bool { return c.SpreadsheetID != "" }

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
	// Archive stores daily summaries in MongoDB even when another driver
	// holds the ledger.
	Archive bool
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
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	kindling, err := getenvInt("KINDLING_HORIZON_DAYS", 7)
	if err != nil {
		return nil, err
	}
	vaccination, err := getenvInt("VACCINATION_HORIZON_DAYS", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver:         getenvWithDefault("STORE_DRIVER", DriverSQLite),
			SQLitePath:     getenvWithDefault("SQLITE_PATH", "data/homestead.db"),
			PostgresDSN:    os.Getenv("POSTGRES_DSN"),
			RedisURL:       getenvWithDefault("REDIS_URL", "redis://localhost:6379/0"),
			RedisKeyPrefix: getenvWithDefault("REDIS_KEY_PREFIX", "homestead:"),
			S3: S3Config{
				Bucket:          os.Getenv("S3_BUCKET"),
				Prefix:          getenvWithDefault("S3_PREFIX", "homestead"),
				Region:          getenvWithDefault("S3_REGION", "us-east-1"),
				Endpoint:        os.Getenv("S3_ENDPOINT"),
				AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				PathStyle:       os.Getenv("S3_PATH_STYLE") == "true",
			},
		},
		Ledger: LedgerConfig{
			CustomEventTypes: os.Getenv("CUSTOM_EVENT_TYPES"),
		},
		Reporting: ReportingConfig{
			CronSchedule:           getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:               getenvWithDefault("TIMEZONE", "Africa/Conakry"),
			KindlingHorizonDays:    kindling,
			VaccinationHorizonDays: vaccination,
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			RecipientID:   os.Getenv("WHATSAPP_RECIPIENT_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "homestead"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated and
// parses the custom event types.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Driver {
	case DriverMemory, DriverSQLite, DriverMongoDB, DriverRedis:
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN must be provided for the postgres driver")
		}
	case DriverS3:
		if c.Store.S3.Bucket == "" {
			return errors.New("S3_BUCKET must be provided for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if c.Store.Driver == DriverMongoDB && c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided for the mongodb driver")
	}

	types, err := models.ParseEventTypes(c.Ledger.CustomEventTypes)
	if err != nil {
		return fmt.Errorf("CUSTOM_EVENT_TYPES: %w", err)
	}
	c.Ledger.EventTypes = types

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}

	if c.Reporting.KindlingHorizonDays < 0 || c.Reporting.VaccinationHorizonDays < 0 {
		return errors.New("reminder horizons must not be negative")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.RecipientID == "":
			return errors.New("WHATSAPP_RECIPIENT_ID must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}
