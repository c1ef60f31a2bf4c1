package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	TelegramToken      string
	SpreadsheetID      string
	ServiceAccountJSON []byte
	Timezone           string
	LogLevel           string
	Environment        string
	CronSpecValidation string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.SpreadsheetID = os.Getenv("GSHEET_ID")
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("GSHEET_ID is not set")
	}

	rawServiceAccount := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	if rawServiceAccount == "" {
		return nil, fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_JSON is not set")
	}
	serviceAccount, err := repairServiceAccountJSON(rawServiceAccount)
	if err != nil {
		return nil, err
	}
	cfg.ServiceAccountJSON = serviceAccount

	cfg.Timezone = os.Getenv("TIMEZONE")
	if cfg.Timezone == "" {
		cfg.Timezone = "Europe/Kyiv"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecValidation = os.Getenv("CRON_SPEC_SHEET_VALIDATION")
	if cfg.CronSpecValidation == "" {
		cfg.CronSpecValidation = "0 6 * * *" // Default: 6:00 AM daily
	}

	return cfg, nil
}

// SheetLink is the browser URL of the backing spreadsheet, shown to managers.
func (c *AppConfig) SheetLink() string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", c.SpreadsheetID)
}

// repairServiceAccountJSON undoes the double-escaping that .env files apply
// to the multi-line private key.
func repairServiceAccountJSON(raw string) ([]byte, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("invalid GOOGLE_SERVICE_ACCOUNT_JSON: %w", err)
	}
	if key, ok := payload["private_key"].(string); ok {
		payload["private_key"] = strings.ReplaceAll(key, `\n`, "\n")
	}
	repaired, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode service account JSON: %w", err)
	}
	return repaired, nil
}
