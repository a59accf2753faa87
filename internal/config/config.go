// Package config builds the immutable run configuration from a .env file, an
// optional YAML file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ecwid_order_sync/internal/dates"
	"ecwid_order_sync/internal/ecwid"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCredentialsFile  = "service_account.json"
	DefaultWorkbookName     = "Ecwid Data Source"
	DefaultOrdersTable      = "Orders Data"
	DefaultLogTable         = "Update Log"
	DefaultInitialFetchDate = "2025-03-17 00:00:00 +0000"
	DefaultNtfyURL          = "https://ntfy.sh"
	DefaultNtfyTopic        = "ecwid-order-sync"
)

// Config is constructed once at start-up and passed to every component.
type Config struct {
	StoreID          string `yaml:"ecwid_store_id"`
	SecretToken      string `yaml:"ecwid_secret_token"`
	APIBaseURL       string `yaml:"ecwid_api_url"`
	CredentialsFile  string `yaml:"google_sheets_service_account_file"`
	WorkbookName     string `yaml:"workbook_name"`
	SpreadsheetID    string `yaml:"google_spreadsheet_id"`
	OrdersTable      string `yaml:"orders_worksheet_name"`
	LogTable         string `yaml:"log_worksheet_name"`
	InitialFetchDate string `yaml:"initial_fetch_date"`
	Timezone         string `yaml:"timezone"`
	FullScan         bool   `yaml:"full_scan"`

	NtfyEnabled bool   `yaml:"ntfy_enabled"`
	NtfyURL     string `yaml:"ntfy_url"`
	NtfyTopic   string `yaml:"ntfy_topic"`

	PushgatewayURL string `yaml:"pushgateway_url"`

	DryRun bool `yaml:"-"`
}

// Error reports unusable configuration. It is always fatal.
type Error struct {
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing required settings: %s", strings.Join(e.Missing, ", ")))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error { return e.Err }

// envBindings maps environment variables onto Config fields.
var envBindings = []struct {
	key string
	str func(*Config) *string
	b   func(*Config) *bool
}{
	{key: "ECWID_STORE_ID", str: func(c *Config) *string { return &c.StoreID }},
	{key: "ECWID_SECRET_TOKEN", str: func(c *Config) *string { return &c.SecretToken }},
	{key: "ECWID_API_URL", str: func(c *Config) *string { return &c.APIBaseURL }},
	{key: "GOOGLE_SHEETS_SERVICE_ACCOUNT_FILE", str: func(c *Config) *string { return &c.CredentialsFile }},
	{key: "NEW_SHEET_NAME", str: func(c *Config) *string { return &c.WorkbookName }},
	{key: "GOOGLE_SPREADSHEET_ID", str: func(c *Config) *string { return &c.SpreadsheetID }},
	{key: "GOOGLE_ORDERS_WORKSHEET_NAME", str: func(c *Config) *string { return &c.OrdersTable }},
	{key: "GOOGLE_LOG_WORKSHEET_NAME", str: func(c *Config) *string { return &c.LogTable }},
	{key: "INITIAL_FETCH_DATE", str: func(c *Config) *string { return &c.InitialFetchDate }},
	{key: "SYNC_TIMEZONE", str: func(c *Config) *string { return &c.Timezone }},
	{key: "ECWID_FULL_SCAN", b: func(c *Config) *bool { return &c.FullScan }},
	{key: "NTFY_ENABLED", b: func(c *Config) *bool { return &c.NtfyEnabled }},
	{key: "NTFY_URL", str: func(c *Config) *string { return &c.NtfyURL }},
	{key: "NTFY_TOPIC", str: func(c *Config) *string { return &c.NtfyTopic }},
	{key: "PUSHGATEWAY_URL", str: func(c *Config) *string { return &c.PushgatewayURL }},
}

// LoadDotEnv loads envFile (".env" when empty) into the process environment. A
// missing file is not an error; existing variables are never overwritten.
func LoadDotEnv(envFile string) bool {
	if envFile == "" {
		envFile = ".env"
	}
	return godotenv.Load(envFile) == nil
}

// Load reads yamlFile (optional) and overlays the environment.
func Load(yamlFile string) (*Config, error) {
	cfg := &Config{}
	if yamlFile != "" {
		data, err := os.ReadFile(yamlFile)
		if err != nil {
			return nil, &Error{Err: fmt.Errorf("failed to read config file: %w", err)}
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &Error{Err: fmt.Errorf("failed to parse config file %s: %w", yamlFile, err)}
		}
		log.Debug().Str("file", yamlFile).Msg("Loaded configuration file")
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var bad []error
	for _, b := range envBindings {
		v, ok := lookup(b.key)
		if !ok || v == "" {
			continue
		}
		if b.str != nil {
			*b.str(c) = v
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			bad = append(bad, fmt.Errorf("%s: %w", b.key, err))
			continue
		}
		*b.b(c) = parsed
	}
	if len(bad) > 0 {
		return &Error{Err: errors.Join(bad...)}
	}
	return nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.APIBaseURL, ecwid.DefaultBaseURL)
	setDefault(&c.CredentialsFile, DefaultCredentialsFile)
	setDefault(&c.WorkbookName, DefaultWorkbookName)
	setDefault(&c.OrdersTable, DefaultOrdersTable)
	setDefault(&c.LogTable, DefaultLogTable)
	setDefault(&c.InitialFetchDate, DefaultInitialFetchDate)
	setDefault(&c.Timezone, dates.DefaultZone)
	setDefault(&c.NtfyURL, DefaultNtfyURL)
	setDefault(&c.NtfyTopic, DefaultNtfyTopic)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Validate checks that the timezone resolves. Source credentials are checked by
// RequireSource, since bootstrap never calls Ecwid.
func (c *Config) Validate() error {
	if _, err := dates.NewNormalizer(c.Timezone); err != nil {
		return &Error{Err: err}
	}
	return nil
}

// RequireSource reports missing Ecwid credentials.
func (c *Config) RequireSource() error {
	var missing []string
	if c.StoreID == "" {
		missing = append(missing, "ECWID_STORE_ID")
	}
	if c.SecretToken == "" {
		missing = append(missing, "ECWID_SECRET_TOKEN")
	}
	if len(missing) > 0 {
		return &Error{Missing: missing}
	}
	return nil
}
