package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ledgersg/backend/internal/domain/invoicing"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	Posting  PostingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// PostingConfig maps document approval postings onto chart account
// codes. Every code must exist in the tenant's chart before the first
// approval.
type PostingConfig struct {
	Receivable       string
	Payable          string
	OutputTax        string
	InputTax         string
	ExcludedDeposits string
	DefaultRevenue   string
	DefaultExpense   string
}

// Policy converts the configured account codes into the posting policy
// the document engine consumes.
func (p PostingConfig) Policy() invoicing.PostingPolicy {
	return invoicing.PostingPolicy{
		Receivable:       p.Receivable,
		Payable:          p.Payable,
		OutputTax:        p.OutputTax,
		InputTax:         p.InputTax,
		ExcludedDeposits: p.ExcludedDeposits,
		DefaultRevenue:   p.DefaultRevenue,
		DefaultExpense:   p.DefaultExpense,
	}
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with LEDGER_ prefix (e.g., LEDGER_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Posting: PostingConfig{
			Receivable:       v.GetString("posting.receivable"),
			Payable:          v.GetString("posting.payable"),
			OutputTax:        v.GetString("posting.output_tax"),
			InputTax:         v.GetString("posting.input_tax"),
			ExcludedDeposits: v.GetString("posting.excluded_deposits"),
			DefaultRevenue:   v.GetString("posting.default_revenue"),
			DefaultExpense:   v.GetString("posting.default_expense"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ledger-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "ledger"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Posting.Receivable == "" {
		cfg.Posting.Receivable = "1200"
	}
	if cfg.Posting.Payable == "" {
		cfg.Posting.Payable = "2100"
	}
	if cfg.Posting.OutputTax == "" {
		cfg.Posting.OutputTax = "2201"
	}
	if cfg.Posting.InputTax == "" {
		cfg.Posting.InputTax = "1310"
	}
	if cfg.Posting.ExcludedDeposits == "" {
		cfg.Posting.ExcludedDeposits = "2300"
	}
	if cfg.Posting.DefaultRevenue == "" {
		cfg.Posting.DefaultRevenue = "4000"
	}
	if cfg.Posting.DefaultExpense == "" {
		cfg.Posting.DefaultExpense = "5000"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	seen := make(map[string]string)
	for name, code := range map[string]string{
		"posting.receivable":        c.Posting.Receivable,
		"posting.payable":           c.Posting.Payable,
		"posting.output_tax":        c.Posting.OutputTax,
		"posting.input_tax":         c.Posting.InputTax,
		"posting.excluded_deposits": c.Posting.ExcludedDeposits,
		"posting.default_revenue":   c.Posting.DefaultRevenue,
		"posting.default_expense":   c.Posting.DefaultExpense,
	} {
		if other, dup := seen[code]; dup {
			return fmt.Errorf("%s and %s cannot share account code %s", name, other, code)
		}
		seen[code] = name
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
