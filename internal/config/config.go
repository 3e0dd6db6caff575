package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Secrets (from .env)
	GoldAPIKey           string
	WebhookURL           string
	BotName              string
	APIKey               string
	CORSAllowOrigin      string
	InstagramAccessToken string
	InstagramBusinessID  string

	// Gold price source
	GoldAPIURL        string
	GoldCurrency      string
	SyntheticBaseline float64
	USDIDRRate        float64

	// Polling and alerts
	PollInterval       time.Duration
	AlertChangePercent float64

	// Server
	APIPort  int
	LogLevel string

	// Database
	DBEnabled  bool
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Catalog
	InstagramAPIURL   string
	InstagramMockMode bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Secrets
		GoldAPIKey:           envStr("GOLD_API_KEY", ""),
		WebhookURL:           envStr("WEBHOOK_URL", ""),
		BotName:              envStr("BOT_NAME", "TokoMasSugema"),
		APIKey:               envStr("API_KEY", ""),
		CORSAllowOrigin:      envStr("CORS_ALLOW_ORIGIN", "*"),
		InstagramAccessToken: envStr("INSTAGRAM_ACCESS_TOKEN", ""),
		InstagramBusinessID:  envStr("INSTAGRAM_BUSINESS_ID", ""),

		// Gold price source
		GoldAPIURL:        envSet("GOLD_API_URL", "https://data-asg.goldprice.org/dbXRates/IDR"),
		GoldCurrency:      envStr("GOLD_CURRENCY", "IDR"),
		SyntheticBaseline: envFloat("GOLD_SYNTHETIC_BASELINE", 72_689_000),
		USDIDRRate:        envFloat("USD_IDR_RATE", 15500),

		// Polling and alerts
		PollInterval:       envDuration("POLL_INTERVAL", 5*time.Minute),
		AlertChangePercent: envFloat("ALERT_CHANGE_PERCENT", 2),

		// Server
		APIPort:  envInt("API_PORT", 3001),
		LogLevel: envStr("LOG_LEVEL", "info"),

		// Database
		DBEnabled:  envBool("DB_ENABLED", true),
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "toko_mas_sugema"),
		DBUser:     envStr("DB_USER", "postgres"),
		DBPassword: envStr("DB_PASSWORD", ""),

		// Catalog
		InstagramAPIURL:   envStr("INSTAGRAM_API_URL", "https://graph.instagram.com"),
		InstagramMockMode: envBool("INSTAGRAM_MOCK_MODE", false),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.PollInterval < time.Minute {
		errs = append(errs, "POLL_INTERVAL must be at least 1m")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Sprintf("API_PORT %d out of range", c.APIPort))
	}
	if c.USDIDRRate <= 0 {
		errs = append(errs, "USD_IDR_RATE must be positive")
	}
	if c.SyntheticBaseline <= 0 {
		errs = append(errs, "GOLD_SYNTHETIC_BASELINE must be positive")
	}
	if c.GoldAPIURL == "" {
		fmt.Println("[WARN] GOLD_API_URL empty: every quote will be synthetic")
	}
	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set: admin routes have no authentication")
	}
	if !c.InstagramConfigured() && !c.InstagramMockMode {
		fmt.Println("[WARN] Instagram credentials not set: sync is disabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// InstagramConfigured reports whether both Graph API credentials are present.
func (c *Config) InstagramConfigured() bool {
	return c.InstagramAccessToken != "" && c.InstagramBusinessID != ""
}

func (c *Config) Print() {
	fmt.Println("=== Toko Mas Sugema Backend Configuration ===")
	fmt.Printf("Gold source: %s\n", boolLabel(c.GoldAPIURL != "", c.GoldAPIURL, "synthetic only"))
	fmt.Printf("Currency: %s (USD rate %.0f)\n", c.GoldCurrency, c.USDIDRRate)
	fmt.Printf("Poll interval: %s\n", c.PollInterval)
	fmt.Printf("Alert threshold: %.1f%%\n", c.AlertChangePercent)
	fmt.Println("--------------------------------------")
	fmt.Printf("API port: %d\n", c.APIPort)
	fmt.Printf("Admin auth: %s\n", boolLabel(c.APIKey != "", "enabled", "disabled"))
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	fmt.Println("--------------------------------------")
	if c.DBEnabled {
		fmt.Printf("Database: %s:%d/%s\n", c.DBHost, c.DBPort, c.DBName)
	} else {
		fmt.Println("Database: disabled")
	}
	switch {
	case c.InstagramMockMode:
		fmt.Println("Instagram: mock posts")
	case c.InstagramConfigured():
		fmt.Printf("Instagram: business %s\n", c.InstagramBusinessID)
	default:
		fmt.Println("Instagram: not configured")
	}
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envSet is envStr for keys where an explicit empty value means "off".
func envSet(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
