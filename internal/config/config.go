package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/SanjarHikmatov/unired-task/internal/exchange"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBDriver string
	DBConn   string
	LogLevel string

	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CardInfoTTL   time.Duration

	AllowedCurrencies []int
	ExchangeRates     exchange.Rates
	RatesSource       string
	CBRURL            string

	Notifier         string
	TelegramBotToken string
	TelegramChatID   string
	TelegramAPIURL   string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	ReportDestination      string
	ReportSchedule         string
	CatalogRefreshSchedule string
}

// NewConfig loads configuration from environment variables.
// Values from a .env file in the working directory are used when present.
func NewConfig() (*Config, error) {
	// a missing .env file is not an error
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		DBDriver: getEnv("DB_DRIVER", "postgres"),
		DBConn:   getEnv("DB_CONN", "host=localhost port=5432 user=postgres password=postgres dbname=cards sslmode=disable"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		CacheBackend:  getEnv("CACHE_BACKEND", "memory"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		RatesSource: getEnv("RATES_SOURCE", "static"),
		CBRURL:      getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),

		Notifier:         getEnv("NOTIFIER", "log"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramAPIURL:   getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "noreply@cards.local"),

		ReportDestination:      getEnv("REPORT_DESTINATION", ""),
		ReportSchedule:         getEnv("REPORT_SCHEDULE", "0 9 * * *"),
		CatalogRefreshSchedule: getEnv("CATALOG_REFRESH_SCHEDULE", "*/5 * * * *"),
	}

	var err error
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if cfg.CardInfoTTL, err = time.ParseDuration(getEnv("CARD_INFO_TTL", "30s")); err != nil {
		return nil, fmt.Errorf("invalid CARD_INFO_TTL: %w", err)
	}
	if cfg.AllowedCurrencies, err = exchange.ParseCurrencies(getEnv("ALLOWED_CURRENCIES", "643,840")); err != nil {
		return nil, fmt.Errorf("invalid ALLOWED_CURRENCIES: %w", err)
	}
	if cfg.ExchangeRates, err = exchange.ParseRates(getEnv("EXCHANGE_RATES", exchange.DefaultRates().String())); err != nil {
		return nil, fmt.Errorf("invalid EXCHANGE_RATES: %w", err)
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite3":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite3, got %q", cfg.DBDriver)
	}
	switch cfg.CacheBackend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", cfg.CacheBackend)
	}
	switch cfg.RatesSource {
	case "static", "cbr":
	default:
		return nil, fmt.Errorf("RATES_SOURCE must be static or cbr, got %q", cfg.RatesSource)
	}
	switch cfg.Notifier {
	case "log", "email":
	case "telegram":
		if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required for the telegram notifier")
		}
	default:
		return nil, fmt.Errorf("NOTIFIER must be log, telegram or email, got %q", cfg.Notifier)
	}
	for _, code := range cfg.AllowedCurrencies {
		if _, ok := cfg.ExchangeRates[code]; !ok {
			return nil, fmt.Errorf("no exchange rate configured for currency %d", code)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
