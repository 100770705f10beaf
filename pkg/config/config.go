package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/chris/stk-confirmation/pkg/gateway"
	"github.com/chris/stk-confirmation/pkg/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the process configuration, read from the environment.
type Config struct {
	HTTPPort  string
	LogLevel  slog.Level
	LogFormat string

	StoreBackend              string
	DynamoDBTransactionsTable string
	DynamoDBRecordTTL         time.Duration
	PostgresDSN               string
	PostgresConnectAttempts   int
	RedisAddr                 string
	RedisPassword             string
	RedisDB                   int

	SQSCallbackQueueURL string
	KafkaBrokers        []string
	KafkaTopic          string

	Gateway gateway.Config

	ConfirmationWindow time.Duration
	StatusQueryTimeout time.Duration
	SweepInterval      time.Duration
	SweepBatchSize     int32
	NotFoundRetryDelay time.Duration
	ResultCodes        confirmation.ResultCodes
	PhonePattern       string

	RateLimit middleware.RateLimitConfig
}

var defaults = map[string]interface{}{
	"HTTP_PORT":                        "8080",
	"LOG_LEVEL":                        "info",
	"LOG_FORMAT":                       "json",
	"STORE_BACKEND":                    BackendMemory,
	"DYNAMODB_TRANSACTIONS_TABLE_NAME": "stk-transactions",
	"DYNAMODB_RECORD_TTL":              "0s",
	"POSTGRES_CONNECT_ATTEMPTS":        5,
	"REDIS_ADDR":                       "localhost:6379",
	"REDIS_DB":                         0,
	"KAFKA_TOPIC":                      "stk-status-updates",
	"GATEWAY_BASE_URL":                 "https://sandbox.safaricom.co.ke",
	"GATEWAY_TIMEOUT":                  "15s",
	"CONFIRMATION_WINDOW":              "60s",
	"STATUS_QUERY_TIMEOUT":             "5s",
	"SWEEP_INTERVAL":                   "5s",
	"SWEEP_BATCH_SIZE":                 100,
	"NOT_FOUND_RETRY_DELAY":            "250ms",
	"RESULT_CODE_SUCCESS":              0,
	"RESULT_CODE_CANCELLED":            "1032",
	"RESULT_CODE_TIMEOUT":              "1037",
	"PHONE_PATTERN":                    confirmation.DefaultPhonePattern,
	"RATE_LIMIT_ENABLED":               true,
	"RATE_LIMIT_RPS":                   20.0,
	"RATE_LIMIT_BURST":                 40,
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to read .env file: %v", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cancelled, err := parseCodes(v.GetString("RESULT_CODE_CANCELLED"))
	if err != nil {
		return nil, fmt.Errorf("RESULT_CODE_CANCELLED: %w", err)
	}
	timeout, err := parseCodes(v.GetString("RESULT_CODE_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("RESULT_CODE_TIMEOUT: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		HTTPPort:  v.GetString("HTTP_PORT"),
		LogLevel:  level,
		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),

		StoreBackend:              strings.ToLower(v.GetString("STORE_BACKEND")),
		DynamoDBTransactionsTable: v.GetString("DYNAMODB_TRANSACTIONS_TABLE_NAME"),
		DynamoDBRecordTTL:         v.GetDuration("DYNAMODB_RECORD_TTL"),
		PostgresDSN:               v.GetString("POSTGRES_DSN"),
		PostgresConnectAttempts:   v.GetInt("POSTGRES_CONNECT_ATTEMPTS"),
		RedisAddr:                 v.GetString("REDIS_ADDR"),
		RedisPassword:             v.GetString("REDIS_PASSWORD"),
		RedisDB:                   v.GetInt("REDIS_DB"),

		SQSCallbackQueueURL: v.GetString("SQS_CALLBACK_QUEUE_URL"),
		KafkaBrokers:        splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:          v.GetString("KAFKA_TOPIC"),

		Gateway: gateway.Config{
			BaseURL:        v.GetString("GATEWAY_BASE_URL"),
			ConsumerKey:    v.GetString("GATEWAY_CONSUMER_KEY"),
			ConsumerSecret: v.GetString("GATEWAY_CONSUMER_SECRET"),
			ShortCode:      v.GetString("GATEWAY_SHORT_CODE"),
			Passkey:        v.GetString("GATEWAY_PASSKEY"),
			CallbackURL:    v.GetString("GATEWAY_CALLBACK_URL"),
			Timeout:        v.GetDuration("GATEWAY_TIMEOUT"),
		},

		ConfirmationWindow: v.GetDuration("CONFIRMATION_WINDOW"),
		StatusQueryTimeout: v.GetDuration("STATUS_QUERY_TIMEOUT"),
		SweepInterval:      v.GetDuration("SWEEP_INTERVAL"),
		SweepBatchSize:     v.GetInt32("SWEEP_BATCH_SIZE"),
		NotFoundRetryDelay: v.GetDuration("NOT_FOUND_RETRY_DELAY"),
		ResultCodes: confirmation.ResultCodes{
			Success:   v.GetInt("RESULT_CODE_SUCCESS"),
			Cancelled: cancelled,
			Timeout:   timeout,
		},
		PhonePattern: v.GetString("PHONE_PATTERN"),

		RateLimit: middleware.RateLimitConfig{
			Enabled: v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:     v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:   v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendRedis:
	case BackendDynamoDB:
		if c.DynamoDBTransactionsTable == "" {
			return errors.New("DYNAMODB_TRANSACTIONS_TABLE_NAME is required for the dynamodb backend")
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.ConfirmationWindow <= 0 {
		return errors.New("CONFIRMATION_WINDOW must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be positive")
	}
	if c.SweepInterval >= c.ConfirmationWindow {
		return errors.New("SWEEP_INTERVAL must be shorter than CONFIRMATION_WINDOW")
	}
	if c.SweepBatchSize <= 0 {
		return errors.New("SWEEP_BATCH_SIZE must be positive")
	}
	return nil
}

// ValidateGateway checks the settings needed to talk to the provider.
func (c *Config) ValidateGateway() error {
	var missing []string
	for name, value := range map[string]string{
		"GATEWAY_BASE_URL":        c.Gateway.BaseURL,
		"GATEWAY_CONSUMER_KEY":    c.Gateway.ConsumerKey,
		"GATEWAY_CONSUMER_SECRET": c.Gateway.ConsumerSecret,
		"GATEWAY_SHORT_CODE":      c.Gateway.ShortCode,
		"GATEWAY_PASSKEY":         c.Gateway.Passkey,
		"GATEWAY_CALLBACK_URL":    c.Gateway.CallbackURL,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing gateway settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Logger builds the process logger.
func (c *Config) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseCodes(s string) ([]int, error) {
	parts := splitList(s)
	codes := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid result code %q", p)
		}
		codes = append(codes, n)
	}
	return codes, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
