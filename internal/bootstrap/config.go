package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/infrastructure/carriers"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/kafka"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/mongodb"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/temporal"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/tracing"
)

// Config holds process configuration shared by the API and the worker
type Config struct {
	ServiceName string
	ServerAddr  string
	Environment string

	// MongoDB is nil when MONGODB_URI is unset; orders are then kept in memory.
	MongoDB *mongodb.Config
	Kafka   *kafka.Config
	// RedisURL selects the distributed order lock. Empty means in-process locks.
	RedisURL string

	ShipLogic carriers.ShipLogicConfig
	// CarrierRateLimit is outbound carrier requests per second; 0 disables it.
	CarrierRateLimit float64
	CarrierRateBurst int
	WebhookSecret    string
	Shipping         domain.ShippingConfig
	Tracing          *tracing.Config
	Temporal         *temporal.Config
}

// LoadConfig reads configuration from the environment
func LoadConfig(serviceName string) *Config {
	shipping := domain.DefaultShippingConfig()
	shipping.FreeShippingThreshold = getEnvFloat("FREE_SHIPPING_THRESHOLD", shipping.FreeShippingThreshold)
	shipping.CarrierTimeout = getEnvDuration("CARRIER_TIMEOUT", shipping.CarrierTimeout)
	shipping.PersistTimeout = getEnvDuration("ORDER_PERSIST_TIMEOUT", shipping.PersistTimeout)
	shipping.LockWait = getEnvDuration("ORDER_LOCK_WAIT", shipping.LockWait)
	shipping.LockTTL = getEnvDuration("ORDER_LOCK_TTL", shipping.LockTTL)

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnvBool("TRACING_ENABLED", true)
	tracingConfig.SampleRate = getEnvFloat("TRACING_SAMPLE_RATE", tracingConfig.SampleRate)

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.ClientID = serviceName
	if brokers := kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "")); len(brokers) > 0 {
		kafkaConfig.Brokers = brokers
	}

	cfg := &Config{
		ServiceName: serviceName,
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		Kafka:       kafkaConfig,
		RedisURL:    getEnv("REDIS_URL", ""),
		ShipLogic: carriers.ShipLogicConfig{
			BaseURL: getEnv("SHIPLOGIC_BASE_URL", "https://api.shiplogic.com"),
			APIKey:  getEnv("SHIPLOGIC_API_KEY", ""),
			Timeout: getEnvDuration("SHIPLOGIC_TIMEOUT", shipping.CarrierTimeout),
			Sender:  loadSender(),
		},
		CarrierRateLimit: getEnvFloat("CARRIER_RATE_LIMIT", 5),
		CarrierRateBurst: getEnvInt("CARRIER_RATE_BURST", 10),
		WebhookSecret:    getEnv("WEBHOOK_SECRET", ""),
		Shipping:         shipping,
		Tracing:          tracingConfig,
		Temporal:         temporal.DefaultConfig(),
	}
	cfg.Temporal.HostPort = getEnv("TEMPORAL_HOST", cfg.Temporal.HostPort)
	cfg.Temporal.Namespace = getEnv("TEMPORAL_NAMESPACE", cfg.Temporal.Namespace)
	cfg.Temporal.Identity = serviceName

	if uri := getEnv("MONGODB_URI", ""); uri != "" {
		mongoConfig := mongodb.DefaultConfig()
		mongoConfig.URI = uri
		mongoConfig.AppName = serviceName
		mongoConfig.Database = getEnv("MONGODB_DATABASE", mongoConfig.Database)
		cfg.MongoDB = mongoConfig
	}

	return cfg
}

func loadSender() carriers.Sender {
	return carriers.Sender{
		Company:       getEnv("SHIP_FROM_COMPANY", "Jits Apparel"),
		ContactName:   getEnv("SHIP_FROM_CONTACT", "Dispatch"),
		Phone:         getEnv("SHIP_FROM_PHONE", ""),
		Email:         getEnv("SHIP_FROM_EMAIL", ""),
		StreetAddress: getEnv("SHIP_FROM_STREET", ""),
		LocalArea:     getEnv("SHIP_FROM_SUBURB", ""),
		City:          getEnv("SHIP_FROM_CITY", ""),
		Zone:          getEnv("SHIP_FROM_PROVINCE", ""),
		Country:       getEnv("SHIP_FROM_COUNTRY", "ZA"),
		PostalCode:    getEnv("SHIP_FROM_POSTAL_CODE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return f
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return defaultValue
}
