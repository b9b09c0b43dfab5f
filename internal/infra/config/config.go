package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SnapshotMemory = "memory"
	SnapshotFile   = "file"
	SnapshotMongo  = "mongo"
	SnapshotS3     = "s3"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                   string
	HTTPAddr              string
	Timezone              string
	Location              *time.Location
	InventoryPath         string
	SnapshotBackend       string
	SnapshotPath          string
	SnapshotFlushCron     string
	MongoURI              string
	MongoDB               string
	RedisAddr             string
	RedisUser             string
	RedisPassword         string
	RedisDB               int
	KafkaBrokers          []string
	KafkaTopicPrefix      string
	KafkaMaintenanceTopic string
	KafkaConsumerGroup    string
	IdempotencyTTL        time.Duration
	OutboxPollInterval    time.Duration
	RetryBackoff          []time.Duration
	S3Endpoint            string
	S3AccessKey           string
	S3SecretKey           string
	S3Bucket              string
	S3ObjectKey           string
	S3UseSSL              bool
	ShutdownTimeout       time.Duration
}

// Load reads an optional .env file and then parses configuration from the environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses configuration from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:                   getEnv("APP_ENV", "dev"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		Timezone:              getEnv("TIMEZONE", "Local"),
		InventoryPath:         getEnv("INVENTORY_PATH", "inventory.yaml"),
		SnapshotBackend:       strings.ToLower(getEnv("SNAPSHOT_BACKEND", SnapshotFile)),
		SnapshotPath:          getEnv("SNAPSHOT_PATH", "data"),
		SnapshotFlushCron:     getEnv("SNAPSHOT_FLUSH_CRON", "@every 30s"),
		MongoURI:              os.Getenv("MONGO_URI"),
		MongoDB:               getEnv("MONGO_DB", "staydesk"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisUser:             os.Getenv("REDIS_USER"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		KafkaTopicPrefix:      getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaMaintenanceTopic: getEnv("KAFKA_MAINTENANCE_TOPIC", "maintenance.tickets.v1"),
		KafkaConsumerGroup:    getEnv("KAFKA_CONSUMER_GROUP", "staydesk-calendar"),
		S3Endpoint:            getEnv("S3_ENDPOINT", "http://localhost:9000"),
		S3AccessKey:           getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:           getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:              getEnv("S3_BUCKET", "staydesk-snapshots"),
		S3ObjectKey:           getEnv("S3_OBJECT_KEY", "snapshots/calendar.json"),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	shutdown, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownTimeout = shutdown

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil || db < 0 {
			return Config{}, fmt.Errorf("invalid REDIS_DB %q", raw)
		}
		cfg.RedisDB = db
	}

	useSSL, err := parseBoolEnv("S3_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg.S3UseSSL = useSSL

	switch cfg.SnapshotBackend {
	case SnapshotMemory, SnapshotFile, SnapshotS3:
	case SnapshotMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required for the mongo snapshot backend")
		}
	default:
		return Config{}, fmt.Errorf("invalid SNAPSHOT_BACKEND %q", cfg.SnapshotBackend)
	}
	return cfg, nil
}

// KafkaEnabled reports whether events are published and maintenance tickets consumed.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
