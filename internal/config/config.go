package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ErrInvalidConfig wraps every validation failure returned by Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// Sink names accepted in RASTRO_SINKS.
const (
	SinkMemory   = "memory"
	SinkFile     = "file"
	SinkSQLite   = "sqlite"
	SinkPostgres = "postgres"
	SinkRedis    = "redis"
	SinkMongo    = "mongo"

	SinkClickHouse = "clickhouse"
)

// Config is the configuration of the history daemon.
type Config struct {
	// WorkDir is the engine work directory; the file sink writes
	// <WorkDir>/history.log.
	WorkDir string `validate:"required"`

	Sinks          []string `validate:"min=1,dive,oneof=memory file sqlite postgres redis mongo clickhouse"`
	MemoryCapacity int      `validate:"min=1"`

	SQLitePath  string `validate:"required_if_sink=sqlite"`
	PostgresDSN string `validate:"required_if_sink=postgres"`
	RedisAddr   string `validate:"required_if_sink=redis"`
	RedisKey    string
	MongoURI    string `validate:"required_if_sink=mongo"`

	ClickHouseDSN    string `validate:"required_if_sink=clickhouse"`
	ClickHouseSecure bool

	// ZMQEndpoint, when set, is a ZeroMQ PUB endpoint events are received
	// from.
	ZMQEndpoint string

	// TokenSecret, when set, protects the state-changing HTTP routes with
	// HS256 bearer tokens.
	TokenSecret string `validate:"omitempty,min=16"`

	HTTPAddr  string `validate:"required"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`
}

// HasSink reports whether name is among the configured sinks.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// Load reads the configuration from the environment. A .env file in the
// current directory is loaded first if present; real environment variables
// win over it.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		WorkDir:          getEnv("RASTRO_WORK_DIR", "work"),
		Sinks:            getEnvAsList("RASTRO_SINKS", []string{SinkMemory, SinkFile}),
		MemoryCapacity:   getEnvAsInt("RASTRO_MEMORY_CAPACITY", 1000),
		SQLitePath:       getEnv("RASTRO_SQLITE_PATH", ""),
		PostgresDSN:      getEnv("RASTRO_POSTGRES_DSN", ""),
		RedisAddr:        getEnv("RASTRO_REDIS_ADDR", ""),
		RedisKey:         getEnv("RASTRO_REDIS_KEY", "rastro:history"),
		MongoURI:         getEnv("RASTRO_MONGO_URI", ""),
		ClickHouseDSN:    getEnv("RASTRO_CLICKHOUSE_DSN", ""),
		ClickHouseSecure: getEnvAsBool("RASTRO_CLICKHOUSE_SECURE", false),
		ZMQEndpoint:      getEnv("RASTRO_ZMQ_ENDPOINT", ""),
		TokenSecret:      getEnv("RASTRO_TOKEN_SECRET", ""),
		HTTPAddr:         getEnv("RASTRO_HTTP_ADDR", ":8080"),
		LogLevel:         strings.ToLower(getEnv("RASTRO_LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(getEnv("RASTRO_LOG_FORMAT", "json")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("required_if_sink", func(fl validator.FieldLevel) bool {
		if !c.HasSink(fl.Param()) {
			return true
		}
		return fl.Field().String() != ""
	})

	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
