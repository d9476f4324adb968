package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read by Load when no explicit files are given.
const DefaultEnvFile = ".env"

// Config captures environment driven configuration values for the lab booking service.
type Config struct {
	HTTPPort  int
	DBDriver  string
	DBDSN     string
	JWTSecret string
	LogLevel  string

	PeriodMin int
	PeriodMax int
	Timezone  string
	Location  *time.Location

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	AMQPURL   string
	AMQPQueue string
}

// Defaults returns the configuration used for every unset variable.
func Defaults() Config {
	return Config{
		HTTPPort:  8080,
		DBDriver:  "sqlite",
		DBDSN:     "file:labbooking.db?_pragma=foreign_keys(1)",
		LogLevel:  "info",
		PeriodMin: 1,
		PeriodMax: 9,
		Timezone:  "America/Fortaleza",
		LockTTL:   5 * time.Second,
		AMQPQueue: "lab.booking.events",
	}
}

// Load parses configuration values from the current process environment.
//
// Files are read with godotenv first; variables already present in the
// environment always win. Without arguments DefaultEnvFile is tried and a
// missing file is ignored. Missing and invalid keys are reported together.
func Load(files ...string) (Config, error) {
	if err := loadEnvFiles(files); err != nil {
		return Config{}, err
	}

	cfg := Defaults()
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	readInt := func(key string, target *int, valid func(int) bool) {
		value := lookup(key)
		if value == "" {
			return
		}
		n, err := strconv.Atoi(value)
		if err != nil || !valid(n) {
			invalid = append(invalid, key)
			return
		}
		*target = n
	}
	readString := func(key string, target *string) {
		if value := lookup(key); value != "" {
			*target = value
		}
	}

	readInt("LAB_HTTP_PORT", &cfg.HTTPPort, func(n int) bool { return n > 0 && n <= 65535 })

	readString("LAB_DB_DRIVER", &cfg.DBDriver)
	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "mysql" {
		invalid = append(invalid, "LAB_DB_DRIVER")
	}
	readString("LAB_DB_DSN", &cfg.DBDSN)

	if cfg.JWTSecret = lookup("LAB_JWT_SECRET"); cfg.JWTSecret == "" {
		missing = append(missing, "LAB_JWT_SECRET")
	}

	readString("LAB_LOG_LEVEL", &cfg.LogLevel)
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		invalid = append(invalid, "LAB_LOG_LEVEL")
	}

	readInt("LAB_PERIOD_MIN", &cfg.PeriodMin, func(n int) bool { return n >= 1 })
	readInt("LAB_PERIOD_MAX", &cfg.PeriodMax, func(n int) bool { return n >= 1 })
	if cfg.PeriodMax < cfg.PeriodMin {
		invalid = append(invalid, "LAB_PERIOD_MAX")
	}

	readString("LAB_TIMEZONE", &cfg.Timezone)
	if loc, err := time.LoadLocation(cfg.Timezone); err != nil {
		invalid = append(invalid, "LAB_TIMEZONE")
	} else {
		cfg.Location = loc
	}

	readString("LAB_REDIS_ADDR", &cfg.RedisAddr)
	cfg.RedisPassword = os.Getenv("LAB_REDIS_PASSWORD")
	readInt("LAB_REDIS_DB", &cfg.RedisDB, func(n int) bool { return n >= 0 })

	if value := lookup("LAB_LOCK_TTL"); value != "" {
		ttl, err := time.ParseDuration(value)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "LAB_LOCK_TTL")
		} else {
			cfg.LockTTL = ttl
		}
	}

	readString("LAB_AMQP_URL", &cfg.AMQPURL)
	readString("LAB_AMQP_QUEUE", &cfg.AMQPQueue)

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("variáveis de ambiente obrigatórias ausentes: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("variáveis de ambiente com valor inválido: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.HTTPPort)
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		err := godotenv.Load(DefaultEnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", DefaultEnvFile, err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
