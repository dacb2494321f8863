package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env"
)

type Config struct {
	Address            string        `env:"RUN_ADDRESS" envDefault:"localhost:8080"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"INFO"`
	DatabaseConnection string        `env:"DATABASE_URI"`
	JWTSecret          string        `env:"JWT_SECRET" envDefault:"dontexposethis"`
	JWTTTL             time.Duration `env:"JWT_TTL" envDefault:"24h"`
	AMQPAddress        string        `env:"AMQP_ADDRESS"`
	ReconcileWorkers   int           `env:"RECONCILE_WORKERS" envDefault:"5"`
	ReconcileInterval  time.Duration `env:"RECONCILE_INTERVAL" envDefault:"30s"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("ENV JWT_SECRET must be set")
	}

	address := flag.String("a", cfg.Address, "{Host:port} for server")
	loglevel := flag.String("l", cfg.LogLevel, "Log level for server")
	databaseConnection := flag.String("d", cfg.DatabaseConnection, "Database connection string")
	jwtTTL := flag.Duration("t", cfg.JWTTTL, "TTL for JWT token(e.g. 24h; 30m )")
	amqpAddress := flag.String("q", cfg.AMQPAddress, "AMQP broker address, empty disables notifications")
	reconcileWorkers := flag.Int("w", cfg.ReconcileWorkers, "Size of credit reconciler worker pool")
	reconcileInterval := flag.Duration("i", cfg.ReconcileInterval, "Credit reconciler sweep interval")

	flag.Parse()

	cfg.Address = *address
	cfg.LogLevel = *loglevel
	cfg.DatabaseConnection = *databaseConnection
	cfg.JWTTTL = *jwtTTL
	cfg.AMQPAddress = *amqpAddress
	cfg.ReconcileWorkers = *reconcileWorkers
	cfg.ReconcileInterval = *reconcileInterval

	return cfg, nil
}
