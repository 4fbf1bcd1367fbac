package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         int    `env:"PORT" envDefault:"3318"`
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseType string `env:"DATABASE_TYPE" envDefault:"postgres"`
	JWTSecret    string `env:"JWT_SECRET"`

	// ResubmitPolicy is "reject" or "replace"; one policy for the whole process.
	ResubmitPolicy string `env:"RESUBMIT_POLICY" envDefault:"reject"`
	// ResultsVisibility is "live" or "final".
	ResultsVisibility string `env:"RESULTS_VISIBILITY" envDefault:"live"`
	VoteMaxRetries    int    `env:"VOTE_MAX_RETRIES" envDefault:"2"`
	AuditBuffer       int    `env:"AUDIT_BUFFER" envDefault:"256"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	IPSalt            string `env:"IP_SALT"`
}

// ParseFlags reads .env and the environment, then lets flags override them
func ParseFlags(args []string) (Config, error) {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("election-portal", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (postgres or sqlite)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "JWT signing secret (prefer env)")
	fs.StringVar(&cfg.IPSalt, "ip-salt", cfg.IPSalt, "Salt for hashing client IPs (prefer env)")

	// Voting behaviour
	fs.StringVar(&cfg.ResubmitPolicy, "resubmit", cfg.ResubmitPolicy, "Second vote for a position: reject or replace")
	fs.StringVar(&cfg.ResultsVisibility, "results", cfg.ResultsVisibility, "When results are published: live or final")
	fs.IntVar(&cfg.VoteMaxRetries, "vote-retries", cfg.VoteMaxRetries, "Retries after a storage conflict")
	fs.IntVar(&cfg.AuditBuffer, "audit-buffer", cfg.AuditBuffer, "Queued audit events before dropping")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	switch c.DatabaseType {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_TYPE must be postgres or sqlite, got %q", c.DatabaseType)
	}

	// Secrets - MUST be provided
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET required")
	}

	switch c.ResubmitPolicy {
	case "reject", "replace":
	default:
		return fmt.Errorf("RESUBMIT_POLICY must be reject or replace, got %q", c.ResubmitPolicy)
	}
	switch c.ResultsVisibility {
	case "live", "final":
	default:
		return fmt.Errorf("RESULTS_VISIBILITY must be live or final, got %q", c.ResultsVisibility)
	}
	if c.VoteMaxRetries < 0 {
		return errors.New("VOTE_MAX_RETRIES cannot be negative")
	}
	if c.AuditBuffer <= 0 {
		return errors.New("AUDIT_BUFFER must be positive")
	}
	return nil
}
