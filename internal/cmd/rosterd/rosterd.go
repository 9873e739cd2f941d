// Package rosterd parses roster command flags and launches the roster runtime.
package rosterd

import (
	"context"
	"flag"
	"strings"
	"time"

	entrypoint "github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/platform/cmd"
	rosterapp "github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/app"
)

// Config holds roster command configuration.
type Config struct {
	Port                int           `env:"GLIZZY_ROSTER_PORT" envDefault:"8090"`
	DBPath              string        `env:"GLIZZY_ROSTER_DB_PATH" envDefault:"data/roster.db"`
	JWTSecret           string        `env:"GLIZZY_ROSTER_JWT_SECRET"`
	WebhookURL          string        `env:"GLIZZY_ROSTER_WEBHOOK_URL"`
	Locale              string        `env:"GLIZZY_ROSTER_LOCALE" envDefault:"en"`
	AuthorizedRoles     string        `env:"GLIZZY_ROSTER_AUTHORIZED_ROLES" envDefault:"Officer,Raid Leader"`
	AutoApproveSwaps    bool          `env:"GLIZZY_ROSTER_AUTO_APPROVE_SWAPS" envDefault:"false"`
	NotifyPollInterval  time.Duration `env:"GLIZZY_ROSTER_NOTIFY_POLL_INTERVAL" envDefault:"5s"`
	NotifyBatchSize     int           `env:"GLIZZY_ROSTER_NOTIFY_BATCH_SIZE" envDefault:"50"`
	NotifyMaxAttempts   int           `env:"GLIZZY_ROSTER_NOTIFY_MAX_ATTEMPTS" envDefault:"8"`
	NotifyRetryBackoff  time.Duration `env:"GLIZZY_ROSTER_NOTIFY_RETRY_BACKOFF" envDefault:"10s"`
	NotifyRetryMaxDelay time.Duration `env:"GLIZZY_ROSTER_NOTIFY_RETRY_MAX_DELAY" envDefault:"5m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The roster HTTP server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The roster SQLite database path")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "HMAC secret for API bearer tokens")
	fs.StringVar(&cfg.WebhookURL, "webhook-url", cfg.WebhookURL, "Announcement webhook endpoint, empty disables delivery")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for announcement copy")
	fs.StringVar(&cfg.AuthorizedRoles, "authorized-roles", cfg.AuthorizedRoles, "Comma-separated roles allowed to approve and deny swaps")
	fs.BoolVar(&cfg.AutoApproveSwaps, "auto-approve-swaps", cfg.AutoApproveSwaps, "Execute swaps on acceptance without officer approval")
	fs.DurationVar(&cfg.NotifyPollInterval, "notify-poll-interval", cfg.NotifyPollInterval, "Announcement outbox poll interval")
	fs.IntVar(&cfg.NotifyBatchSize, "notify-batch-size", cfg.NotifyBatchSize, "Maximum outbox messages drained per poll")
	fs.IntVar(&cfg.NotifyMaxAttempts, "notify-max-attempts", cfg.NotifyMaxAttempts, "Maximum delivery attempts before dead-letter")
	fs.DurationVar(&cfg.NotifyRetryBackoff, "notify-retry-backoff", cfg.NotifyRetryBackoff, "Base delivery retry delay")
	fs.DurationVar(&cfg.NotifyRetryMaxDelay, "notify-retry-max-delay", cfg.NotifyRetryMaxDelay, "Maximum delivery retry delay")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the roster runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRosterd, func(context.Context) error {
		return rosterapp.Run(ctx, rosterapp.RuntimeConfig{
			Port:                cfg.Port,
			DBPath:              cfg.DBPath,
			JWTSecret:           cfg.JWTSecret,
			WebhookURL:          cfg.WebhookURL,
			Locale:              cfg.Locale,
			AuthorizedRoles:     splitRoles(cfg.AuthorizedRoles),
			AutoApproveSwaps:    cfg.AutoApproveSwaps,
			NotifyPollInterval:  cfg.NotifyPollInterval,
			NotifyBatchSize:     cfg.NotifyBatchSize,
			NotifyMaxAttempts:   cfg.NotifyMaxAttempts,
			NotifyRetryBackoff:  cfg.NotifyRetryBackoff,
			NotifyRetryMaxDelay: cfg.NotifyRetryMaxDelay,
		})
	})
}

func splitRoles(roles string) []string {
	parts := strings.Split(roles, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
