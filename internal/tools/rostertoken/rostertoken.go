// Package rostertoken mints signed bearer tokens for roster API callers.
// Tokens are issued out of band; the service itself has no login endpoint.
package rostertoken

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/api/httpapi"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain"
)

const defaultTTL = 24 * time.Hour

// Config holds configuration for token minting.
type Config struct {
	Secret        string
	ParticipantID string
	Name          string
	Roles         string
	TTL           time.Duration
}

// ParseConfig parses flags into a Config. The signing secret defaults to
// GLIZZY_ROSTER_JWT_SECRET so the tool signs with the same key as the server.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{
		Secret: os.Getenv("GLIZZY_ROSTER_JWT_SECRET"),
		TTL:    defaultTTL,
	}
	fs.StringVar(&cfg.Secret, "secret", cfg.Secret, "HMAC secret shared with rosterd")
	fs.StringVar(&cfg.ParticipantID, "participant", cfg.ParticipantID, "Participant id the token authenticates")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "Display name embedded in the token")
	fs.StringVar(&cfg.Roles, "roles", cfg.Roles, "Comma-separated role claims")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run mints the token and writes it to out.
func Run(cfg Config, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}
	if strings.TrimSpace(cfg.ParticipantID) == "" {
		return errors.New("participant id is required")
	}
	if cfg.TTL <= 0 {
		return errors.New("ttl must be greater than zero")
	}

	tokens, err := httpapi.NewTokenManager(cfg.Secret)
	if err != nil {
		return err
	}
	token, err := tokens.Issue(domain.Actor{
		ParticipantID: strings.TrimSpace(cfg.ParticipantID),
		Name:          strings.TrimSpace(cfg.Name),
		Roles:         splitRoles(cfg.Roles),
	}, cfg.TTL)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
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
