package rosterd

import (
	"flag"
	"reflect"
	"testing"
	"time"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("rosterd", flag.ContinueOnError)
	t.Setenv("GLIZZY_ROSTER_PORT", "9090")
	t.Setenv("GLIZZY_ROSTER_JWT_SECRET", "env-secret")

	cfg, err := ParseConfig(fs, []string{"-locale", "sv", "-notify-max-attempts", "3"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Port)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Fatalf("jwt secret = %q, want %q", cfg.JWTSecret, "env-secret")
	}
	if cfg.Locale != "sv" {
		t.Fatalf("locale = %q, want %q", cfg.Locale, "sv")
	}
	if cfg.NotifyMaxAttempts != 3 {
		t.Fatalf("notify max attempts = %d, want 3", cfg.NotifyMaxAttempts)
	}
	if cfg.DBPath != "data/roster.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "data/roster.db")
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("rosterd", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8090 {
		t.Fatalf("port = %d, want 8090", cfg.Port)
	}
	if cfg.AuthorizedRoles != "Officer,Raid Leader" {
		t.Fatalf("authorized roles = %q, want %q", cfg.AuthorizedRoles, "Officer,Raid Leader")
	}
	if cfg.AutoApproveSwaps {
		t.Fatal("auto approve swaps should default to false")
	}
	if cfg.NotifyPollInterval != 5*time.Second {
		t.Fatalf("notify poll interval = %v, want 5s", cfg.NotifyPollInterval)
	}
	if cfg.NotifyRetryMaxDelay != 5*time.Minute {
		t.Fatalf("notify retry max delay = %v, want 5m", cfg.NotifyRetryMaxDelay)
	}
}

func TestSplitRoles(t *testing.T) {
	cases := []struct {
		name  string
		roles string
		want  []string
	}{
		{name: "comma separated", roles: "Officer,Raid Leader", want: []string{"Officer", "Raid Leader"}},
		{name: "trims whitespace", roles: " Officer , Raid Leader ", want: []string{"Officer", "Raid Leader"}},
		{name: "drops empty segments", roles: "Officer,,", want: []string{"Officer"}},
		{name: "blank input", roles: "", want: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := splitRoles(tc.roles)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("splitRoles(%q) = %v, want %v", tc.roles, got, tc.want)
			}
		})
	}
}
