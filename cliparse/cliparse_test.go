// cliparse/cliparse_test.go
package cliparse

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestParseFlags_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected default database type postgres, got %s", cfg.DatabaseType)
	}
	if cfg.ResubmitPolicy != "reject" {
		t.Errorf("expected default policy reject, got %s", cfg.ResubmitPolicy)
	}
	if cfg.ResultsVisibility != "live" {
		t.Errorf("expected default visibility live, got %s", cfg.ResultsVisibility)
	}
	if cfg.VoteMaxRetries != 2 {
		t.Errorf("expected 2 retries, got %d", cfg.VoteMaxRetries)
	}
	if cfg.AuditBuffer != 256 {
		t.Errorf("expected audit buffer 256, got %d", cfg.AuditBuffer)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("RESUBMIT_POLICY", "replace")
	t.Setenv("RESULTS_VISIBILITY", "final")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.DatabaseType)
	}
	if cfg.ResubmitPolicy != "replace" {
		t.Errorf("expected replace, got %s", cfg.ResubmitPolicy)
	}
	if cfg.ResultsVisibility != "final" {
		t.Errorf("expected final, got %s", cfg.ResultsVisibility)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("RESUBMIT_POLICY", "reject")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-t", "sqlite", "-jwt-secret", "s1", "-resubmit", "replace"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.ResubmitPolicy != "replace" {
		t.Errorf("CLI should override env: expected replace, got %s", cfg.ResubmitPolicy)
	}
}

func TestParseFlags_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		args    []string
		wantErr string
	}{
		{
			name:    "missing database url",
			env:     map[string]string{"JWT_SECRET": "s"},
			wantErr: "database URL required",
		},
		{
			name:    "missing jwt secret",
			env:     map[string]string{"DATABASE_URL": "postgres://x"},
			wantErr: "JWT_SECRET required",
		},
		{
			name:    "bad policy",
			env:     map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET": "s", "RESUBMIT_POLICY": "ignore"},
			wantErr: "RESUBMIT_POLICY",
		},
		{
			name:    "bad visibility",
			env:     map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET": "s"},
			args:    []string{"-results", "never"},
			wantErr: "RESULTS_VISIBILITY",
		},
		{
			name:    "bad database type",
			env:     map[string]string{"DATABASE_URL": "x", "JWT_SECRET": "s", "DATABASE_TYPE": "mysql"},
			wantErr: "DATABASE_TYPE",
		},
		{
			name:    "non-numeric port",
			env:     map[string]string{"DATABASE_URL": "x", "JWT_SECRET": "s", "PORT": "abc"},
			wantErr: "parse env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := ParseFlags(tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
