package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig("")
	if cfg.Server.Address != ":8080" {
		t.Fatalf("address: got %q", cfg.Server.Address)
	}
	if cfg.Fetcher.Workers != 5 {
		t.Fatalf("workers: got %d", cfg.Fetcher.Workers)
	}
	if cfg.Fetcher.Timeout != 2*time.Minute {
		t.Fatalf("timeout: got %s", cfg.Fetcher.Timeout)
	}
	if cfg.Watch.Schedule == "" {
		t.Fatal("expected a default watch schedule")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
  "storage": {"postgres": {"url": "postgres://u:p@db:5432/ecfr?sslmode=disable"}},
  "fetcher": {"workers": 2},
  "checksums": {"path": "/var/lib/ecfr/checksums"}
}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig(path)
	if got := cfg.Storage.Postgres.DSN(); got != "postgres://u:p@db:5432/ecfr?sslmode=disable" {
		t.Fatalf("dsn: got %q", got)
	}
	if cfg.Fetcher.Workers != 2 {
		t.Fatalf("workers: got %d", cfg.Fetcher.Workers)
	}
	if cfg.Checksums.Path != "/var/lib/ecfr/checksums" {
		t.Fatalf("checksums path: got %q", cfg.Checksums.Path)
	}
}

func TestPostgresDSNAssembly(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: "5433", User: "svc", Password: "secret", DBName: "regs"}
	want := "postgres://svc:secret@db:5433/regs?sslmode=disable"
	if got := p.DSN(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}

	if err := (PostgresConfig{Host: "db"}).Validate(); err == nil {
		t.Fatal("expected validation error for missing port/dbname")
	}
}
