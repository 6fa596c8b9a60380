package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// chdir moves into an empty directory so no stray .env is picked up.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestFromEnv_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8000" || cfg.Addr() != ":8000" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.DB.Driver != "memory" {
		t.Errorf("driver = %q", cfg.DB.Driver)
	}
	if cfg.Rates.CacheTTL != 5*time.Second || cfg.Rates.FetchTimeout != 10*time.Second {
		t.Errorf("rates = %+v", cfg.Rates)
	}
	if cfg.Rates.Concurrency != 4 {
		t.Errorf("concurrency = %d", cfg.Rates.Concurrency)
	}
	if cfg.Poller.Interval != time.Second || !cfg.Poller.AutoRefresh || cfg.Poller.Epsilon != 0 {
		t.Errorf("poller = %+v", cfg.Poller)
	}
	if cfg.Cron.Interval != "60" {
		t.Errorf("cron interval = %q", cfg.Cron.Interval)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"*"}) {
		t.Errorf("cors = %v", cfg.CORSOrigins)
	}
	if cfg.Publisher.Backend != "none" {
		t.Errorf("publisher = %q", cfg.Publisher.Backend)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("FXRATEMANAGER_DB_DRIVER", "Postgres")
	t.Setenv("FXRATEMANAGER_DB_DSN", "postgres://u:p@localhost/fx")
	t.Setenv("FXRATEMANAGER_POLL_INTERVAL", "250ms")
	t.Setenv("FXRATEMANAGER_AUTO_REFRESH", "false")
	t.Setenv("FXRATEMANAGER_COMPARE_EPSILON", "0.0001")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FXRATEMANAGER_PUBLISHER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr() != ":9090" {
		t.Errorf("addr = %q", cfg.Addr())
	}
	if cfg.DB.Driver != "postgres" || cfg.DB.DSN != "postgres://u:p@localhost/fx" {
		t.Errorf("db = %+v", cfg.DB)
	}
	if cfg.Poller.Interval != 250*time.Millisecond || cfg.Poller.AutoRefresh || cfg.Poller.Epsilon != 0.0001 {
		t.Errorf("poller = %+v", cfg.Poller)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("cors = %v", cfg.CORSOrigins)
	}
	if cfg.Publisher.Backend != "kafka" || !reflect.DeepEqual(cfg.Publisher.KafkaBrokers, []string{"k1:9092", "k2:9092"}) {
		t.Errorf("publisher = %+v", cfg.Publisher)
	}
}

func TestFromEnv_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	// Unset so the file value is used; t.Setenv restores the original afterwards.
	t.Setenv("FXRATEMANAGER_BACKEND_URL", "")
	os.Unsetenv("FXRATEMANAGER_BACKEND_URL")

	env := "FXRATEMANAGER_BACKEND_URL=http://rates.internal:8000\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.BackendURL != "http://rates.internal:8000" {
		t.Errorf("backend url = %q", cfg.BackendURL)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"driver":    {"FXRATEMANAGER_DB_DRIVER", "mongo"},
		"publisher": {"FXRATEMANAGER_PUBLISHER", "redis"},
		"epsilon":   {"FXRATEMANAGER_COMPARE_EPSILON", "-1"},
		"interval":  {"FXRATEMANAGER_POLL_INTERVAL", "soon"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(kv[0], kv[1])
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

func TestUsage(t *testing.T) {
	if u := Usage(); !strings.Contains(u, "FXRATEMANAGER_DB_DRIVER") {
		t.Errorf("usage missing driver variable:\n%s", u)
	}
}
