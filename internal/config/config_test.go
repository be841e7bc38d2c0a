package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DATABASE_DSN", "KAFKA_BROKERS", "SMTP_HOST", "MIGRATIONS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Server.Port != "8080" || cfg.Database.Driver != "postgres" {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
	if cfg.Kafka.Enabled() || cfg.SMTP.Enabled() || cfg.App.Migrations {
		t.Fatalf("optional integrations should be off by default")
	}
	if got := cfg.Database.ConnString(); got != "host=localhost port=5432 user=haulage password=haulage123 dbname=haulage sslmode=disable" {
		t.Fatalf("ConnString() = %q", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("MIGRATIONS", "yes")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("SMTP_HOST", "smtp.test")
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("DATABASE_DSN", "postgres://u:p@h/db")

	cfg := Load()
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "/tmp/x.db" {
		t.Fatalf("database = %#v", cfg.Database)
	}
	if !cfg.App.Migrations {
		t.Fatalf("expected migrations enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
	if !cfg.SMTP.Enabled() || cfg.SMTP.Port != 587 {
		t.Fatalf("smtp = %#v", cfg.SMTP)
	}
	if cfg.Database.ConnString() != "postgres://u:p@h/db" {
		t.Fatalf("DSN override ignored: %q", cfg.Database.ConnString())
	}
}
