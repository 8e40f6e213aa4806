package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("CACHE_DRIVER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Errorf("Expected memory driver, got %s", cfg.Store.Driver)
	}
	if cfg.Cache.Driver != CacheLRU {
		t.Errorf("Expected lru cache, got %s", cfg.Cache.Driver)
	}
	if cfg.Comments.MaxWords != 500 {
		t.Errorf("Expected 500 max words, got %d", cfg.Comments.MaxWords)
	}
	if cfg.Comments.ConflictRetries != 5 {
		t.Errorf("Expected 5 conflict retries, got %d", cfg.Comments.ConflictRetries)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("CACHE_DRIVER", "redis")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("COMMENT_BANNED_WORDS", "spam, scam ,,phish")
	t.Setenv("DB_CONN_ATTEMPTS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Store.Driver != DriverPostgres {
		t.Errorf("Expected postgres driver, got %s", cfg.Store.Driver)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("Expected 30s TTL, got %v", cfg.Cache.TTL)
	}
	if strings.Join(cfg.Comments.BannedWords, "|") != "spam|scam|phish" {
		t.Errorf("Unexpected banned words: %v", cfg.Comments.BannedWords)
	}
	if cfg.Database.ConnAttempts != 5 {
		t.Errorf("Expected invalid int to fall back to default, got %d", cfg.Database.ConnAttempts)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:    StoreConfig{Driver: DriverMemory},
			Cache:    CacheConfig{Driver: CacheLRU, Size: 10},
			Comments: CommentsConfig{MaxWords: 500, ConflictRetries: 3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid memory config", func(c *Config) {}, ""},
		{"unknown store", func(c *Config) { c.Store.Driver = "sqlite" }, "STORE_DRIVER"},
		{"postgres needs host", func(c *Config) { c.Store.Driver = DriverPostgres; c.Database.Name = "x" }, "DB_HOST"},
		{"mongo needs uri", func(c *Config) { c.Store.Driver = DriverMongo }, "MONGO_URI"},
		{"unknown cache", func(c *Config) { c.Cache.Driver = "memcached" }, "CACHE_DRIVER"},
		{"lru needs size", func(c *Config) { c.Cache.Size = 0 }, "CACHE_SIZE"},
		{"redis needs addr", func(c *Config) { c.Cache.Driver = CacheRedis }, "REDIS_ADDR"},
		{"max words", func(c *Config) { c.Comments.MaxWords = 0 }, "COMMENT_MAX_WORDS"},
		{"retries", func(c *Config) { c.Comments.ConflictRetries = 0 }, "COMMENT_CONFLICT_RETRIES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=n sslmode=disable"
	if got := db.GetDSN(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
