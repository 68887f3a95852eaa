package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/cms-client/pkg/client"
	"github.com/Sternrassler/cms-client/pkg/logging"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Proxy.Listen != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Proxy.Listen)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("expected 5m TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.Client.Retries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.Client.Retries)
	}
	if cfg.RedisClient() != nil {
		t.Error("expected no redis client without addr")
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_CMS_API_KEY", "key-123")

	content := `
client:
  base_url: https://cms.example.com/api
  api_key: ${TEST_CMS_API_KEY}
  timeout: 10s
  retries: 5
  retry_delay: 250ms
  backoff: constant
  retry_writes: true
  rate_limit:
    max_wait: 1m
cache:
  enabled: false
  ttl: 30s
logging:
  level: debug
  pretty: true
proxy:
  listen: ":9090"
redis:
  addr: localhost:6379
  db: 2
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Client.BaseURL != "https://cms.example.com/api" {
		t.Errorf("unexpected base url %s", cfg.Client.BaseURL)
	}
	if cfg.Client.APIKey != "key-123" {
		t.Errorf("env var not expanded: got %s", cfg.Client.APIKey)
	}
	if cfg.Client.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.Client.Timeout)
	}
	if cfg.Client.Retries != 5 || cfg.Client.RetryDelay != 250*time.Millisecond {
		t.Errorf("unexpected retry settings %d/%v", cfg.Client.Retries, cfg.Client.RetryDelay)
	}
	if cfg.Client.Backoff != client.BackoffConstant {
		t.Errorf("expected constant backoff, got %q", cfg.Client.Backoff)
	}
	if !cfg.Client.RetryWrites {
		t.Error("expected retry_writes to be true")
	}
	if cfg.Client.RateLimit.MaxWait != time.Minute {
		t.Errorf("expected 1m max wait, got %v", cfg.Client.RateLimit.MaxWait)
	}
	// Unset fields keep their defaults.
	if cfg.Client.MaxBackoff != 30*time.Second {
		t.Errorf("expected default max backoff, got %v", cfg.Client.MaxBackoff)
	}
	if cfg.Client.RateLimit.ThrottleDelay != 250*time.Millisecond {
		t.Errorf("expected default throttle delay, got %v", cfg.Client.RateLimit.ThrottleDelay)
	}
	if cfg.Cache.Enabled || cfg.Cache.TTL != 30*time.Second {
		t.Errorf("unexpected cache settings %+v", cfg.Cache)
	}
	if cfg.Proxy.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Proxy.Listen)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	cmsCfg := cfg.CMS()
	if cmsCfg.CacheEnabled || cmsCfg.CacheDuration != 30*time.Second {
		t.Errorf("unexpected cms cache settings %+v", cmsCfg)
	}

	logCfg := cfg.LoggerConfig()
	if logCfg.Level != logging.LevelDebug || !logCfg.Pretty {
		t.Errorf("unexpected logging config %+v", logCfg)
	}

	rdb := cfg.RedisClient()
	if rdb == nil {
		t.Fatal("expected redis client")
	}
	defer rdb.Close()
	if rdb.Options().Addr != "localhost:6379" || rdb.Options().DB != 2 {
		t.Errorf("unexpected redis options %s/%d", rdb.Options().Addr, rdb.Options().DB)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("client: [unclosed"))
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestValidate_ReportsAllSections(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"
	cfg.Proxy.Listen = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, section := range []string{"client:", "logging:", "proxy:"} {
		if !strings.Contains(err.Error(), section) {
			t.Errorf("error %q does not mention %s", err, section)
		}
	}
}
