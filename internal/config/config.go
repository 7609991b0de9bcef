package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr      string        `envconfig:"HTTP_ADDR" default:":8080"`
	BasePublicURL string        `envconfig:"BASE_PUBLIC_URL"`
	StaticDir     string        `envconfig:"STATIC_DIR" default:"web"`
	AssetCacheTTL time.Duration `envconfig:"ASSET_CACHE_TTL" default:"1h"`
	ExportSecret  string        `envconfig:"EXPORT_SECRET" default:"change-me"`

	CategoriesRaw string   `envconfig:"KDO_CATEGORIES"`
	Categories    []string `ignored:"true"`

	StoreDriver   string `envconfig:"STORE_DRIVER" default:"badger"`
	BadgerDir     string `envconfig:"BADGER_DIR" default:"data/badger"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"data/kdo.db"`

	SpreadsheetID            string `envconfig:"GOOGLE_SHEETS_SPREADSHEET_ID"`
	GoogleServiceAccountJSON string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	SheetsTab                string `envconfig:"SHEETS_TAB" default:"Storage"`

	TelegramToken string         `envconfig:"TELEGRAM_BOT_TOKEN"`
	AdminIDsRaw   string         `envconfig:"ADMIN_TG_IDS"`
	AdminTGIDs    map[int64]bool `ignored:"true"`

	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	GeminiModel    string `envconfig:"GEMINI_MODEL" default:"gemini-3-flash-preview"`
	TextgenOffline bool   `envconfig:"TEXTGEN_OFFLINE" default:"false"`

	TimingSource         string        `envconfig:"TIMING_SOURCE" default:"auto"`
	SettingsPollInterval time.Duration `envconfig:"SETTINGS_POLL_INTERVAL" default:"5s"`
	MonitorInterval      time.Duration `envconfig:"MONITOR_INTERVAL" default:"800ms"`
	TimingInterval       time.Duration `envconfig:"TIMING_INTERVAL" default:"1500ms"`

	BootstrapAdminPassword string `envconfig:"BOOTSTRAP_ADMIN_PASSWORD"`
	Debug                  bool   `envconfig:"DEBUG" default:"false"`
}

func FromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}

	c.HTTPAddr = strings.TrimSpace(c.HTTPAddr)
	c.BasePublicURL = strings.TrimRight(strings.TrimSpace(c.BasePublicURL), "/")
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.TimingSource = strings.ToLower(strings.TrimSpace(c.TimingSource))
	c.TelegramToken = strings.TrimSpace(c.TelegramToken)
	c.SpreadsheetID = strings.TrimSpace(c.SpreadsheetID)
	c.GoogleServiceAccountJSON = strings.TrimSpace(c.GoogleServiceAccountJSON)
	c.GeminiAPIKey = strings.TrimSpace(c.GeminiAPIKey)
	c.AdminTGIDs = parseAdminIDs(c.AdminIDsRaw)
	c.Categories = splitList(c.CategoriesRaw)
	if c.StoreDriver == "" {
		c.StoreDriver = "badger"
	}
	if c.TimingSource == "" {
		c.TimingSource = "auto"
	}

	switch c.StoreDriver {
	case "memory", "badger", "redis", "sqlite":
	case "sheets":
		if c.SpreadsheetID == "" {
			return c, fmt.Errorf("GOOGLE_SHEETS_SPREADSHEET_ID is empty")
		}
		if c.GoogleServiceAccountJSON == "" {
			return c, fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_JSON is empty")
		}
	default:
		return c, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.TimingSource {
	case "auto", "simulator", "orbits":
	default:
		return c, fmt.Errorf("unknown TIMING_SOURCE %q", c.TimingSource)
	}

	return c, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAdminIDs(raw string) map[int64]bool {
	m := map[int64]bool{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return m
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		m[v] = true
	}
	return m
}
