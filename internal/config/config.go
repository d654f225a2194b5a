package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string
	LogLevel  string

	BaseURL        string
	UserAgent      string
	FetchMode      string
	FetchTimeoutMs int
	FetchRetries   int
	ChromePath     string
	PageCacheTTL   int

	DelayMinMs           int
	DelayMaxMs           int
	MaxPages             int
	MaxConsecutiveErrors int
	StopOnEmptyPage      bool

	DifficultyMin      int
	DifficultyMax      int
	ExcludeYearValues  bool
	OnUnresolvedName   string
	CardRequirePercent bool
	JSONMaxDepth       int
	NoisePhrases       []string

	WatchRegions     []string
	WatchIntervalMin int
	WatchPages       int
	WatchAutoExport  bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "climbrank.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		BaseURL:        getEnv("CLIMBFINDER_BASE_URL", "https://climbfinder.com/en/ranking"),
		UserAgent:      getEnv("CLIMBFINDER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"),
		FetchMode:      strings.ToLower(getEnv("FETCH_MODE", "http")),
		FetchTimeoutMs: getEnvInt("FETCH_TIMEOUT_MS", 15000),
		FetchRetries:   getEnvInt("FETCH_RETRIES", 3),
		ChromePath:     getEnv("CHROME_PATH", ""),
		PageCacheTTL:   getEnvInt("PAGE_CACHE_TTL_MIN", 60),

		DelayMinMs:           getEnvInt("DELAY_MIN_MS", 500),
		DelayMaxMs:           getEnvInt("DELAY_MAX_MS", 1500),
		MaxPages:             getEnvInt("MAX_PAGES", 20),
		MaxConsecutiveErrors: getEnvInt("MAX_CONSECUTIVE_ERRORS", 3),
		StopOnEmptyPage:      getEnvBool("STOP_ON_EMPTY_PAGE", false),

		DifficultyMin:      getEnvInt("DIFFICULTY_MIN", 20),
		DifficultyMax:      getEnvInt("DIFFICULTY_MAX", 3000),
		ExcludeYearValues:  getEnvBool("EXCLUDE_YEAR_VALUES", true),
		OnUnresolvedName:   strings.ToLower(getEnv("ON_UNRESOLVED_NAME", "drop")),
		CardRequirePercent: getEnvBool("CARD_REQUIRE_PERCENT", false),
		JSONMaxDepth:       getEnvInt("JSON_MAX_DEPTH", 12),
		NoisePhrases:       getEnvList("NOISE_PHRASES", nil),

		WatchRegions:     getEnvList("WATCH_REGIONS", nil),
		WatchIntervalMin: getEnvInt("WATCH_INTERVAL_MIN", 360),
		WatchPages:       getEnvInt("WATCH_PAGES", 0),
		WatchAutoExport:  getEnvBool("WATCH_AUTO_EXPORT", true),
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.FetchMode {
	case "http", "browser", "auto":
	default:
		return fmt.Errorf("FETCH_MODE must be http, browser or auto, got %q", c.FetchMode)
	}
	switch c.OnUnresolvedName {
	case "drop", "placeholder":
	default:
		return fmt.Errorf("ON_UNRESOLVED_NAME must be drop or placeholder, got %q", c.OnUnresolvedName)
	}
	if c.DelayMinMs < 0 || c.DelayMaxMs < c.DelayMinMs {
		return fmt.Errorf("invalid delay bounds: min=%d max=%d", c.DelayMinMs, c.DelayMaxMs)
	}
	if c.DifficultyMax <= c.DifficultyMin {
		return fmt.Errorf("invalid difficulty range: min=%d max=%d", c.DifficultyMin, c.DifficultyMax)
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
