package config

import (
	"fmt"
	"os"
	"strconv"
)

// ThrottleQuota is a request budget for one endpoint class.
type ThrottleQuota struct {
	Limit      int
	WindowSecs int
}

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port      string
	JWTSecret string
	DBURL     string

	ReadTimeoutSecs  int
	WriteTimeoutSecs int
	IdleTimeoutSecs  int

	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int

	PageSizeDefault int
	PageSizeMax     int

	ThrottleReviewCreate ThrottleQuota
	ThrottleReviewList   ThrottleQuota
	ThrottleReviewDetail ThrottleQuota
	ThrottleAnon         ThrottleQuota
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		DBURL:             os.Getenv("DB_URL"),
		ReadTimeoutSecs:   getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:  getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:   getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:     getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:     getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs: getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:  getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),
		PageSizeDefault:   getEnvInt("PAGE_SIZE_DEFAULT", 20),
		PageSizeMax:       getEnvInt("PAGE_SIZE_MAX", 100),
		ThrottleReviewCreate: ThrottleQuota{
			Limit:      getEnvInt("THROTTLE_REVIEW_CREATE_LIMIT", 5),
			WindowSecs: getEnvInt("THROTTLE_REVIEW_CREATE_WINDOW_SECS", 86400),
		},
		ThrottleReviewList: ThrottleQuota{
			Limit:      getEnvInt("THROTTLE_REVIEW_LIST_LIMIT", 60),
			WindowSecs: getEnvInt("THROTTLE_REVIEW_LIST_WINDOW_SECS", 60),
		},
		ThrottleReviewDetail: ThrottleQuota{
			Limit:      getEnvInt("THROTTLE_REVIEW_DETAIL_LIMIT", 30),
			WindowSecs: getEnvInt("THROTTLE_REVIEW_DETAIL_WINDOW_SECS", 60),
		},
		ThrottleAnon: ThrottleQuota{
			Limit:      getEnvInt("THROTTLE_ANON_LIMIT", 100),
			WindowSecs: getEnvInt("THROTTLE_ANON_WINDOW_SECS", 3600),
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.PageSizeDefault <= 0 {
		return Config{}, fmt.Errorf("PAGE_SIZE_DEFAULT must be positive")
	}
	if cfg.PageSizeMax < cfg.PageSizeDefault {
		return Config{}, fmt.Errorf("PAGE_SIZE_MAX cannot be below PAGE_SIZE_DEFAULT")
	}

	quotas := []struct {
		name  string
		quota ThrottleQuota
	}{
		{"THROTTLE_REVIEW_CREATE", cfg.ThrottleReviewCreate},
		{"THROTTLE_REVIEW_LIST", cfg.ThrottleReviewList},
		{"THROTTLE_REVIEW_DETAIL", cfg.ThrottleReviewDetail},
		{"THROTTLE_ANON", cfg.ThrottleAnon},
	}
	for _, q := range quotas {
		if q.quota.Limit <= 0 {
			return Config{}, fmt.Errorf("%s_LIMIT must be positive", q.name)
		}
		if q.quota.WindowSecs <= 0 {
			return Config{}, fmt.Errorf("%s_WINDOW_SECS must be positive", q.name)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
