package config

import (
	"os"
	"strconv"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	RedisAddr     string
	RedisPassword string

	// DataDir holds per-platform scraped result files under
	// <DataDir>/<platform>/json. CookieDir holds one login session
	// (cookie jar) file per platform. QRDir is the scratch location
	// the login handshake drops QR images into.
	DataDir   string
	CookieDir string
	QRDir     string

	// EngineCmd is the external crawler command registered for every
	// platform. Leave empty to run the dashboard without engines (jobs
	// then fail with a clear per-job error).
	EngineCmd string

	WorkerConcurrency int
	LoginWaitSeconds  int
	TaskMaxRetries    int
	HistoryLimit      int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func Load() Config {
	cfg := Config{
		AppEnv:        getenv("APP_ENV", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8000"),
		RedisAddr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		DataDir:   getenv("DATA_DIR", "./data"),
		CookieDir: getenv("COOKIE_DIR", "./cookies"),
		QRDir:     getenv("QR_DIR", os.TempDir()),
		EngineCmd: os.Getenv("ENGINE_CMD"),

		WorkerConcurrency: getenvInt("WORKER_CONCURRENCY", 4),
		LoginWaitSeconds:  getenvInt("LOGIN_WAIT_SECONDS", 120),
		TaskMaxRetries:    getenvInt("TASK_MAX_RETRIES", 0),
		HistoryLimit:      getenvInt("JOB_HISTORY_LIMIT", 20),
	}
	return cfg
}
