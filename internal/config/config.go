package config

import (
	"os"
	"strconv"

	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
)

// Config carries every tunable of the engine. It is built once at startup and
// passed into constructors; nothing reads feature flags from process state
// after that.
type Config struct {
	Port      string
	JWTSecret string

	// EscalationEnabled gates the escalation sweep loop entirely
	EscalationEnabled bool
	// NotificationsEnabled gates lifecycle notifications (not escalations)
	NotificationsEnabled bool
	// SweepSchedule is a cron expression controlling breach sweeps
	SweepSchedule string
	// SweepCheckIntervalSecs is how often the loop checks whether a sweep is due
	SweepCheckIntervalSecs int
	// SweepBatchLimit bounds requests processed per sweep pass
	SweepBatchLimit int
}

// Load reads configuration from the environment, applying defaults
func Load() Config {
	cfg := Config{
		Port:                   getEnv("PORT", "3001"),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		EscalationEnabled:      getEnvBool("ESCALATION_ENABLED", true),
		NotificationsEnabled:   getEnvBool("NOTIFICATIONS_ENABLED", true),
		SweepSchedule:          getEnv("SLA_SWEEP_SCHEDULE", constants.SweepDefaultSchedule),
		SweepCheckIntervalSecs: getEnvInt("SLA_SWEEP_CHECK_INTERVAL", constants.SweepCheckInterval),
		SweepBatchLimit:        getEnvInt("SLA_SWEEP_BATCH_LIMIT", constants.DefaultRequestFetchMax),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
