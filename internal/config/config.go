package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"treasury-desk-go/internal/models"
)

// Load builds the application configuration from environment variables,
// falling back to defaults suitable for a local demo deployment.
func Load() (*models.Config, error) {
	readTimeout, err := getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	complianceDelay, err := getEnvDuration("COMPLIANCE_CHECK_DELAY", 1750*time.Millisecond)
	if err != nil {
		return nil, err
	}

	codeTTL, err := getEnvDuration("TWOFA_CODE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	sessionTTL, err := getEnvDuration("SESSION_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	sweepEvery, err := getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	mode := getEnvString("COMPLIANCE_MODE", "always_pass")
	if mode != "always_pass" && mode != "random" {
		return nil, fmt.Errorf("invalid COMPLIANCE_MODE: %q (want always_pass or random)", mode)
	}

	threshold, err := getEnvFloat("COMPLIANCE_PASS_THRESHOLD", 0.1)
	if err != nil {
		return nil, err
	}
	if threshold < 0 || threshold >= 1 {
		return nil, fmt.Errorf("COMPLIANCE_PASS_THRESHOLD out of range: %v", threshold)
	}

	return &models.Config{
		Server: models.ServerConfig{
			Port:            getEnvString("APP_PORT", "8085"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Workflow: models.WorkflowConfig{
			ComplianceDelay:   complianceDelay,
			TwoFactorCodeTTL:  codeTTL,
			SessionTTL:        sessionTTL,
			SessionSweepEvery: sweepEvery,
			ApprovalStepRoles: []string{"Treasury Ops", "Risk & Compliance"},
		},
		Compliance: models.ComplianceConfig{
			Mode:          mode,
			PassThreshold: threshold,
		},
		RatesFile: getEnvString("RATES_FILE", ""),
		SeedDemo:  getEnvBool("SEED_DEMO_DATA", true),
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	if value := os.Getenv(key); value != "" {
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid float for %s: %q (%w)", key, value, err)
		}
		return floatValue, nil
	}
	return defaultValue, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
