package models

import "time"

// Config represents the application configuration
type Config struct {
	Server     ServerConfig
	Workflow   WorkflowConfig
	Compliance ComplianceConfig
	RatesFile  string
	SeedDemo   bool
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// WorkflowConfig holds approval workflow engine settings
type WorkflowConfig struct {
	ComplianceDelay   time.Duration
	TwoFactorCodeTTL  time.Duration
	SessionTTL        time.Duration
	SessionSweepEvery time.Duration
	ApprovalStepRoles []string
}

// ComplianceConfig selects the simulated compliance-check policy.
type ComplianceConfig struct {
	Mode          string // "always_pass" or "random"
	PassThreshold float64
}
