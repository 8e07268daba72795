package workflow

import (
	"fmt"
	"math/rand"

	"treasury-desk-go/internal/models"
)

// ComplianceChecker decides the outcome of the simulated compliance
// check. The legacy screens disagreed on this behavior (always-pass vs
// a random threshold), so the policy is injected rather than hardcoded.
type ComplianceChecker interface {
	Pass() bool
}

// AlwaysPass approves every request.
type AlwaysPass struct{}

func (AlwaysPass) Pass() bool { return true }

// RandomThreshold passes when the drawn value exceeds the threshold,
// e.g. threshold 0.1 approves roughly 90% of requests.
type RandomThreshold struct {
	Threshold float64
	Rand      func() float64 // nil means math/rand
}

func (r RandomThreshold) Pass() bool {
	draw := r.Rand
	if draw == nil {
		draw = rand.Float64
	}
	return draw() > r.Threshold
}

// CheckerFromConfig builds the configured compliance policy.
func CheckerFromConfig(cfg models.ComplianceConfig) (ComplianceChecker, error) {
	switch cfg.Mode {
	case "always_pass":
		return AlwaysPass{}, nil
	case "random":
		return RandomThreshold{Threshold: cfg.PassThreshold}, nil
	}
	return nil, fmt.Errorf("unknown compliance mode: %q", cfg.Mode)
}
