package rates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultTable(t *testing.T) {
	table := Default()

	rate, err := table.USDRate("EURS")
	if err != nil {
		t.Fatalf("USDRate failed: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("1.084")) {
		t.Errorf("Expected EURS rate 1.084, got %s", rate)
	}

	if _, err := table.USDRate("DOGE"); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("Expected ErrUnknownSymbol, got %v", err)
	}
	if table.HasUSDRate("DOGE") {
		t.Error("HasUSDRate reported an unknown symbol")
	}

	network, err := table.Network("Ethereum")
	if err != nil {
		t.Fatalf("Network failed: %v", err)
	}
	if network.NativeSymbol != "ETH" || !network.BaseGasFeeUSD.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Unexpected Ethereum config: %+v", network)
	}
	if _, err := table.Network("Dogechain"); !errors.Is(err, ErrUnknownNetwork) {
		t.Errorf("Expected ErrUnknownNetwork, got %v", err)
	}

	rail, err := table.Rail("SWIFT")
	if err != nil {
		t.Fatalf("Rail failed: %v", err)
	}
	if !rail.FlatFeeUSD.Equal(decimal.NewFromInt(25)) || !rail.PercentFee.IsZero() {
		t.Errorf("Unexpected SWIFT config: %+v", rail)
	}
	if _, err := table.Rail("RTGS"); !errors.Is(err, ErrUnknownRail) {
		t.Errorf("Expected ErrUnknownRail, got %v", err)
	}

	percent, err := table.TierPercent("instant")
	if err != nil {
		t.Fatalf("TierPercent failed: %v", err)
	}
	if !percent.Equal(decimal.RequireFromString("0.0015")) {
		t.Errorf("Expected instant tier 0.0015, got %s", percent)
	}
	if _, err := table.TierPercent("overnight"); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("Expected ErrUnknownTier, got %v", err)
	}
}

func writeRatesFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rates.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("Failed to write rates file: %v", err)
	}
	return path
}

func TestLoadOverridesSections(t *testing.T) {
	path := writeRatesFile(t, `
usdRates:
  USDC: "1.0"
  GOLD: "2412.50"
networks:
  - name: Base
    baseGasFeeUsd: "0.03"
    nativeSymbol: ETH
`)

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Overridden sections replace the defaults wholesale.
	rate, err := table.USDRate("GOLD")
	if err != nil {
		t.Fatalf("USDRate failed: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("2412.50")) {
		t.Errorf("Expected GOLD rate 2412.50, got %s", rate)
	}
	if _, err := table.USDRate("EURS"); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("Default symbol survived a usdRates override: %v", err)
	}
	if _, err := table.Network("Ethereum"); !errors.Is(err, ErrUnknownNetwork) {
		t.Errorf("Default network survived a networks override: %v", err)
	}

	// Omitted sections keep the defaults.
	if _, err := table.Rail("SEPA"); err != nil {
		t.Errorf("Default rails lost without an override: %v", err)
	}
	if _, err := table.TierPercent("standard"); err != nil {
		t.Errorf("Default tiers lost without an override: %v", err)
	}
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	cases := []struct {
		name     string
		contents string
	}{
		{"bad rate", "usdRates:\n  USDC: \"not-a-number\"\n"},
		{"network without name", "networks:\n  - baseGasFeeUsd: \"1\"\n    nativeSymbol: ETH\n"},
		{"rail with both fees", "rails:\n  - code: X\n    flatFeeUsd: \"1\"\n    percentFee: \"0.001\"\n"},
		{"rail with neither fee", "rails:\n  - code: X\n    label: Nothing\n"},
		{"bad tier", "tiers:\n  instant: \"fast\"\n"},
		{"not yaml", "{{{{"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeRatesFile(t, tc.contents)
			if _, err := Load(path); err == nil {
				t.Error("Expected an error, got none")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
