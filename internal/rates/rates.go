package rates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// ErrUnknownSymbol is returned when a symbol has no USD rate in the table.
var ErrUnknownSymbol = errors.New("no USD rate for symbol")

// ErrUnknownNetwork is returned when an on-chain network is not configured.
var ErrUnknownNetwork = errors.New("unknown network")

// ErrUnknownRail is returned when a traditional rail code is not configured.
var ErrUnknownRail = errors.New("unknown rail")

// ErrUnknownTier is returned when a settlement speed tier is not configured.
var ErrUnknownTier = errors.New("unknown settlement tier")

// Network describes an on-chain destination network.
type Network struct {
	Name          string
	BaseGasFeeUSD decimal.Decimal
	NativeSymbol  string
}

// Rail describes a traditional payment rail. Exactly one of FlatFeeUSD
// or PercentFee is non-zero.
type Rail struct {
	Code       string
	Label      string
	FlatFeeUSD decimal.Decimal
	PercentFee decimal.Decimal
}

// Table holds the static reference data the preview calculator runs on:
// USD rates per symbol, network gas baselines, rail fees and settlement
// speed tiers.
type Table struct {
	usdRates map[string]decimal.Decimal
	networks map[string]Network
	rails    map[string]Rail
	tiers    map[string]decimal.Decimal
}

// USDRate returns the USD unit value of a symbol.
func (t *Table) USDRate(symbol string) (decimal.Decimal, error) {
	rate, ok := t.usdRates[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return rate, nil
}

// HasUSDRate reports whether a USD rate is known for the symbol.
func (t *Table) HasUSDRate(symbol string) bool {
	_, ok := t.usdRates[symbol]
	return ok
}

// Network returns the configuration of an on-chain network.
func (t *Table) Network(name string) (Network, error) {
	network, ok := t.networks[name]
	if !ok {
		return Network{}, fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
	}
	return network, nil
}

// Rail returns the configuration of a traditional rail.
func (t *Table) Rail(code string) (Rail, error) {
	rail, ok := t.rails[code]
	if !ok {
		return Rail{}, fmt.Errorf("%w: %s", ErrUnknownRail, code)
	}
	return rail, nil
}

// TierPercent returns the settlement fee percentage of a speed tier.
func (t *Table) TierPercent(name string) (decimal.Decimal, error) {
	percent, ok := t.tiers[name]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownTier, name)
	}
	return percent, nil
}

// Default returns the built-in rate table used when no rates file is
// configured. Rates are fixed reference values, not live market data.
func Default() *Table {
	return &Table{
		usdRates: map[string]decimal.Decimal{
			"USDC":  decimal.RequireFromString("1.0"),
			"USDT":  decimal.RequireFromString("0.9998"),
			"USD":   decimal.RequireFromString("1.0"),
			"EUR":   decimal.RequireFromString("1.085"),
			"GBP":   decimal.RequireFromString("1.27"),
			"EURS":  decimal.RequireFromString("1.084"),
			"ETH":   decimal.RequireFromString("3200"),
			"SOL":   decimal.RequireFromString("145"),
			"MATIC": decimal.RequireFromString("0.72"),
			"XLM":   decimal.RequireFromString("0.11"),
		},
		networks: map[string]Network{
			"Ethereum": {Name: "Ethereum", BaseGasFeeUSD: decimal.RequireFromString("2"), NativeSymbol: "ETH"},
			"Polygon":  {Name: "Polygon", BaseGasFeeUSD: decimal.RequireFromString("0.05"), NativeSymbol: "MATIC"},
			"Solana":   {Name: "Solana", BaseGasFeeUSD: decimal.RequireFromString("0.01"), NativeSymbol: "SOL"},
			"Stellar":  {Name: "Stellar", BaseGasFeeUSD: decimal.RequireFromString("0.002"), NativeSymbol: "XLM"},
		},
		rails: map[string]Rail{
			"SWIFT": {Code: "SWIFT", Label: "SWIFT wire", FlatFeeUSD: decimal.RequireFromString("25")},
			"SEPA":  {Code: "SEPA", Label: "SEPA credit transfer", FlatFeeUSD: decimal.RequireFromString("1.5")},
			"ACH":   {Code: "ACH", Label: "ACH", PercentFee: decimal.RequireFromString("0.0001")},
			"FPS":   {Code: "FPS", Label: "UK Faster Payments", PercentFee: decimal.RequireFromString("0.00015")},
		},
		tiers: map[string]decimal.Decimal{
			"standard": decimal.RequireFromString("0.0003"),
			"same-day": decimal.RequireFromString("0.0008"),
			"instant":  decimal.RequireFromString("0.0015"),
		},
	}
}

type tableFile struct {
	USDRates map[string]string `yaml:"usdRates"`
	Networks []struct {
		Name          string `yaml:"name"`
		BaseGasFeeUSD string `yaml:"baseGasFeeUsd"`
		NativeSymbol  string `yaml:"nativeSymbol"`
	} `yaml:"networks"`
	Rails []struct {
		Code       string `yaml:"code"`
		Label      string `yaml:"label"`
		FlatFeeUSD string `yaml:"flatFeeUsd"`
		PercentFee string `yaml:"percentFee"`
	} `yaml:"rails"`
	Tiers map[string]string `yaml:"tiers"`
}

// Load reads a rate table from a YAML file. Entries replace the built-in
// defaults wholesale per section; omitted sections keep the defaults.
func Load(ratesFile string) (*Table, error) {
	var ratesPath string
	if filepath.IsAbs(ratesFile) {
		ratesPath = ratesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		ratesPath = filepath.Join(wd, ratesFile)
	}

	data, err := os.ReadFile(ratesPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", ratesFile, err)
	}

	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", ratesFile, err)
	}

	table := Default()

	if len(file.USDRates) > 0 {
		table.usdRates = make(map[string]decimal.Decimal, len(file.USDRates))
		for symbol, raw := range file.USDRates {
			rate, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid USD rate for %s: %w", symbol, err)
			}
			table.usdRates[symbol] = rate
		}
	}

	if len(file.Networks) > 0 {
		table.networks = make(map[string]Network, len(file.Networks))
		for i, n := range file.Networks {
			if n.Name == "" {
				return nil, fmt.Errorf("network at index %d missing name", i)
			}
			gas, err := decimal.NewFromString(n.BaseGasFeeUSD)
			if err != nil {
				return nil, fmt.Errorf("invalid base gas fee for %s: %w", n.Name, err)
			}
			table.networks[n.Name] = Network{Name: n.Name, BaseGasFeeUSD: gas, NativeSymbol: n.NativeSymbol}
		}
	}

	if len(file.Rails) > 0 {
		table.rails = make(map[string]Rail, len(file.Rails))
		for i, r := range file.Rails {
			if r.Code == "" {
				return nil, fmt.Errorf("rail at index %d missing code", i)
			}
			rail := Rail{Code: r.Code, Label: r.Label}
			if r.FlatFeeUSD != "" {
				rail.FlatFeeUSD, err = decimal.NewFromString(r.FlatFeeUSD)
				if err != nil {
					return nil, fmt.Errorf("invalid flat fee for rail %s: %w", r.Code, err)
				}
			}
			if r.PercentFee != "" {
				rail.PercentFee, err = decimal.NewFromString(r.PercentFee)
				if err != nil {
					return nil, fmt.Errorf("invalid percent fee for rail %s: %w", r.Code, err)
				}
			}
			if rail.FlatFeeUSD.IsZero() == rail.PercentFee.IsZero() {
				return nil, fmt.Errorf("rail %s must set exactly one of flatFeeUsd or percentFee", r.Code)
			}
			table.rails[r.Code] = rail
		}
	}

	if len(file.Tiers) > 0 {
		table.tiers = make(map[string]decimal.Decimal, len(file.Tiers))
		for name, raw := range file.Tiers {
			percent, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid settlement tier %s: %w", name, err)
			}
			table.tiers[name] = percent
		}
	}

	return table, nil
}
