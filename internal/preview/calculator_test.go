package preview

import (
	"errors"
	"testing"

	"treasury-desk-go/internal/models"
	"treasury-desk-go/internal/rates"

	"github.com/shopspring/decimal"
)

// fixedRand pins the jitter draw so fee values are deterministic.
type fixedRand struct {
	value float64
}

func (f fixedRand) Float64() float64 { return f.value }

// A draw of 0.5 yields jitter 1.0 (the midpoint of [0.95, 1.05]).
func newPinnedCalculator(t *testing.T) *Calculator {
	t.Helper()
	return NewCalculator(rates.Default(), fixedRand{value: 0.5})
}

func TestQuote_OnChainPinnedJitter(t *testing.T) {
	calc := newPinnedCalculator(t)

	data, err := calc.Quote(models.PreviewRequest{
		Amount:       decimal.NewFromInt(1000),
		SourceSymbol: "USDC",
		Type:         models.PaymentOnChain,
		Network:      "Ethereum",
	})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	// Ethereum base gas 2 USD: fee = (2*1.1 + 0.02) / 1.0 * 1.0 = 2.22
	assertDecimal(t, "platformFee", data.PlatformFee, "0.5")
	assertDecimal(t, "slippageFee", data.SlippageFee, "0.8")
	assertDecimal(t, "networkFee", data.NetworkFee, "2.22")
	assertDecimal(t, "total", data.Total, "1003.52")

	if data.NativeFeeSymbol != "ETH" {
		t.Errorf("Expected native fee symbol ETH, got %q", data.NativeFeeSymbol)
	}
	// 2.22 USD at 3200 USD/ETH
	assertDecimal(t, "networkFeeNative", data.NetworkFeeNative, "0.000694")
}

func TestQuote_OnChainJitterBounds(t *testing.T) {
	calc := NewCalculator(rates.Default(), nil)

	// Real jitter: the network fee must stay within +-5% of 2.22 and
	// the total within the corresponding band.
	low := decimal.RequireFromString("2.10")
	high := decimal.RequireFromString("2.34")

	for i := 0; i < 50; i++ {
		data, err := calc.Quote(models.PreviewRequest{
			Amount:       decimal.NewFromInt(1000),
			SourceSymbol: "USDC",
			Type:         models.PaymentOnChain,
			Network:      "Ethereum",
		})
		if err != nil {
			t.Fatalf("Quote failed: %v", err)
		}
		if data.NetworkFee.LessThan(low) || data.NetworkFee.GreaterThan(high) {
			t.Fatalf("Network fee %s outside [%s, %s]", data.NetworkFee, low, high)
		}
		totalLow := decimal.RequireFromString("1001.3").Add(low)
		totalHigh := decimal.RequireFromString("1001.3").Add(high)
		if data.Total.LessThan(totalLow) || data.Total.GreaterThan(totalHigh) {
			t.Fatalf("Total %s outside [%s, %s]", data.Total, totalLow, totalHigh)
		}
	}
}

func TestQuote_TraditionalWithFx(t *testing.T) {
	calc := newPinnedCalculator(t)

	data, err := calc.Quote(models.PreviewRequest{
		Amount:         decimal.NewFromInt(10000),
		SourceSymbol:   "EURS",
		Type:           models.PaymentTraditional,
		Rail:           "SEPA",
		SettlementTier: "same-day",
		TargetCurrency: "USD",
	})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	assertDecimal(t, "platformFee", data.PlatformFee, "5")
	assertDecimal(t, "settlementFee", data.SettlementFee, "8")
	// 1.5 USD flat at 1.084 USD/EURS
	assertDecimal(t, "railFee", data.RailFee, "1.38")
	assertDecimal(t, "genericBankFee", data.GenericBankFee, "2")
	assertDecimal(t, "fxSpreadFee", data.FxSpreadFee, "10")
	assertDecimal(t, "exchangeRate", data.ExchangeRate, "1.084")
	assertDecimal(t, "receivedAmount", data.ReceivedAmount, "10840")
	assertDecimal(t, "total", data.Total, "10026.38")
}

func TestQuote_InternalReducedPlatformFee(t *testing.T) {
	calc := newPinnedCalculator(t)

	data, err := calc.Quote(models.PreviewRequest{
		Amount:       decimal.NewFromInt(1000),
		SourceSymbol: "USDC",
		Type:         models.PaymentInternal,
	})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	assertDecimal(t, "platformFee", data.PlatformFee, "0.25")
	assertDecimal(t, "total", data.Total, "1000.25")
	if !data.NetworkFee.IsZero() || !data.SettlementFee.IsZero() || !data.FxSpreadFee.IsZero() {
		t.Errorf("Internal transfer must only carry the platform fee: %+v", data)
	}
}

// Internal transfers never convert, so neither a target currency nor a
// source symbol outside the rate table may affect the quote.
func TestQuote_InternalIgnoresTargetCurrency(t *testing.T) {
	calc := newPinnedCalculator(t)

	data, err := calc.Quote(models.PreviewRequest{
		Amount:         decimal.NewFromInt(1000),
		SourceSymbol:   "AUGT",
		Type:           models.PaymentInternal,
		TargetCurrency: "USD",
	})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	assertDecimal(t, "platformFee", data.PlatformFee, "0.25")
	assertDecimal(t, "total", data.Total, "1000.25")
	if !data.FxSpreadFee.IsZero() || !data.ExchangeRate.IsZero() {
		t.Errorf("FX applied to an internal transfer: %+v", data)
	}
}

// Total must equal the amount plus every non-zero fee component across
// all payment types.
func TestQuote_TotalComposition(t *testing.T) {
	calc := newPinnedCalculator(t)

	requests := []models.PreviewRequest{
		{Amount: decimal.RequireFromString("123.45"), SourceSymbol: "USDC", Type: models.PaymentOnChain, Network: "Polygon"},
		{Amount: decimal.NewFromInt(50000), SourceSymbol: "EURS", Type: models.PaymentOnChain, Network: "Ethereum", TargetCurrency: "GBP"},
		{Amount: decimal.NewFromInt(777), SourceSymbol: "USD", Type: models.PaymentTraditional, Rail: "ACH", SettlementTier: "instant"},
		{Amount: decimal.RequireFromString("0.07"), SourceSymbol: "USDC", Type: models.PaymentInternal},
	}

	for _, req := range requests {
		data, err := calc.Quote(req)
		if err != nil {
			t.Fatalf("Quote(%s %s) failed: %v", req.Amount, req.Type, err)
		}

		expected := req.Amount
		for _, fee := range data.Fees() {
			expected = expected.Add(fee)
		}
		expected = expected.Round(2)

		if !data.Total.Equal(expected) {
			t.Errorf("Total for %s %s: got %s, want %s", req.Amount, req.Type, data.Total, expected)
		}
	}
}

func TestQuote_NonPositiveAmountZeroed(t *testing.T) {
	calc := newPinnedCalculator(t)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		data, err := calc.Quote(models.PreviewRequest{
			Amount:       amount,
			SourceSymbol: "USDC",
			Type:         models.PaymentOnChain,
			Network:      "Ethereum",
		})
		if err != nil {
			t.Fatalf("Quote failed: %v", err)
		}
		if !data.Total.IsZero() || !data.PlatformFee.IsZero() {
			t.Errorf("Expected zeroed preview for amount %s, got %+v", amount, data)
		}
	}
}

func TestQuote_UnknownSymbol(t *testing.T) {
	calc := newPinnedCalculator(t)

	_, err := calc.Quote(models.PreviewRequest{
		Amount:       decimal.NewFromInt(100),
		SourceSymbol: "XXX",
		Type:         models.PaymentOnChain,
		Network:      "Ethereum",
	})
	if !errors.Is(err, rates.ErrUnknownSymbol) {
		t.Fatalf("Expected ErrUnknownSymbol, got %v", err)
	}
}

func TestQuote_UnknownNetwork(t *testing.T) {
	calc := newPinnedCalculator(t)

	_, err := calc.Quote(models.PreviewRequest{
		Amount:       decimal.NewFromInt(100),
		SourceSymbol: "USDC",
		Type:         models.PaymentOnChain,
		Network:      "Dogechain",
	})
	if !errors.Is(err, rates.ErrUnknownNetwork) {
		t.Fatalf("Expected ErrUnknownNetwork, got %v", err)
	}
}

func TestCrossRate(t *testing.T) {
	calc := newPinnedCalculator(t)

	rate, err := calc.CrossRate("EURS", "USDC")
	if err != nil {
		t.Fatalf("CrossRate failed: %v", err)
	}
	assertDecimal(t, "EURS/USDC", rate, "1.084")

	if _, err := calc.CrossRate("USDC", "XXX"); !errors.Is(err, rates.ErrUnknownSymbol) {
		t.Fatalf("Expected ErrUnknownSymbol, got %v", err)
	}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	expected := decimal.RequireFromString(want)
	if !got.Equal(expected) {
		t.Errorf("%s: got %s, want %s", name, got, expected)
	}
}
