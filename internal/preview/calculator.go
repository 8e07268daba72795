package preview

import (
	"fmt"
	"math/rand"

	"treasury-desk-go/internal/models"
	"treasury-desk-go/internal/rates"

	"github.com/shopspring/decimal"
)

// Fee schedule constants. Percentages are fractions of the payment
// amount; flat values are USD.
var (
	platformFeeRate         = decimal.RequireFromString("0.0005")
	internalPlatformFeeRate = decimal.RequireFromString("0.00025")
	slippageFeeRate         = decimal.RequireFromString("0.0008")
	genericBankFeeRate      = decimal.RequireFromString("0.0002")
	fxSpreadFeeRate         = decimal.RequireFromString("0.001")
	gasMarkup               = decimal.RequireFromString("1.1")
	gasFlatUSD              = decimal.RequireFromString("0.02")
)

// Rand is the jitter source for network fee estimates. Tests inject a
// fixed source; production uses math/rand.
type Rand interface {
	Float64() float64
}

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }

// Calculator computes fee previews against a rate table. Quote is pure
// apart from the injected jitter source.
type Calculator struct {
	table  *rates.Table
	jitter Rand
}

// NewCalculator builds a calculator over the given rate table. A nil
// jitter source falls back to math/rand.
func NewCalculator(table *rates.Table, jitter Rand) *Calculator {
	if jitter == nil {
		jitter = systemRand{}
	}
	return &Calculator{table: table, jitter: jitter}
}

// CrossRate returns the source-to-target conversion rate implied by the
// USD rate table.
func (c *Calculator) CrossRate(sourceSymbol, targetSymbol string) (decimal.Decimal, error) {
	sourceRate, err := c.table.USDRate(sourceSymbol)
	if err != nil {
		return decimal.Zero, err
	}
	targetRate, err := c.table.USDRate(targetSymbol)
	if err != nil {
		return decimal.Zero, err
	}
	return sourceRate.Div(targetRate).Round(8), nil
}

// Quote computes the estimated total debit, fee breakdown and FX
// conversion for a pending transfer. A non-positive amount yields a
// zeroed preview; an unknown source symbol is an error.
func (c *Calculator) Quote(req models.PreviewRequest) (models.PreviewData, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return models.PreviewData{}, nil
	}

	data := models.PreviewData{PaymentAmount: req.Amount}

	platformRate := platformFeeRate
	if req.Type == models.PaymentInternal {
		platformRate = internalPlatformFeeRate
	}
	data.PlatformFee = req.Amount.Mul(platformRate).Round(2)

	var sourceRate decimal.Decimal
	if req.Type != models.PaymentInternal {
		var err error
		sourceRate, err = c.table.USDRate(req.SourceSymbol)
		if err != nil {
			return models.PreviewData{}, err
		}
	}

	switch req.Type {
	case models.PaymentOnChain:
		network, err := c.table.Network(req.Network)
		if err != nil {
			return models.PreviewData{}, err
		}

		networkFeeUSD := network.BaseGasFeeUSD.Mul(gasMarkup).Add(gasFlatUSD)
		jitter := decimal.NewFromFloat(0.95 + 0.10*c.jitter.Float64())
		data.NetworkFee = networkFeeUSD.Div(sourceRate).Mul(jitter).Round(2)
		data.SlippageFee = req.Amount.Mul(slippageFeeRate).Round(2)

		if c.table.HasUSDRate(network.NativeSymbol) {
			nativeRate, _ := c.table.USDRate(network.NativeSymbol)
			data.NetworkFeeNative = networkFeeUSD.Div(nativeRate).Round(6)
			data.NativeFeeSymbol = network.NativeSymbol
		}

	case models.PaymentTraditional:
		tierPercent, err := c.table.TierPercent(req.SettlementTier)
		if err != nil {
			return models.PreviewData{}, err
		}
		rail, err := c.table.Rail(req.Rail)
		if err != nil {
			return models.PreviewData{}, err
		}

		data.SettlementFee = req.Amount.Mul(tierPercent).Round(2)
		if !rail.FlatFeeUSD.IsZero() {
			data.RailFee = rail.FlatFeeUSD.Div(sourceRate).Round(2)
		} else {
			data.RailFee = req.Amount.Mul(rail.PercentFee).Round(2)
		}
		data.GenericBankFee = req.Amount.Mul(genericBankFeeRate).Round(2)

	case models.PaymentInternal:
		// Platform fee only.

	default:
		return models.PreviewData{}, fmt.Errorf("unknown payment type: %q", req.Type)
	}

	if req.TargetCurrency != "" && req.Type != models.PaymentInternal && req.TargetCurrency != req.SourceSymbol {
		targetRate, err := c.table.USDRate(req.TargetCurrency)
		if err != nil {
			return models.PreviewData{}, err
		}
		data.ExchangeRate = sourceRate.Div(targetRate).Round(8)
		data.ReceivedAmount = req.Amount.Mul(data.ExchangeRate).Round(2)
		data.FxSpreadFee = req.Amount.Mul(fxSpreadFeeRate).Round(2)
	}

	total := req.Amount
	for _, fee := range data.Fees() {
		total = total.Add(fee)
	}
	data.Total = total.Round(2)

	return data, nil
}
