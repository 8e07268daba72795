package models

import "github.com/shopspring/decimal"

// PaymentType selects which fee schedule applies to a transfer.
type PaymentType string

const (
	PaymentOnChain     PaymentType = "on-chain"
	PaymentTraditional PaymentType = "traditional"
	PaymentInternal    PaymentType = "internal"
)

// PreviewRequest carries the inputs of a fee preview. Type-specific
// fields are ignored for the other payment types.
type PreviewRequest struct {
	Amount         decimal.Decimal
	SourceSymbol   string
	Type           PaymentType
	Network        string // on-chain: destination network
	Rail           string // traditional: rail code
	SettlementTier string // traditional: settlement speed tier
	TargetCurrency string // optional, cross-currency client payments
}

// PreviewData is the derived fee breakdown for a pending transfer. It is
// a pure function of the request plus the rate table; it is recomputed,
// never mutated.
type PreviewData struct {
	PaymentAmount    decimal.Decimal `json:"paymentAmount"`
	PlatformFee      decimal.Decimal `json:"platformFee"`
	NetworkFee       decimal.Decimal `json:"networkFee"`
	NetworkFeeNative decimal.Decimal `json:"networkFeeNative"`
	NativeFeeSymbol  string          `json:"nativeFeeSymbol,omitempty"`
	SlippageFee      decimal.Decimal `json:"slippageFee"`
	SettlementFee    decimal.Decimal `json:"settlementFee"`
	RailFee          decimal.Decimal `json:"railFee"`
	GenericBankFee   decimal.Decimal `json:"genericBankFee"`
	FxSpreadFee      decimal.Decimal `json:"fxSpreadFee"`
	ExchangeRate     decimal.Decimal `json:"exchangeRate"`
	ReceivedAmount   decimal.Decimal `json:"receivedAmount"`
	Total            decimal.Decimal `json:"total"`
}

// Fees returns the non-zero fee components of the preview, excluding the
// payment amount itself.
func (p PreviewData) Fees() []decimal.Decimal {
	all := []decimal.Decimal{
		p.PlatformFee,
		p.NetworkFee,
		p.SlippageFee,
		p.SettlementFee,
		p.RailFee,
		p.GenericBankFee,
		p.FxSpreadFee,
	}
	fees := make([]decimal.Decimal, 0, len(all))
	for _, f := range all {
		if !f.IsZero() {
			fees = append(fees, f)
		}
	}
	return fees
}
