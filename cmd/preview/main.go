package main

import (
	"flag"
	"fmt"
	"os"

	"treasury-desk-go/internal/common"
	"treasury-desk-go/internal/models"
	"treasury-desk-go/internal/preview"
	"treasury-desk-go/internal/rates"

	"github.com/shopspring/decimal"
)

// Prints a fee preview for a hypothetical transfer without touching any
// state. Useful for checking rate table changes from the command line.
func main() {
	amountFlag := flag.String("amount", "", "Transfer amount (required)")
	symbolFlag := flag.String("symbol", "USDC", "Source asset symbol")
	typeFlag := flag.String("type", "on-chain", "Payment type: on-chain, traditional or internal")
	networkFlag := flag.String("network", "Ethereum", "Destination network (on-chain)")
	railFlag := flag.String("rail", "SWIFT", "Payment rail (traditional)")
	tierFlag := flag.String("tier", "standard", "Settlement speed tier (traditional)")
	targetFlag := flag.String("target", "", "Target currency for FX conversion (optional)")
	ratesFlag := flag.String("rates", "", "Optional path to a rates.yaml override")
	flag.Parse()

	if *amountFlag == "" {
		fmt.Fprintln(os.Stderr, "Usage: preview -amount 1000 [-symbol USDC] [-type on-chain] ...")
		os.Exit(2)
	}
	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid amount %q: %v\n", *amountFlag, err)
		os.Exit(2)
	}

	table := rates.Default()
	if *ratesFlag != "" {
		table, err = rates.Load(*ratesFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load rates file: %v\n", err)
			os.Exit(1)
		}
	}

	calc := preview.NewCalculator(table, nil)
	data, err := calc.Quote(models.PreviewRequest{
		Amount:         amount,
		SourceSymbol:   *symbolFlag,
		Type:           models.PaymentType(*typeFlag),
		Network:        *networkFlag,
		Rail:           *railFlag,
		SettlementTier: *tierFlag,
		TargetCurrency: *targetFlag,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Preview failed: %v\n", err)
		os.Exit(1)
	}

	common.PrintHeader(fmt.Sprintf("Fee preview: %s %s (%s)", amount, *symbolFlag, *typeFlag), common.DefaultWidth)

	printLine := func(label string, value decimal.Decimal, suffix string) {
		if value.IsZero() {
			return
		}
		fmt.Printf("  %-22s %s %s\n", label, value, suffix)
	}

	printLine("Payment amount", data.PaymentAmount, *symbolFlag)
	printLine("Platform fee", data.PlatformFee, *symbolFlag)
	printLine("Network fee", data.NetworkFee, *symbolFlag)
	if data.NativeFeeSymbol != "" {
		printLine("Network fee (native)", data.NetworkFeeNative, data.NativeFeeSymbol)
	}
	printLine("Slippage fee", data.SlippageFee, *symbolFlag)
	printLine("Settlement fee", data.SettlementFee, *symbolFlag)
	printLine("Rail fee", data.RailFee, *symbolFlag)
	printLine("Bank fee", data.GenericBankFee, *symbolFlag)
	printLine("FX spread fee", data.FxSpreadFee, *symbolFlag)
	if !data.ExchangeRate.IsZero() {
		fmt.Printf("  %-22s %s\n", "Exchange rate", data.ExchangeRate)
		printLine("Received amount", data.ReceivedAmount, *targetFlag)
	}

	common.PrintFooter(fmt.Sprintf("Total debit: %s %s", data.Total, *symbolFlag), common.DefaultWidth)
}
