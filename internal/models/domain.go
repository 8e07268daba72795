package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplyMode distinguishes assets with a fixed issued supply from
// open-ended ones.
type SupplyMode string

const (
	SupplyFinite   SupplyMode = "Finite"
	SupplyInfinite SupplyMode = "Infinite"
)

// Asset represents a managed value unit under treasury control.
type Asset struct {
	ID                string          `json:"id"`
	Label             string          `json:"label"`
	Symbol            string          `json:"symbol"`
	Balance           decimal.Decimal `json:"balance"`
	TotalSupplyIssued decimal.Decimal `json:"totalSupplyIssued"`
	Supply            SupplyMode      `json:"supply"`
	Blockchain        string          `json:"blockchain,omitempty"`
	IsInstitutional   bool            `json:"isInstitutional"`
	IsWizardIssued    bool            `json:"isWizardIssued"`
	AssetClass        string          `json:"assetClass,omitempty"`
	CustodyType       string          `json:"custodyType,omitempty"`
	Price             decimal.Decimal `json:"price"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Reserve returns the held-back portion of a finite supply: the issued
// total not currently in circulation, clamped to zero.
func (a Asset) Reserve() decimal.Decimal {
	if a.Supply != SupplyFinite {
		return decimal.Zero
	}
	reserve := a.TotalSupplyIssued.Sub(a.Balance)
	if reserve.IsNegative() {
		return decimal.Zero
	}
	return reserve
}

// OrderType classifies treasury-level asset orders.
type OrderType string

const (
	OrderSale             OrderType = "Sale"
	OrderInternalTransfer OrderType = "Internal Transfer"
	OrderPayment          OrderType = "Payment"
)

// OrderStatus tracks the lifecycle of an asset order.
type OrderStatus string

const (
	OrderPendingApproval OrderStatus = "Pending Approval"
	OrderCompleted       OrderStatus = "Completed"
	OrderFailed          OrderStatus = "Failed"
)

// AssetOrder is a request to move, sell or convert an asset. Orders are
// created in Pending Approval and mutated in place by status updates;
// they are never removed.
type AssetOrder struct {
	ID             string          `json:"id"`
	Timestamp      time.Time       `json:"timestamp"`
	Type           OrderType       `json:"type"`
	AssetID        string          `json:"assetId"`
	Amount         decimal.Decimal `json:"amount"`
	From           string          `json:"from"`
	To             string          `json:"to"`
	Status         OrderStatus     `json:"status"`
	RequestedBy    string          `json:"requestedBy"`
	Approver       string          `json:"approver,omitempty"`
	Rate           decimal.Decimal `json:"rate"`
	ReceivedSymbol string          `json:"receivedSymbol,omitempty"`
	ReceivedAmount decimal.Decimal `json:"receivedAmount"`
	Notes          string          `json:"notes,omitempty"`
}

// ActionType names the auditable treasury operations.
type ActionType string

const (
	ActionMint    ActionType = "Mint"
	ActionBurn    ActionType = "Burn"
	ActionRedeem  ActionType = "Redeem"
	ActionSwapIn  ActionType = "Swap In"
	ActionSwapOut ActionType = "Swap Out"
	ActionIssue   ActionType = "Issue"
)

// TokenHistoryEvent is an append-only audit record. Events are never
// mutated after creation; the history list is kept sorted descending by
// timestamp.
type TokenHistoryEvent struct {
	ID          string     `json:"id"`
	Timestamp   time.Time  `json:"timestamp"`
	ActionType  ActionType `json:"actionType"`
	Details     string     `json:"details"`
	User        string     `json:"user"`
	Approver    string     `json:"approver,omitempty"`
	AssetID     string     `json:"assetId"`
	AssetSymbol string     `json:"assetSymbol"`
	AssetName   string     `json:"assetName"`
	Notes       string     `json:"notes,omitempty"`
}
