package seed

import (
	"time"

	"treasury-desk-go/internal/models"
	"treasury-desk-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Demo populates the store with the fixed demo book used by the
// dashboard screens: a few institutional assets, a pending sale order
// and a short audit trail.
func Demo(st *store.Store) error {
	now := time.Now().UTC()

	goldID := uuid.New().String()
	eurID := uuid.New().String()
	usdcID := uuid.New().String()

	assets := []models.Asset{
		{
			ID:                goldID,
			Label:             "Aurum Gold Token",
			Symbol:            "AUGT",
			Balance:           decimal.RequireFromString("1000000"),
			TotalSupplyIssued: decimal.RequireFromString("1500000"),
			Supply:            models.SupplyFinite,
			Blockchain:        "Ethereum",
			IsInstitutional:   true,
			IsWizardIssued:    true,
			AssetClass:        "Commodity",
			CustodyType:       "Qualified Custodian",
			Price:             decimal.RequireFromString("2.35"),
		},
		{
			ID:              eurID,
			Label:           "Euro Settlement Token",
			Symbol:          "EURS",
			Balance:         decimal.RequireFromString("5250000"),
			Supply:          models.SupplyInfinite,
			Blockchain:      "Polygon",
			IsInstitutional: true,
			AssetClass:      "Fiat-backed",
			CustodyType:     "Self-custody",
			Price:           decimal.RequireFromString("1.084"),
		},
		{
			ID:              usdcID,
			Label:           "Operating USDC",
			Symbol:          "USDC",
			Balance:         decimal.RequireFromString("12400000"),
			Supply:          models.SupplyInfinite,
			Blockchain:      "Ethereum",
			IsInstitutional: true,
			AssetClass:      "Fiat-backed",
			CustodyType:     "Qualified Custodian",
			Price:           decimal.RequireFromString("1.0"),
		},
	}

	for _, asset := range assets {
		if err := st.Dispatch(store.AddAsset{Asset: asset}); err != nil {
			return err
		}
	}

	if err := st.Dispatch(store.AddOrder{Order: models.AssetOrder{
		ID:             uuid.New().String(),
		Timestamp:      now.Add(-26 * time.Hour),
		Type:           models.OrderSale,
		AssetID:        goldID,
		Amount:         decimal.RequireFromString("25000"),
		From:           "Treasury Reserve",
		To:             "Meridian Capital LLC",
		Status:         models.OrderPendingApproval,
		RequestedBy:    "t.okafor",
		Rate:           decimal.RequireFromString("2.35"),
		ReceivedSymbol: "USD",
		ReceivedAmount: decimal.RequireFromString("58750"),
		Notes:          "Quarterly allocation",
	}}); err != nil {
		return err
	}

	history := []models.TokenHistoryEvent{
		{
			ID:          uuid.New().String(),
			Timestamp:   now.Add(-72 * time.Hour),
			ActionType:  models.ActionIssue,
			Details:     "Issued Aurum Gold Token (AUGT)",
			User:        "m.laurent",
			AssetID:     goldID,
			AssetSymbol: "AUGT",
			AssetName:   "Aurum Gold Token",
		},
		{
			ID:          uuid.New().String(),
			Timestamp:   now.Add(-48 * time.Hour),
			ActionType:  models.ActionMint,
			Details:     "Minted 1000000 AUGT",
			User:        "m.laurent",
			Approver:    "d.hassan",
			AssetID:     goldID,
			AssetSymbol: "AUGT",
			AssetName:   "Aurum Gold Token",
		},
		{
			ID:          uuid.New().String(),
			Timestamp:   now.Add(-20 * time.Hour),
			ActionType:  models.ActionBurn,
			Details:     "Burned 50000 EURS",
			User:        "t.okafor",
			Approver:    "d.hassan",
			AssetID:     eurID,
			AssetSymbol: "EURS",
			AssetName:   "Euro Settlement Token",
			Notes:       "Redemption batch 2024-31",
		},
	}

	if err := st.Dispatch(store.SetHistory{Events: history}); err != nil {
		return err
	}

	zap.L().Info("Seeded demo data",
		zap.Int("assets", len(assets)),
		zap.Int("history_events", len(history)))
	return nil
}
