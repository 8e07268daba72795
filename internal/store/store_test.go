package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"treasury-desk-go/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool {
	return a.Equal(b)
})

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	if err := s.Dispatch(AddAsset{Asset: models.Asset{
		ID:                "gold",
		Label:             "Gold Token",
		Symbol:            "GLD",
		Balance:           decimal.NewFromInt(1000000),
		TotalSupplyIssued: decimal.NewFromInt(1500000),
		Supply:            models.SupplyFinite,
	}}); err != nil {
		t.Fatalf("Failed to add finite asset: %v", err)
	}
	if err := s.Dispatch(AddAsset{Asset: models.Asset{
		ID:      "eurs",
		Label:   "Euro Token",
		Symbol:  "EURS",
		Balance: decimal.NewFromInt(500000),
		Supply:  models.SupplyInfinite,
	}}); err != nil {
		t.Fatalf("Failed to add infinite asset: %v", err)
	}
	return s
}

func TestBurnFiniteAsset_ActsOnReserve(t *testing.T) {
	s := newTestStore(t)

	// Reserve is 500000; burning 600000 must be rejected untouched.
	err := s.Dispatch(BurnAsset{AssetID: "gold", Amount: decimal.NewFromInt(600000)})
	if !errors.Is(err, ErrInsufficientReserve) {
		t.Fatalf("Expected ErrInsufficientReserve, got %v", err)
	}

	asset, err := s.AssetByID("gold")
	if err != nil {
		t.Fatalf("AssetByID failed: %v", err)
	}
	if !asset.Balance.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("Balance changed after rejected burn: %s", asset.Balance)
	}

	// A burn within the reserve leaves the circulating balance alone
	// and shrinks the issued supply.
	if err := s.Dispatch(BurnAsset{AssetID: "gold", Amount: decimal.NewFromInt(400000)}); err != nil {
		t.Fatalf("Burn failed: %v", err)
	}
	asset, _ = s.AssetByID("gold")
	if !asset.Balance.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("Expected balance 1000000, got %s", asset.Balance)
	}
	if !asset.Reserve().Equal(decimal.NewFromInt(100000)) {
		t.Errorf("Expected reserve 100000, got %s", asset.Reserve())
	}
}

func TestBurnInfiniteAsset_DebitsBalance(t *testing.T) {
	s := newTestStore(t)

	if err := s.Dispatch(BurnAsset{AssetID: "eurs", Amount: decimal.NewFromInt(100000)}); err != nil {
		t.Fatalf("Burn failed: %v", err)
	}
	asset, _ := s.AssetByID("eurs")
	if !asset.Balance.Equal(decimal.NewFromInt(400000)) {
		t.Errorf("Expected balance 400000, got %s", asset.Balance)
	}

	err := s.Dispatch(BurnAsset{AssetID: "eurs", Amount: decimal.NewFromInt(500000)})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}
}

// After any sequence of mints and burns a finite asset must keep
// 0 <= balance <= totalSupplyIssued.
func TestReserveInvariant_MintBurnSequence(t *testing.T) {
	s := newTestStore(t)

	steps := []Action{
		MintAsset{AssetID: "gold", Amount: decimal.NewFromInt(200000)},
		BurnAsset{AssetID: "gold", Amount: decimal.NewFromInt(150000)},
		MintAsset{AssetID: "gold", Amount: decimal.NewFromInt(150000)},
		BurnAsset{AssetID: "gold", Amount: decimal.NewFromInt(100000)},
		MintAsset{AssetID: "gold", Amount: decimal.NewFromInt(1000000)}, // over cap, rejected
		RedeemAsset{AssetID: "gold", Amount: decimal.NewFromInt(300000)},
	}

	for i, action := range steps {
		_ = s.Dispatch(action) // rejections are part of the sequence

		asset, err := s.AssetByID("gold")
		if err != nil {
			t.Fatalf("Step %d: AssetByID failed: %v", i, err)
		}
		if asset.Balance.IsNegative() {
			t.Fatalf("Step %d: negative balance %s", i, asset.Balance)
		}
		if asset.Balance.GreaterThan(asset.TotalSupplyIssued) {
			t.Fatalf("Step %d: balance %s above issued supply %s",
				i, asset.Balance, asset.TotalSupplyIssued)
		}
	}
}

func TestUpdateAssetProperty_PartialPatch(t *testing.T) {
	s := newTestStore(t)

	label := "Gold Bullion Token"
	price := decimal.RequireFromString("2.41")
	if err := s.Dispatch(UpdateAssetProperty{AssetID: "gold", Label: &label, Price: &price}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	asset, _ := s.AssetByID("gold")
	if asset.Label != "Gold Bullion Token" {
		t.Errorf("Expected new label, got %q", asset.Label)
	}
	if !asset.Price.Equal(price) {
		t.Errorf("Expected price 2.41, got %s", asset.Price)
	}
	// Nil fields and non-patchable state stay put.
	if asset.Symbol != "GLD" || asset.AssetClass != "" {
		t.Errorf("Untouched fields changed: %+v", asset)
	}
	if !asset.Balance.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("Balance changed by a metadata patch: %s", asset.Balance)
	}
}

func TestUpdateAssetProperty_RejectsInvalidPatches(t *testing.T) {
	s := newTestStore(t)

	empty := ""
	if err := s.Dispatch(UpdateAssetProperty{AssetID: "gold", Label: &empty}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("Expected ErrInvalidAction for empty label, got %v", err)
	}

	negative := decimal.NewFromInt(-1)
	if err := s.Dispatch(UpdateAssetProperty{AssetID: "gold", Price: &negative}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("Expected ErrInvalidAction for negative price, got %v", err)
	}

	price := decimal.NewFromInt(1)
	if err := s.Dispatch(UpdateAssetProperty{AssetID: "missing", Price: &price}); !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("Expected ErrAssetNotFound, got %v", err)
	}

	asset, _ := s.AssetByID("gold")
	if asset.Label != "Gold Token" || !asset.Price.IsZero() {
		t.Errorf("Rejected patches changed the asset: %+v", asset)
	}
}

func TestMintFiniteAsset_CappedByIssuedSupply(t *testing.T) {
	s := newTestStore(t)

	err := s.Dispatch(MintAsset{AssetID: "gold", Amount: decimal.NewFromInt(500001)})
	if !errors.Is(err, ErrSupplyExceeded) {
		t.Fatalf("Expected ErrSupplyExceeded, got %v", err)
	}

	if err := s.Dispatch(MintAsset{AssetID: "gold", Amount: decimal.NewFromInt(500000)}); err != nil {
		t.Fatalf("Mint to cap failed: %v", err)
	}
	asset, _ := s.AssetByID("gold")
	if !asset.Reserve().Equal(decimal.Zero) {
		t.Errorf("Expected empty reserve, got %s", asset.Reserve())
	}
}

func TestSwapAssets(t *testing.T) {
	s := newTestStore(t)

	rate := decimal.RequireFromString("0.9")
	if err := s.Dispatch(SwapAssets{
		FromAssetID: "eurs",
		ToAssetID:   "gold",
		Amount:      decimal.NewFromInt(100000),
		Rate:        rate,
	}); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}

	from, _ := s.AssetByID("eurs")
	to, _ := s.AssetByID("gold")
	if !from.Balance.Equal(decimal.NewFromInt(400000)) {
		t.Errorf("Expected from balance 400000, got %s", from.Balance)
	}
	if !to.Balance.Equal(decimal.NewFromInt(1090000)) {
		t.Errorf("Expected to balance 1090000, got %s", to.Balance)
	}

	// Crediting past the finite cap must fail atomically.
	err := s.Dispatch(SwapAssets{
		FromAssetID: "eurs",
		ToAssetID:   "gold",
		Amount:      decimal.NewFromInt(400000),
		Rate:        decimal.NewFromInt(2),
	})
	if !errors.Is(err, ErrSupplyExceeded) {
		t.Fatalf("Expected ErrSupplyExceeded, got %v", err)
	}
	from, _ = s.AssetByID("eurs")
	if !from.Balance.Equal(decimal.NewFromInt(400000)) {
		t.Errorf("Debit applied despite failed credit: %s", from.Balance)
	}
}

func TestHistoryAppendOnlyAndOrdering(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC()

	// Append out of chronological order.
	offsets := []time.Duration{-2 * time.Hour, -5 * time.Hour, -1 * time.Hour, -4 * time.Hour}
	for i, offset := range offsets {
		err := s.Dispatch(AppendHistory{Event: models.TokenHistoryEvent{
			ID:          fmt.Sprintf("evt-%d", i),
			Timestamp:   base.Add(offset),
			ActionType:  models.ActionMint,
			AssetID:     "gold",
			AssetSymbol: "GLD",
		}})
		if err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}
	}

	history := s.Snapshot().History
	if len(history) != len(offsets) {
		t.Fatalf("Expected %d events, got %d", len(offsets), len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].Timestamp.After(history[i-1].Timestamp) {
			t.Errorf("History not descending at index %d", i)
		}
	}
}

func TestMalformedActions_RejectedAndStateUnchanged(t *testing.T) {
	s := newTestStore(t)
	before := s.Snapshot()

	duplicate := models.Asset{ID: "gold", Label: "Dup", Symbol: "GLD", Supply: models.SupplyFinite}
	malformed := []Action{
		AddAsset{Asset: models.Asset{ID: "x"}}, // missing label/symbol
		AddAsset{Asset: duplicate},
		MintAsset{AssetID: "gold", Amount: decimal.Zero},
		BurnAsset{AssetID: "", Amount: decimal.NewFromInt(1)},
		BurnAsset{AssetID: "missing", Amount: decimal.NewFromInt(1)},
		AddOrder{Order: models.AssetOrder{ID: "o1"}}, // missing assetId/type
		AppendHistory{Event: models.TokenHistoryEvent{ID: "e1", AssetID: "gold", ActionType: "Teleport"}},
		UpdateOrderStatus{OrderID: "nope", Status: models.OrderCompleted},
	}

	for i, action := range malformed {
		if err := s.Dispatch(action); err == nil {
			t.Errorf("Action %d (%T) accepted, expected error", i, action)
		}
	}

	if diff := cmp.Diff(before, s.Snapshot(), decimalComparer); diff != "" {
		t.Errorf("State changed by rejected actions (-before +after):\n%s", diff)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestStore(t)
	before := s.Snapshot()
	goldBefore := before.Assets[0]

	if err := s.Dispatch(MintAsset{AssetID: "gold", Amount: decimal.NewFromInt(1000)}); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	// The earlier snapshot must not observe the mutation.
	if !before.Assets[0].Balance.Equal(goldBefore.Balance) {
		t.Errorf("Prior snapshot mutated: %s", before.Assets[0].Balance)
	}
	after, _ := s.AssetByID("gold")
	if !after.Balance.Equal(decimal.NewFromInt(1001000)) {
		t.Errorf("Expected balance 1001000, got %s", after.Balance)
	}
}

func TestOrderLifecycle(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC()

	for i, offset := range []time.Duration{-3 * time.Hour, -1 * time.Hour, -2 * time.Hour} {
		err := s.Dispatch(AddOrder{Order: models.AssetOrder{
			ID:        fmt.Sprintf("ord-%d", i),
			Timestamp: base.Add(offset),
			Type:      models.OrderSale,
			AssetID:   "gold",
			Amount:    decimal.NewFromInt(100),
		}})
		if err != nil {
			t.Fatalf("AddOrder failed: %v", err)
		}
	}

	orders := s.Snapshot().Orders
	if len(orders) != 3 {
		t.Fatalf("Expected 3 orders, got %d", len(orders))
	}
	if orders[0].ID != "ord-1" {
		t.Errorf("Expected newest order first, got %s", orders[0].ID)
	}
	if orders[0].Status != models.OrderPendingApproval {
		t.Errorf("Expected Pending Approval, got %s", orders[0].Status)
	}

	if err := s.Dispatch(UpdateOrderStatus{
		OrderID:  "ord-1",
		Status:   models.OrderCompleted,
		Approver: "d.hassan",
	}); err != nil {
		t.Fatalf("UpdateOrderStatus failed: %v", err)
	}

	order, err := s.OrderByID("ord-1")
	if err != nil {
		t.Fatalf("OrderByID failed: %v", err)
	}
	if order.Status != models.OrderCompleted || order.Approver != "d.hassan" {
		t.Errorf("Order not resolved: %+v", order)
	}

	// A resolved order cannot be resolved again.
	err = s.Dispatch(UpdateOrderStatus{OrderID: "ord-1", Status: models.OrderFailed})
	if !errors.Is(err, ErrOrderNotPending) {
		t.Fatalf("Expected ErrOrderNotPending, got %v", err)
	}
}

func TestSetHistoryReplacesAndSorts(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC()

	events := []models.TokenHistoryEvent{
		{ID: "a", Timestamp: base.Add(-3 * time.Hour), ActionType: models.ActionIssue, AssetID: "gold"},
		{ID: "b", Timestamp: base.Add(-1 * time.Hour), ActionType: models.ActionMint, AssetID: "gold"},
		{ID: "c", Timestamp: base.Add(-2 * time.Hour), ActionType: models.ActionBurn, AssetID: "gold"},
	}
	if err := s.Dispatch(SetHistory{Events: events}); err != nil {
		t.Fatalf("SetHistory failed: %v", err)
	}

	history := s.Snapshot().History
	if len(history) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(history))
	}
	if history[0].ID != "b" || history[2].ID != "a" {
		t.Errorf("History not sorted descending: %v", []string{history[0].ID, history[1].ID, history[2].ID})
	}
}
