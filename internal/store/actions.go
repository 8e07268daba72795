package store

import (
	"fmt"
	"sort"
	"time"

	"treasury-desk-go/internal/models"

	"github.com/shopspring/decimal"
)

// Action is the closed set of store mutations. Every concrete action
// belongs to exactly one of the three reducer domains.
type Action interface {
	isAction()
}

// AssetAction mutates the asset book.
type AssetAction interface {
	Action
	isAssetAction()
}

// OrderAction mutates the order book.
type OrderAction interface {
	Action
	isOrderAction()
}

// HistoryAction mutates the audit history.
type HistoryAction interface {
	Action
	isHistoryAction()
}

// AddAsset registers a newly issued asset.
type AddAsset struct {
	Asset models.Asset
}

// UpdateAssetProperty patches mutable asset metadata. Nil fields are
// left unchanged.
type UpdateAssetProperty struct {
	AssetID     string
	Label       *string
	AssetClass  *string
	CustodyType *string
	Price       *decimal.Decimal
}

// MintAsset releases supply into circulation.
type MintAsset struct {
	AssetID string
	Amount  decimal.Decimal
}

// BurnAsset destroys supply. For finite-supply assets the burn is taken
// from the reserve (issued supply shrinks, circulating balance is
// untouched); for infinite-supply assets it debits the balance.
type BurnAsset struct {
	AssetID string
	Amount  decimal.Decimal
}

// RedeemAsset removes circulating units against an off-platform payout.
type RedeemAsset struct {
	AssetID string
	Amount  decimal.Decimal
}

// TransferOut debits circulating balance for an outbound payment or
// completed sale.
type TransferOut struct {
	AssetID string
	Amount  decimal.Decimal
}

// SwapAssets atomically debits one asset and credits another at the
// given rate.
type SwapAssets struct {
	FromAssetID string
	ToAssetID   string
	Amount      decimal.Decimal
	Rate        decimal.Decimal
}

// AddOrder inserts a new order, keeping the book sorted newest first.
type AddOrder struct {
	Order models.AssetOrder
}

// UpdateOrderStatus resolves a pending order.
type UpdateOrderStatus struct {
	OrderID  string
	Status   models.OrderStatus
	Approver string
	Notes    string
}

// AppendHistory adds one audit event.
type AppendHistory struct {
	Event models.TokenHistoryEvent
}

// SetHistory replaces the audit history wholesale. Used by seeding only.
type SetHistory struct {
	Events []models.TokenHistoryEvent
}

func (AddAsset) isAction()                 {}
func (AddAsset) isAssetAction()            {}
func (UpdateAssetProperty) isAction()      {}
func (UpdateAssetProperty) isAssetAction() {}
func (MintAsset) isAction()                {}
func (MintAsset) isAssetAction()           {}
func (BurnAsset) isAction()                {}
func (BurnAsset) isAssetAction()           {}
func (RedeemAsset) isAction()              {}
func (RedeemAsset) isAssetAction()         {}
func (TransferOut) isAction()              {}
func (TransferOut) isAssetAction()         {}
func (SwapAssets) isAction()               {}
func (SwapAssets) isAssetAction()          {}
func (AddOrder) isAction()                 {}
func (AddOrder) isOrderAction()            {}
func (UpdateOrderStatus) isAction()        {}
func (UpdateOrderStatus) isOrderAction()   {}
func (AppendHistory) isAction()            {}
func (AppendHistory) isHistoryAction()     {}
func (SetHistory) isAction()               {}
func (SetHistory) isHistoryAction()        {}

func reduceAssets(state State, action AssetAction) (State, error) {
	next := state.clone()

	switch a := action.(type) {
	case AddAsset:
		asset := a.Asset
		if asset.ID == "" || asset.Label == "" || asset.Symbol == "" {
			return state, fmt.Errorf("%w: asset requires id, label and symbol", ErrInvalidAction)
		}
		if asset.Supply != models.SupplyFinite && asset.Supply != models.SupplyInfinite {
			return state, fmt.Errorf("%w: unknown supply mode %q", ErrInvalidAction, asset.Supply)
		}
		if asset.Balance.IsNegative() {
			return state, fmt.Errorf("%w: negative balance", ErrInvalidAction)
		}
		if asset.Supply == models.SupplyFinite && asset.Balance.GreaterThan(asset.TotalSupplyIssued) {
			return state, fmt.Errorf("%w: balance above issued supply", ErrInvalidAction)
		}
		for _, existing := range next.Assets {
			if existing.ID == asset.ID {
				return state, fmt.Errorf("%w: %s", ErrAssetExists, asset.ID)
			}
		}
		now := time.Now().UTC()
		asset.CreatedAt = now
		asset.UpdatedAt = now
		next.Assets = append(next.Assets, asset)
		return next, nil

	case UpdateAssetProperty:
		idx, err := assetIndex(next, a.AssetID)
		if err != nil {
			return state, err
		}
		asset := next.Assets[idx]
		if a.Label != nil {
			if *a.Label == "" {
				return state, fmt.Errorf("%w: empty label", ErrInvalidAction)
			}
			asset.Label = *a.Label
		}
		if a.AssetClass != nil {
			asset.AssetClass = *a.AssetClass
		}
		if a.CustodyType != nil {
			asset.CustodyType = *a.CustodyType
		}
		if a.Price != nil {
			if a.Price.IsNegative() {
				return state, fmt.Errorf("%w: negative price", ErrInvalidAction)
			}
			asset.Price = *a.Price
		}
		asset.UpdatedAt = time.Now().UTC()
		next.Assets[idx] = asset
		return next, nil

	case MintAsset:
		idx, err := assetIndex(next, a.AssetID)
		if err != nil {
			return state, err
		}
		if err := requirePositive(a.Amount); err != nil {
			return state, err
		}
		asset := next.Assets[idx]
		newBalance := asset.Balance.Add(a.Amount)
		if asset.Supply == models.SupplyFinite && newBalance.GreaterThan(asset.TotalSupplyIssued) {
			return state, fmt.Errorf("%w: mint of %s leaves only %s in reserve",
				ErrSupplyExceeded, a.Amount, asset.Reserve())
		}
		asset.Balance = newBalance
		asset.UpdatedAt = time.Now().UTC()
		next.Assets[idx] = asset
		return next, nil

	case BurnAsset:
		idx, err := assetIndex(next, a.AssetID)
		if err != nil {
			return state, err
		}
		if err := requirePositive(a.Amount); err != nil {
			return state, err
		}
		asset := next.Assets[idx]
		if asset.Supply == models.SupplyFinite {
			if a.Amount.GreaterThan(asset.Reserve()) {
				return state, fmt.Errorf("%w: reserve %s, burn %s",
					ErrInsufficientReserve, asset.Reserve(), a.Amount)
			}
			asset.TotalSupplyIssued = asset.TotalSupplyIssued.Sub(a.Amount)
		} else {
			if a.Amount.GreaterThan(asset.Balance) {
				return state, fmt.Errorf("%w: balance %s, burn %s",
					ErrInsufficientBalance, asset.Balance, a.Amount)
			}
			asset.Balance = asset.Balance.Sub(a.Amount)
		}
		asset.UpdatedAt = time.Now().UTC()
		next.Assets[idx] = asset
		return next, nil

	case RedeemAsset:
		return debitBalance(state, next, a.AssetID, a.Amount)

	case TransferOut:
		return debitBalance(state, next, a.AssetID, a.Amount)

	case SwapAssets:
		if a.FromAssetID == a.ToAssetID {
			return state, fmt.Errorf("%w: swap between identical assets", ErrInvalidAction)
		}
		if err := requirePositive(a.Amount); err != nil {
			return state, err
		}
		if a.Rate.LessThanOrEqual(decimal.Zero) {
			return state, fmt.Errorf("%w: non-positive swap rate", ErrInvalidAction)
		}
		fromIdx, err := assetIndex(next, a.FromAssetID)
		if err != nil {
			return state, err
		}
		toIdx, err := assetIndex(next, a.ToAssetID)
		if err != nil {
			return state, err
		}
		from := next.Assets[fromIdx]
		to := next.Assets[toIdx]
		if a.Amount.GreaterThan(from.Balance) {
			return state, fmt.Errorf("%w: balance %s, swap out %s",
				ErrInsufficientBalance, from.Balance, a.Amount)
		}
		received := a.Amount.Mul(a.Rate)
		newToBalance := to.Balance.Add(received)
		if to.Supply == models.SupplyFinite && newToBalance.GreaterThan(to.TotalSupplyIssued) {
			return state, fmt.Errorf("%w: swap in of %s exceeds issued supply of %s",
				ErrSupplyExceeded, received, to.Symbol)
		}
		now := time.Now().UTC()
		from.Balance = from.Balance.Sub(a.Amount)
		from.UpdatedAt = now
		to.Balance = newToBalance
		to.UpdatedAt = now
		next.Assets[fromIdx] = from
		next.Assets[toIdx] = to
		return next, nil
	}

	return state, fmt.Errorf("%w: unhandled asset action %T", ErrInvalidAction, action)
}

func reduceOrders(state State, action OrderAction) (State, error) {
	next := state.clone()

	switch a := action.(type) {
	case AddOrder:
		order := a.Order
		if order.ID == "" || order.AssetID == "" || order.Type == "" {
			return state, fmt.Errorf("%w: order requires id, assetId and type", ErrInvalidAction)
		}
		if err := requirePositive(order.Amount); err != nil {
			return state, err
		}
		if order.Status == "" {
			order.Status = models.OrderPendingApproval
		}
		if order.Timestamp.IsZero() {
			order.Timestamp = time.Now().UTC()
		}
		next.Orders = append(next.Orders, order)
		sortOrdersDescending(next.Orders)
		return next, nil

	case UpdateOrderStatus:
		if a.Status != models.OrderCompleted && a.Status != models.OrderFailed {
			return state, fmt.Errorf("%w: order status %q", ErrInvalidAction, a.Status)
		}
		for i, order := range next.Orders {
			if order.ID != a.OrderID {
				continue
			}
			if order.Status != models.OrderPendingApproval {
				return state, fmt.Errorf("%w: %s is %s", ErrOrderNotPending, order.ID, order.Status)
			}
			order.Status = a.Status
			order.Approver = a.Approver
			if a.Notes != "" {
				order.Notes = a.Notes
			}
			next.Orders[i] = order
			return next, nil
		}
		return state, fmt.Errorf("%w: %s", ErrOrderNotFound, a.OrderID)
	}

	return state, fmt.Errorf("%w: unhandled order action %T", ErrInvalidAction, action)
}

func reduceHistory(state State, action HistoryAction) (State, error) {
	next := state.clone()

	switch a := action.(type) {
	case AppendHistory:
		event := a.Event
		if event.ID == "" || event.AssetID == "" {
			return state, fmt.Errorf("%w: history event requires id and assetId", ErrInvalidAction)
		}
		if !validActionType(event.ActionType) {
			return state, fmt.Errorf("%w: action type %q", ErrInvalidAction, event.ActionType)
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now().UTC()
		}
		next.History = append(next.History, event)
		sortHistoryDescending(next.History)
		return next, nil

	case SetHistory:
		for _, event := range a.Events {
			if event.ID == "" || event.AssetID == "" || !validActionType(event.ActionType) {
				return state, fmt.Errorf("%w: malformed history event %q", ErrInvalidAction, event.ID)
			}
		}
		next.History = make([]models.TokenHistoryEvent, len(a.Events))
		copy(next.History, a.Events)
		sortHistoryDescending(next.History)
		return next, nil
	}

	return state, fmt.Errorf("%w: unhandled history action %T", ErrInvalidAction, action)
}

func debitBalance(state, next State, assetID string, amount decimal.Decimal) (State, error) {
	idx, err := assetIndex(next, assetID)
	if err != nil {
		return state, err
	}
	if err := requirePositive(amount); err != nil {
		return state, err
	}
	asset := next.Assets[idx]
	if amount.GreaterThan(asset.Balance) {
		return state, fmt.Errorf("%w: balance %s, debit %s",
			ErrInsufficientBalance, asset.Balance, amount)
	}
	asset.Balance = asset.Balance.Sub(amount)
	asset.UpdatedAt = time.Now().UTC()
	next.Assets[idx] = asset
	return next, nil
}

func assetIndex(state State, id string) (int, error) {
	if id == "" {
		return 0, fmt.Errorf("%w: missing asset id", ErrInvalidAction)
	}
	for i, asset := range state.Assets {
		if asset.ID == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
}

func requirePositive(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAction, amount)
	}
	return nil
}

func validActionType(t models.ActionType) bool {
	switch t {
	case models.ActionMint, models.ActionBurn, models.ActionRedeem,
		models.ActionSwapIn, models.ActionSwapOut, models.ActionIssue:
		return true
	}
	return false
}

func sortOrdersDescending(orders []models.AssetOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp.After(orders[j].Timestamp)
	})
}

func sortHistoryDescending(events []models.TokenHistoryEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}
