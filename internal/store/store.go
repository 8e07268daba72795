package store

import (
	"errors"
	"fmt"
	"sync"

	"treasury-desk-go/internal/models"
)

// Sentinel errors returned by reducers. Malformed payloads are rejected
// with ErrInvalidAction rather than silently ignored, so integration
// bugs surface at the caller.
var (
	ErrInvalidAction       = errors.New("invalid action payload")
	ErrAssetNotFound       = errors.New("asset not found")
	ErrAssetExists         = errors.New("asset already exists")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotPending     = errors.New("order is not pending approval")
	ErrInsufficientReserve = errors.New("amount exceeds available reserve")
	ErrInsufficientBalance = errors.New("amount exceeds available balance")
	ErrSupplyExceeded      = errors.New("amount exceeds issued supply")
)

// State is an immutable snapshot of the in-memory books. Reducers build
// a new State from the previous one; prior snapshots are never mutated.
type State struct {
	Assets  []models.Asset
	Orders  []models.AssetOrder
	History []models.TokenHistoryEvent
}

func (s State) clone() State {
	next := State{
		Assets:  make([]models.Asset, len(s.Assets)),
		Orders:  make([]models.AssetOrder, len(s.Orders)),
		History: make([]models.TokenHistoryEvent, len(s.History)),
	}
	copy(next.Assets, s.Assets)
	copy(next.Orders, s.Orders)
	copy(next.History, s.History)
	return next
}

// Store holds the asset, order and history books behind a typed action
// dispatch. It is an explicit dependency handed to consumers, never a
// package-level singleton. The mutex serializes dispatches from HTTP
// handler goroutines; each dispatch applies exactly one action.
type Store struct {
	mu    sync.RWMutex
	state State
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Dispatch validates and applies a single action, replacing the current
// snapshot on success. On error the snapshot is unchanged.
func (s *Store) Dispatch(action Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		next State
		err  error
	)
	switch a := action.(type) {
	case AssetAction:
		next, err = reduceAssets(s.state, a)
	case OrderAction:
		next, err = reduceOrders(s.state, a)
	case HistoryAction:
		next, err = reduceHistory(s.state, a)
	default:
		return fmt.Errorf("%w: unhandled action type %T", ErrInvalidAction, action)
	}
	if err != nil {
		return err
	}

	s.state = next
	return nil
}

// Snapshot returns the current state. The returned slices are owned by
// the snapshot and safe to read concurrently with later dispatches.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// AssetByID looks up an asset in the current snapshot.
func (s *Store) AssetByID(id string) (models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, asset := range s.state.Assets {
		if asset.ID == id {
			return asset, nil
		}
	}
	return models.Asset{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
}

// OrderByID looks up an order in the current snapshot.
func (s *Store) OrderByID(id string) (models.AssetOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, order := range s.state.Orders {
		if order.ID == id {
			return order, nil
		}
	}
	return models.AssetOrder{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}
