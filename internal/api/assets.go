package api

import (
	"fmt"
	"net/http"

	"treasury-desk-go/internal/models"
	"treasury-desk-go/internal/store"
	"treasury-desk-go/internal/workflow"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type issueAssetRequest struct {
	Label             string `json:"label" validate:"required"`
	Symbol            string `json:"symbol" validate:"required,uppercase"`
	Supply            string `json:"supply" validate:"required,oneof=Finite Infinite"`
	InitialBalance    string `json:"initialBalance"`
	TotalSupplyIssued string `json:"totalSupplyIssued"`
	Blockchain        string `json:"blockchain"`
	IsInstitutional   bool   `json:"isInstitutional"`
	AssetClass        string `json:"assetClass"`
	CustodyType       string `json:"custodyType"`
	Price             string `json:"price"`
	RequestedBy       string `json:"requestedBy" validate:"required"`
	Notes             string `json:"notes"`
}

type assetView struct {
	models.Asset
	Reserve decimal.Decimal `json:"reserve"`
}

func (s *Service) handleListAssets(w http.ResponseWriter, r *http.Request) {
	snapshot := s.store.Snapshot()
	views := make([]assetView, len(snapshot.Assets))
	for i, asset := range snapshot.Assets {
		views[i] = assetView{Asset: asset, Reserve: asset.Reserve()}
	}
	respondJSON(w, http.StatusOK, views)
}

// handleIssueAsset creates a new asset via the issuance wizard path:
// a direct issue plus its audit event, no approval workflow.
func (s *Service) handleIssueAsset(w http.ResponseWriter, r *http.Request) {
	var req issueAssetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	balance, err := parseOptionalAmount(req.InitialBalance)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid initialBalance: "+err.Error())
		return
	}
	totalIssued, err := parseOptionalAmount(req.TotalSupplyIssued)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid totalSupplyIssued: "+err.Error())
		return
	}
	price, err := parseOptionalAmount(req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price: "+err.Error())
		return
	}

	asset := models.Asset{
		ID:                uuid.New().String(),
		Label:             req.Label,
		Symbol:            req.Symbol,
		Balance:           balance,
		TotalSupplyIssued: totalIssued,
		Supply:            models.SupplyMode(req.Supply),
		Blockchain:        req.Blockchain,
		IsInstitutional:   req.IsInstitutional,
		IsWizardIssued:    true,
		AssetClass:        req.AssetClass,
		CustodyType:       req.CustodyType,
		Price:             price,
	}

	if err := s.store.Dispatch(store.AddAsset{Asset: asset}); err != nil {
		respondDomainError(w, err)
		return
	}
	if err := s.store.Dispatch(store.AppendHistory{Event: models.TokenHistoryEvent{
		ID:          uuid.New().String(),
		ActionType:  models.ActionIssue,
		Details:     fmt.Sprintf("Issued %s (%s)", req.Label, req.Symbol),
		User:        req.RequestedBy,
		AssetID:     asset.ID,
		AssetSymbol: asset.Symbol,
		AssetName:   asset.Label,
		Notes:       req.Notes,
	}}); err != nil {
		respondDomainError(w, err)
		return
	}

	created, err := s.store.AssetByID(asset.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, assetView{Asset: created, Reserve: created.Reserve()})
}

type updateAssetRequest struct {
	Label       *string `json:"label"`
	AssetClass  *string `json:"assetClass"`
	CustodyType *string `json:"custodyType"`
	Price       *string `json:"price"`
}

// handleUpdateAsset patches mutable asset metadata. Absent fields are
// left unchanged; supply and balances are only movable through the
// workflow endpoints.
func (s *Service) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	assetID := mux.Vars(r)["id"]

	var req updateAssetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := store.UpdateAssetProperty{
		AssetID:     assetID,
		Label:       req.Label,
		AssetClass:  req.AssetClass,
		CustodyType: req.CustodyType,
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid price: "+err.Error())
			return
		}
		patch.Price = &price
	}

	if err := s.store.Dispatch(patch); err != nil {
		respondDomainError(w, err)
		return
	}

	updated, err := s.store.AssetByID(assetID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, assetView{Asset: updated, Reserve: updated.Reserve()})
}

type supplyChangeRequest struct {
	Amount      string `json:"amount" validate:"required"`
	RequestedBy string `json:"requestedBy" validate:"required"`
	Notes       string `json:"notes"`
}

func (s *Service) handleMint(w http.ResponseWriter, r *http.Request) {
	s.handleSupplyChange(w, r, models.ActionMint)
}

func (s *Service) handleBurn(w http.ResponseWriter, r *http.Request) {
	s.handleSupplyChange(w, r, models.ActionBurn)
}

func (s *Service) handleRedeem(w http.ResponseWriter, r *http.Request) {
	s.handleSupplyChange(w, r, models.ActionRedeem)
}

// handleSupplyChange starts a multi-party approval workflow whose
// terminal action applies the supply mutation and its audit event.
func (s *Service) handleSupplyChange(w http.ResponseWriter, r *http.Request, action models.ActionType) {
	assetID := mux.Vars(r)["id"]

	var req supplyChangeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		respondError(w, http.StatusBadRequest, "amount must be a positive decimal")
		return
	}

	asset, err := s.store.AssetByID(assetID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	// Pre-validate bounds so the requester gets an immediate rejection;
	// the reducer enforces the same invariant again at execution time.
	switch action {
	case models.ActionBurn:
		if asset.Supply == models.SupplyFinite && amount.GreaterThan(asset.Reserve()) {
			respondError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("burn of %s exceeds reserve of %s", amount, asset.Reserve()))
			return
		}
		if asset.Supply == models.SupplyInfinite && amount.GreaterThan(asset.Balance) {
			respondError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("burn of %s exceeds balance of %s", amount, asset.Balance))
			return
		}
	case models.ActionRedeem:
		if amount.GreaterThan(asset.Balance) {
			respondError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("redeem of %s exceeds balance of %s", amount, asset.Balance))
			return
		}
	case models.ActionMint:
		if asset.Supply == models.SupplyFinite && asset.Balance.Add(amount).GreaterThan(asset.TotalSupplyIssued) {
			respondError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("mint of %s exceeds reserve of %s", amount, asset.Reserve()))
			return
		}
	}

	var mutation store.Action
	var details string
	switch action {
	case models.ActionMint:
		mutation = store.MintAsset{AssetID: assetID, Amount: amount}
		details = fmt.Sprintf("Minted %s %s", amount, asset.Symbol)
	case models.ActionBurn:
		mutation = store.BurnAsset{AssetID: assetID, Amount: amount}
		details = fmt.Sprintf("Burned %s %s", amount, asset.Symbol)
	case models.ActionRedeem:
		mutation = store.RedeemAsset{AssetID: assetID, Amount: amount}
		details = fmt.Sprintf("Redeemed %s %s", amount, asset.Symbol)
	}

	session, err := s.workflows.Begin(r.Context(), workflow.BeginParams{
		Channel: fmt.Sprintf("%s:%s", action, assetID),
		Kind:    workflow.KindMultiParty,
		Roles:   s.roles,
		Execute: func(approver string) error {
			if err := s.store.Dispatch(mutation); err != nil {
				return err
			}
			return s.store.Dispatch(store.AppendHistory{Event: models.TokenHistoryEvent{
				ID:          uuid.New().String(),
				ActionType:  action,
				Details:     details,
				User:        req.RequestedBy,
				Approver:    approver,
				AssetID:     assetID,
				AssetSymbol: asset.Symbol,
				AssetName:   asset.Label,
				Notes:       req.Notes,
			}})
		},
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, session.View())
}

type swapRequest struct {
	FromAssetID string `json:"fromAssetId" validate:"required"`
	ToAssetID   string `json:"toAssetId" validate:"required,nefield=FromAssetID"`
	Amount      string `json:"amount" validate:"required"`
	RequestedBy string `json:"requestedBy" validate:"required"`
	Notes       string `json:"notes"`
}

// handleSwap starts a single-actor workflow converting between two
// managed assets at the rate-table cross rate. The terminal action
// applies the paired debit/credit and both swap audit events.
func (s *Service) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		respondError(w, http.StatusBadRequest, "amount must be a positive decimal")
		return
	}

	from, err := s.store.AssetByID(req.FromAssetID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	to, err := s.store.AssetByID(req.ToAssetID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if amount.GreaterThan(from.Balance) {
		respondError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("swap of %s exceeds balance of %s", amount, from.Balance))
		return
	}

	rate, err := s.calc.CrossRate(from.Symbol, to.Symbol)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	session, err := s.workflows.Begin(r.Context(), workflow.BeginParams{
		Channel: fmt.Sprintf("swap:%s:%s", req.FromAssetID, req.ToAssetID),
		Kind:    workflow.KindSingleActor,
		Execute: func(string) error {
			if err := s.store.Dispatch(store.SwapAssets{
				FromAssetID: req.FromAssetID,
				ToAssetID:   req.ToAssetID,
				Amount:      amount,
				Rate:        rate,
			}); err != nil {
				return err
			}
			received := amount.Mul(rate).Round(2)
			if err := s.store.Dispatch(store.AppendHistory{Event: models.TokenHistoryEvent{
				ID:          uuid.New().String(),
				ActionType:  models.ActionSwapOut,
				Details:     fmt.Sprintf("Swapped out %s %s for %s %s", amount, from.Symbol, received, to.Symbol),
				User:        req.RequestedBy,
				AssetID:     from.ID,
				AssetSymbol: from.Symbol,
				AssetName:   from.Label,
				Notes:       req.Notes,
			}}); err != nil {
				return err
			}
			return s.store.Dispatch(store.AppendHistory{Event: models.TokenHistoryEvent{
				ID:          uuid.New().String(),
				ActionType:  models.ActionSwapIn,
				Details:     fmt.Sprintf("Swapped in %s %s from %s %s", received, to.Symbol, amount, from.Symbol),
				User:        req.RequestedBy,
				AssetID:     to.ID,
				AssetSymbol: to.Symbol,
				AssetName:   to.Label,
				Notes:       req.Notes,
			}})
		},
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, session.View())
}

func (s *Service) handleListHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Snapshot().History)
}

func parseOptionalAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("must not be negative")
	}
	return value, nil
}
