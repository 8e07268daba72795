package api

import (
	"fmt"
	"net/http"

	"treasury-desk-go/internal/models"
	"treasury-desk-go/internal/store"
	"treasury-desk-go/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type previewRequest struct {
	Amount         string `json:"amount" validate:"required"`
	SourceAssetID  string `json:"sourceAssetId" validate:"required"`
	Type           string `json:"type" validate:"required,oneof=on-chain traditional internal"`
	Network        string `json:"network" validate:"required_if=Type on-chain"`
	Rail           string `json:"rail" validate:"required_if=Type traditional"`
	SettlementTier string `json:"settlementTier" validate:"required_if=Type traditional"`
	TargetCurrency string `json:"targetCurrency"`
}

func (s *Service) buildPreviewRequest(w http.ResponseWriter, req previewRequest) (models.PreviewRequest, models.Asset, bool) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "amount must be a decimal")
		return models.PreviewRequest{}, models.Asset{}, false
	}

	asset, err := s.store.AssetByID(req.SourceAssetID)
	if err != nil {
		respondDomainError(w, err)
		return models.PreviewRequest{}, models.Asset{}, false
	}

	return models.PreviewRequest{
		Amount:         amount,
		SourceSymbol:   asset.Symbol,
		Type:           models.PaymentType(req.Type),
		Network:        req.Network,
		Rail:           req.Rail,
		SettlementTier: req.SettlementTier,
		TargetCurrency: req.TargetCurrency,
	}, asset, true
}

// handlePreview computes the synchronous fee preview for a pending
// transfer. No state changes.
func (s *Service) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quoteReq, _, ok := s.buildPreviewRequest(w, req)
	if !ok {
		return
	}

	data, err := s.calc.Quote(quoteReq)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

type paymentRequest struct {
	previewRequest
	To          string `json:"to" validate:"required"`
	RequestedBy string `json:"requestedBy" validate:"required"`
	Notes       string `json:"notes"`
}

type paymentAccepted struct {
	Workflow workflow.View      `json:"workflow"`
	Preview  models.PreviewData `json:"preview"`
}

// handleSubmitPayment validates the payment, computes its preview and
// starts the single-actor approval workflow. The source asset is
// debited by the preview total only at terminal confirmation.
func (s *Service) handleSubmitPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quoteReq, asset, ok := s.buildPreviewRequest(w, req.previewRequest)
	if !ok {
		return
	}
	if quoteReq.Amount.LessThanOrEqual(decimal.Zero) {
		respondError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	data, err := s.calc.Quote(quoteReq)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if data.Total.GreaterThan(asset.Balance) {
		respondError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("total debit %s exceeds balance of %s", data.Total, asset.Balance))
		return
	}

	orderType := models.OrderPayment
	if quoteReq.Type == models.PaymentInternal {
		orderType = models.OrderInternalTransfer
	}

	session, err := s.workflows.Begin(r.Context(), workflow.BeginParams{
		Channel: "payments:" + req.SourceAssetID,
		Kind:    workflow.KindSingleActor,
		Execute: func(string) error {
			if err := s.store.Dispatch(store.TransferOut{
				AssetID: req.SourceAssetID,
				Amount:  data.Total,
			}); err != nil {
				return err
			}
			return s.store.Dispatch(store.AddOrder{Order: models.AssetOrder{
				ID:             uuid.New().String(),
				Type:           orderType,
				AssetID:        req.SourceAssetID,
				Amount:         quoteReq.Amount,
				From:           asset.Label,
				To:             req.To,
				Status:         models.OrderCompleted,
				RequestedBy:    req.RequestedBy,
				Rate:           data.ExchangeRate,
				ReceivedSymbol: req.TargetCurrency,
				ReceivedAmount: data.ReceivedAmount,
				Notes:          req.Notes,
			}})
		},
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, paymentAccepted{Workflow: session.View(), Preview: data})
}
