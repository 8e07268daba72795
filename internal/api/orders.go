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

type createOrderRequest struct {
	Type        string `json:"type" validate:"required,oneof=Sale 'Internal Transfer'"`
	AssetID     string `json:"assetId" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	From        string `json:"from" validate:"required"`
	To          string `json:"to" validate:"required"`
	RequestedBy string `json:"requestedBy" validate:"required"`
	Rate        string `json:"rate"`
	Notes       string `json:"notes"`
}

func (s *Service) handleListOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Snapshot().Orders)
}

// handleCreateOrder records a new treasury order in Pending Approval.
// The order only affects balances once the approval workflow completes.
func (s *Service) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
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

	asset, err := s.store.AssetByID(req.AssetID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if amount.GreaterThan(asset.Balance) {
		respondError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("order of %s exceeds balance of %s", amount, asset.Balance))
		return
	}

	rate := decimal.Zero
	receivedSymbol := ""
	receivedAmount := decimal.Zero
	if models.OrderType(req.Type) == models.OrderSale {
		if req.Rate != "" {
			rate, err = decimal.NewFromString(req.Rate)
			if err != nil || rate.LessThanOrEqual(decimal.Zero) {
				respondError(w, http.StatusBadRequest, "rate must be a positive decimal")
				return
			}
		} else {
			rate, err = s.calc.CrossRate(asset.Symbol, "USD")
			if err != nil {
				respondDomainError(w, err)
				return
			}
		}
		receivedSymbol = "USD"
		receivedAmount = amount.Mul(rate).Round(2)
	}

	order := models.AssetOrder{
		ID:             uuid.New().String(),
		Type:           models.OrderType(req.Type),
		AssetID:        req.AssetID,
		Amount:         amount,
		From:           req.From,
		To:             req.To,
		Status:         models.OrderPendingApproval,
		RequestedBy:    req.RequestedBy,
		Rate:           rate,
		ReceivedSymbol: receivedSymbol,
		ReceivedAmount: receivedAmount,
		Notes:          req.Notes,
	}

	if err := s.store.Dispatch(store.AddOrder{Order: order}); err != nil {
		respondDomainError(w, err)
		return
	}

	created, err := s.store.OrderByID(order.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

type approveOrderRequest struct {
	Approver string `json:"approver" validate:"required"`
}

// handleApproveOrder records one approval step. The first call starts
// the multi-party workflow for the order; the final sign-off debits the
// asset and marks the order Completed.
func (s *Service) handleApproveOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	var req approveOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	session, err := s.orderSession(r, orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if err := s.workflows.Approve(session.ID, req.Approver); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

type rejectOrderRequest struct {
	Approver string `json:"approver" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
}

// handleRejectOrder fails a pending order. A free-text reason is
// mandatory and is recorded on the order.
func (s *Service) handleRejectOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	var req rejectOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	session, err := s.orderSession(r, orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if err := s.workflows.Reject(session.ID, req.Approver, req.Reason); err != nil {
		respondDomainError(w, err)
		return
	}

	if err := s.store.Dispatch(store.UpdateOrderStatus{
		OrderID:  orderID,
		Status:   models.OrderFailed,
		Approver: req.Approver,
		Notes:    "Rejected: " + req.Reason,
	}); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// orderSession finds the approval session bound to an order, starting
// one on first use.
func (s *Service) orderSession(r *http.Request, orderID string) (*workflow.Session, error) {
	order, err := s.store.OrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPendingApproval {
		return nil, fmt.Errorf("%w: %s is %s", store.ErrOrderNotPending, orderID, order.Status)
	}

	channel := "order:" + orderID
	if session, ok := s.workflows.GetByChannel(channel); ok && !session.State().Terminal() {
		return session, nil
	}

	return s.workflows.Begin(r.Context(), workflow.BeginParams{
		Channel: channel,
		Kind:    workflow.KindMultiParty,
		Roles:   s.roles,
		Execute: func(approver string) error {
			if order.Type == models.OrderSale || order.Type == models.OrderInternalTransfer {
				if err := s.store.Dispatch(store.TransferOut{
					AssetID: order.AssetID,
					Amount:  order.Amount,
				}); err != nil {
					return err
				}
			}
			return s.store.Dispatch(store.UpdateOrderStatus{
				OrderID:  orderID,
				Status:   models.OrderCompleted,
				Approver: approver,
			})
		},
	})
}
