package api

import (
	"net/http"
	"time"

	"treasury-desk-go/internal/models"
	"treasury-desk-go/internal/preview"
	"treasury-desk-go/internal/store"
	"treasury-desk-go/internal/workflow"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Service wires the store, preview calculator and workflow manager into
// the HTTP surface. All dependencies are injected; the service owns no
// global state.
type Service struct {
	store     *store.Store
	calc      *preview.Calculator
	workflows *workflow.Manager
	validate  *validator.Validate
	roles     []string
}

// NewService builds the API service.
func NewService(st *store.Store, calc *preview.Calculator, manager *workflow.Manager, cfg models.WorkflowConfig) *Service {
	return &Service{
		store:     st,
		calc:      calc,
		workflows: manager,
		validate:  validator.New(),
		roles:     cfg.ApprovalStepRoles,
	}
}

// RegisterRoutes mounts all endpoints under /api/v1.
func (s *Service) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(logRequests)

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api.HandleFunc("/assets", s.handleListAssets).Methods(http.MethodGet)
	api.HandleFunc("/assets", s.handleIssueAsset).Methods(http.MethodPost)
	api.HandleFunc("/assets/swap", s.handleSwap).Methods(http.MethodPost)
	api.HandleFunc("/assets/{id}", s.handleUpdateAsset).Methods(http.MethodPatch)
	api.HandleFunc("/assets/{id}/mint", s.handleMint).Methods(http.MethodPost)
	api.HandleFunc("/assets/{id}/burn", s.handleBurn).Methods(http.MethodPost)
	api.HandleFunc("/assets/{id}/redeem", s.handleRedeem).Methods(http.MethodPost)

	api.HandleFunc("/payments/preview", s.handlePreview).Methods(http.MethodPost)
	api.HandleFunc("/payments", s.handleSubmitPayment).Methods(http.MethodPost)

	api.HandleFunc("/orders", s.handleListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders", s.handleCreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/approve", s.handleApproveOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/reject", s.handleRejectOrder).Methods(http.MethodPost)

	api.HandleFunc("/history", s.handleListHistory).Methods(http.MethodGet)

	api.HandleFunc("/workflows/{id}", s.handleGetWorkflow).Methods(http.MethodGet)
	api.HandleFunc("/workflows/{id}/2fa/send", s.handleSendCode).Methods(http.MethodPost)
	api.HandleFunc("/workflows/{id}/2fa/verify", s.handleVerifyCode).Methods(http.MethodPost)
	api.HandleFunc("/workflows/{id}/approve", s.handleApproveWorkflow).Methods(http.MethodPost)
	api.HandleFunc("/workflows/{id}/reject", s.handleRejectWorkflow).Methods(http.MethodPost)
	api.HandleFunc("/workflows/{id}/confirm", s.handleConfirmWorkflow).Methods(http.MethodPost)
	api.HandleFunc("/workflows/{id}/cancel", s.handleCancelWorkflow).Methods(http.MethodPost)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// logRequests logs method, path, and duration of every API call.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		zap.L().Info("API request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
