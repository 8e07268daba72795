package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Service) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	session, err := s.workflows.Get(mux.Vars(r)["id"])
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// handleSendCode issues the two-factor code for a session sitting at
// the 2FA gate.
func (s *Service) handleSendCode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.workflows.RequestCode(id); err != nil {
		respondDomainError(w, err)
		return
	}
	session, err := s.workflows.Get(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

type verifyCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// handleVerifyCode checks the entered code. A wrong code returns 400
// and leaves the session at the gate; there is no attempt limit.
func (s *Service) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req verifyCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := s.workflows.VerifyCode(id, req.Code); err != nil {
		respondDomainError(w, err)
		return
	}
	session, err := s.workflows.Get(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

type approveWorkflowRequest struct {
	Approver string `json:"approver" validate:"required"`
}

// handleApproveWorkflow records one sign-off on a multi-party session
// (mint, burn, redeem). The final sign-off executes the action.
func (s *Service) handleApproveWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req approveWorkflowRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := s.workflows.Approve(id, req.Approver); err != nil {
		respondDomainError(w, err)
		return
	}
	session, err := s.workflows.Get(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

type rejectWorkflowRequest struct {
	Approver string `json:"approver" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
}

// handleRejectWorkflow terminates a multi-party session with a
// mandatory free-text reason.
func (s *Service) handleRejectWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req rejectWorkflowRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := s.workflows.Reject(id, req.Approver, req.Reason); err != nil {
		respondDomainError(w, err)
		return
	}
	session, err := s.workflows.Get(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// handleConfirmWorkflow executes the terminal action of a session that
// has cleared the 2FA gate.
func (s *Service) handleConfirmWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.workflows.Confirm(id); err != nil {
		respondDomainError(w, err)
		return
	}
	session, err := s.workflows.Get(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// handleCancelWorkflow aborts an in-flight session. Nothing has been
// applied to the books at any pre-terminal state, so cancelling is
// always a clean no-op on the stores.
func (s *Service) handleCancelWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.workflows.Cancel(id); err != nil {
		respondDomainError(w, err)
		return
	}
	session, err := s.workflows.Get(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}
