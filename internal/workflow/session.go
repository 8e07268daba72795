package workflow

import (
	"context"
	"sync"
	"time"
)

// State enumerates the approval workflow states. Transitions are
// linear; the only way back from a failure terminal is a fresh session.
type State string

const (
	StateIdle              State = "idle"
	StatePendingCompliance State = "pending_compliance"
	StateCompliancePassed  State = "compliance_passed"
	StateComplianceFailed  State = "compliance_failed"
	StatePendingTwoFactor  State = "pending_2fa"
	StateTwoFactorPassed   State = "2fa_passed"
	StatePendingApproval   State = "pending_approval"
	StateApproved          State = "approved"
	StateRejected          State = "rejected"
	StateExecuted          State = "executed"
	StateCancelled         State = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	switch s {
	case StateComplianceFailed, StateRejected, StateExecuted, StateCancelled:
		return true
	}
	return false
}

// Kind selects the workflow variant.
type Kind string

const (
	// KindSingleActor is the compliance -> 2FA -> confirm sequence used
	// by payment and swap submissions.
	KindSingleActor Kind = "single_actor"
	// KindMultiParty replaces the timer-driven checks with explicit
	// human approval steps, used by burn, redeem and order flows.
	KindMultiParty Kind = "multi_party"
)

// ApprovalStep is one human sign-off in a multi-party workflow.
type ApprovalStep struct {
	Role      string    `json:"role"`
	Approved  bool      `json:"approved"`
	Approver  string    `json:"approver,omitempty"`
	DecidedAt time.Time `json:"decidedAt,omitempty"`
}

// ExecuteFunc performs the terminal action of a workflow: exactly one
// store mutation followed by its audit append. It runs only when the
// workflow reaches its success terminal; nothing is persisted before.
// For multi-party sessions approver is the final sign-off.
type ExecuteFunc func(approver string) error

// Session is one in-flight approval workflow. All mutation goes through
// the owning Manager, which serializes access with the session mutex.
type Session struct {
	ID      string
	Channel string
	Kind    Kind

	mu         sync.Mutex
	state      State
	codeSent   bool
	steps      []ApprovalStep
	failReason string
	execute    ExecuteFunc
	createdAt  time.Time
	updatedAt  time.Time

	ctx    context.Context
	cancel context.CancelFunc
	// closed when the simulated compliance check has settled (passed,
	// failed or abandoned); used to synchronize callers and tests.
	complianceDone chan struct{}
}

// View is a read-only snapshot of a session for API responses.
type View struct {
	ID            string         `json:"id"`
	Channel       string         `json:"channel"`
	Kind          Kind           `json:"kind"`
	State         State          `json:"state"`
	CodeSent      bool           `json:"codeSent"`
	Steps         []ApprovalStep `json:"steps,omitempty"`
	FailureReason string         `json:"failureReason,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	steps := make([]ApprovalStep, len(s.steps))
	copy(steps, s.steps)
	return View{
		ID:            s.ID,
		Channel:       s.Channel,
		Kind:          s.Kind,
		State:         s.state,
		CodeSent:      s.codeSent,
		Steps:         steps,
		FailureReason: s.failReason,
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.updatedAt,
	}
}

// State returns the current workflow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ComplianceResolved is closed once the simulated compliance check has
// settled for a single-actor session.
func (s *Session) ComplianceResolved() <-chan struct{} {
	return s.complianceDone
}

func (s *Session) touch() {
	s.updatedAt = time.Now().UTC()
}
