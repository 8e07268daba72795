package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"treasury-desk-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager errors.
var (
	ErrSessionNotFound = errors.New("workflow session not found")
	ErrChannelBusy     = errors.New("a workflow is already in flight on this channel")
	ErrWrongState      = errors.New("operation not allowed in current workflow state")
	ErrReasonRequired  = errors.New("a rejection reason is required")
	ErrNotMultiParty   = errors.New("session is not a multi-party workflow")
)

// Manager owns all in-flight workflow sessions. It enforces at most one
// session per channel, runs the simulated compliance timer on a
// cancellable context, and guarantees the terminal execute runs at most
// once per session.
type Manager struct {
	checker ComplianceChecker
	sender  CodeSender
	codes   *codeVault
	delay   time.Duration
	ttl     time.Duration

	mu        sync.Mutex
	sessions  map[string]*Session
	byChannel map[string]string
	closed    bool
}

// NewManager builds a workflow manager. A nil sender falls back to the
// fixed demo code sender.
func NewManager(cfg models.WorkflowConfig, checker ComplianceChecker, sender CodeSender) *Manager {
	if sender == nil {
		sender = StaticCodeSender{}
	}
	return &Manager{
		checker:   checker,
		sender:    sender,
		codes:     newCodeVault(cfg.TwoFactorCodeTTL),
		delay:     cfg.ComplianceDelay,
		ttl:       cfg.SessionTTL,
		sessions:  make(map[string]*Session),
		byChannel: make(map[string]string),
	}
}

// BeginParams describes a new workflow request.
type BeginParams struct {
	Channel string
	Kind    Kind
	Roles   []string // multi-party approval step roles, in order
	Execute ExecuteFunc
}

// Begin starts a workflow session. Single-actor sessions immediately
// enter the simulated compliance check; multi-party sessions wait for
// their first approval.
func (m *Manager) Begin(ctx context.Context, params BeginParams) (*Session, error) {
	if params.Execute == nil {
		return nil, fmt.Errorf("workflow requires an execute action")
	}
	if params.Kind == KindMultiParty && len(params.Roles) == 0 {
		return nil, fmt.Errorf("multi-party workflow requires approval roles")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("workflow manager is shut down")
	}
	if existingID, busy := m.byChannel[params.Channel]; busy {
		if existing, ok := m.sessions[existingID]; ok && !existing.State().Terminal() {
			return nil, fmt.Errorf("%w: %s", ErrChannelBusy, params.Channel)
		}
	}

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	now := time.Now().UTC()
	session := &Session{
		ID:             uuid.New().String(),
		Channel:        params.Channel,
		Kind:           params.Kind,
		state:          StateIdle,
		execute:        params.Execute,
		createdAt:      now,
		updatedAt:      now,
		ctx:            sessionCtx,
		cancel:         cancel,
		complianceDone: make(chan struct{}),
	}

	switch params.Kind {
	case KindSingleActor:
		session.state = StatePendingCompliance
		go m.runComplianceCheck(session)
	case KindMultiParty:
		session.state = StatePendingApproval
		session.steps = make([]ApprovalStep, len(params.Roles))
		for i, role := range params.Roles {
			session.steps[i] = ApprovalStep{Role: role}
		}
		close(session.complianceDone)
	default:
		cancel()
		return nil, fmt.Errorf("unknown workflow kind: %q", params.Kind)
	}

	m.sessions[session.ID] = session
	m.byChannel[params.Channel] = session.ID

	zap.L().Info("Workflow session started",
		zap.String("session_id", session.ID),
		zap.String("channel", params.Channel),
		zap.String("kind", string(params.Kind)))

	return session, nil
}

// runComplianceCheck waits the configured delay, then applies the
// injected policy. The wait selects on the session context so a cancel
// or expiry sweep aborts the timer instead of firing against a dead
// session.
func (m *Manager) runComplianceCheck(session *Session) {
	defer close(session.complianceDone)

	timer := time.NewTimer(m.delay)
	defer timer.Stop()

	select {
	case <-session.ctx.Done():
		return
	case <-timer.C:
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state != StatePendingCompliance {
		return
	}

	if m.checker.Pass() {
		// compliance_passed auto-advances to the 2FA gate.
		session.state = StatePendingTwoFactor
		zap.L().Info("Compliance check passed",
			zap.String("session_id", session.ID))
	} else {
		session.state = StateComplianceFailed
		session.failReason = "compliance check failed"
		zap.L().Warn("Compliance check failed",
			zap.String("session_id", session.ID))
	}
	session.touch()
}

// Get returns a session by id.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return session, nil
}

// GetByChannel returns the session currently bound to a channel, if any.
func (m *Manager) GetByChannel(channel string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byChannel[channel]
	if !ok {
		return nil, false
	}
	session, ok := m.sessions[id]
	return session, ok
}

// RequestCode issues a two-factor code for a single-actor session in
// the 2FA gate. Re-requesting replaces the previous code.
func (m *Manager) RequestCode(sessionID string) error {
	session, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state != StatePendingTwoFactor {
		return fmt.Errorf("%w: %s", ErrWrongState, session.state)
	}

	code, err := m.sender.Send(sessionID)
	if err != nil {
		return fmt.Errorf("failed to send code: %w", err)
	}
	m.codes.put(sessionID, code)
	session.codeSent = true
	session.touch()

	zap.L().Info("Two-factor code issued", zap.String("session_id", sessionID))
	return nil
}

// VerifyCode checks an entered two-factor code. A mismatch leaves the
// session in the 2FA gate with no attempt limit; only the issued code
// advances it.
func (m *Manager) VerifyCode(sessionID, code string) error {
	session, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state != StatePendingTwoFactor {
		return fmt.Errorf("%w: %s", ErrWrongState, session.state)
	}
	if !session.codeSent {
		return ErrCodeNotSent
	}

	if err := m.codes.verify(sessionID, code); err != nil {
		return err
	}

	session.state = StateTwoFactorPassed
	session.touch()
	return nil
}

// Confirm runs the terminal action of a single-actor session that has
// cleared the 2FA gate. The store mutation and its audit append happen
// here and nowhere earlier.
func (m *Manager) Confirm(sessionID string) error {
	session, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state != StateTwoFactorPassed {
		return fmt.Errorf("%w: %s", ErrWrongState, session.state)
	}
	return m.executeLocked(session)
}

// Approve records one human sign-off on a multi-party session. The
// final approval executes the terminal action.
func (m *Manager) Approve(sessionID, approver string) error {
	session, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Kind != KindMultiParty {
		return ErrNotMultiParty
	}
	if session.state != StatePendingApproval {
		return fmt.Errorf("%w: %s", ErrWrongState, session.state)
	}

	for i := range session.steps {
		if session.steps[i].Approved {
			continue
		}
		session.steps[i].Approved = true
		session.steps[i].Approver = approver
		session.steps[i].DecidedAt = time.Now().UTC()

		if i == len(session.steps)-1 {
			session.state = StateApproved
			zap.L().Info("All approvals collected",
				zap.String("session_id", sessionID),
				zap.String("final_approver", approver))
			return m.executeLocked(session)
		}

		session.touch()
		zap.L().Info("Approval step recorded",
			zap.String("session_id", sessionID),
			zap.String("role", session.steps[i].Role),
			zap.String("approver", approver))
		return nil
	}
	return fmt.Errorf("%w: no pending approval step", ErrWrongState)
}

// Reject fails a multi-party session. A non-empty reason is mandatory.
func (m *Manager) Reject(sessionID, approver, reason string) error {
	if reason == "" {
		return ErrReasonRequired
	}

	session, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Kind != KindMultiParty {
		return ErrNotMultiParty
	}
	if session.state != StatePendingApproval {
		return fmt.Errorf("%w: %s", ErrWrongState, session.state)
	}

	session.state = StateRejected
	session.failReason = reason
	session.touch()
	session.cancel()

	zap.L().Warn("Workflow rejected",
		zap.String("session_id", sessionID),
		zap.String("approver", approver),
		zap.String("reason", reason))
	return nil
}

// Cancel aborts a non-terminal session. Pending compliance timers are
// stopped via the session context, so no callback fires afterwards.
func (m *Manager) Cancel(sessionID string) error {
	session, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state.Terminal() {
		return fmt.Errorf("%w: %s", ErrWrongState, session.state)
	}

	session.state = StateCancelled
	session.touch()
	session.cancel()
	m.codes.drop(sessionID)

	zap.L().Info("Workflow cancelled", zap.String("session_id", sessionID))
	return nil
}

// executeLocked runs the terminal action with the session lock held.
// On failure the session keeps its current state so the caller can
// retry or cancel; nothing is partially applied before the execute.
func (m *Manager) executeLocked(session *Session) error {
	var approver string
	if n := len(session.steps); n > 0 {
		approver = session.steps[n-1].Approver
	}
	if err := session.execute(approver); err != nil {
		zap.L().Error("Workflow execution failed",
			zap.String("session_id", session.ID),
			zap.Error(err))
		return err
	}

	session.state = StateExecuted
	session.touch()
	session.cancel()
	m.codes.drop(session.ID)

	zap.L().Info("Workflow executed", zap.String("session_id", session.ID))
	return nil
}

// SweepExpired cancels sessions idle past the TTL and drops terminal
// sessions that have aged out. Returns the number of sessions swept.
func (m *Manager) SweepExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	swept := 0
	for id, session := range m.sessions {
		session.mu.Lock()
		idle := now.Sub(session.updatedAt)
		terminal := session.state.Terminal()
		if idle > m.ttl {
			if !terminal {
				session.state = StateCancelled
				session.cancel()
				m.codes.drop(id)
				zap.L().Info("Expired workflow session cancelled",
					zap.String("session_id", id),
					zap.Duration("idle", idle))
			}
			delete(m.sessions, id)
			if m.byChannel[session.Channel] == id {
				delete(m.byChannel, session.Channel)
			}
			swept++
		}
		session.mu.Unlock()
	}
	return swept
}

// Close cancels every in-flight session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for id, session := range m.sessions {
		session.mu.Lock()
		if !session.state.Terminal() {
			session.state = StateCancelled
		}
		session.cancel()
		session.mu.Unlock()
		m.codes.drop(id)
	}
}
