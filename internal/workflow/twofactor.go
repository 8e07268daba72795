package workflow

import (
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
)

// Code delivery and verification errors.
var (
	ErrCodeNotSent  = errors.New("no code has been sent for this session")
	ErrCodeExpired  = errors.New("code expired, request a new one")
	ErrCodeMismatch = errors.New("code does not match")
)

// CodeSender issues a two-factor code for a session. Production would
// deliver the code out of band; the default demo sender returns the
// fixed code used throughout the legacy screens.
type CodeSender interface {
	Send(sessionID string) (string, error)
}

// StaticCodeSender always issues the same code.
type StaticCodeSender struct {
	Code string
}

// DemoCode is the fixed two-factor code accepted by the demo sender.
const DemoCode = "123456"

func (s StaticCodeSender) Send(string) (string, error) {
	if s.Code == "" {
		return DemoCode, nil
	}
	return s.Code, nil
}

// codeVault holds issued codes with expiry.
type codeVault struct {
	cache *cache.Cache
}

func newCodeVault(ttl time.Duration) *codeVault {
	return &codeVault{cache: cache.New(ttl, 2*ttl)}
}

func (v *codeVault) put(sessionID, code string) {
	v.cache.Set(sessionID, code, cache.DefaultExpiration)
}

// verify checks the entered code against the issued one. A mismatch is
// not terminal: the caller may retry without limit.
func (v *codeVault) verify(sessionID, entered string) error {
	value, found := v.cache.Get(sessionID)
	if !found {
		return ErrCodeExpired
	}
	if value.(string) != entered {
		return ErrCodeMismatch
	}
	v.cache.Delete(sessionID)
	return nil
}

func (v *codeVault) drop(sessionID string) {
	v.cache.Delete(sessionID)
}
