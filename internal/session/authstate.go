package session

import (
	"strings"
	"sync"
)

// StaticAuthState is a fixed auth snapshot, mainly for tests and embedded use.
type StaticAuthState struct {
	LoggedIn  bool
	AccountID string
}

func (s StaticAuthState) IsLoggedIn() bool {
	return s.LoggedIn
}

func (s StaticAuthState) CurrentAccountID() string {
	return s.AccountID
}

// MutableAuthState is an AuthState whose value can be swapped as the external
// provider reports transitions. The HTTP facade updates it per request from
// the bearer token so the resolver observes guest/authenticated switches.
type MutableAuthState struct {
	mu        sync.RWMutex
	loggedIn  bool
	accountID string
}

// NewMutableAuthState starts in the guest state.
func NewMutableAuthState() *MutableAuthState {
	return &MutableAuthState{}
}

func (m *MutableAuthState) IsLoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loggedIn && m.accountID != ""
}

func (m *MutableAuthState) CurrentAccountID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accountID
}

// SetAuthenticated records a login with the given account id.
func (m *MutableAuthState) SetAuthenticated(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountID = strings.TrimSpace(accountID)
	m.loggedIn = m.accountID != ""
}

// SetGuest records a logout.
func (m *MutableAuthState) SetGuest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountID = ""
	m.loggedIn = false
}
