package app

import (
	"strings"
	"sync"

	"shift_approval_bot/internal/domain/employee"
)

// AuthRegistry maps a chat session to the employee who authenticated it by
// sharing their phone number. Lives in process memory only; a restart logs
// everyone out. Safe for concurrent use across sessions.
type AuthRegistry struct {
	mu    sync.RWMutex
	users map[int64]*employee.Employee
}

func NewAuthRegistry() *AuthRegistry {
	return &AuthRegistry{users: make(map[int64]*employee.Employee)}
}

// Login records the mapping, overwriting any prior one for the session.
func (r *AuthRegistry) Login(sessionID int64, emp *employee.Employee) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[sessionID] = emp
}

// Current returns the authenticated employee for the session, or nil.
func (r *AuthRegistry) Current(sessionID int64) *employee.Employee {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.users[sessionID]
}

// SanitizePhone normalizes a shared phone number into the canonical
// country-coded digit string used on the employees sheet: strip everything
// but digits, then rewrite a 10-digit local number ("0XXXXXXXXX") with the
// 38 country prefix. Anything else passes through as its digits.
func SanitizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 && strings.HasPrefix(digits, "0") {
		digits = "38" + digits
	}
	return digits
}
