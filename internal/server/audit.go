package server

import (
	"context"
	"sync"
	"time"
)

type AuditLogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Handler    string    `json:"handler"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	Username   string    `json:"username,omitempty"`
	OrderID    string    `json:"order_id,omitempty"`
	OldStatus  string    `json:"old_status,omitempty"`
	NewStatus  string    `json:"new_status,omitempty"`
	Request    string    `json:"request,omitempty"`
	Response   string    `json:"response,omitempty"`
}

// auditState carries what the inner handlers learn about a request (the
// authenticated username, the order status before a completion) back out to
// the audit middleware, which wraps them.
type auditState struct {
	mu        sync.Mutex
	username  string
	oldStatus string
}

type auditStateKey struct{}

func withAuditState(ctx context.Context) (context.Context, *auditState) {
	st := &auditState{}
	return context.WithValue(ctx, auditStateKey{}, st), st
}

func setAuditUser(ctx context.Context, username string) {
	if st, ok := ctx.Value(auditStateKey{}).(*auditState); ok {
		st.mu.Lock()
		st.username = username
		st.mu.Unlock()
	}
}

func setAuditOldStatus(ctx context.Context, status string) {
	if st, ok := ctx.Value(auditStateKey{}).(*auditState); ok {
		st.mu.Lock()
		st.oldStatus = status
		st.mu.Unlock()
	}
}

func (st *auditState) get() (username, oldStatus string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.username, st.oldStatus
}
