package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kazkleen/crm/internal/storage"
)

const maxAuditBody = 4096

func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || r.URL.Path == "/metrics" || r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get("Content-Type")
		skipRequestBody := strings.Contains(contentType, "multipart/form-data") || carriesPassword(r.URL.Path)
		entry := AuditLogEntry{
			Timestamp: time.Now(),
			Method:    r.Method,
			Path:      r.URL.Path,
			Handler:   getHandlerName(r.URL.Path, r.Method),
			OrderID:   orderIDFromPath(r.URL.Path),
		}

		if !skipRequestBody && r.Body != nil {
			head, _ := io.ReadAll(io.LimitReader(r.Body, maxAuditBody+1))
			r.Body = readCloser{
				Reader: io.MultiReader(bytes.NewReader(head), r.Body),
				Closer: r.Body,
			}
			entry.Request = truncateBody(head)
		}

		ctx, state := withAuditState(r.Context())
		wrw := newResponseWriterWrapper(w)

		next.ServeHTTP(wrw, r.WithContext(ctx))

		entry.StatusCode = wrw.GetStatusCode()
		entry.Username, entry.OldStatus = state.get()
		if !carriesToken(r.URL.Path) && strings.HasPrefix(wrw.Header().Get("Content-Type"), "application/json") {
			entry.Response = truncateBody(wrw.GetBody())
		}
		if entry.OldStatus != "" && entry.StatusCode == http.StatusOK {
			entry.NewStatus = string(storage.StatusCompleted)
		}

		s.AuditManager.LogEntry(r.Context(), entry)
	})
}

type readCloser struct {
	io.Reader
	io.Closer
}

func carriesPassword(path string) bool {
	return path == "/session" || strings.HasPrefix(path, "/users")
}

// carriesToken reports whether the response to path holds a bearer token.
func carriesToken(path string) bool {
	return path == "/session"
}

func orderIDFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "orders" {
		return parts[1]
	}
	return ""
}

func truncateBody(b []byte) string {
	if len(b) > maxAuditBody {
		return string(b[:maxAuditBody]) + "..."
	}
	return string(b)
}

func getHandlerName(path string, method string) string {
	switch {
	case path == "/session":
		return "handleCreateSession"
	case path == "/orders":
		if method == http.MethodPost {
			return "handleCreateOrder"
		}
		return "handleListOrders"
	case strings.HasPrefix(path, "/orders/"):
		if strings.HasSuffix(path, "/complete") {
			return "handleCompleteOrder"
		} else if strings.HasSuffix(path, "/overview.jpg") {
			return "handleOrderOverview"
		} else if method == http.MethodDelete {
			return "handleDeleteOrder"
		}
		return "handleGetOrder"
	case path == "/dashboard":
		return "handleDashboard"
	case strings.HasPrefix(path, "/export/"):
		return "handleExport"
	case path == "/import":
		return "handleImport"
	case path == "/users":
		if method == http.MethodPost {
			return "handleCreateUser"
		}
		return "handleListUsers"
	case strings.HasPrefix(path, "/users/"):
		if strings.HasSuffix(path, "/password") {
			return "handleChangePassword"
		}
		return "handleDeleteUser"
	}
	return "unknown"
}
