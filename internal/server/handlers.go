package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kazkleen/crm/internal/aggregate"
	"github.com/kazkleen/crm/internal/export"
	"github.com/kazkleen/crm/internal/metrics"
	"github.com/kazkleen/crm/internal/storage"
)

const maxUploadSize = 10 << 20

type userResponse struct {
	Username string       `json:"username"`
	Role     storage.Role `json:"role"`
}

func toUserResponse(u storage.User) userResponse {
	return userResponse{Username: u.Username, Role: u.Role}
}

// respondServiceError maps repository errors to HTTP statuses.
func (s *Server) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrValidation), errors.Is(err, storage.ErrInvalidRole):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrDuplicateUsername):
		respondError(w, http.StatusConflict, "Username already exists. Please choose a different username.")
	default:
		metrics.OperationErrorsTotal.WithLabelValues(op).Inc()
		s.log.Error("request failed", zap.String("operation", op), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func orderIDFromRequest(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id %q", mux.Vars(r)["id"])
	}
	return id, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := storage.ValidateCredentials(req.Username, req.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials. Please try again.")
			return
		}
		s.respondServiceError(w, "create_session", err)
		return
	}
	setAuditUser(r.Context(), user.Username)

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		s.respondServiceError(w, "create_session", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
		"user":       toUserResponse(user),
	})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	recent := 0
	if v := r.URL.Query().Get("recent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid 'recent' parameter")
			return
		}
		recent = n
	}
	status := storage.Status(r.URL.Query().Get("status"))
	if status != "" && status != storage.StatusActive && status != storage.StatusCompleted {
		respondError(w, http.StatusBadRequest, "Invalid 'status' parameter")
		return
	}

	orders, err := s.orders.List(r.Context())
	if err != nil {
		s.respondServiceError(w, "list_orders", err)
		return
	}

	filtered := make([]storage.Order, 0, len(orders))
	for _, o := range orders {
		if status == "" || o.Status() == status {
			filtered = append(filtered, o)
		}
	}
	if recent > 0 {
		filtered = aggregate.Recent(filtered, recent)
	}
	respondJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientName string          `json:"clientName"`
		Date       string          `json:"date"`
		Floors     []storage.Floor `json:"floors"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, _ := PrincipalFrom(r.Context())
	order := storage.NormalizeOrder(storage.Order{
		ClientName:  req.ClientName,
		Date:        req.Date,
		Floors:      req.Floors,
		SubmittedBy: p.Username,
	})
	if err := storage.ValidateOrder(order); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.orders.Create(r.Context(), order)
	if err != nil {
		s.respondServiceError(w, "create_order", err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := s.orders.FindByID(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, "get_order", err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleCompleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if before, err := s.orders.FindByID(r.Context(), id); err == nil {
		setAuditOldStatus(r.Context(), string(before.Status()))
	}

	p, _ := PrincipalFrom(r.Context())
	order, err := s.orders.Complete(r.Context(), id, p.Username)
	if err != nil {
		s.respondServiceError(w, "complete_order", err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := s.orders.Delete(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, "delete_order", err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, fmt.Sprintf("order %d: %s", id, storage.ErrNotFound))
		return
	}
	s.overviews.Delete(id)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Order deleted successfully!"})
}

func (s *Server) handleOrderOverview(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := s.orders.FindByID(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, "order_overview", err)
		return
	}

	img, ok := s.overviews.Get(order)
	if !ok {
		var buf bytes.Buffer
		if err := export.WriteOverviewJPEG(&buf, order); err != nil {
			s.respondServiceError(w, "order_overview", err)
			return
		}
		img = buf.Bytes()
		s.overviews.Set(order, img)
	}
	sendFile(w, "image/jpeg", export.OverviewFileName(order), img)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	orders, err := s.orders.List(r.Context())
	if err != nil {
		s.respondServiceError(w, "dashboard", err)
		return
	}
	respondJSON(w, http.StatusOK, aggregate.BuildDashboard(orders))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	orders, err := s.orders.List(r.Context())
	if err != nil {
		s.respondServiceError(w, "export_csv", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, orders); err != nil {
		s.respondServiceError(w, "export_csv", err)
		return
	}
	sendFile(w, "text/csv; charset=utf-8", export.CSVFileName, buf.Bytes())
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	orders, err := s.orders.List(r.Context())
	if err != nil {
		s.respondServiceError(w, "export_xlsx", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, orders); err != nil {
		s.respondServiceError(w, "export_xlsx", err)
		return
	}
	sendFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.XLSXFileName, buf.Bytes())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing 'file' field")
		return
	}
	defer func() { _ = file.Close() }()

	p, _ := PrincipalFrom(r.Context())
	created, err := export.ImportOrders(r.Context(), s.orders, file, header.Filename, p.Username)
	if err != nil {
		if errors.Is(err, export.ErrInvalidFile) {
			s.log.Warn("import rejected", zap.String("file", header.Filename), zap.Error(err))
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondServiceError(w, "import", err)
		return
	}

	if created == nil {
		created = []storage.Order{}
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"imported": len(created),
		"orders":   created,
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.respondServiceError(w, "list_users", err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string       `json:"username"`
		Password string       `json:"password"`
		Role     storage.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := storage.ValidateCredentials(req.Username, req.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.users.Create(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		s.respondServiceError(w, "create_user", err)
		return
	}
	respondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := storage.ValidateCredentials(username, req.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.users.ChangePassword(r.Context(), username, req.Password); err != nil {
		s.respondServiceError(w, "change_password", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully!"})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	deleted, err := s.users.Delete(r.Context(), username)
	if err != nil {
		s.respondServiceError(w, "delete_user", err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, fmt.Sprintf("user %q: %s", username, storage.ErrNotFound))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully!"})
}

func sendFile(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
