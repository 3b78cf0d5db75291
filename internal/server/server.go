//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kazkleen/crm/internal/auth"
	"github.com/kazkleen/crm/internal/cache"
	"github.com/kazkleen/crm/internal/storage"
)

type OrderService interface {
	Create(ctx context.Context, order storage.Order) (storage.Order, error)
	List(ctx context.Context) ([]storage.Order, error)
	FindByID(ctx context.Context, id int) (storage.Order, error)
	Complete(ctx context.Context, id int, username string) (storage.Order, error)
	Delete(ctx context.Context, id int) (bool, error)
}

type UserService interface {
	Authenticate(ctx context.Context, username, password string) (storage.User, error)
	Create(ctx context.Context, username, password string, role storage.Role) (storage.User, error)
	ChangePassword(ctx context.Context, username, newPassword string) error
	Delete(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]storage.User, error)
	Find(ctx context.Context, username string) (storage.User, error)
}

type TokenIssuer interface {
	Issue(user storage.User) (string, time.Time, error)
	Parse(token string) (*auth.Claims, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

const overviewCacheSize = 128

type Config struct {
	CORSOrigins []string
	Audit       AuditConfig
}

type Server struct {
	orders       OrderService
	users        UserService
	tokens       TokenIssuer
	log          *zap.Logger
	corsOrigins  []string
	overviews    *cache.OverviewCache
	server       *http.Server
	AuditManager *AuditManager
}

func New(orders OrderService, users UserService, tokens TokenIssuer, publisher EventPublisher, log *zap.Logger, cfg Config) *Server {
	return &Server{
		orders:       orders,
		users:        users,
		tokens:       tokens,
		log:          log,
		corsOrigins:  cfg.CORSOrigins,
		overviews:    cache.NewOverviewCache(overviewCacheSize, log),
		AuditManager: NewAuditManager(publisher, log, cfg.Audit),
	}
}

// Run serves HTTP until Shutdown is called. The audit manager runs until ctx
// is done.
func (s *Server) Run(ctx context.Context, port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.AuditManager.Start(ctx)

	s.log.Info("server starting", zap.String("port", port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
		s.log.Info("http server shutdown completed")
	}

	s.AuditManager.Shutdown(ctx)
	s.log.Info("server shutdown completed")
	return nil
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/session", s.handleCreateSession).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/orders", s.handleListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders", s.handleCreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id:[0-9]+}", s.handleGetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id:[0-9]+}/complete", s.requireManager(s.handleCompleteOrder)).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id:[0-9]+}", s.requireManager(s.handleDeleteOrder)).Methods(http.MethodDelete)
	api.HandleFunc("/orders/{id:[0-9]+}/overview.jpg", s.requireManager(s.handleOrderOverview)).Methods(http.MethodGet)

	api.HandleFunc("/dashboard", s.requireManager(s.handleDashboard)).Methods(http.MethodGet)
	api.HandleFunc("/export/orders.csv", s.requireManager(s.handleExportCSV)).Methods(http.MethodGet)
	api.HandleFunc("/export/orders.xlsx", s.requireManager(s.handleExportXLSX)).Methods(http.MethodGet)
	api.HandleFunc("/import", s.requireManager(s.handleImport)).Methods(http.MethodPost)

	api.HandleFunc("/users", s.requireManager(s.handleListUsers)).Methods(http.MethodGet)
	api.HandleFunc("/users", s.requireManager(s.handleCreateUser)).Methods(http.MethodPost)
	api.HandleFunc("/users/{username}/password", s.requireManager(s.handleChangePassword)).Methods(http.MethodPut)
	api.HandleFunc("/users/{username}", s.requireManager(s.handleDeleteUser)).Methods(http.MethodDelete)

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return corsHandler(s.auditLogMiddleware(r))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
