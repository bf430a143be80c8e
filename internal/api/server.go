package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/estate-crm/estate-crm-server/internal/auth"
	"github.com/estate-crm/estate-crm-server/internal/billing"
	"github.com/estate-crm/estate-crm-server/internal/config"
	"github.com/estate-crm/estate-crm-server/internal/server"
	"github.com/estate-crm/estate-crm-server/internal/storage"
	"github.com/estate-crm/estate-crm-server/internal/validation"
	"github.com/estate-crm/estate-crm-server/internal/whatsapp"
)

// RESTServer represents the REST API server
type RESTServer struct {
	config    *config.Config
	store     storage.Store
	auth      *auth.JWTManager
	validator *validation.Validator
	router    chi.Router
	server    *http.Server

	billingProvider  billing.Provider
	billingProcessor *billing.Processor
	inboundProcessor *whatsapp.Processor
	whatsappClient   *whatsapp.Client
}

// NewRESTServer creates a new REST API server. bus may be nil when NATS
// is not configured.
func NewRESTServer(cfg *config.Config, store storage.Store, provider billing.Provider, bus *server.EventBus) *RESTServer {
	s := &RESTServer{
		config:    cfg,
		store:     store,
		auth:      auth.NewJWTManager(&cfg.JWT),
		validator: validation.NewValidator(),
		router:    chi.NewRouter(),

		billingProvider:  provider,
		billingProcessor: billing.NewProcessor(store, bus),
		inboundProcessor: whatsapp.NewProcessor(store, bus),
		whatsappClient:   whatsapp.NewClient(cfg.WhatsApp.APIURL, cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.AccessToken),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all routes
func (s *RESTServer) setupRoutes() {
	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		s.setupAPIRoutes(r)
	})
}

// ListenAndServe starts the server
func (s *RESTServer) ListenAndServe(addr string) error {
	s.server.Addr = addr

	log.Info().Str("addr", addr).Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *RESTServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type contextKey string

const claimsContextKey contextKey = "claims"

// authMiddleware is the authentication middleware
func (s *RESTServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.respondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.respondError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		claims, err := s.auth.ValidateToken(parts[1])
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimsFromContext returns the authenticated claims, nil outside
// authMiddleware
func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

// organizationID returns the caller's organization, responding 403 when
// the account is not attached to one
func (s *RESTServer) organizationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims := claimsFromContext(r.Context())
	if claims == nil || claims.OrganizationID == nil {
		s.respondError(w, http.StatusForbidden, "no organization")
		return uuid.Nil, false
	}
	return *claims.OrganizationID, true
}
