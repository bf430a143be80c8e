package api

import (
	"github.com/go-chi/chi/v5"
)

// setupAPIRoutes sets up API v1 routes
func (s *RESTServer) setupAPIRoutes(r chi.Router) {
	// Health check
	r.Get("/health", s.HandleHealth)
	r.Get("/", s.HandleRoot)

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.HandleRegister)
		r.Post("/login", s.HandleLogin)
		r.Post("/refresh", s.HandleRefresh)
	})

	// Webhooks (public, authenticated by signature / verify token)
	r.Post("/billing/webhook", s.HandleBillingWebhook)
	r.Get("/whatsapp/webhook", s.HandleWhatsAppVerify)
	r.Post("/whatsapp/webhook", s.HandleWhatsAppWebhook)

	// Protected routes
	r.Group(func(r chi.Router) {
		// Billing
		r.Route("/billing", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/plans", s.HandleListPlans)
			r.Post("/checkout", s.HandleCreateCheckout)
			r.Post("/verify", s.HandleVerifyPayment)
		})

		// Users
		r.Route("/users", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListUsers)
			r.Get("/me", s.HandleGetCurrentUser)
		})

		// Organization (the caller's own)
		r.Route("/organization", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleGetOrganization)
			r.Put("/", s.HandleUpdateOrganization)
		})

		// Invitations
		r.Route("/invitations", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListInvitations)
			r.Post("/", s.HandleCreateInvitation)
			r.Post("/accept", s.HandleAcceptInvitation)
			r.Delete("/{id}", s.HandleDeleteInvitation)
		})

		// Properties
		r.Route("/properties", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListProperties)
			r.Post("/", s.HandleCreateProperty)
			r.Get("/duplicates", s.HandleDetectDuplicates)
			r.Post("/merge", s.HandleMergeProperties)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetProperty)
				r.Put("/", s.HandleUpdateProperty)
				r.Delete("/", s.HandleDeleteProperty)
			})
		})

		// Projects
		r.Route("/projects", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListProjects)
			r.Post("/", s.HandleCreateProject)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetProject)
				r.Put("/", s.HandleUpdateProject)
				r.Delete("/", s.HandleDeleteProject)
			})
		})

		// Categories
		r.Route("/categories", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListCategories)
			r.Post("/", s.HandleCreateCategory)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetCategory)
				r.Put("/", s.HandleUpdateCategory)
				r.Delete("/", s.HandleDeleteCategory)
			})
		})

		// Clients
		r.Route("/clients", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListClients)
			r.Post("/", s.HandleCreateClient)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetClient)
				r.Put("/", s.HandleUpdateClient)
				r.Delete("/", s.HandleDeleteClient)
				r.Get("/viewings", s.HandleListViewingRecords)
				r.Post("/viewings", s.HandleCreateViewingRecord)
				r.Get("/insights", s.HandleListInsights)
			})
		})

		// Viewing records
		r.Route("/viewings", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Delete("/{id}", s.HandleDeleteViewingRecord)
		})

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListConversations)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/messages", s.HandleListMessages)
				r.Post("/messages", s.HandleSendMessage)
			})
		})

		// Events
		r.Route("/events", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListEvents)
		})
	})
}
