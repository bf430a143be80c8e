package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/estate-crm/estate-crm-server/internal/whatsapp"
)

// ========== WhatsApp webhook handlers ==========

// HandleWhatsAppVerify answers the platform's webhook verification
// handshake by echoing the challenge
func (s *RESTServer) HandleWhatsAppVerify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || token != s.config.WhatsApp.VerifyToken {
		log.Warn().Str("mode", mode).Msg("Webhook verification rejected")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	log.Info().Msg("Webhook verified")
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// HandleWhatsAppWebhook receives inbound message notifications. Always
// answers 200 once decoded so the platform does not retry messages that
// failed for reasons a retry cannot fix.
func (s *RESTServer) HandleWhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	var payload whatsapp.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Failed to decode webhook payload")
		s.respondError(w, http.StatusInternalServerError, "failed to decode payload")
		return
	}

	s.inboundProcessor.ProcessPayload(r.Context(), &payload)

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
