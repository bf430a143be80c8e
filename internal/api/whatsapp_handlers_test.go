package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estate-crm/estate-crm-server/internal/billing"
	"github.com/estate-crm/estate-crm-server/internal/models"
)

func TestWhatsAppVerifyEchoesChallenge(t *testing.T) {
	s := newTestServer(t, newAPIFakeStore(), billing.NewMockProvider())

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestWhatsAppVerifyRejectsWrongToken(t *testing.T) {
	s := newTestServer(t, newAPIFakeStore(), billing.NewMockProvider())

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWhatsAppVerifyRejectsWrongMode(t *testing.T) {
	s := newTestServer(t, newAPIFakeStore(), billing.NewMockProvider())

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/whatsapp/webhook?hub.mode=unsubscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWhatsAppWebhookStoresInboundMessage(t *testing.T) {
	store := newAPIFakeStore()
	client := &models.Client{WhatsAppNumber: "15551234567"}
	client.ID = uuid.New()
	client.OrganizationID = uuid.New()
	store.clients[client.ID] = client

	s := newTestServer(t, store, billing.NewMockProvider())

	payload := map[string]interface{}{
		"object": "whatsapp_business_account",
		"entry": []map[string]interface{}{{
			"id": "entry-1",
			"changes": []map[string]interface{}{{
				"field": "messages",
				"value": map[string]interface{}{
					"messaging_product": "whatsapp",
					"messages": []map[string]interface{}{{
						"from":      "15551234567",
						"id":        "wamid.1",
						"timestamp": "1700000000",
						"type":      "text",
						"text":      map[string]string{"body": "Is the apartment still available?"},
					}},
				},
			}},
		}},
	}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/whatsapp/webhook", "", payload)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	require.Len(t, store.messages, 1)
	assert.Equal(t, "wamid.1", store.messages[0].MessageRef)
	assert.Equal(t, models.SenderClient, store.messages[0].SenderType)
	require.Len(t, store.conversations, 1)
}

func TestWhatsAppWebhookUnknownSenderIsAcknowledged(t *testing.T) {
	store := newAPIFakeStore()
	s := newTestServer(t, store, billing.NewMockProvider())

	payload := map[string]interface{}{
		"entry": []map[string]interface{}{{
			"changes": []map[string]interface{}{{
				"field": "messages",
				"value": map[string]interface{}{
					"messages": []map[string]interface{}{{
						"from":      "19990000000",
						"id":        "wamid.2",
						"timestamp": "1700000000",
						"type":      "text",
						"text":      map[string]string{"body": "hello"},
					}},
				},
			}},
		}},
	}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/whatsapp/webhook", "", payload)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.messages)
}

func TestWhatsAppWebhookRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t, newAPIFakeStore(), billing.NewMockProvider())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/whatsapp/webhook", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
