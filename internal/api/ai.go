package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/safar/commerce-admin/internal/ai"
	"github.com/safar/commerce-admin/internal/logger"
)

type AIHandler struct {
	client *ai.Client
}

func NewAIHandler(client *ai.Client) *AIHandler {
	return &AIHandler{client: client}
}

func (h *AIHandler) Register(r chi.Router) {
	r.Route("/ai", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Get("/models", h.Models)
	})
}

func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ai.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "Message is required")
		return
	}

	resp, err := h.client.Chat(r.Context(), req)
	if err != nil {
		var upstream *ai.UpstreamError
		switch {
		case errors.Is(err, ai.ErrTimeout):
			respondError(w, http.StatusGatewayTimeout, "AI service timeout")
		case errors.Is(err, ai.ErrNotConfigured):
			respondError(w, http.StatusInternalServerError, "AI API key not configured")
		case errors.As(err, &upstream):
			// Relay the upstream status and raw error text.
			respondError(w, upstream.StatusCode, "AI API error: "+upstream.Body)
		default:
			logger.Error("ai chat failed", "err", err)
			respondError(w, http.StatusInternalServerError, "AI service error: "+err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *AIHandler) Models(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"models": ai.Models()})
}
