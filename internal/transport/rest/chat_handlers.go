package rest

import (
	"io"
	"net/http"

	"github.com/honeyfield/storefront/pkg/web"
)

// SendChat relays an authenticated chat message to the chatbot backend,
// forwarding the caller's bearer token and passing the payload through
// untouched.
func (h *Handler) SendChat(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, _ := bearerToken(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.chat.Send(r.Context(), token, body)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Chat relay failed", "error", err)
		web.RespondError(w, mLogger, http.StatusBadGateway, "Chat service is unavailable")
		return
	}
	respondRaw(w, reply)
}

// SendPublicChat relays a chat message for an unauthenticated visitor.
func (h *Handler) SendPublicChat(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.chat.SendPublic(r.Context(), body)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Public chat relay failed", "error", err)
		web.RespondError(w, mLogger, http.StatusBadGateway, "Chat service is unavailable")
		return
	}
	respondRaw(w, reply)
}

// ChatHistory fetches the caller's chat history from the chatbot backend.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, _ := bearerToken(r)

	history, err := h.chat.History(r.Context(), token)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Chat history fetch failed", "error", err)
		web.RespondError(w, mLogger, http.StatusBadGateway, "Chat service is unavailable")
		return
	}
	respondRaw(w, history)
}

// ClearChatHistory deletes the caller's chat history on the chatbot backend.
func (h *Handler) ClearChatHistory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, _ := bearerToken(r)

	if err := h.chat.ClearHistory(r.Context(), token); err != nil {
		mLogger.ErrorContext(r.Context(), "Chat history clear failed", "error", err)
		web.RespondError(w, mLogger, http.StatusBadGateway, "Chat service is unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondRaw writes an upstream JSON payload through without re-encoding.
func respondRaw(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
