package http

import (
	"context"
	"net/http"

	"ngo-backend/internal/chat"
	"ngo-backend/internal/domain"
	"ngo-backend/internal/security"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil && !h.health.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Stats())
}

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req domain.ContactEmail
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.email.SendContact(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"sent": true})
}

type chatRequest struct {
	History []domain.ChatMessage `json:"history"`
	Message string               `json:"message"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.chat == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "chat assistant is not configured"})
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reply, err := h.chat.Reply(r.Context(), chatAccess(r.Context()), req.History, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// chatAccess opens the member and ledger tools to callers who could read the
// same data through the admin routes.
func chatAccess(ctx context.Context) chat.Access {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return chat.Access{}
	}
	if claims.HasRole(security.RoleAdmin) {
		return chat.FullAccess
	}
	if !claims.HasRole(security.RoleModerator) {
		return chat.Access{}
	}
	return chat.Access{
		Members:      claims.HasPermission(string(domain.PermissionManageMembers)),
		Transactions: claims.HasPermission(string(domain.PermissionManageTransactions)),
	}
}
