package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/ledger"
	"ngo-backend/internal/service"
)

func (h *Handler) RegisterMember(w http.ResponseWriter, r *http.Request) {
	h.createMember(w, r, h.members.Register)
}

func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	h.createMember(w, r, h.members.Create)
}

func (h *Handler) createMember(w http.ResponseWriter, r *http.Request, create func(context.Context, service.MemberInput) (*domain.Member, error)) {
	var in service.MemberInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.members.List())
}

func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.members.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := h.members.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleMemberStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.members.ToggleStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.MemberStatus{"status": status})
}

type roleRequest struct {
	Role        domain.MemberRole   `json:"role"`
	Permissions []domain.Permission `json:"permissions"`
}

func (h *Handler) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.members.SetRole(r.Context(), mux.Vars(r)["id"], req.Role, req.Permissions); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) StartModeratorSession(w http.ResponseWriter, r *http.Request) {
	token, err := h.auth.StartModeratorSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}

type historyResponse struct {
	MemberName string                `json:"member_name"`
	Matches    int                   `json:"matching_members"`
	History    []ledger.HistoryEntry `json:"history"`
}

// MemberHistory lists donations attributed to a name. Matches above one
// means several members share the name and their donations are merged.
func (h *Handler) MemberHistory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	matches := h.members.FindByName(name)
	if len(matches) == 0 {
		writeError(w, r, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		MemberName: matches[0].Name,
		Matches:    len(matches),
		History:    h.ledger.History(name),
	})
}
