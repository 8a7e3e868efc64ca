package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

type noticeRequest struct {
	Message string `json:"message"`
}

func (h *Handler) ListNotices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notices.List())
}

func (h *Handler) CreateNotice(w http.ResponseWriter, r *http.Request) {
	var req noticeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.notices.Create(r.Context(), req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *Handler) DeleteNotice(w http.ResponseWriter, r *http.Request) {
	if err := h.notices.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
