// Package http exposes the services as a JSON API over gorilla/mux.
package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ngo-backend/internal/security"
	"ngo-backend/internal/service"
)

// ReadinessChecker reports whether the application state has loaded.
type ReadinessChecker interface {
	Ready() bool
}

// Services groups the dependencies of the handlers. Chat may be nil when no
// model is configured.
type Services struct {
	Ledger  service.LedgerService
	Members service.MemberService
	Notices service.NoticeService
	Email   service.EmailService
	Chat    service.ChatService
	Auth    service.AuthService
}

type Handler struct {
	ledger  service.LedgerService
	members service.MemberService
	notices service.NoticeService
	email   service.EmailService
	chat    service.ChatService
	auth    service.AuthService
	health  ReadinessChecker
	loc     *time.Location
}

func NewHandler(svcs Services, health ReadinessChecker, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		ledger:  svcs.Ledger,
		members: svcs.Members,
		notices: svcs.Notices,
		email:   svcs.Email,
		chat:    svcs.Chat,
		auth:    svcs.Auth,
		health:  health,
		loc:     loc,
	}
}

// NewRouter registers every route with request logging and authorization.
// Paths are registered in full so route templates match the security table.
func NewRouter(h *Handler, tokens security.TokenManager) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogger)
	router.Use(NewAuthMiddleware(tokens, h.members).Middleware)

	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/auth/login", h.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/stats", h.Stats).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/contact", h.Contact).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/chat", h.Chat).Methods(http.MethodPost)

	router.HandleFunc("/api/v1/members/register", h.RegisterMember).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/members/by-name/{name}/history", h.MemberHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/members", h.ListMembers).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/members", h.CreateMember).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/members/{id}", h.GetMember).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/members/{id}", h.DeleteMember).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/members/{id}/toggle-status", h.ToggleMemberStatus).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/members/{id}/role", h.SetMemberRole).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/members/{id}/session", h.StartModeratorSession).Methods(http.MethodPost)

	router.HandleFunc("/api/v1/transactions", h.ListTransactions).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/transactions", h.AppendTransaction).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/transactions", h.ClearTransactions).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/statements", h.Statement).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/notices", h.ListNotices).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/notices", h.CreateNotice).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/notices/{id}", h.DeleteNotice).Methods(http.MethodDelete)

	return router
}
