package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"ngo-backend/internal/config"
	"ngo-backend/internal/domain"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/security"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger tags each request with an id and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		l := logger.Get().With("request_id", requestID)
		ctx := logger.WithContext(r.Context(), l)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		l.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type claimsKey struct{}

func withClaims(ctx context.Context, claims *security.UserClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the caller's token claims. Public routes carry
// them only when the caller sent a valid token.
func ClaimsFromContext(ctx context.Context) (*security.UserClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*security.UserClaims)
	return claims, ok
}

// MemberLookup resolves a moderator session to the member's current record.
type MemberLookup interface {
	Lookup(id string) (domain.Member, bool)
}

type AuthMiddleware struct {
	tokenManager security.TokenManager
	members      MemberLookup
}

func NewAuthMiddleware(tm security.TokenManager, members MemberLookup) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm, members: members}
}

// Middleware authenticates and authorizes requests against the endpoint
// security table, keyed by the matched route template.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		template := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				template = tpl
			}
		}
		sec := config.GetEndpointSecurity(r.Method, template)

		// Public endpoint - a valid token is attached, anything else is anonymous
		if sec.Level == config.SecurityPublic {
			if claims, err := a.authenticate(r); err == nil {
				r = r.WithContext(withClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.authenticate(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		if err := checkSecurityLevel(sec, claims); err != nil {
			writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func (a *AuthMiddleware) authenticate(r *http.Request) (*security.UserClaims, error) {
	token, err := extractToken(r)
	if err != nil {
		return nil, err
	}
	claims, err := a.tokenManager.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return a.currentClaims(claims)
}

// currentClaims replaces a moderator's token permissions with the member's
// current ones, so demotion or deactivation takes effect on the next request.
func (a *AuthMiddleware) currentClaims(claims *security.UserClaims) (*security.UserClaims, error) {
	if claims.HasRole(security.RoleAdmin) || !claims.HasRole(security.RoleModerator) {
		return claims, nil
	}
	m, ok := a.members.Lookup(claims.Subject)
	if !ok || m.Role != domain.MemberRoleModerator || m.Status != domain.MemberStatusActive {
		return nil, fmt.Errorf("%w: moderator session %s is no longer valid", domain.ErrUnauthorized, claims.Subject)
	}
	current := *claims
	current.Permissions = make([]string, 0, len(m.Permissions))
	for _, p := range m.Permissions {
		current.Permissions = append(current.Permissions, string(p))
	}
	return &current, nil
}

func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("%w: authorization token is not provided", domain.ErrUnauthorized)
	}
	token := authHeader
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = token[7:]
	}
	return strings.TrimSpace(token), nil
}

func checkSecurityLevel(sec config.EndpointSecurity, claims *security.UserClaims) error {
	if claims.HasRole(security.RoleAdmin) {
		return nil
	}
	if sec.Level == config.SecurityModerator &&
		claims.HasRole(security.RoleModerator) &&
		claims.HasPermission(string(sec.Permission)) {
		return nil
	}
	return fmt.Errorf("%w: insufficient permissions", domain.ErrForbidden)
}
