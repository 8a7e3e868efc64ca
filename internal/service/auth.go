package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository"
	"ngo-backend/internal/security"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// authService signs in the single configured administrator and issues
// scoped sessions for moderators.
type authService struct {
	memberRepo        repository.MemberRepository
	tokens            security.TokenManager
	adminEmail        string
	adminPasswordHash []byte
}

func NewAuthService(memberRepo repository.MemberRepository, tokens security.TokenManager, adminEmail, adminPasswordHash string) AuthService {
	return &authService{
		memberRepo:        memberRepo,
		tokens:            tokens,
		adminEmail:        strings.ToLower(strings.TrimSpace(adminEmail)),
		adminPasswordHash: []byte(adminPasswordHash),
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if s.adminEmail == "" || len(s.adminPasswordHash) == 0 || email != s.adminEmail {
		logger.WarnContext(ctx, "Rejected admin login", "email", email)
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(s.adminPasswordHash, []byte(password)); err != nil {
		logger.WarnContext(ctx, "Rejected admin login", "email", email)
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, ErrInvalidCredentials)
	}
	return s.tokens.GenerateAccessToken(s.adminEmail, s.adminEmail, []string{security.RoleAdmin}, nil)
}

// StartModeratorSession issues a token carrying the member's permissions.
// Only active moderators qualify.
func (s *authService) StartModeratorSession(ctx context.Context, memberID string) (string, error) {
	m, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return "", storeError("failed to load member", err)
	}
	if m.Role != domain.MemberRoleModerator || m.Status != domain.MemberStatusActive {
		return "", fmt.Errorf("%w: member %s is not an active moderator", domain.ErrForbidden, memberID)
	}
	perms := make([]string, 0, len(m.Permissions))
	for _, p := range m.Permissions {
		perms = append(perms, string(p))
	}
	return s.tokens.GenerateAccessToken(m.ID, m.Email, []string{security.RoleModerator}, perms)
}
