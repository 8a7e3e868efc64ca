package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/ledger"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository"
)

type memberService struct {
	memberRepo repository.MemberRepository
	state      StateReader
	now        func() time.Time
}

func NewMemberService(memberRepo repository.MemberRepository, st StateReader, now func() time.Time) MemberService {
	if now == nil {
		now = time.Now
	}
	return &memberService{memberRepo: memberRepo, state: st, now: now}
}

// Register is self-registration; the member waits inactive for approval.
func (s *memberService) Register(ctx context.Context, in MemberInput) (*domain.Member, error) {
	return s.create(ctx, in, domain.MemberStatusInactive)
}

func (s *memberService) Create(ctx context.Context, in MemberInput) (*domain.Member, error) {
	return s.create(ctx, in, domain.MemberStatusActive)
}

func (s *memberService) create(ctx context.Context, in MemberInput, status domain.MemberStatus) (*domain.Member, error) {
	logger.EnterMethod("memberService.create", "status", status)

	if strings.TrimSpace(in.Name) == "" {
		err := domain.NewValidationError("name", "is required")
		logger.ExitMethodWithError("memberService.create", err)
		return nil, err
	}

	m := &domain.Member{
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Address:     in.Address,
		FatherName:  in.FatherName,
		MotherName:  in.MotherName,
		DateOfBirth: in.DateOfBirth,
		BloodGroup:  in.BloodGroup,
		Occupation:  in.Occupation,
		NationalID:  in.NationalID,
		PhotoURL:    in.PhotoURL,
		Status:      status,
		JoinDate:    s.now(),
		Role:        domain.MemberRoleMember,
	}
	if err := s.memberRepo.Create(ctx, m); err != nil {
		logger.ExitMethodWithError("memberService.create", err)
		return nil, storeError("failed to create member", err)
	}

	logger.ExitMethod("memberService.create", "id", m.ID)
	return m, nil
}

func (s *memberService) ToggleStatus(ctx context.Context, id string) (domain.MemberStatus, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	next := m.Status.Toggle()
	if err := s.memberRepo.UpdateStatus(ctx, id, next); err != nil {
		return "", storeError("failed to update member status", err)
	}
	logger.Info("Member status changed", "id", id, "status", next)
	return next, nil
}

// SetRole replaces the role and permission set. Plain members carry no
// permissions.
func (s *memberService) SetRole(ctx context.Context, id string, role domain.MemberRole, permissions []domain.Permission) error {
	switch role {
	case domain.MemberRoleMember:
		permissions = nil
	case domain.MemberRoleModerator:
		seen := make(map[domain.Permission]bool, len(permissions))
		unique := make([]domain.Permission, 0, len(permissions))
		for _, p := range permissions {
			if _, err := domain.ParsePermission(string(p)); err != nil {
				return err
			}
			if !seen[p] {
				seen[p] = true
				unique = append(unique, p)
			}
		}
		permissions = unique
	default:
		return domain.NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}

	if err := s.memberRepo.UpdateRole(ctx, id, role, permissions); err != nil {
		return storeError("failed to update member role", err)
	}
	return nil
}

func (s *memberService) Delete(ctx context.Context, id string) error {
	if err := s.memberRepo.Delete(ctx, id); err != nil {
		return storeError("failed to delete member", err)
	}
	logger.Info("Member deleted", "id", id)
	return nil
}

func (s *memberService) Get(ctx context.Context, id string) (*domain.Member, error) {
	m, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("failed to get member", err)
	}
	return m, nil
}

func (s *memberService) Lookup(id string) (domain.Member, bool) {
	for _, m := range s.state.Members() {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Member{}, false
}

func (s *memberService) List() []domain.Member {
	return s.state.Members()
}

// FindByName returns every member whose name matches case-insensitively.
// Donations are attributed by name only, so more than one result means
// the history for that name is shared.
func (s *memberService) FindByName(name string) []domain.Member {
	name = strings.TrimSpace(name)
	var out []domain.Member
	for _, m := range s.state.Members() {
		if strings.EqualFold(strings.TrimSpace(m.Name), name) {
			out = append(out, m)
		}
	}
	return out
}

func (s *memberService) Counts() domain.MemberCounts {
	return ledger.CountMembers(s.state.Members())
}

// storeError keeps not-found distinct and tags everything else as a store
// failure.
func storeError(msg string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStore, msg, err)
}
