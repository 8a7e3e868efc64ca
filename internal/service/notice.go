package service

import (
	"context"
	"strings"
	"time"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/repository"
)

type noticeService struct {
	noticeRepo repository.NoticeRepository
	state      StateReader
	now        func() time.Time
}

func NewNoticeService(noticeRepo repository.NoticeRepository, st StateReader, now func() time.Time) NoticeService {
	if now == nil {
		now = time.Now
	}
	return &noticeService{noticeRepo: noticeRepo, state: st, now: now}
}

func (s *noticeService) Create(ctx context.Context, message string) (*domain.Notice, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.NewValidationError("message", "is required")
	}
	n := &domain.Notice{Message: message, Date: s.now()}
	if err := s.noticeRepo.Create(ctx, n); err != nil {
		return nil, storeError("failed to create notice", err)
	}
	return n, nil
}

func (s *noticeService) Delete(ctx context.Context, id string) error {
	if err := s.noticeRepo.Delete(ctx, id); err != nil {
		return storeError("failed to delete notice", err)
	}
	return nil
}

func (s *noticeService) List() []domain.Notice {
	return s.state.Notices()
}
