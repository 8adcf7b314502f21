package commands

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/spabook/internal/calendar/domain"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// mockCalendarRepo is a mock implementation of domain.Repository.
type mockCalendarRepo struct {
	mock.Mock
}

func (m *mockCalendarRepo) LockDay(ctx context.Context, date sharedDomain.Date) error {
	return m.Called(ctx, date).Error(0)
}

func (m *mockCalendarRepo) CreateBlockedDay(ctx context.Context, day *domain.BlockedDay) error {
	return m.Called(ctx, day).Error(0)
}

func (m *mockCalendarRepo) FindBlockedDay(ctx context.Context, date sharedDomain.Date) (*domain.BlockedDay, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BlockedDay), args.Error(1)
}

func (m *mockCalendarRepo) DeleteBlockedDay(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCalendarRepo) ListBlockedDays(ctx context.Context, from sharedDomain.Date) ([]*domain.BlockedDay, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BlockedDay), args.Error(1)
}

func (m *mockCalendarRepo) CreateBlockedHours(ctx context.Context, r *domain.BlockedHourRange) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockCalendarRepo) FindBlockedHours(ctx context.Context, id uuid.UUID) (*domain.BlockedHourRange, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BlockedHourRange), args.Error(1)
}

func (m *mockCalendarRepo) DeleteBlockedHours(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCalendarRepo) ListBlockedHours(ctx context.Context, date sharedDomain.Date) ([]*domain.BlockedHourRange, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BlockedHourRange), args.Error(1)
}

// mockOutboxRepo is a mock implementation of outbox.Repository.
type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Save(ctx context.Context, msg *outbox.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	return m.Called(ctx, id, errMsg, nextRetryAt).Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

// mockUnitOfWork hands the caller's context back as the transaction context.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return ctx, args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// recordingInvalidator remembers invalidated dates.
type recordingInvalidator struct {
	mu    sync.Mutex
	dates []sharedDomain.Date
}

func (r *recordingInvalidator) Invalidate(_ context.Context, date sharedDomain.Date) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dates = append(r.dates, date)
}

func (r *recordingInvalidator) Dates() []sharedDomain.Date {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sharedDomain.Date(nil), r.dates...)
}

func committingUoW() *mockUnitOfWork {
	uow := new(mockUnitOfWork)
	uow.On("Begin", mock.Anything).Return(nil, nil)
	uow.On("Commit", mock.Anything).Return(nil)
	return uow
}

func rollingBackUoW() *mockUnitOfWork {
	uow := new(mockUnitOfWork)
	uow.On("Begin", mock.Anything).Return(nil, nil)
	uow.On("Rollback", mock.Anything).Return(nil)
	return uow
}
