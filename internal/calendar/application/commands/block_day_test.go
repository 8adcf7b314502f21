package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/spabook/internal/calendar/domain"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testDate  = sharedDomain.MustDate("2025-08-01")
	testClock = sharedApplication.FixedClock(time.Date(2025, 7, 20, 15, 0, 0, 0, time.UTC))
)

func TestBlockDayHandler_Handle(t *testing.T) {
	t.Run("blocks an open day", func(t *testing.T) {
		repo := new(mockCalendarRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := committingUoW()
		inv := &recordingInvalidator{}
		handler := NewBlockDayHandler(repo, outboxRepo, uow, inv, testClock)

		repo.On("LockDay", mock.Anything, testDate).Return(nil)
		repo.On("FindBlockedDay", mock.Anything, testDate).Return(nil, nil)
		repo.On("CreateBlockedDay", mock.Anything, mock.AnythingOfType("*domain.BlockedDay")).Return(nil)
		outboxRepo.On("SaveBatch", mock.Anything, mock.MatchedBy(func(msgs []*outbox.Message) bool {
			return len(msgs) == 1 && msgs[0].RoutingKey == domain.RoutingKeyDayBlocked
		})).Return(nil)

		result, err := handler.Handle(context.Background(), BlockDayCommand{Date: testDate, Reason: "feriado", BlockedBy: "admin"})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, result.BlockID)
		assert.Equal(t, []sharedDomain.Date{testDate}, inv.Dates())
		repo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
		uow.AssertExpectations(t)
	})

	t.Run("second block on the same day fails and writes nothing", func(t *testing.T) {
		repo := new(mockCalendarRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := rollingBackUoW()
		inv := &recordingInvalidator{}
		handler := NewBlockDayHandler(repo, outboxRepo, uow, inv, testClock)

		existing := domain.NewBlockedDay(testDate, "feriado", "admin", time.Now())
		repo.On("LockDay", mock.Anything, testDate).Return(nil)
		repo.On("FindBlockedDay", mock.Anything, testDate).Return(existing, nil)

		_, err := handler.Handle(context.Background(), BlockDayCommand{Date: testDate, Reason: "otra vez"})

		assert.ErrorIs(t, err, domain.ErrAlreadyBlocked)
		assert.Empty(t, inv.Dates())
		repo.AssertNotCalled(t, "CreateBlockedDay", mock.Anything, mock.Anything)
		outboxRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
		uow.AssertExpectations(t)
	})

	t.Run("outbox failure rolls back", func(t *testing.T) {
		repo := new(mockCalendarRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := rollingBackUoW()
		handler := NewBlockDayHandler(repo, outboxRepo, uow, nil, testClock)

		repo.On("LockDay", mock.Anything, testDate).Return(nil)
		repo.On("FindBlockedDay", mock.Anything, testDate).Return(nil, nil)
		repo.On("CreateBlockedDay", mock.Anything, mock.Anything).Return(nil)
		outboxRepo.On("SaveBatch", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		_, err := handler.Handle(context.Background(), BlockDayCommand{Date: testDate})

		assert.EqualError(t, err, "disk full")
		uow.AssertExpectations(t)
	})
}

func TestUnblockDayHandler_Handle(t *testing.T) {
	t.Run("lifts an existing block", func(t *testing.T) {
		repo := new(mockCalendarRepo)
		outboxRepo := new(mockOutboxRepo)
		inv := &recordingInvalidator{}
		handler := NewUnblockDayHandler(repo, outboxRepo, committingUoW(), inv, testClock)

		existing := domain.NewBlockedDay(testDate, "feriado", "admin", time.Now())
		existing.ClearDomainEvents()
		repo.On("LockDay", mock.Anything, testDate).Return(nil)
		repo.On("FindBlockedDay", mock.Anything, testDate).Return(existing, nil)
		repo.On("DeleteBlockedDay", mock.Anything, existing.ID()).Return(nil)
		outboxRepo.On("SaveBatch", mock.Anything, mock.MatchedBy(func(msgs []*outbox.Message) bool {
			return len(msgs) == 1 && msgs[0].RoutingKey == domain.RoutingKeyDayUnblocked
		})).Return(nil)

		require.NoError(t, handler.Handle(context.Background(), UnblockDayCommand{Date: testDate, UnblockedBy: "admin"}))
		assert.Equal(t, []sharedDomain.Date{testDate}, inv.Dates())
		repo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("open day is not found", func(t *testing.T) {
		repo := new(mockCalendarRepo)
		handler := NewUnblockDayHandler(repo, new(mockOutboxRepo), rollingBackUoW(), nil, testClock)

		repo.On("LockDay", mock.Anything, testDate).Return(nil)
		repo.On("FindBlockedDay", mock.Anything, testDate).Return(nil, nil)

		err := handler.Handle(context.Background(), UnblockDayCommand{Date: testDate})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
