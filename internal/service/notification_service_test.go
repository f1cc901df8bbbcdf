package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"signaldesk/internal/domain"
	"signaldesk/pkg/logger"
)

func TestNotificationService_NotifyStoresAndFansOut(t *testing.T) {
	ctx := context.Background()
	repo := &mockNotificationRepo{}
	pub := &mockPublisher{}
	chat := &mockChat{}
	svc := NewNotificationService(repo, pub, chat, logger.NewNop())

	n := &domain.AdminNotification{Kind: domain.NotificationSignup, Title: "New sign-up"}
	repo.On("Create", ctx, n).Return(nil)
	pub.On("Publish", ctx, domain.TopicAdmin, domain.Event{Type: domain.EventAdminNotification, Data: n}).Return(nil)
	chat.On("NotifyAdmin", ctx, n).Return(nil)

	require.NoError(t, svc.Notify(ctx, n))
	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.False(t, n.CreatedAt.IsZero())
	pub.AssertExpectations(t)
	chat.AssertExpectations(t)
}

func TestNotificationService_FanoutFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}
	chat := &mockChat{}
	svc := NewNotificationService(&mockNotificationRepo{}, pub, chat, logger.NewNop())

	n := &domain.AdminNotification{ID: uuid.New()}
	pub.On("Publish", ctx, domain.TopicAdmin, mock.Anything).Return(assert.AnError)
	chat.On("NotifyAdmin", ctx, n).Return(assert.AnError)

	assert.NotPanics(t, func() { svc.Fanout(ctx, n) })
	chat.AssertExpectations(t)
}

func TestNotificationService_NilChat(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}
	pub.On("Publish", ctx, domain.TopicAdmin, mock.Anything).Return(nil)
	svc := NewNotificationService(&mockNotificationRepo{}, pub, nil, logger.NewNop())

	svc.Fanout(ctx, &domain.AdminNotification{ID: uuid.New()})
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestNotificationService_NotifyStoreFailureSkipsFanout(t *testing.T) {
	ctx := context.Background()
	repo := &mockNotificationRepo{}
	pub := &mockPublisher{}
	svc := NewNotificationService(repo, pub, nil, logger.NewNop())

	repo.On("Create", ctx, mock.Anything).Return(assert.AnError)
	assert.ErrorIs(t, svc.Notify(ctx, &domain.AdminNotification{}), assert.AnError)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestPage(t *testing.T) {
	l, o := page(0, -1)
	assert.Equal(t, defaultPageSize, l)
	assert.Equal(t, 0, o)

	l, o = page(500, 20)
	assert.Equal(t, maxPageSize, l)
	assert.Equal(t, 20, o)
}
