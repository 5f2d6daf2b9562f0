package app

import (
	"context"

	"learning_chat_service/internal/chat/domain"
	"learning_chat_service/internal/gateway"

	"github.com/stretchr/testify/mock"
)

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// EnsureConversation moke ensure conversation
func (m *MockConversationRepository) EnsureConversation(ctx context.Context, conv *domain.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

// FindByID moke find conversation by id
func (m *MockConversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindAll moke find all conversations
func (m *MockConversationRepository) FindAll(ctx context.Context) ([]domain.Conversation, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateOnSend moke update conversation metadata
func (m *MockConversationRepository) UpdateOnSend(ctx context.Context, up *domain.ConversationUpdate) error {
	args := m.Called(ctx, up)
	return args.Error(0)
}

// SetUnread moke set unread flag
func (m *MockConversationRepository) SetUnread(ctx context.Context, convID, userID string, unread bool) error {
	args := m.Called(ctx, convID, userID, unread)
	return args.Error(0)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Insert moke insert msg
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindByConversation moke find msgs by conversation
func (m *MockMessageRepository) FindByConversation(ctx context.Context, convID string) ([]domain.Message, error) {
	args := m.Called(ctx, convID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockNotificationRepository Mock NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

// Insert moke insert notification
func (m *MockNotificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// FindByUser moke find notifications by user
func (m *MockNotificationRepository) FindByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkRead moke mark notification read
func (m *MockNotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

// MockPubSub Mock PubSub
type MockPubSub struct {
	mock.Mock
}

// Publish moke publish
func (m *MockPubSub) Publish(channel string, message interface{}) error {
	args := m.Called(channel, message)
	return args.Error(0)
}

// Subscribe moke subscribe
func (m *MockPubSub) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}

// MockEventPublisher Mock EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

// PublishMessageSent moke publish message_sent event
func (m *MockEventPublisher) PublishMessageSent(ctx context.Context, event domain.MessageSentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockUserDirectory Mock gateway.UserDirectory
type MockUserDirectory struct {
	mock.Mock
}

// FetchUsers moke fetch users
func (m *MockUserDirectory) FetchUsers(ctx context.Context) ([]gateway.User, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).([]gateway.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUploader Mock AttachmentUploader
type MockUploader struct {
	mock.Mock
}

// Upload moke upload attachment
func (m *MockUploader) Upload(ctx context.Context, att *domain.StagedAttachment, onProgress func(float64)) (*domain.AttachmentInfo, error) {
	args := m.Called(ctx, att)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.AttachmentInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

// PresignedURL moke presigned download url
func (m *MockUploader) PresignedURL(ctx context.Context, objectName string) (string, error) {
	args := m.Called(ctx, objectName)
	return args.String(0), args.Error(1)
}
