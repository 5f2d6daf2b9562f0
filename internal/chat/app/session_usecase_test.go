package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"learning_chat_service/internal/chat/domain"
	"learning_chat_service/internal/chat/repository"
	"learning_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestSessionUseCase(
	convRepo *MockConversationRepository,
	msgRepo *MockMessageRepository,
	notifyUC *NotificationUseCase,
	uploader *MockUploader,
	pubsub *MockPubSub,
	events repository.EventPublisher,
) *SessionUseCase {
	uc := NewSessionUseCase(convRepo, msgRepo, notifyUC, uploader, pubsub, events)
	uc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local) }
	return uc
}

// 測試快照排序: 伺服器時間優先，缺伺服器時間用 client 時間，同時間用 push id
func TestConversationSession_SnapshotOrdering(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	idA := primitive.NewObjectID()
	idB := primitive.NewObjectID()
	msgs := []domain.Message{
		{ID: idB, SenderID: "xyz", Text: "third", Timestamp: 3000},
		// 未確認伺服器時間，用 client 時間排進中間
		{ID: primitive.NewObjectID(), SenderID: "abc", Text: "second", ClientTimestamp: 2000},
		{ID: idA, SenderID: "abc", Text: "first", Timestamp: 1000},
	}

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)
	mockPubSub := new(MockPubSub)
	mockMsgRepo.On("FindByConversation", ctx, "abc_xyz").Return(msgs, nil)

	uc := newTestSessionUseCase(mockConvRepo, mockMsgRepo, nil, nil, mockPubSub, nil)
	s := uc.NewSession("abc_xyz", "abc", "xyz")

	got, err := s.snapshot(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, []string{got[0].Text, got[1].Text, got[2].Text})
	assert.True(t, got[0].FromMe)
	assert.False(t, got[2].FromMe)
}

// 測試同一毫秒的訊息用 push id 決勝，順序穩定
func TestConversationSession_SnapshotTieBreak(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	early := primitive.NewObjectIDFromTimestamp(time.Unix(100, 0))
	late := primitive.NewObjectIDFromTimestamp(time.Unix(200, 0))
	msgs := []domain.Message{
		{ID: late, SenderID: "xyz", Text: "later push", Timestamp: 5000},
		{ID: early, SenderID: "abc", Text: "earlier push", Timestamp: 5000},
	}

	mockMsgRepo := new(MockMessageRepository)
	mockMsgRepo.On("FindByConversation", ctx, "abc_xyz").Return(msgs, nil)

	uc := newTestSessionUseCase(new(MockConversationRepository), mockMsgRepo, nil, nil, new(MockPubSub), nil)
	s := uc.NewSession("abc_xyz", "abc", "xyz")

	got, err := s.snapshot(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "earlier push", got[0].Text)
	assert.Equal(t, "later push", got[1].Text)
}

// 測試送出文字訊息: 寫入訊息、更新對話 metadata、對方標未讀、自己清未讀
func TestConversationSession_SendText(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)
	mockPubSub := new(MockPubSub)
	mockEvents := new(MockEventPublisher)

	mockMsgRepo.On("Insert", ctx, mock.Anything).Run(func(args mock.Arguments) {
		msg := args.Get(1).(*domain.Message)
		msg.ID = primitive.NewObjectID()
		msg.Timestamp = 7000
	}).Return(nil)

	mockConvRepo.On("UpdateOnSend", ctx, mock.MatchedBy(func(up *domain.ConversationUpdate) bool {
		return up.ID == "abc_xyz" &&
			up.LastMessage == "hello there" &&
			up.LastMessageTime == 7000 &&
			up.SenderID == "abc" &&
			up.RecipientID == "xyz"
	})).Return(nil)

	mockPubSub.On("Publish", repository.SessionChannel("abc_xyz"), mock.Anything).Return(nil)
	mockPubSub.On("Publish", repository.ConversationsChannel(), mock.Anything).Return(nil)
	mockEvents.On("PublishMessageSent", ctx, mock.MatchedBy(func(e domain.MessageSentEvent) bool {
		return e.ConversationID == "abc_xyz" && e.RecipientID == "xyz" && !e.HasAttachment
	})).Return(nil)

	uc := newTestSessionUseCase(mockConvRepo, mockMsgRepo, nil, nil, mockPubSub, mockEvents)
	s := uc.NewSession("abc_xyz", "abc", "xyz")

	// 前後空白會被去掉
	err := s.Send(ctx, "  hello there  ")
	assert.NoError(t, err)

	mockConvRepo.AssertExpectations(t)
	mockMsgRepo.AssertExpectations(t)
	mockPubSub.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

// 測試空白輸入直接略過，不寫入也不報錯
func TestConversationSession_SendBlankNoop(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockMsgRepo := new(MockMessageRepository)
	uc := newTestSessionUseCase(new(MockConversationRepository), mockMsgRepo, nil, nil, new(MockPubSub), nil)
	s := uc.NewSession("abc_xyz", "abc", "xyz")

	assert.NoError(t, s.Send(ctx, "   "))
	mockMsgRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

// 測試前一筆還在送時再按送出會被吃掉
func TestConversationSession_SendWhileSending(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockMsgRepo := new(MockMessageRepository)
	uc := newTestSessionUseCase(new(MockConversationRepository), mockMsgRepo, nil, nil, new(MockPubSub), nil)
	s := uc.NewSession("abc_xyz", "abc", "xyz")
	s.sending = true

	assert.NoError(t, s.Send(ctx, "hello"))
	mockMsgRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

// 測試超過上限的附件暫存直接被拒
func TestConversationSession_StageAttachmentTooLarge(t *testing.T) {
	logger.SetNewNop()

	uc := newTestSessionUseCase(new(MockConversationRepository), new(MockMessageRepository), nil, nil, new(MockPubSub), nil)
	s := uc.NewSession("abc_xyz", "abc", "xyz")

	err := s.StageAttachment(&domain.StagedAttachment{
		Name: "huge.bin",
		Size: domain.MaxAttachmentSize + 1,
	})
	assert.ErrorIs(t, err, domain.ErrAttachmentTooLarge)
	assert.Nil(t, s.StagedAttachment())
}

// 測試附件上傳失敗時整筆中止，草稿留著可以重送
func TestConversationSession_SendUploadFails(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockMsgRepo := new(MockMessageRepository)
	mockUploader := new(MockUploader)
	mockUploader.On("Upload", ctx, mock.Anything).Return(nil, errors.New("minio down"))

	uc := newTestSessionUseCase(new(MockConversationRepository), mockMsgRepo, nil, mockUploader, new(MockPubSub), nil)
	s := uc.NewSession("abc_xyz", "abc", "xyz")

	att := &domain.StagedAttachment{Name: "notes.pdf", Size: 1024, Content: strings.NewReader("pdf")}
	assert.NoError(t, s.StageAttachment(att))

	err := s.Send(ctx, "")
	assert.Error(t, err)
	// 草稿還在
	assert.Equal(t, att, s.StagedAttachment())
	mockMsgRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

// 測試純附件訊息的 lastMessage 顯示為 sent a file，成功後草稿清空
func TestConversationSession_SendAttachmentOnly(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)
	mockPubSub := new(MockPubSub)
	mockUploader := new(MockUploader)

	mockUploader.On("Upload", ctx, mock.Anything).Return(&domain.AttachmentInfo{
		URL:  "http://minio/chat/attachments/x_notes.pdf",
		Name: "notes.pdf",
		Type: "application/pdf",
		Size: 1024,
	}, nil)
	mockMsgRepo.On("Insert", ctx, mock.MatchedBy(func(msg *domain.Message) bool {
		return msg.Text == "" && msg.AttachmentName == "notes.pdf"
	})).Return(nil)
	mockConvRepo.On("UpdateOnSend", ctx, mock.MatchedBy(func(up *domain.ConversationUpdate) bool {
		return up.LastMessage == domain.SentFileLabel("notes.pdf")
	})).Return(nil)
	mockPubSub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	uc := newTestSessionUseCase(mockConvRepo, mockMsgRepo, nil, mockUploader, mockPubSub, nil)
	s := uc.NewSession("abc_xyz", "abc", "xyz")

	assert.NoError(t, s.StageAttachment(&domain.StagedAttachment{
		Name:        "notes.pdf",
		ContentType: "application/pdf",
		Size:        1024,
		Content:     strings.NewReader("pdf"),
	}))
	assert.NoError(t, s.Send(ctx, ""))
	assert.Nil(t, s.StagedAttachment())

	mockConvRepo.AssertExpectations(t)
	mockUploader.AssertExpectations(t)
}

// 測試引用已上傳附件送出: 不再經過 uploader，附件欄位直接寫進訊息
func TestConversationSession_SendUploadedAttachment(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)
	mockPubSub := new(MockPubSub)
	mockUploader := new(MockUploader)

	mockMsgRepo.On("Insert", ctx, mock.MatchedBy(func(msg *domain.Message) bool {
		return msg.Text == "" &&
			msg.AttachmentURL == "http://minio/chat/attachments/x_notes.pdf" &&
			msg.AttachmentName == "notes.pdf"
	})).Return(nil)
	mockConvRepo.On("UpdateOnSend", ctx, mock.MatchedBy(func(up *domain.ConversationUpdate) bool {
		return up.LastMessage == domain.SentFileLabel("notes.pdf")
	})).Return(nil)
	mockPubSub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	uc := newTestSessionUseCase(mockConvRepo, mockMsgRepo, nil, mockUploader, mockPubSub, nil)
	s := uc.NewSession("abc_xyz", "abc", "xyz")

	assert.NoError(t, s.AttachUploaded(&domain.AttachmentInfo{
		URL:  "http://minio/chat/attachments/x_notes.pdf",
		Name: "notes.pdf",
		Type: "application/pdf",
		Size: 1024,
	}))
	assert.NoError(t, s.Send(ctx, ""))

	// 已存好的附件不會再上傳一次
	mockUploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	mockConvRepo.AssertExpectations(t)
	mockMsgRepo.AssertExpectations(t)

	// 附件送出後清空，再按送出不會重複寫入
	assert.NoError(t, s.Send(ctx, ""))
	mockMsgRepo.AssertNumberOfCalls(t, "Insert", 1)
}

// 測試引用的附件同樣受大小上限約束
func TestConversationSession_AttachUploadedTooLarge(t *testing.T) {
	logger.SetNewNop()

	mockMsgRepo := new(MockMessageRepository)
	uc := newTestSessionUseCase(new(MockConversationRepository), mockMsgRepo, nil, nil, new(MockPubSub), nil)
	s := uc.NewSession("abc_xyz", "abc", "xyz")

	err := s.AttachUploaded(&domain.AttachmentInfo{
		URL:  "http://minio/chat/attachments/x_huge.bin",
		Name: "huge.bin",
		Size: domain.MaxAttachmentSize + 1,
	})
	assert.ErrorIs(t, err, domain.ErrAttachmentTooLarge)

	assert.NoError(t, s.Send(context.Background(), ""))
	mockMsgRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

// 測試由既有對話紀錄解出對方 id，查不到時回空字串
func TestSessionUseCase_Counterparty(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)
	mockConvRepo.On("FindByID", ctx, "abc_xyz").Return(&domain.Conversation{
		ID:           "abc_xyz",
		Participants: []string{"abc", "xyz"},
	}, nil)
	mockConvRepo.On("FindByID", ctx, "missing").Return(nil, errors.New("not found"))

	uc := newTestSessionUseCase(mockConvRepo, new(MockMessageRepository), nil, nil, new(MockPubSub), nil)

	assert.Equal(t, "xyz", uc.Counterparty(ctx, "abc_xyz", "abc"))
	assert.Equal(t, "abc", uc.Counterparty(ctx, "abc_xyz", "xyz"))
	assert.Equal(t, "", uc.Counterparty(ctx, "missing", "abc"))
}

// 測試送出後對方會收到 message 通知
func TestConversationSession_SendCreatesNotification(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)
	mockPubSub := new(MockPubSub)
	mockNotifyRepo := new(MockNotificationRepository)

	mockMsgRepo.On("Insert", ctx, mock.Anything).Return(nil)
	mockConvRepo.On("UpdateOnSend", ctx, mock.Anything).Return(nil)
	mockPubSub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	mockNotifyRepo.On("Insert", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "xyz" &&
			n.Type == domain.NotificationTypeMessage &&
			n.Status == domain.NotificationUnread &&
			n.Data["conversation_id"] == "abc_xyz"
	})).Return(nil)

	notifyUC := NewNotificationUseCase(mockNotifyRepo, mockPubSub)
	uc := newTestSessionUseCase(mockConvRepo, mockMsgRepo, notifyUC, nil, mockPubSub, nil)
	s := uc.NewSession("abc_xyz", "abc", "xyz")

	assert.NoError(t, s.Send(ctx, "ping"))
	mockNotifyRepo.AssertExpectations(t)
}

// 測試通知寫入失敗不影響訊息發送
func TestConversationSession_SendNotificationFailureIgnored(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)
	mockPubSub := new(MockPubSub)
	mockNotifyRepo := new(MockNotificationRepository)

	mockMsgRepo.On("Insert", ctx, mock.Anything).Return(nil)
	mockConvRepo.On("UpdateOnSend", ctx, mock.Anything).Return(nil)
	mockPubSub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	mockNotifyRepo.On("Insert", ctx, mock.Anything).Return(errors.New("mongo down"))

	notifyUC := NewNotificationUseCase(mockNotifyRepo, mockPubSub)
	uc := newTestSessionUseCase(mockConvRepo, mockMsgRepo, notifyUC, nil, mockPubSub, nil)
	s := uc.NewSession("abc_xyz", "abc", "xyz")

	assert.NoError(t, s.Send(ctx, "ping"))
}

// 測試進入對話會清掉自己的未讀標記
func TestConversationSession_OpenClearsUnread(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)
	mockPubSub := new(MockPubSub)

	mockConvRepo.On("SetUnread", ctx, "abc_xyz", "abc", false).Return(nil)
	mockMsgRepo.On("FindByConversation", ctx, "abc_xyz").Return([]domain.Message{}, nil)
	mockPubSub.On("Subscribe", ctx, repository.SessionChannel("abc_xyz"), mock.Anything).Return(nil)

	uc := newTestSessionUseCase(mockConvRepo, mockMsgRepo, nil, nil, mockPubSub, nil)
	s := uc.NewSession("abc_xyz", "abc", "xyz")

	var got []domain.DisplayMessage
	err := s.Open(ctx, func(msgs []domain.DisplayMessage) { got = msgs })
	assert.NoError(t, err)
	assert.Empty(t, got)

	mockConvRepo.AssertExpectations(t)
	mockPubSub.AssertExpectations(t)
}
