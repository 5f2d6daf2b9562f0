package app

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"learning_chat_service/internal/chat/domain"
	"learning_chat_service/internal/chat/repository"
	"learning_chat_service/pkg/logger"
)

// SessionUseCase - 開啟單一對話、讀訊息、送訊息
type SessionUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	notifyUC *NotificationUseCase
	uploader AttachmentUploader
	pubsub   repository.PubSub
	events   repository.EventPublisher
	now      func() time.Time
}

// NewSessionUseCase init session use case
func NewSessionUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	notifyUC *NotificationUseCase,
	uploader AttachmentUploader,
	pubsub repository.PubSub,
	events repository.EventPublisher,
) *SessionUseCase {
	return &SessionUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		notifyUC: notifyUC,
		uploader: uploader,
		pubsub:   pubsub,
		events:   events,
		now:      time.Now,
	}
}

// ConversationSession 使用者停留在單一對話期間的狀態
// 一個 websocket 連線同時最多持有一個 session
type ConversationSession struct {
	uc      *SessionUseCase
	convID  string
	userID  string
	otherID string

	mu       sync.Mutex
	sending  bool
	staged   *domain.StagedAttachment
	uploaded *domain.AttachmentInfo
}

// NewSession create a session for one conversation
func (uc *SessionUseCase) NewSession(convID, userID, otherUserID string) *ConversationSession {
	return &ConversationSession{
		uc:      uc,
		convID:  convID,
		userID:  userID,
		otherID: otherUserID,
	}
}

// ConversationID session 所屬對話 id
func (s *ConversationSession) ConversationID() string {
	return s.convID
}

// Counterparty 由既有對話紀錄解出對方 id
// 查不到時回空字串，由呼叫端決定是否繼續
func (uc *SessionUseCase) Counterparty(ctx context.Context, convID, userID string) string {
	conv, err := uc.convRepo.FindByID(ctx, convID)
	if err != nil {
		logger.Log.Errorf("find conversation "+convID+":", err)
		return ""
	}
	return conv.OtherParticipant(userID)
}

// Open 清除未讀標記後推送訊息快照，並訂閱對話變動
// 讀取失敗時給空列表，session 不因此終止
func (s *ConversationSession) Open(ctx context.Context, handler func([]domain.DisplayMessage)) error {
	// 進入對話即視為已讀，失敗只記 log
	if err := s.uc.convRepo.SetUnread(ctx, s.convID, s.userID, false); err != nil {
		logger.Log.Errorf("clear unread "+s.convID+" for "+s.userID+":", err)
	}

	msgs, err := s.snapshot(ctx)
	if err != nil {
		logger.Log.Errorf("session snapshot "+s.convID+":", err)
		msgs = []domain.DisplayMessage{}
	}
	handler(msgs)

	return s.uc.pubsub.Subscribe(ctx, repository.SessionChannel(s.convID), func(payload []byte) {
		msgs, err := s.snapshot(ctx)
		if err != nil {
			logger.Log.Errorf("session refresh "+s.convID+":", err)
			return
		}
		handler(msgs)
	})
}

// snapshot 全量重讀對話訊息並排序
// 伺服器時間優先，未確認的用 client 時間，同時間用 push id 決勝
func (s *ConversationSession) snapshot(ctx context.Context) ([]domain.DisplayMessage, error) {
	msgs, err := s.uc.msgRepo.FindByConversation(ctx, s.convID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		ti, tj := msgs[i].EffectiveTimestamp(), msgs[j].EffectiveTimestamp()
		if ti != tj {
			return ti < tj
		}
		return msgs[i].ID.Hex() < msgs[j].ID.Hex()
	})

	out := make([]domain.DisplayMessage, 0, len(msgs))
	for i := range msgs {
		m := &msgs[i]
		out = append(out, domain.DisplayMessage{
			ID:             m.ID.Hex(),
			SenderID:       m.SenderID,
			Text:           m.Text,
			FromMe:         m.SenderID == s.userID,
			Time:           time.UnixMilli(m.EffectiveTimestamp()).Format("15:04"),
			AttachmentURL:  m.AttachmentURL,
			AttachmentName: m.AttachmentName,
			AttachmentType: m.AttachmentType,
			AttachmentSize: m.AttachmentSize,
		})
	}
	return out, nil
}

// StageAttachment 暫存一個待上傳附件，取代前一個
// 超過大小上限立即拒絕，不進暫存
func (s *ConversationSession) StageAttachment(att *domain.StagedAttachment) error {
	if att != nil && att.Size > domain.MaxAttachmentSize {
		return domain.ErrAttachmentTooLarge
	}
	s.mu.Lock()
	s.staged = att
	s.uploaded = nil
	s.mu.Unlock()
	return nil
}

// AttachUploaded 引用一個已由上傳端點存好的附件，取代先前夾帶的
// 同樣受大小上限約束
func (s *ConversationSession) AttachUploaded(info *domain.AttachmentInfo) error {
	if info != nil && info.Size > domain.MaxAttachmentSize {
		return domain.ErrAttachmentTooLarge
	}
	s.mu.Lock()
	s.uploaded = info
	s.staged = nil
	s.mu.Unlock()
	return nil
}

// StagedAttachment 目前暫存的附件
func (s *ConversationSession) StagedAttachment() *domain.StagedAttachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged
}

// Send 送出目前輸入的文字與暫存附件
// 空白輸入、缺識別資訊、或前一筆還在送時直接略過不報錯
// 附件上傳失敗保留草稿，訊息不寫入
func (s *ConversationSession) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	// 1. 同一個 session 最多一筆進行中
	s.mu.Lock()
	if s.sending || (text == "" && s.staged == nil && s.uploaded == nil) ||
		s.convID == "" || s.userID == "" || s.otherID == "" {
		s.mu.Unlock()
		return nil
	}
	s.sending = true
	staged := s.staged
	uploaded := s.uploaded
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	// 2. 先傳附件，失敗就整筆中止，草稿留著重送
	// 已由上傳端點存好的附件直接引用，不再經過 uploader
	att := uploaded
	if att == nil && staged != nil {
		info, err := s.uc.uploader.Upload(ctx, staged, nil)
		if err != nil {
			return err
		}
		att = info
	}

	// 3. 寫入訊息，client 時間先佔位，伺服器時間由寫入端補上
	msg := &domain.Message{
		ConversationID:  s.convID,
		SenderID:        s.userID,
		Text:            text,
		ClientTimestamp: s.uc.now().UnixMilli(),
	}
	if att != nil {
		msg.AttachmentURL = att.URL
		msg.AttachmentName = att.Name
		msg.AttachmentType = att.Type
		msg.AttachmentSize = att.Size
	}
	if err := s.uc.msgRepo.Insert(ctx, msg); err != nil {
		return err
	}

	// 4. 更新對話 metadata：最後訊息、時間、對方未讀
	last := text
	if last == "" && att != nil {
		last = domain.SentFileLabel(att.Name)
	}
	update := &domain.ConversationUpdate{
		ID:              s.convID,
		Participants:    domain.SortedParticipants(s.userID, s.otherID),
		LastMessage:     last,
		LastMessageTime: msg.EffectiveTimestamp(),
		SenderID:        s.userID,
		RecipientID:     s.otherID,
	}
	if err := s.uc.convRepo.UpdateOnSend(ctx, update); err != nil {
		return err
	}

	// 5. 訊息已落地，之後都是 best effort
	s.mu.Lock()
	s.staged = nil
	s.uploaded = nil
	s.mu.Unlock()

	if err := s.uc.pubsub.Publish(repository.SessionChannel(s.convID), map[string]string{"message_id": msg.ID.Hex()}); err != nil {
		logger.Log.Errorf("publish session "+s.convID+":", err)
	}
	if err := s.uc.pubsub.Publish(repository.ConversationsChannel(), map[string]string{"conversation_id": s.convID}); err != nil {
		logger.Log.Errorf("publish conversations "+s.convID+":", err)
	}

	if s.otherID != s.userID && s.uc.notifyUC != nil {
		s.uc.notifyUC.Create(ctx, domain.Notification{
			UserID:  s.otherID,
			Title:   "New message",
			Message: last,
			Type:    domain.NotificationTypeMessage,
			Data:    map[string]string{"conversation_id": s.convID},
		})
	}

	if s.uc.events != nil {
		event := domain.MessageSentEvent{
			ConversationID: s.convID,
			SenderID:       s.userID,
			RecipientID:    s.otherID,
			Text:           text,
			HasAttachment:  att != nil,
			Timestamp:      msg.EffectiveTimestamp(),
		}
		if err := s.uc.events.PublishMessageSent(ctx, event); err != nil {
			logger.Log.Errorf("publish message_sent "+s.convID+":", err)
		}
	}
	return nil
}
