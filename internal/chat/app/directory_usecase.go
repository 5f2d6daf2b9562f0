package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"learning_chat_service/internal/chat/domain"
	"learning_chat_service/internal/chat/repository"
	"learning_chat_service/internal/gateway"
	"learning_chat_service/pkg/logger"
)

// DirectoryUseCase - 會話目錄：列出使用者參與的所有對話並即時刷新
type DirectoryUseCase struct {
	convRepo     repository.ConversationRepository
	users        gateway.UserDirectory
	pubsub       repository.PubSub
	snapshotWait time.Duration
	now          func() time.Time
}

// NewDirectoryUseCase init directory use case
func NewDirectoryUseCase(
	convRepo repository.ConversationRepository,
	users gateway.UserDirectory,
	pubsub repository.PubSub,
	snapshotWait time.Duration,
) *DirectoryUseCase {
	if snapshotWait <= 0 {
		snapshotWait = 5 * time.Second
	}
	return &DirectoryUseCase{
		convRepo:     convRepo,
		users:        users,
		pubsub:       pubsub,
		snapshotWait: snapshotWait,
		now:          time.Now,
	}
}

// Snapshot 重算使用者目前的對話列表
// 每次都從全量資料重建，不做增量合併
func (uc *DirectoryUseCase) Snapshot(ctx context.Context, userID, filter string) ([]domain.ConversationPreview, error) {
	// 1. 撈出所有對話，保留使用者參與的
	convs, err := uc.convRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	// 2. 查 user directory 補 display name，失敗不致命，退回 Unknown User
	names := map[string]string{}
	if uc.users != nil {
		us, err := uc.users.FetchUsers(ctx)
		if err != nil {
			logger.Log.Errorf("directory fetch users:", err)
		} else {
			for _, u := range us {
				names[u.ID] = u.DisplayName()
			}
		}
	}

	now := uc.now()
	previews := make([]domain.ConversationPreview, 0, len(convs))
	for i := range convs {
		c := &convs[i]
		if !c.HasParticipant(userID) {
			continue
		}
		otherID := c.OtherParticipant(userID)
		name := names[otherID]
		if name == "" {
			name = domain.UnknownUserName
		}
		previews = append(previews, domain.ConversationPreview{
			ID:              c.ID,
			OtherUserID:     otherID,
			DisplayName:     name,
			LastMessage:     c.LastMessage,
			Time:            domain.DisplayTime(c.LastMessageTime, now),
			Unread:          c.UnreadBy[userID],
			LastMessageTime: c.LastMessageTime,
		})
	}

	// 3. 最近訊息在前
	sort.SliceStable(previews, func(i, j int) bool {
		return previews[i].LastMessageTime > previews[j].LastMessageTime
	})

	// 4. 搜尋過濾：比對對方名稱與最後訊息，不分大小寫
	if filter = strings.TrimSpace(filter); filter != "" {
		q := strings.ToLower(filter)
		filtered := previews[:0]
		for _, p := range previews {
			if strings.Contains(strings.ToLower(p.DisplayName), q) ||
				strings.Contains(strings.ToLower(p.LastMessage), q) {
				filtered = append(filtered, p)
			}
		}
		previews = filtered
	}
	return previews, nil
}

// Watch 推送目錄快照給 handler，先給初始快照再訂閱變動
// 初始快照逾時或失敗時先給空列表，之後的變動通知仍會補上
func (uc *DirectoryUseCase) Watch(ctx context.Context, userID, filter string, handler func([]domain.ConversationPreview)) error {
	initCtx, cancel := context.WithTimeout(ctx, uc.snapshotWait)
	previews, err := uc.Snapshot(initCtx, userID, filter)
	cancel()
	if err != nil {
		logger.Log.Errorf("directory snapshot for "+userID+":", err)
		previews = []domain.ConversationPreview{}
	}
	handler(previews)

	return uc.pubsub.Subscribe(ctx, repository.ConversationsChannel(), func(payload []byte) {
		previews, err := uc.Snapshot(ctx, userID, filter)
		if err != nil {
			logger.Log.Errorf("directory refresh for "+userID+":", err)
			return
		}
		handler(previews)
	})
}

// StartConversation 回傳兩人對話的 deterministic id
// 對話紀錄在背景 upsert，呼叫端不等寫入完成就能進入對話
func (uc *DirectoryUseCase) StartConversation(ctx context.Context, userID, targetUserID string) (string, <-chan error) {
	convID := domain.PairConversationID(userID, targetUserID)
	done := make(chan error, 1)

	go func() {
		conv := &domain.Conversation{
			ID:           convID,
			Participants: domain.SortedParticipants(userID, targetUserID),
			CreatedAt:    uc.now().UnixMilli(),
			UnreadBy:     map[string]bool{},
		}
		// 不綁連線的 ctx，對話建立不因使用者離開而中斷
		err := uc.convRepo.EnsureConversation(context.Background(), conv)
		if err != nil {
			logger.Log.Errorf("ensure conversation "+convID+":", err)
		} else if err2 := uc.pubsub.Publish(repository.ConversationsChannel(), map[string]string{"conversation_id": convID}); err2 != nil {
			logger.Log.Errorf("publish conversation "+convID+":", err2)
		}
		done <- err
	}()
	return convID, done
}
