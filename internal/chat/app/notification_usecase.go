package app

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"learning_chat_service/internal/chat/domain"
	"learning_chat_service/internal/chat/repository"
	"learning_chat_service/pkg/logger"
)

// NotificationUseCase - 通知列表與發送
type NotificationUseCase struct {
	notifyRepo repository.NotificationRepository
	pubsub     repository.PubSub
	now        func() time.Time
}

// NewNotificationUseCase init notification use case
func NewNotificationUseCase(notifyRepo repository.NotificationRepository, pubsub repository.PubSub) *NotificationUseCase {
	return &NotificationUseCase{
		notifyRepo: notifyRepo,
		pubsub:     pubsub,
		now:        time.Now,
	}
}

// Feed 使用者的通知，最新在前，依日期分組
func (uc *NotificationUseCase) Feed(ctx context.Context, userID string) ([]domain.NotificationGroup, error) {
	items, err := uc.notifyRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp > items[j].Timestamp
	})

	// 依排序後順序分組，同一天的通知連續出現
	now := uc.now()
	groups := []domain.NotificationGroup{}
	for _, n := range items {
		label := domain.DayLabel(n.Timestamp, now)
		if len(groups) == 0 || groups[len(groups)-1].Label != label {
			groups = append(groups, domain.NotificationGroup{Label: label})
		}
		groups[len(groups)-1].Items = append(groups[len(groups)-1].Items, n)
	}
	return groups, nil
}

// Watch 推送通知快照給 handler，先給初始快照再訂閱變動
func (uc *NotificationUseCase) Watch(ctx context.Context, userID string, handler func([]domain.NotificationGroup)) error {
	groups, err := uc.Feed(ctx, userID)
	if err != nil {
		logger.Log.Errorf("notification feed for "+userID+":", err)
		groups = []domain.NotificationGroup{}
	}
	handler(groups)

	return uc.pubsub.Subscribe(ctx, repository.UserChannel(userID), func(payload []byte) {
		groups, err := uc.Feed(ctx, userID)
		if err != nil {
			logger.Log.Errorf("notification refresh for "+userID+":", err)
			return
		}
		handler(groups)
	})
}

// MarkRead 將通知標為已讀，重複標記不報錯
func (uc *NotificationUseCase) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := uc.notifyRepo.MarkRead(ctx, userID, notificationID); err != nil {
		return err
	}
	if err := uc.pubsub.Publish(repository.UserChannel(userID), map[string]string{"notification_id": notificationID}); err != nil {
		logger.Log.Errorf("publish notification read "+notificationID+":", err)
	}
	return nil
}

// Create 寫入通知並通知收件者刷新
// 失敗只記 log，呼叫端 (訊息發送) 不因通知失敗而失敗
func (uc *NotificationUseCase) Create(ctx context.Context, n domain.Notification) {
	if n.UserID == "" {
		logger.Log.Warn("notification without recipient dropped")
		return
	}
	if uc.notifyRepo == nil {
		logger.Log.Warn("notification store unavailable, dropped")
		return
	}

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Status == "" {
		n.Status = domain.NotificationUnread
	}
	if n.Icon == "" {
		n.Icon = domain.DefaultNotificationIcon
	}
	if n.Type == "" {
		n.Type = domain.NotificationTypeSystem
	}
	if n.Timestamp == 0 {
		n.Timestamp = uc.now().UnixMilli()
	}

	if err := uc.notifyRepo.Insert(ctx, &n); err != nil {
		logger.Log.Errorf("insert notification for "+n.UserID+":", err)
		return
	}
	if err := uc.pubsub.Publish(repository.UserChannel(n.UserID), map[string]string{"notification_id": n.ID}); err != nil {
		logger.Log.Errorf("publish notification "+n.ID+":", err)
	}
}
