package repository

import (
	"context"
	"encoding/json"

	"learning_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// change-feed channel 命名
const (
	conversationsChannel = "chat:conversations"
	sessionChannelPrefix = "chat:conv:"
	userChannelPrefix    = "chat:user:"
)

// ConversationsChannel 所有對話 metadata 變動的 channel
func ConversationsChannel() string {
	return conversationsChannel
}

// SessionChannel 單一對話訊息變動的 channel
func SessionChannel(convID string) string {
	return sessionChannelPrefix + convID
}

// UserChannel 單一使用者通知變動的 channel
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

// PubSub definition change-feed fanout
type PubSub interface {
	Publish(channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client: client,
		ctx:    context.Background(),
	}
}

// Publish 將 message 序列化後，發布到指定 channel
func (r *RedisPubSub) Publish(channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.client.Publish(r.ctx, channel, data).Err()
}

// Subscribe 訂閱 channel，收到訊息後呼叫 handler 處理
// ctx 取消時結束訂閱
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	sub := r.client.Subscribe(r.ctx, channel)
	go func() {
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(m.Payload))
			case <-ctx.Done():
				logger.Log.Info(channel + " , sub close")
				sub.Close()
				return
			}
		}
	}()
	return nil
}
