package repository

import (
	"context"
	"encoding/json"

	"learning_chat_service/internal/chat/domain"

	"github.com/segmentio/kafka-go"
)

// EventPublisher definition message event publish
type EventPublisher interface {
	PublishMessageSent(ctx context.Context, event domain.MessageSentEvent) error
}

// KafkaEventPublisher definition kafka event publisher
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

// NewKafkaEventPublisher create KafkaEventPublisher
func NewKafkaEventPublisher(writer *kafka.Writer) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer}
}

// PublishMessageSent 將 message_sent event 發送到 kafka，key 為 conversation id
func (p *KafkaEventPublisher) PublishMessageSent(ctx context.Context, event domain.MessageSentEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ConversationID),
		Value: value,
	})
}
