package repository

import (
	"context"
	"time"

	"learning_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository definition message log of a conversation
type MessageRepository interface {
	// Insert 寫入一則訊息，補上 push id 與伺服器時間
	Insert(ctx context.Context, msg *domain.Message) error
	// FindByConversation 取回整段歷史，排序由上層依時間戳重算
	FindByConversation(ctx context.Context, convID string) ([]domain.Message, error)
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	if msg.ID.IsZero() {
		// ObjectID 帶時間前綴與計數器，同對話內隨寫入順序遞增
		msg.ID = primitive.NewObjectID()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

func (r *messageRepository) FindByConversation(ctx context.Context, convID string) ([]domain.Message, error) {
	filter := bson.M{"conversation_id": convID}
	opts := options.Find().SetSort(bson.M{"_id": 1})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
