package repository

import (
	"context"
	"time"

	"learning_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository definition conversation record tree
type ConversationRepository interface {
	// EnsureConversation 冪等建立，同一對參與者重複建立會落在同一筆
	EnsureConversation(ctx context.Context, conv *domain.Conversation) error
	FindByID(ctx context.Context, id string) (*domain.Conversation, error)
	// FindAll 目錄端自行依成員過濾，不在伺服器端預先篩選
	FindAll(ctx context.Context) ([]domain.Conversation, error)
	// UpdateOnSend 每次送訊息都 upsert metadata，順帶修復先前失敗的背景寫入
	UpdateOnSend(ctx context.Context, up *domain.ConversationUpdate) error
	SetUnread(ctx context.Context, convID, userID string, unread bool) error
}

type conversationRepository struct {
	coll *mongo.Collection
}

// NewMongoConversationRepository create a ConversationRepository
func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{
		coll: db.Collection("conversations"),
	}
}

func (r *conversationRepository) EnsureConversation(ctx context.Context, conv *domain.Conversation) error {
	unread := conv.UnreadBy
	if unread == nil {
		unread = map[string]bool{}
		for _, p := range conv.Participants {
			unread[p] = false
		}
	}
	createdAt := conv.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}

	filter := bson.M{"_id": conv.ID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"participants":      conv.Participants,
			"last_message":      conv.LastMessage,
			"last_message_time": conv.LastMessageTime,
			"created_at":        createdAt,
			"unread_by":         unread,
		},
	}
	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *conversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindAll(ctx context.Context) ([]domain.Conversation, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var convs []domain.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *conversationRepository) UpdateOnSend(ctx context.Context, up *domain.ConversationUpdate) error {
	filter := bson.M{"_id": up.ID}
	update := bson.M{
		"$set": bson.M{
			"participants":                up.Participants,
			"last_message":                up.LastMessage,
			"last_message_time":           up.LastMessageTime,
			"unread_by." + up.RecipientID: true,
			"unread_by." + up.SenderID:    false,
		},
		"$setOnInsert": bson.M{
			"created_at": time.Now().UnixMilli(),
		},
	}
	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *conversationRepository) SetUnread(ctx context.Context, convID, userID string, unread bool) error {
	filter := bson.M{"_id": convID}
	update := bson.M{"$set": bson.M{"unread_by." + userID: unread}}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}
