package repository

import (
	"context"

	"learning_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// NotificationRepository definition per-user notification feed
type NotificationRepository interface {
	Insert(ctx context.Context, n *domain.Notification) error
	FindByUser(ctx context.Context, userID string) ([]domain.Notification, error)
	// MarkRead 已讀為冪等操作，已經是 read 再標一次不是錯誤
	MarkRead(ctx context.Context, userID, notificationID string) error
}

type notificationRepository struct {
	coll *mongo.Collection
}

// NewMongoNotificationRepository create a NotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &notificationRepository{
		coll: db.Collection("notifications"),
	}
}

func (r *notificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	_, err := r.coll.InsertOne(ctx, n)
	return err
}

func (r *notificationRepository) FindByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var list []domain.Notification
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	filter := bson.M{"_id": notificationID, "user_id": userID}
	update := bson.M{"$set": bson.M{"status": domain.NotificationRead}}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}
