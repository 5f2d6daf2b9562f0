package domain

import (
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxAttachmentSize 附件大小上限 (10 MiB)
const MaxAttachmentSize = 10 << 20

// ErrAttachmentTooLarge 附件超過 MaxAttachmentSize
var ErrAttachmentTooLarge = errors.New("attachment exceeds maximum size of 10 MiB")

// Message 一則訊息，寫入後不再修改
type Message struct {
	// ID push id，由伺服器產生，同一對話內隨寫入順序遞增
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID string             `bson:"conversation_id" json:"conversation_id"`
	SenderID       string             `bson:"sender_id" json:"sender_id"`
	Text           string             `bson:"text" json:"text"`
	// Timestamp 伺服器時間 (epoch millis)，寫入確認前為 0
	Timestamp int64 `bson:"timestamp" json:"timestamp"`
	// ClientTimestamp 發送端同步設定，Timestamp 未確認時的排序 fallback
	ClientTimestamp int64 `bson:"client_timestamp" json:"client_timestamp"`

	AttachmentURL  string `bson:"attachment_url,omitempty" json:"attachment_url,omitempty"`
	AttachmentName string `bson:"attachment_name,omitempty" json:"attachment_name,omitempty"`
	AttachmentType string `bson:"attachment_type,omitempty" json:"attachment_type,omitempty"`
	AttachmentSize int64  `bson:"attachment_size,omitempty" json:"attachment_size,omitempty"`
}

// EffectiveTimestamp 排序用時間，伺服器時間未確認時退回 client 時間
func (m *Message) EffectiveTimestamp() int64 {
	if m.Timestamp != 0 {
		return m.Timestamp
	}
	return m.ClientTimestamp
}

// DisplayMessage 對話畫面快照的一列
type DisplayMessage struct {
	ID             string `json:"id"`
	SenderID       string `json:"sender_id"`
	Text           string `json:"text"`
	FromMe         bool   `json:"from_me"`
	Time           string `json:"time"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
	AttachmentName string `json:"attachment_name,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`
	AttachmentSize int64  `json:"attachment_size,omitempty"`
}

// StagedAttachment 待上傳附件，一個 session 同時最多一個
type StagedAttachment struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// AttachmentInfo 上傳完成後寫入訊息的附件欄位
type AttachmentInfo struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// SentFileLabel 無文字純附件訊息的 lastMessage 顯示
func SentFileLabel(name string) string {
	return "sent a file: " + name
}

// MessageSentEvent 發送成功後推到 kafka 的領域事件
type MessageSentEvent struct {
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	RecipientID    string `json:"recipient_id"`
	Text           string `json:"text"`
	HasAttachment  bool   `json:"has_attachment"`
	Timestamp      int64  `json:"timestamp"`
}
