package domain

import (
	"sort"
	"time"

	"learning_chat_service/pkg"
)

// PairIDSeparator join two participant ids into a conversation id
const PairIDSeparator = "_"

// Conversation 表示兩個使用者之間的對話紀錄
type Conversation struct {
	ID              string          `bson:"_id" json:"id"`
	Participants    []string        `bson:"participants" json:"participants"`
	LastMessage     string          `bson:"last_message" json:"last_message"`
	LastMessageTime int64           `bson:"last_message_time" json:"last_message_time"` // epoch millis
	CreatedAt       int64           `bson:"created_at" json:"created_at"`               // epoch millis, set once
	UnreadBy        map[string]bool `bson:"unread_by" json:"unread_by"`
}

// PairConversationID 對話 id 是兩個參與者的純函數
// 先做字典排序再串接，誰先發起都會得到同一個 id
func PairConversationID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + PairIDSeparator + b
}

// SortedParticipants return the two ids in id order
func SortedParticipants(a, b string) []string {
	p := []string{a, b}
	sort.Strings(p)
	return p
}

// HasParticipant check membership
func (c *Conversation) HasParticipant(userID string) bool {
	return pkg.Contains(c.Participants, userID)
}

// OtherParticipant resolve the counterparty id
func (c *Conversation) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// ConversationPreview 目錄列表的一列
type ConversationPreview struct {
	ID              string `json:"id"`
	OtherUserID     string `json:"other_user_id"`
	DisplayName     string `json:"display_name"`
	LastMessage     string `json:"last_message"`
	Time            string `json:"time"`
	Unread          bool   `json:"unread"`
	LastMessageTime int64  `json:"last_message_time"`
}

// ConversationUpdate 每次送訊息時 upsert 的對話 metadata
type ConversationUpdate struct {
	ID              string
	Participants    []string
	LastMessage     string
	LastMessageTime int64
	SenderID        string
	RecipientID     string
}

// UnknownUserName fallback display name when the user directory has no entry
const UnknownUserName = "Unknown User"

// DisplayTime 將 lastMessageTime 轉為列表顯示字串
func DisplayTime(millis int64, now time.Time) string {
	if millis <= 0 {
		return ""
	}
	t := time.UnixMilli(millis)
	ny, nm, nd := now.Date()
	ty, tm, td := t.Date()
	if ny == ty && nm == tm && nd == td {
		return t.Format("15:04")
	}
	yy, ym, yd := now.AddDate(0, 0, -1).Date()
	if yy == ty && ym == tm && yd == td {
		return "Yesterday"
	}
	return t.Format("2006/01/02")
}
