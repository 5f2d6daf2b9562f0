package domain

import "time"

// NotificationType definition notification type
type NotificationType string

const (
	//NotificationTypeMessage chat message notification
	NotificationTypeMessage NotificationType = "message"
	//NotificationTypeAdmin admin broadcast
	NotificationTypeAdmin NotificationType = "admin"
	//NotificationTypeSystem system default
	NotificationTypeSystem NotificationType = "system"
)

// NotificationStatus definition read state
type NotificationStatus string

const (
	//NotificationUnread not yet opened
	NotificationUnread NotificationStatus = "unread"
	//NotificationRead opened by the recipient
	NotificationRead NotificationStatus = "read"
)

// DefaultNotificationIcon generic bell icon
const DefaultNotificationIcon = "notifications-outline"

// Notification 每個收件者一份的通知紀錄
type Notification struct {
	ID        string             `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"` // recipient
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Type      NotificationType   `bson:"type" json:"type"`
	Icon      string             `bson:"icon" json:"icon"`
	Status    NotificationStatus `bson:"status" json:"status"`
	Timestamp int64              `bson:"timestamp" json:"timestamp"` // epoch millis
	Data      map[string]string  `bson:"data,omitempty" json:"data,omitempty"`
}

// NotificationGroup 通知列表依日期分組後的一組
type NotificationGroup struct {
	Label string         `json:"label"`
	Items []Notification `json:"items"`
}

// DayLabel 分組標籤: 當天 Today、前一天 Yesterday、其他顯示日期
func DayLabel(millis int64, now time.Time) string {
	t := time.UnixMilli(millis)
	ny, nm, nd := now.Date()
	ty, tm, td := t.Date()
	if ny == ty && nm == tm && nd == td {
		return "Today"
	}
	yy, ym, yd := now.AddDate(0, 0, -1).Date()
	if yy == ty && ym == tm && yd == td {
		return "Yesterday"
	}
	return t.Format("Jan 2, 2006")
}
