package domain

// Action websocket request action
type Action string

const (
	// OpenDirectory websocket action open_directory
	OpenDirectory Action = "open_directory"
	// SearchDirectory websocket action search_directory
	SearchDirectory Action = "search_directory"
	// StartConversation websocket action start_conversation
	StartConversation Action = "start_conversation"

	// EnterConversation websocket action enter_conversation
	EnterConversation Action = "enter_conversation"
	// LeaveConversation websocket action leave_conversation
	LeaveConversation Action = "leave_conversation"
	// SendMessage websocket action send_message
	SendMessage Action = "send_message"

	// GetNotifications websocket action get_notifications
	GetNotifications Action = "get_notifications"
	// ReadNotification websocket action read_notification
	ReadNotification Action = "read_notification"

	// DirectoryUpdate push action directory_update
	DirectoryUpdate Action = "directory_update"
	// SessionUpdate push action session_update
	SessionUpdate Action = "session_update"
	// NotificationUpdate push action notification_update
	NotificationUpdate Action = "notification_update"
)

// WSRequest websocket Request
type WSRequest struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id"`
	TargetUserID   string `json:"target_user_id"`
	Text           string `json:"text"`
	Filter         string `json:"filter"`
	NotificationID string `json:"notification_id"`

	// 附件欄位引用 POST /attachments 回傳的結果
	AttachmentURL  string `json:"attachment_url"`
	AttachmentName string `json:"attachment_name"`
	AttachmentType string `json:"attachment_type"`
	AttachmentSize int64  `json:"attachment_size"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
