package app

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"learning_chat_service/internal/chat/domain"
	"learning_chat_service/pkg/logger"
	"learning_chat_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// ChatWebsocketHandler 可包含所有需要的 UseCase
type ChatWebsocketHandler struct {
	directoryUC *DirectoryUseCase
	sessionUC   *SessionUseCase
	notifyUC    *NotificationUseCase
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	directoryUC *DirectoryUseCase,
	sessionUC *SessionUseCase,
	notifyUC *NotificationUseCase,
) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		directoryUC: directoryUC,
		sessionUC:   sessionUC,
		notifyUC:    notifyUC,
	}
}

// connState 單一 websocket 連線的訂閱狀態
// session 與 directory 的 cancel 都綁在連線自己身上，斷線時一併取消
type connState struct {
	mu sync.Mutex

	session       *ConversationSession
	sessionCancel context.CancelFunc

	directoryCancel context.CancelFunc
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	tokenUser := conn.Locals(middlewares.TokenUserID)
	userID, ok := tokenUser.(string)
	logger.Log.Info("websocket handle userID", zap.String("userID", userID), zap.String("ok", strconv.FormatBool(ok)))

	ticker := time.NewTicker(10 * time.Minute)
	ctxClose, cancel := context.WithCancel(ctx)
	state := &connState{}

	// 同一條連線的寫入需要序列化
	var writeMu sync.Mutex

	defer func() {
		ticker.Stop()
		logger.Log.Info("websocket close", zap.String("userID", userID))
		conn.Close()
		// 連線收掉時還掛著的訂閱要跟著收
		state.mu.Lock()
		if state.directoryCancel != nil {
			state.directoryCancel()
		}
		if state.sessionCancel != nil {
			state.sessionCancel()
		}
		state.mu.Unlock()
		cancel()
	}()

	//client發出close
	//fiber會自動處理(在read msg 回傳err),故需要SetCloseHandler另外接出
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	//server發出ping之後client連線正常會回pong
	//fiber會自動處理回傳pong,故需要SetPongHandler另外接出
	conn.SetPongHandler(func(appData string) error {
		logger.Log.Infof("Received PONG:", appData)
		return nil
	})

	//client發出ping
	//fiber會自動處理ping,故需要SetPingHandler另外接出
	conn.SetPingHandler(func(appData string) error {
		logger.Log.Infof("Received PING:", appData)
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	//連線即訂閱自己的通知
	if err := h.notifyUC.Watch(ctxClose, userID, func(groups []domain.NotificationGroup) {
		h.sendResponse(conn, &writeMu, domain.WSResponse{
			Action:  string(domain.NotificationUpdate),
			Success: true,
			Payload: map[string]interface{}{"notifications": groups},
		})
	}); err != nil {
		logger.Log.Errorf("notification watch error:", err)
	}

	// 定期發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				pingMsg := "ping message"
				if err := conn.WriteMessage(websocket.PingMessage, []byte(pingMsg)); err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
				logger.Log.Infof("%s Ping sent", userID)
			case <-ctxClose.Done():
				logger.Log.Infof("Ping goroutine cancelled for user:", userID)
				return
			}
		}
	}()

	for {
		// 1. 讀取前端訊息
		mt, message, err := conn.ReadMessage()
		if err != nil {
			// 檢查是否為 Close 正常結束
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Errorf("Connection closed:", err)
			} else {
				//直接斷線 1006
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		h.execWebsocketAction(ctxClose, conn, &writeMu, state, userID, mt, message)
	}
}

func (h *ChatWebsocketHandler) execWebsocketAction(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex, state *connState, userID string, mt int, msg []byte) {
	switch mt {
	case websocket.TextMessage:
		h.textMessageAction(ctx, conn, writeMu, state, userID, msg)

	default:
		h.sendError(conn, writeMu, "unknown action")
	}
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex, state *connState, userID string, msg []byte) {

	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		log.Printf("json unmarshal error: %v", err)
		return
	}

	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}
	switch req.Action {
	//開啟對話列表,先收到快照之後持續收到刷新
	case string(domain.OpenDirectory), string(domain.SearchDirectory):
		state.mu.Lock()
		if state.directoryCancel != nil {
			state.directoryCancel()
		}
		// 由連線的 ctx 衍生，斷線時訂閱一定跟著結束
		ctxDir, cancelDir := context.WithCancel(ctx)
		state.directoryCancel = cancelDir
		state.mu.Unlock()

		err := h.directoryUC.Watch(ctxDir, userID, req.Filter, func(previews []domain.ConversationPreview) {
			h.sendResponse(conn, writeMu, domain.WSResponse{
				Action:  string(domain.DirectoryUpdate),
				Success: true,
				Payload: map[string]interface{}{"conversations": previews},
			})
		})
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	//由列表發起對話,立即回傳對話 id
	case string(domain.StartConversation):
		convID, _ := h.directoryUC.StartConversation(ctx, userID, req.TargetUserID)
		resp.Success = true
		resp.Payload["conversation_id"] = convID

	//進入對話
	case string(domain.EnterConversation):
		convID := req.ConversationID
		otherID := req.TargetUserID
		if convID == "" && otherID != "" {
			convID = domain.PairConversationID(userID, otherID)
		}
		// 只帶對話 id 進來時由既有紀錄解出對方
		if otherID == "" && convID != "" {
			otherID = h.sessionUC.Counterparty(ctx, convID, userID)
		}

		state.mu.Lock()
		if state.sessionCancel != nil {
			state.sessionCancel()
		}
		ctxSession, cancelSession := context.WithCancel(ctx)
		session := h.sessionUC.NewSession(convID, userID, otherID)
		state.session = session
		state.sessionCancel = cancelSession
		state.mu.Unlock()

		err := session.Open(ctxSession, func(msgs []domain.DisplayMessage) {
			h.sendResponse(conn, writeMu, domain.WSResponse{
				Action:  string(domain.SessionUpdate),
				Success: true,
				Payload: map[string]interface{}{
					"conversation_id": convID,
					"messages":        msgs,
				},
			})
		})
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["conversation_id"] = convID
		}

	//離開對話
	case string(domain.LeaveConversation):
		state.mu.Lock()
		if state.sessionCancel != nil {
			state.sessionCancel()
			state.sessionCancel = nil
		}
		convID := ""
		if state.session != nil {
			convID = state.session.ConversationID()
			state.session = nil
		}
		state.mu.Unlock()
		resp.Success = true
		resp.Payload["leave_conversation"] = convID

	//傳送訊息,寫入db並通知對話雙方刷新
	case string(domain.SendMessage):
		state.mu.Lock()
		session := state.session
		state.mu.Unlock()
		if session == nil {
			resp.Error = "no active conversation"
			break
		}
		// 附件先經 POST /attachments 存好，這裡只引用結果
		if req.AttachmentURL != "" {
			if err := session.AttachUploaded(&domain.AttachmentInfo{
				URL:  req.AttachmentURL,
				Name: req.AttachmentName,
				Type: req.AttachmentType,
				Size: req.AttachmentSize,
			}); err != nil {
				resp.Error = err.Error()
				break
			}
		}
		if err := session.Send(ctx, req.Text); err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	//讀取通知列表
	case string(domain.GetNotifications):
		groups, err := h.notifyUC.Feed(ctx, userID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["notifications"] = groups
		}

	//將通知標為已讀
	case string(domain.ReadNotification):
		err := h.notifyUC.MarkRead(ctx, userID, req.NotificationID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	default:
		h.sendError(conn, writeMu, "unknown message types ")
	}

	if resp.Error != "" {
		logger.Log.Error("websocket err ", zap.String("UserID", userID), zap.String("Action", req.Action), zap.String("err", resp.Error))
	}
	h.sendResponse(conn, writeMu, resp)
}

// sendResponse - 發送 JSON 給前端
func (h *ChatWebsocketHandler) sendResponse(conn *websocket.Conn, writeMu *sync.Mutex, resp domain.WSResponse) {
	b, _ := json.Marshal(resp)
	writeMu.Lock()
	defer writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		logger.Log.Errorf("write message error:", err)
	}
}

func (h *ChatWebsocketHandler) sendError(conn *websocket.Conn, writeMu *sync.Mutex, errorMsg string) {
	h.sendResponse(conn, writeMu, domain.WSResponse{
		Action:  "error",
		Success: false,
		Payload: map[string]interface{}{
			"error": errorMsg,
		},
	})
}
