package app

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"learning_chat_service/internal/chat/domain"
	"learning_chat_service/pkg/logger"
	"learning_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ConnectCheck check api connect start
// @Summary Check chat service status
// @Description Returns a simple confirmation message
// @Tags Shared
// @Success 200 {string} string "chat service start!"
// @Router / [get]
func ConnectCheck(c *fiber.Ctx) error {
	return c.SendString("chat service start!")
}

// DebugLogFlag toggle debug log flag
// @Summary Toggle Debug Log Flag
// @Description Enable or disable debug logging for a service
// @Tags Shared
// @Param service query string true "Service name"
// @Param status query bool true "Debug status"
// @Success 200 {string} string "Service debug mode updated"
// @Failure 400 {string} string "Invalid status value"
// @Router /debug [post]
func DebugLogFlag(c *fiber.Ctx) error {
	// prase payload
	query, err := url.ParseQuery(string(c.Context().QueryArgs().QueryString()))
	service := query.Get("service")
	statusStr := query.Get("status")
	logger.Log.Info("debug", zap.String("status", statusStr))
	status, err := strconv.ParseBool(statusStr)
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	switch service {
	default:
		logger.Log.SetDebugMode(status)
	}
	return c.SendString(fmt.Sprintf("service[%s]: debug mode is : %t", service, status))
}

// AttachmentHandler definition attachment upload handler
type AttachmentHandler struct {
	uploader AttachmentUploader
}

// NewAttachmentHandler create AttachmentHandler
func NewAttachmentHandler(uploader AttachmentUploader) *AttachmentHandler {
	return &AttachmentHandler{uploader: uploader}
}

// Upload 接收附件上傳請求，回傳可下載的 URL
// @Summary Upload a chat attachment
// @Description Stores the file and returns its download URL
// @Tags Chat
// @Accept multipart/form-data
// @Param file formData file true "Attachment file (max 10 MiB)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {string} string "Missing or oversized file"
// @Router /attachments [post]
func (h *AttachmentHandler) Upload(c *fiber.Ctx) error {
	userID, _ := c.Locals(middlewares.TokenUserID).(string)

	// 1. 取得上傳檔案
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	// 2. 大小先檢查，超標不開檔
	if fileHeader.Size > domain.MaxAttachmentSize {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": domain.ErrAttachmentTooLarge.Error()})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "open uploaded file failed"})
	}
	defer f.Close()

	// 3. 上傳到 MinIO
	att := &domain.StagedAttachment{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Content:     f,
	}
	info, err := h.uploader.Upload(c.Context(), att, nil)
	if err != nil {
		if errors.Is(err, domain.ErrAttachmentTooLarge) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Log.Errorf("attachment upload by "+userID+":", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "upload failed"})
	}

	return c.JSON(fiber.Map{
		"url":  info.URL,
		"name": info.Name,
		"type": info.Type,
		"size": info.Size,
	})
}

// DownloadURL 簽發附件的限時下載連結
// @Summary Get a presigned attachment download URL
// @Description Returns a time-limited URL for the given object name
// @Tags Chat
// @Param object query string true "Object name"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {string} string "Missing object name"
// @Router /attachments/url [get]
func (h *AttachmentHandler) DownloadURL(c *fiber.Ctx) error {
	object := c.Query("object")
	if object == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "object is required"})
	}

	link, err := h.uploader.PresignedURL(c.Context(), object)
	if err != nil {
		logger.Log.Errorf("presign attachment "+object+":", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "presign failed"})
	}
	return c.JSON(fiber.Map{"url": link})
}
