package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"learning_chat_service/internal/chat/domain"
	"learning_chat_service/pkg/database"
	errprocess "learning_chat_service/pkg/err"
)

// AttachmentUploader definition attachment storage
type AttachmentUploader interface {
	// Upload 上傳附件並回傳可下載的 URL
	// onProgress 可為 nil，有值時回報 0~1 的上傳進度
	Upload(ctx context.Context, att *domain.StagedAttachment, onProgress func(float64)) (*domain.AttachmentInfo, error)
	// PresignedURL 簽發既有物件的限時下載連結
	PresignedURL(ctx context.Context, objectName string) (string, error)
}

// presignExpiry 下載連結有效時間
const presignExpiry = 15 * time.Minute

// MinIOUploader definition minio-backed uploader
type MinIOUploader struct {
	store database.MinIOClientRepo
}

// NewMinIOUploader create MinIOUploader
func NewMinIOUploader(store database.MinIOClientRepo) *MinIOUploader {
	return &MinIOUploader{store: store}
}

// Upload 以隨機前綴避免同名附件互相覆蓋
// 上傳失敗不重試，由呼叫端決定保留草稿重送
func (u *MinIOUploader) Upload(ctx context.Context, att *domain.StagedAttachment, onProgress func(float64)) (*domain.AttachmentInfo, error) {
	if att.Size > domain.MaxAttachmentSize {
		return nil, domain.ErrAttachmentTooLarge
	}

	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	reader := att.Content
	if onProgress != nil && att.Size > 0 {
		reader = &progressReader{r: att.Content, total: att.Size, report: onProgress}
	}

	objectName := "attachments/" + uuid.New().String() + "_" + att.Name
	if err := u.store.PutObject(ctx, objectName, reader, att.Size, contentType); err != nil {
		errMsg := fmt.Sprintf("attachment[%s] 上傳失敗 : %v", att.Name, err)
		return nil, errprocess.Set(errMsg)
	}

	return &domain.AttachmentInfo{
		URL:  u.store.ObjectURL(objectName),
		Name: att.Name,
		Type: contentType,
		Size: att.Size,
	}, nil
}

// PresignedURL 簽發限時下載連結，供非公開 bucket 取用附件
func (u *MinIOUploader) PresignedURL(ctx context.Context, objectName string) (string, error) {
	return u.store.PresignGetURL(ctx, objectName, presignExpiry)
}

// progressReader 邊讀邊回報已上傳比例
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		frac := float64(p.read) / float64(p.total)
		if frac > 1 {
			frac = 1
		}
		p.report(frac)
	}
	return n, err
}
