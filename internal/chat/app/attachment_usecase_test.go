package app

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"learning_chat_service/internal/chat/domain"
	"learning_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
)

// fakeObjectStore 記錄上傳內容的假 MinIO
type fakeObjectStore struct {
	objectName  string
	contentType string
	body        []byte
}

func (f *fakeObjectStore) PutObject(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	f.objectName = objectName
	f.contentType = contentType
	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.body = body
	return nil
}

func (f *fakeObjectStore) ObjectURL(objectName string) string {
	return "http://minio.local/chat/" + objectName
}

func (f *fakeObjectStore) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	return f.ObjectURL(objectName), nil
}

// 測試上傳成功回傳附件資訊，物件名帶隨機前綴避免同名覆蓋
func TestMinIOUploader_Upload(t *testing.T) {
	logger.SetNewNop()
	store := &fakeObjectStore{}
	uploader := NewMinIOUploader(store)

	content := "hello attachment"
	info, err := uploader.Upload(context.Background(), &domain.StagedAttachment{
		Name:        "notes.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Content:     strings.NewReader(content),
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, "notes.pdf", info.Name)
	assert.Equal(t, "application/pdf", info.Type)
	assert.Equal(t, content, string(store.body))
	assert.True(t, strings.HasPrefix(store.objectName, "attachments/"))
	assert.True(t, strings.HasSuffix(store.objectName, "_notes.pdf"))
	assert.Equal(t, store.ObjectURL(store.objectName), info.URL)
}

// 測試缺 content type 時補 application/octet-stream
func TestMinIOUploader_UploadDefaultContentType(t *testing.T) {
	logger.SetNewNop()
	store := &fakeObjectStore{}
	uploader := NewMinIOUploader(store)

	info, err := uploader.Upload(context.Background(), &domain.StagedAttachment{
		Name:    "raw.bin",
		Size:    3,
		Content: strings.NewReader("abc"),
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, "application/octet-stream", info.Type)
	assert.Equal(t, "application/octet-stream", store.contentType)
}

// 測試超過上限直接拒絕，不碰 storage
func TestMinIOUploader_UploadTooLarge(t *testing.T) {
	logger.SetNewNop()
	store := &fakeObjectStore{}
	uploader := NewMinIOUploader(store)

	_, err := uploader.Upload(context.Background(), &domain.StagedAttachment{
		Name: "huge.bin",
		Size: domain.MaxAttachmentSize + 1,
	}, nil)

	assert.ErrorIs(t, err, domain.ErrAttachmentTooLarge)
	assert.Empty(t, store.objectName)
}

// 測試進度回報遞增且最後到 1
func TestMinIOUploader_UploadProgress(t *testing.T) {
	logger.SetNewNop()
	store := &fakeObjectStore{}
	uploader := NewMinIOUploader(store)

	content := strings.Repeat("x", 1024)
	var fractions []float64
	_, err := uploader.Upload(context.Background(), &domain.StagedAttachment{
		Name:    "big.txt",
		Size:    int64(len(content)),
		Content: iotestChunkReader{r: strings.NewReader(content), chunk: 256},
	}, func(frac float64) {
		fractions = append(fractions, frac)
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, fractions)
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
	}
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
}

// 測試簽發限時下載連結
func TestMinIOUploader_PresignedURL(t *testing.T) {
	logger.SetNewNop()
	store := &fakeObjectStore{}
	uploader := NewMinIOUploader(store)

	link, err := uploader.PresignedURL(context.Background(), "attachments/x_notes.pdf")
	assert.NoError(t, err)
	assert.Equal(t, "http://minio.local/chat/attachments/x_notes.pdf", link)
}

// iotestChunkReader 一次最多讀 chunk bytes，強迫多次進度回報
type iotestChunkReader struct {
	r     io.Reader
	chunk int
}

func (c iotestChunkReader) Read(b []byte) (int, error) {
	if len(b) > c.chunk {
		b = b[:c.chunk]
	}
	return c.r.Read(b)
}
