package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"learning_chat_service/pkg"
)

// 錯誤訊息帶 body 片段的截斷長度
const bodyExcerptLimit = 200

// Client 遠端 REST backend 的取用端，回傳前先跑 Normalize
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient create a gateway Client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// GetJSON fetch 並正規化一個 JSON endpoint
func (c *Client) GetJSON(ctx context.Context, path string) (interface{}, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote api %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote api %s: read body: %w", path, err)
	}

	contentType := resp.Header.Get("Content-Type")

	// 非 2xx 或非 JSON 都帶狀態碼/內容型別與截斷後的 body 回報，不吞部分資料
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("remote api %s: status %d (%s): %s",
			path, resp.StatusCode, contentType, pkg.Truncate(string(body), bodyExcerptLimit))
	}
	if !strings.Contains(contentType, "application/json") {
		return nil, fmt.Errorf("remote api %s: unexpected content type %q: %s",
			path, contentType, pkg.Truncate(string(body), bodyExcerptLimit))
	}

	// UseNumber 保留數字原樣，id 轉字串不失真
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("remote api %s: decode: %s",
			path, pkg.Truncate(string(body), bodyExcerptLimit))
	}

	return Normalize(v), nil
}
