package gateway

import "context"

// User 使用者目錄的唯讀投影，只拿來解析顯示名稱與頭像
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"fullName"`
	ProfileImage string `json:"profileImage"`
}

// DisplayName prefer full name, fall back to username
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// UserDirectory definition user directory lookup
type UserDirectory interface {
	FetchUsers(ctx context.Context) ([]User, error)
}

// FetchUsers 取回整份使用者目錄
func (c *Client) FetchUsers(ctx context.Context) ([]User, error) {
	v, err := c.GetJSON(ctx, "/users")
	if err != nil {
		return nil, err
	}

	list, ok := v.([]interface{})
	if !ok {
		return nil, nil
	}

	users := make([]User, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		users = append(users, User{
			ID:           stringField(obj, "uid", "id"),
			Username:     stringField(obj, "username"),
			FullName:     stringField(obj, "fullName"),
			ProfileImage: stringField(obj, "profileImage"),
		})
	}
	return users, nil
}

// stringField 依序取第一個存在的字串欄位
func stringField(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
