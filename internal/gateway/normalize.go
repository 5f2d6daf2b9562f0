package gateway

import (
	"encoding/json"
	"fmt"
)

// nativeIDField backend 原生的識別欄位，正規化後移除
const nativeIDField = "_id"

// hasNativeID object 是否帶 backend 原生識別欄位
func hasNativeID(obj map[string]interface{}) bool {
	_, ok := obj[nativeIDField]
	return ok
}

// looksLikeUser object 是否為使用者紀錄 (帶 username 或 email)
func looksLikeUser(obj map[string]interface{}) bool {
	if _, ok := obj["username"]; ok {
		return true
	}
	_, ok := obj["email"]
	return ok
}

// Normalize 對任意 JSON 值做遞迴正規化:
// 帶 _id 且缺 id 的 object 補上 id (字串)，使用者紀錄再補 uid，最後移除 _id。
// 已正規化的輸入再跑一次結果不變。
func Normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			val[k] = Normalize(child)
		}
		if hasNativeID(val) {
			id := coerceID(val[nativeIDField])
			if _, ok := val["id"]; !ok {
				val["id"] = id
			}
			if looksLikeUser(val) {
				if _, ok := val["uid"]; !ok {
					val["uid"] = id
				}
			}
			delete(val, nativeIDField)
		}
		return val
	case []interface{}:
		for i, child := range val {
			val[i] = Normalize(child)
		}
		return val
	default:
		// scalar 原樣通過
		return v
	}
}

// coerceID 識別值一律轉字串
func coerceID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		return fmt.Sprintf("%v", id)
	}
}
