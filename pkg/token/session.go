package token

import (
	"crypto/md5"
	"encoding/hex"
)

// SessionKey 把 access token 映射为一个短的会话标识，
// 用作 Redis 中会话级状态（如激活工作区）的 key 片段，
// 避免把完整 token 原文写进存储键。
func SessionKey(tokenString string) string {
	sum := md5.Sum([]byte(tokenString))
	return hex.EncodeToString(sum[:])
}
