package handler

import (
	"github.com/gin-gonic/gin"

	"unilife/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id", false)
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role", false)
}

// MustGetUniversityID 从 Gin 上下文中安全提取 university_id。
// 未绑定高校的账号该值为空串，仍返回 true，由业务层判断。
func MustGetUniversityID(c *gin.Context) (string, bool) {
	return mustGetString(c, "university_id", true)
}

func mustGetString(c *gin.Context, key string, allowEmpty bool) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || (s == "" && !allowEmpty) {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetIdentity 一次性提取 user_id 与 role
func MustGetIdentity(c *gin.Context) (userID, role string, ok bool) {
	if userID, ok = MustGetUserID(c); !ok {
		return "", "", false
	}
	if role, ok = MustGetRole(c); !ok {
		return "", "", false
	}
	return userID, role, true
}
