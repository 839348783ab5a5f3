package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Johnie198946/Authen-sub002/internal/model"
	"github.com/Johnie198946/Authen-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// mapServiceError 把 Service 层哨兵错误转换为 HTTP 状态码和对外消息。
// 统一映射的价值：
// 1. Handler 不必散落大量 if/else 判断。
// 2. 对外返回口径稳定，避免泄露内部实现细节。
func mapServiceError(err error) (httpStatus int, message string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid request parameters"
	case errors.Is(err, service.ErrInvalidIdentifier):
		return http.StatusBadRequest, "Invalid identifier format"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, service.ErrUserAlreadyExists):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, service.ErrOrgNodeNotFound):
		return http.StatusNotFound, "Organization node not found"
	case errors.Is(err, service.ErrParentNotFound):
		return http.StatusNotFound, "Parent organization node not found"
	case errors.Is(err, service.ErrOrgNodePathTaken):
		return http.StatusConflict, "Organization node path already exists"
	case errors.Is(err, service.ErrOrgNodeHasChildren):
		return http.StatusConflict, "Organization node has child nodes"
	case errors.Is(err, service.ErrSelfMove):
		return http.StatusBadRequest, "Cannot move organization node under itself"
	case errors.Is(err, service.ErrCyclicMove):
		return http.StatusConflict, "Cannot move organization node into its own subtree"
	case errors.Is(err, service.ErrDepthExceeded):
		return http.StatusBadRequest, "Organization tree depth limit exceeded"
	case errors.Is(err, service.ErrPermissionNotAssigned):
		return http.StatusNotFound, "Permission is not assigned to organization node"
	case errors.Is(err, service.ErrMembershipNotFound):
		return http.StatusNotFound, "User is not a member of organization node"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// extractBearerToken 从 Authorization 请求头提取 Bearer Token。
// 期望格式：Authorization: Bearer <token>
func extractBearerToken(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	if strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("empty token")
	}
	return parts[1], nil
}

// getUserFromContext 从 Gin 上下文中读取 AuthMiddleware 注入的用户对象。
// 如果上下文异常，该函数会直接写错误响应并返回 false，调用方只需 `if !ok { return }`。
func getUserFromContext(c *gin.Context) (*model.User, bool) {
	userVal, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"error":   "Unauthorized",
			"message": "User not found in context",
		})
		return nil, false
	}

	user, ok := userVal.(*model.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"error":   "Internal server error",
			"message": "Failed to get user profile",
		})
		return nil, false
	}
	return user, true
}
