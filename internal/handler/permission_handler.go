package handler

import (
	"net/http"
	"strconv"

	"github.com/Johnie198946/Authen-sub002/internal/service"
	"github.com/Johnie198946/Authen-sub002/pkg/log"

	"github.com/gin-gonic/gin"
)

// PermissionHandler 负责组织节点的权限授权与解析接口。
type PermissionHandler struct {
	permissionService service.PermissionService
}

func NewPermissionHandler(permissionService service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService}
}

// AssignPermissionsRequest 是批量授权的请求体。
type AssignPermissionsRequest struct {
	PermissionIDs []string `json:"permissionIds" binding:"required"`
}

// Assign 给节点批量授权。格式非法的权限 ID 静默跳过，重复授权幂等。
func (h *PermissionHandler) Assign(c *gin.Context) {
	nodeID := c.Param("id")

	var req AssignPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "Invalid request body",
		})
		return
	}

	user, ok := getUserFromContext(c)
	if !ok {
		return
	}

	if err := h.permissionService.Assign(nodeID, req.PermissionIDs, user.Username); err != nil {
		log.Warnf("PermissionHandler.Assign: failed to assign permissions to node %s: %v", nodeID, err)
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{
			"code":    status,
			"message": msg,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Permissions assigned successfully",
	})
}

// GetEffective 返回节点的权限集合。
// query 参数 inherited 默认 true：合并整条祖先链；传 false 时只返回直连授权。
func (h *PermissionHandler) GetEffective(c *gin.Context) {
	nodeID := c.Param("id")

	inherited, err := strconv.ParseBool(c.DefaultQuery("inherited", "true"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "Invalid inherited parameter, use 'true' or 'false'",
		})
		return
	}

	permissions, err := h.permissionService.Resolve(nodeID, inherited)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{
			"code":    status,
			"message": msg,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Permissions retrieved successfully",
		"data": gin.H{
			"nodeId":      nodeID,
			"inherited":   inherited,
			"permissions": permissions,
		},
	})
}

// Remove 移除节点的单条直连授权。
func (h *PermissionHandler) Remove(c *gin.Context) {
	nodeID := c.Param("id")
	permissionID := c.Param("permissionId")

	if err := h.permissionService.Remove(nodeID, permissionID); err != nil {
		log.Warnf("PermissionHandler.Remove: failed to remove permission %s from node %s: %v", permissionID, nodeID, err)
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{
			"code":    status,
			"message": msg,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Permission removed successfully",
	})
}
