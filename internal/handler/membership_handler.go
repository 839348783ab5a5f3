package handler

import (
	"net/http"
	"strconv"

	"github.com/Johnie198946/Authen-sub002/internal/service"
	"github.com/Johnie198946/Authen-sub002/pkg/log"

	"github.com/gin-gonic/gin"
)

// MembershipHandler 负责用户与组织节点成员关系的管理接口（管理员路由）。
type MembershipHandler struct {
	membershipService service.MembershipService
}

func NewMembershipHandler(membershipService service.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService}
}

// AssignUsersRequest 是给节点批量分配用户的请求体。
type AssignUsersRequest struct {
	UserIDs []uint `json:"userIds" binding:"required"`
}

// AssignUsers 把一批用户挂到节点下。不存在的用户 ID 静默跳过，重复分配幂等。
func (h *MembershipHandler) AssignUsers(c *gin.Context) {
	nodeID := c.Param("id")

	var req AssignUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "Invalid request body",
		})
		return
	}

	if err := h.membershipService.AssignUsers(nodeID, req.UserIDs); err != nil {
		log.Warnf("MembershipHandler.AssignUsers: failed to assign users to node %s: %v", nodeID, err)
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{
			"code":    status,
			"message": msg,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Users assigned successfully",
	})
}

// GetUsers 返回节点下的全部成员用户。
func (h *MembershipHandler) GetUsers(c *gin.Context) {
	nodeID := c.Param("id")

	users, err := h.membershipService.GetUsers(nodeID)
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
		"message": "Users retrieved successfully",
		"data":    users,
	})
}

// RemoveUser 解除单个用户与节点的关联。
func (h *MembershipHandler) RemoveUser(c *gin.Context) {
	nodeID := c.Param("id")

	userID64, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil || userID64 == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "Invalid user ID",
		})
		return
	}

	if err := h.membershipService.RemoveUser(nodeID, uint(userID64)); err != nil {
		log.Warnf("MembershipHandler.RemoveUser: failed to remove user %d from node %s: %v", userID64, nodeID, err)
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{
			"code":    status,
			"message": msg,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "User removed successfully",
	})
}
