package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/Johnie198946/Authen-sub002/internal/service"
	"github.com/Johnie198946/Authen-sub002/pkg/log"

	"github.com/gin-gonic/gin"
)

// OrgNodeHandler 负责组织树管理接口。
// 写操作（创建/改名/移动/删除）挂管理员路由，读操作（列表/树）挂普通登录路由。
type OrgNodeHandler struct {
	orgNodeService service.OrgNodeService
}

func NewOrgNodeHandler(orgNodeService service.OrgNodeService) *OrgNodeHandler {
	return &OrgNodeHandler{orgNodeService: orgNodeService}
}

// CreateOrgNodeRequest 是创建组织节点的请求体。
// parentId 使用指针以区分“没传该字段”和“显式传空字符串”两种情况，两者都表示创建根节点。
type CreateOrgNodeRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parentId"`
}

// RenameOrgNodeRequest 是重命名组织节点的请求体。
type RenameOrgNodeRequest struct {
	Name string `json:"name" binding:"required"`
}

// MoveOrgNodeRequest 是移动组织节点的请求体。
// parentId 为空（或缺失）表示移动为根节点。
type MoveOrgNodeRequest struct {
	ParentID *string `json:"parentId"`
}

// Create 创建组织节点。
func (h *OrgNodeHandler) Create(c *gin.Context) {
	var req CreateOrgNodeRequest
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

	node, err := h.orgNodeService.Create(req.Name, req.ParentID, user.Username)
	if err != nil {
		log.Warnf("OrgNodeHandler.Create: failed to create org node: %v", err)
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{
			"code":    status,
			"message": msg,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "Organization node created successfully",
		"data":    node,
	})
}

// Rename 重命名组织节点（只改 name，不回写 path）。
func (h *OrgNodeHandler) Rename(c *gin.Context) {
	nodeID := c.Param("id")

	var req RenameOrgNodeRequest
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

	node, err := h.orgNodeService.Rename(nodeID, req.Name, user.Username)
	if err != nil {
		log.Warnf("OrgNodeHandler.Rename: failed to rename org node %s: %v", nodeID, err)
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{
			"code":    status,
			"message": msg,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Organization node renamed successfully",
		"data":    node,
	})
}

// Move 移动组织节点（parentId 为空表示升为根节点）。
func (h *OrgNodeHandler) Move(c *gin.Context) {
	nodeID := c.Param("id")

	var req MoveOrgNodeRequest
	// 空请求体等价于 {}：parentId 缺省即升为根节点
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
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

	node, err := h.orgNodeService.Move(nodeID, req.ParentID, user.Username)
	if err != nil {
		log.Warnf("OrgNodeHandler.Move: failed to move org node %s: %v", nodeID, err)
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{
			"code":    status,
			"message": msg,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Organization node moved successfully",
		"data":    node,
	})
}

// Delete 删除组织节点（仅限叶子节点）。
func (h *OrgNodeHandler) Delete(c *gin.Context) {
	nodeID := c.Param("id")

	if err := h.orgNodeService.Delete(nodeID); err != nil {
		log.Warnf("OrgNodeHandler.Delete: failed to delete org node %s: %v", nodeID, err)
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{
			"code":    status,
			"message": msg,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Organization node deleted successfully",
	})
}

// List 返回组织节点平铺列表。
func (h *OrgNodeHandler) List(c *gin.Context) {
	nodes, err := h.orgNodeService.List()
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
		"message": "Organization nodes retrieved successfully",
		"data":    nodes,
	})
}

// GetTree 返回树形组织结构。
func (h *OrgNodeHandler) GetTree(c *gin.Context) {
	tree, err := h.orgNodeService.GetTree()
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
		"message": "Organization tree retrieved successfully",
		"data":    tree,
	})
}
