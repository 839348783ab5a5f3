package repository

import (
	"fmt"

	"github.com/Johnie198946/Authen-sub002/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NodePermissionRepository 定义（组织节点, 权限）直连授权的持久化操作接口。
// 授权是幂等集合语义：重复插入同一组合不报错，按已存在处理。
type NodePermissionRepository interface {
	// Assign 批量插入授权，已存在的组合静默跳过（INSERT IGNORE 语义）。
	Assign(assignments []model.NodePermission) error
	FindByNodeID(nodeID string) ([]model.NodePermission, error)

	// Remove 删除单条授权，组合不存在时返回 gorm.ErrRecordNotFound。
	Remove(nodeID, permissionID string) error
}

// nodePermissionRepository 节点权限仓库实现
type nodePermissionRepository struct {
	db *gorm.DB
}

func NewNodePermissionRepository(db *gorm.DB) NodePermissionRepository {
	return &nodePermissionRepository{db: db}
}

func (r *nodePermissionRepository) Assign(assignments []model.NodePermission) error {
	if len(assignments) == 0 {
		return nil
	}
	for _, a := range assignments {
		if a.NodeID == "" || a.PermissionID == "" {
			return fmt.Errorf("node id and permission id are required")
		}
	}
	// OnConflict DoNothing 实现幂等插入：主键冲突的行直接跳过。
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&assignments).Error
}

func (r *nodePermissionRepository) FindByNodeID(nodeID string) ([]model.NodePermission, error) {
	if nodeID == "" {
		return nil, fmt.Errorf("node id is required")
	}

	var assignments []model.NodePermission
	if err := r.db.Where("node_id = ?", nodeID).Order("permission_id ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *nodePermissionRepository) Remove(nodeID, permissionID string) error {
	if nodeID == "" || permissionID == "" {
		return fmt.Errorf("node id and permission id are required")
	}

	res := r.db.Where("node_id = ? AND permission_id = ?", nodeID, permissionID).
		Delete(&model.NodePermission{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
