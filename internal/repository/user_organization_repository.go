package repository

import (
	"fmt"

	"github.com/Johnie198946/Authen-sub002/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserOrganizationRepository 定义用户与组织节点关联的持久化操作接口。
// 与权限授权一样是幂等集合语义，只做成员关系簿记，没有派生状态。
type UserOrganizationRepository interface {
	// Assign 批量建立关联，已存在的组合静默跳过。
	Assign(memberships []model.UserOrganization) error
	FindByNodeID(nodeID string) ([]model.UserOrganization, error)

	// Remove 解除单条关联，组合不存在时返回 gorm.ErrRecordNotFound。
	Remove(nodeID string, userID uint) error
}

// userOrganizationRepository 用户组织关联仓库实现
type userOrganizationRepository struct {
	db *gorm.DB
}

func NewUserOrganizationRepository(db *gorm.DB) UserOrganizationRepository {
	return &userOrganizationRepository{db: db}
}

func (r *userOrganizationRepository) Assign(memberships []model.UserOrganization) error {
	if len(memberships) == 0 {
		return nil
	}
	for _, m := range memberships {
		if m.UserID == 0 || m.NodeID == "" {
			return fmt.Errorf("user id and node id are required")
		}
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&memberships).Error
}

func (r *userOrganizationRepository) FindByNodeID(nodeID string) ([]model.UserOrganization, error) {
	if nodeID == "" {
		return nil, fmt.Errorf("node id is required")
	}

	var memberships []model.UserOrganization
	if err := r.db.Where("node_id = ?", nodeID).Order("user_id ASC").Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *userOrganizationRepository) Remove(nodeID string, userID uint) error {
	if nodeID == "" || userID == 0 {
		return fmt.Errorf("node id and user id are required")
	}

	res := r.db.Where("node_id = ? AND user_id = ?", nodeID, userID).
		Delete(&model.UserOrganization{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
