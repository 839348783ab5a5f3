package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Johnie198946/Authen-sub002/internal/model"

	"gorm.io/gorm"
)

var (
	// ErrOrgNodeHasChildren 表示节点下仍有子节点，禁止直接删除。
	ErrOrgNodeHasChildren = errors.New("organization node has children")
	// ErrOrgNodeDepthExceeded 表示移动后子树中会出现超过层级上限的节点。
	ErrOrgNodeDepthExceeded = errors.New("organization node depth exceeded")
)

// OrganizationNodeRepository 定义组织节点的持久化操作接口。
// 组织节点是树形结构，通过 ParentID 维护父子关系，通过 Path 物化路径支持子树前缀查询。
type OrganizationNodeRepository interface {
	Create(node *model.OrganizationNode) error
	FindAll() ([]model.OrganizationNode, error)
	FindByID(id string) (*model.OrganizationNode, error)
	FindByPath(path string) (*model.OrganizationNode, error)
	FindByParentID(parentID *string) ([]model.OrganizationNode, error)

	// FindByPathPrefix 查询整棵子树：所有 path 以 prefix + "/" 开头的节点。
	// 前缀后强制带分隔符，避免 "/App" 误匹配 "/Apple"。不含 prefix 对应的节点本身。
	FindByPathPrefix(prefix string) ([]model.OrganizationNode, error)

	// UpdateName 只更新 name 和 updated_by 字段，不改写 path/level。
	UpdateName(id, name, updatedBy string) error

	// MoveSubtree 把节点挂到新父节点下（newParentID 为 nil 表示升为根节点），
	// 并把所有后代的 path 前缀和 level 增量一并改写。
	// 使用事务保证"检查后代层级 + 改写全部行"的原子性：
	// 任何一个后代移动后会超过层级上限时返回 ErrOrgNodeDepthExceeded，所有行保持原状。
	MoveSubtree(id string, newParentID *string, newPath string, newLevel int, updatedBy string) error

	// Delete 保护删除：有子节点则返回 ErrOrgNodeHasChildren。
	// 删除节点的同时级联删除该节点的权限授权和用户关联，整体在一个事务内完成。
	Delete(id string) error
}

// organizationNodeRepository 组织节点仓库实现
type organizationNodeRepository struct {
	db *gorm.DB
}

func NewOrganizationNodeRepository(db *gorm.DB) OrganizationNodeRepository {
	return &organizationNodeRepository{db: db}
}

func (r *organizationNodeRepository) Create(node *model.OrganizationNode) error {
	if node == nil {
		return fmt.Errorf("organization node is nil")
	}
	if node.NodeID == "" {
		return fmt.Errorf("node id is required")
	}
	return r.db.Create(node).Error
}

func (r *organizationNodeRepository) FindAll() ([]model.OrganizationNode, error) {
	var nodes []model.OrganizationNode
	if err := r.db.Order("path ASC").Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *organizationNodeRepository) FindByID(id string) (*model.OrganizationNode, error) {
	if id == "" {
		return nil, fmt.Errorf("node id is required")
	}

	var node model.OrganizationNode
	if err := r.db.Where("node_id = ?", id).First(&node).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *organizationNodeRepository) FindByPath(path string) (*model.OrganizationNode, error) {
	if path == "" {
		return nil, fmt.Errorf("node path is required")
	}

	var node model.OrganizationNode
	if err := r.db.Where("path = ?", path).First(&node).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *organizationNodeRepository) FindByParentID(parentID *string) ([]model.OrganizationNode, error) {
	var nodes []model.OrganizationNode

	tx := r.db.Order("path ASC")
	if parentID == nil {
		tx = tx.Where("parent_id IS NULL")
	} else {
		tx = tx.Where("parent_id = ?", *parentID)
	}

	if err := tx.Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *organizationNodeRepository) FindByPathPrefix(prefix string) ([]model.OrganizationNode, error) {
	if prefix == "" {
		return nil, fmt.Errorf("path prefix is required")
	}

	var nodes []model.OrganizationNode
	if err := r.db.Where("path LIKE ?", likeSubtree(prefix)).Order("path ASC").Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

// UpdateName 更新节点的 name 和 updated_by 字段。
// 使用 Select 限定只更新这两个字段，避免零值覆盖其他字段。
// 如果 NodeID 不存在，返回 gorm.ErrRecordNotFound。
func (r *organizationNodeRepository) UpdateName(id, name, updatedBy string) error {
	if id == "" {
		return fmt.Errorf("node id is required")
	}
	if name == "" {
		return fmt.Errorf("node name is required")
	}

	tx := r.db.Model(&model.OrganizationNode{}).
		Where("node_id = ?", id).
		Select("name", "updated_by").
		Updates(&model.OrganizationNode{Name: name, UpdatedBy: updatedBy})

	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MoveSubtree 在一个事务内完成移动：
//  1. 读取当前节点，计算层级增量。
//  2. 第一遍只做检查：取子树内最深后代的 level，加上增量后越界则整体回滚，
//     不会出现"改了一半"的中间状态。
//  3. 第二遍才写入：先改节点本身，再用前缀替换批量改写全部后代的 path/level。
func (r *organizationNodeRepository) MoveSubtree(id string, newParentID *string, newPath string, newLevel int, updatedBy string) error {
	if id == "" {
		return fmt.Errorf("node id is required")
	}
	if newPath == "" {
		return fmt.Errorf("new path is required")
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var node model.OrganizationNode
		if err := tx.Where("node_id = ?", id).First(&node).Error; err != nil {
			return err
		}

		levelDelta := newLevel - node.Level

		// 检查阶段：子树里最深的后代移动后也不能超过层级上限。
		var maxLevel int
		if err := tx.Model(&model.OrganizationNode{}).
			Where("path LIKE ?", likeSubtree(node.Path)).
			Select("COALESCE(MAX(`level`), -1)").
			Scan(&maxLevel).Error; err != nil {
			return err
		}
		if newLevel > model.MaxOrgNodeLevel {
			return ErrOrgNodeDepthExceeded
		}
		if maxLevel >= 0 && maxLevel+levelDelta > model.MaxOrgNodeLevel {
			return ErrOrgNodeDepthExceeded
		}

		// 写入阶段：先改节点本身（Select 强制写入 parent_id，允许置 NULL 升为根节点）。
		res := tx.Model(&model.OrganizationNode{}).
			Where("node_id = ?", id).
			Select("parent_id", "path", "level", "updated_by").
			Updates(&model.OrganizationNode{
				ParentID:  newParentID,
				Path:      newPath,
				Level:     newLevel,
				UpdatedBy: updatedBy,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		// 改写全部后代：path 做前缀替换，level 加同一增量。
		// CHAR_LENGTH 按字符计数，节点名含多字节字符时前缀长度依然正确。
		if err := tx.Model(&model.OrganizationNode{}).
			Where("path LIKE ?", likeSubtree(node.Path)).
			Updates(map[string]interface{}{
				"path":       gorm.Expr("CONCAT(?, SUBSTRING(path, CHAR_LENGTH(?) + 1))", newPath, node.Path),
				"level":      gorm.Expr("`level` + ?", levelDelta),
				"updated_by": updatedBy,
			}).Error; err != nil {
			return err
		}
		return nil
	})
}

// Delete 保护删除：在事务中先确认记录存在、再检查是否有子节点、最后执行删除。
// 有子节点时返回 ErrOrgNodeHasChildren，调用方可据此提示用户自底向上删除。
// 节点的权限授权和用户关联在同一个事务内级联删除。
func (r *organizationNodeRepository) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("node id is required")
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		// 先确认记录存在
		var current model.OrganizationNode
		if err := tx.Where("node_id = ?", id).First(&current).Error; err != nil {
			return err
		}

		// 保护删除：有子节点则拒绝
		var childCount int64
		if err := tx.Model(&model.OrganizationNode{}).
			Where("parent_id = ?", id).
			Count(&childCount).Error; err != nil {
			return err
		}
		if childCount > 0 {
			return ErrOrgNodeHasChildren
		}

		// 级联清理该节点的权限授权和用户关联
		if err := tx.Where("node_id = ?", id).Delete(&model.NodePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("node_id = ?", id).Delete(&model.UserOrganization{}).Error; err != nil {
			return err
		}

		res := tx.Where("node_id = ?", id).Delete(&model.OrganizationNode{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// likeEscaper 转义 LIKE 模式里的特殊字符（MySQL 默认转义符是反斜杠）。
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeSubtree 构造子树前缀查询的 LIKE 模式。
// 前缀后跟一个显式的 "/"，保证 "/App" 不会匹配到 "/Apple" 这类同前缀兄弟路径。
// 节点名里允许出现 % 和 _，必须先转义成字面量，否则 "/HR_Dept" 会连 "/HRxDept" 的子树一起命中。
func likeSubtree(path string) string {
	return likeEscaper.Replace(path) + "/%"
}
