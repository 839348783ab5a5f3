package model

import "time"

// 组织树深度上限：根节点 level = 0，最深节点 level = 9，共十层。
// 创建和移动操作都必须保证任何节点不会超过该层级。
const MaxOrgNodeLevel = 9

// OrganizationNode 对应数据库中 organization_nodes 表，表示组织树节点。
// 树形结构通过两套冗余字段共同维护：
//   - ParentID：唯一决定树形状（父子关系）
//   - Path/Level：物化路径与层级，由父节点推导而来，用于前缀子树查询
//
// 不变量（每次写操作之后必须成立）：
//  1. Path == 父节点 Path + "/" + Name（根节点为 "/" + Name）
//  2. Level == 父节点 Level + 1（根节点为 0）
//  3. 0 <= Level <= MaxOrgNodeLevel
//  4. Path 全表唯一（由唯一索引兜底）
type OrganizationNode struct {
	NodeID    string    `gorm:"type:varchar(36);primaryKey" json:"nodeId"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	ParentID  *string   `gorm:"type:varchar(36);index" json:"parentId"`
	Path      string    `gorm:"type:varchar(750);not null;uniqueIndex" json:"path"`
	Level     int       `gorm:"not null" json:"level"`
	CreatedBy string    `gorm:"type:varchar(255);not null" json:"created_by"`
	UpdatedBy string    `gorm:"type:varchar(255);not null" json:"updated_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrganizationNodeTree 是组织节点的树形视图，用于构建前端需要的嵌套结构响应。
// 与 OrganizationNode（数据库模型）的区别：
//   - 不含 CreatedBy/UpdatedBy/CreatedAt/UpdatedAt 等审计字段
//   - 增加了 Children 字段，用于嵌套子节点
type OrganizationNodeTree struct {
	NodeID   string                  `json:"nodeId"`
	Name     string                  `json:"name"`
	ParentID *string                 `json:"parentId"`
	Path     string                  `json:"path"`
	Level    int                     `json:"level"`
	Children []*OrganizationNodeTree `json:"children"`
}

// TableName 指定 GORM 使用的表名
func (OrganizationNode) TableName() string {
	return "organization_nodes"
}
