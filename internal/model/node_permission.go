package model

import "time"

// NodePermission 对应数据库中 node_permissions 表，表示（组织节点, 权限）的直连授权。
// 复合主键保证同一对只存在一行，插入已存在的组合按幂等处理（INSERT IGNORE 语义）。
// 节点的"生效权限"= 自身直连授权 ∪ 所有祖先节点的直连授权，由 PermissionService 计算。
type NodePermission struct {
	NodeID       string    `gorm:"type:varchar(36);primaryKey" json:"nodeId"`
	PermissionID string    `gorm:"type:varchar(36);primaryKey" json:"permissionId"`
	CreatedBy    string    `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定 GORM 使用的表名
func (NodePermission) TableName() string {
	return "node_permissions"
}
