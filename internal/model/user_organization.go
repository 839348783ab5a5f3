package model

import "time"

// UserOrganization 对应数据库中 user_organizations 表，表示用户与组织节点的多对多关联。
// 复合主键保证幂等：重复分配同一（用户, 节点）组合不报错也不产生重复行。
// 该关联只是普通的成员关系簿记，不参与权限继承计算。
type UserOrganization struct {
	UserID    uint      `gorm:"primaryKey" json:"userId"`
	NodeID    string    `gorm:"type:varchar(36);primaryKey" json:"nodeId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定 GORM 使用的表名
func (UserOrganization) TableName() string {
	return "user_organizations"
}
