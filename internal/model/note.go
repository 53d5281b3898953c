package model

import "time"

// Note 表示用户的一条笔记。
//
// 每条笔记恰好有一个所有者，删除操作只能由所有者发起。
type Note struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Title   string `gorm:"type:varchar(64);not null" json:"title"`     // 标题（3-30 字符）
	Content string `gorm:"type:varchar(512)" json:"content,omitempty"` // 内容（可选，最长 500）

	OwnerID uint `gorm:"not null;index" json:"owner"` // 所属用户 ID
	Owner   User `gorm:"foreignKey:OwnerID" json:"-"` // 所属用户
}
