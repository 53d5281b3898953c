package model

import "time"

// User 表示系统用户。
//
// Password 只保存 bcrypt 哈希，序列化时永远不输出。
// 重置流程的三个字段（验证码哈希、过期时间、已验证标记）
// 在重置成功后一次性清空。用户在业务上不做硬删除。
type User struct {
	ID         uint   `gorm:"primaryKey" json:"_id"`
	Fullname   string `gorm:"type:varchar(64);not null" json:"fullname"`
	Email      string `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"` // 邮箱（唯一，小写）
	Password   string `gorm:"not null" json:"-"`                                   // bcrypt 哈希
	ProfilePic string `gorm:"type:varchar(191)" json:"profilePic,omitempty"`       // 头像文件名

	ResetCodeHash      string     `gorm:"type:varchar(64)" json:"-"` // sha256(验证码)
	ResetCodeExpiresAt *time.Time `json:"-"`                         // 验证码过期时间
	ResetCodeVerified  bool       `gorm:"default:false" json:"-"`    // 验证码是否已核验

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Notes []Note `gorm:"foreignKey:OwnerID" json:"-"`
}
