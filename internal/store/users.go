package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"notehive/internal/model"
)

// Users 基于 gorm 的用户存储。
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Create 创建用户，邮箱冲突时返回 ErrDuplicate。
func (s *Users) Create(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// ByEmail 按邮箱查找用户，不存在时返回 ErrNotFound。
func (s *Users) ByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	return &user, nil
}

// ByID 按 ID 查找用户，不存在时返回 ErrNotFound。
func (s *Users) ByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return &user, nil
}

// SetResetCode 写入新的验证码哈希与过期时间，并清除已验证标记。
//
// 任何状态下重新发起重置都会走到这里，旧验证码随之作废。
func (s *Users) SetResetCode(ctx context.Context, id uint, codeHash string, expiresAt time.Time) error {
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]any{
		"reset_code_hash":       codeHash,
		"reset_code_expires_at": expiresAt,
		"reset_code_verified":   false,
	}).Error
	if err != nil {
		return fmt.Errorf("set reset code: %w", err)
	}
	return nil
}

// MarkResetVerified 将验证码标记为已核验。
func (s *Users) MarkResetVerified(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("reset_code_verified", true).Error
	if err != nil {
		return fmt.Errorf("mark reset verified: %w", err)
	}
	return nil
}

// ResetPassword 写入新密码并清空全部重置字段。
//
// 必须是单条 UPDATE：并发的重置请求不能观察到
// “已验证但未清空”的中间状态。
func (s *Users) ResetPassword(ctx context.Context, id uint, passwordHash string) error {
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]any{
		"password":              passwordHash,
		"reset_code_hash":       "",
		"reset_code_expires_at": nil,
		"reset_code_verified":   false,
	}).Error
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// SetProfilePic 更新头像并返回更新后的用户。
func (s *Users) SetProfilePic(ctx context.Context, id uint, fileName string) (*model.User, error) {
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("profile_pic", fileName).Error
	if err != nil {
		return nil, fmt.Errorf("set profile pic: %w", err)
	}
	return s.ByID(ctx, id)
}
