package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"notehive/internal/model"
)

// NotesFilter 笔记查询条件。
type NotesFilter struct {
	OwnerID uint       // 所有者（必填，查询始终按所有者隔离）
	Title   string     // 标题模糊匹配
	From    *time.Time // 创建时间下界
	To      *time.Time // 创建时间上界
	Page    int        // 页码，从 1 开始
	Limit   int        // 每页条数
}

// Notes 基于 gorm 的笔记存储。
type Notes struct {
	db *gorm.DB
}

func NewNotes(db *gorm.DB) *Notes {
	return &Notes{db: db}
}

// Create 创建笔记。
func (s *Notes) Create(ctx context.Context, note *model.Note) error {
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// ByID 按 ID 查找笔记，不存在时返回 ErrNotFound。
func (s *Notes) ByID(ctx context.Context, id uint) (*model.Note, error) {
	var note model.Note
	err := s.db.WithContext(ctx).First(&note, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query note: %w", err)
	}
	return &note, nil
}

// DeleteOwned 删除属于 ownerID 的笔记。
//
// 删除条件同时带上所有者，非所有者的请求不会影响任何行，
// 返回 ErrNotFound。
func (s *Notes) DeleteOwned(ctx context.Context, id uint, ownerID uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Note{})
	if res.Error != nil {
		return fmt.Errorf("delete note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List 按条件分页查询笔记，按创建时间倒序。
//
// 返回当前页数据与满足条件的总条数。
func (s *Notes) List(ctx context.Context, filter NotesFilter) ([]model.Note, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	q := s.db.WithContext(ctx).Model(&model.Note{}).Where("owner_id = ?", filter.OwnerID)
	if filter.Title != "" {
		q = q.Where("title LIKE ?", "%"+filter.Title+"%")
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count notes: %w", err)
	}

	var notes []model.Note
	err := q.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&notes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list notes: %w", err)
	}
	return notes, total, nil
}
