package store

import "errors"

var (
	// ErrNotFound 记录不存在。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 唯一键冲突（如邮箱重复注册）。
	ErrDuplicate = errors.New("duplicate record")
)
