package apperr

import (
	"fmt"
	"net/http"
	"strings"
)

// Status 响应状态文本。
type Status string

const (
	StatusSuccess Status = "success" // 成功
	StatusFail    Status = "fail"    // 业务失败（4xx）
	StatusError   Status = "error"   // 系统错误（5xx / 认证类）
)

// Error 表示一次业务失败。
//
// 它携带 HTTP 状态码、状态文本和提示消息，在检测到失败的位置构造，
// 由统一错误中间件一次性转换为响应。构造过程不做任何 I/O。
type Error struct {
	Code    int                 // HTTP 状态码
	Status  Status              // 状态文本: fail / error
	Message string              // 用户可见消息
	Fields  map[string][]string // 按字段分组的校验错误（可为空）
	Err     error               // 底层错误（仅用于日志与 errors.Is）
}

// New 创建一个带状态码与消息的错误。
func New(code int, status Status, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// WithFields 创建一个携带字段校验错误的 400 错误。
//
// 同一字段的多条消息按顺序追加，不会相互覆盖。
func WithFields(fields map[string][]string) *Error {
	return &Error{Code: http.StatusBadRequest, Status: StatusFail, Fields: fields}
}

// Wrap 在错误上附加底层原因，便于日志追踪。
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for field, msgs := range e.Fields {
			parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
		}
		return strings.Join(parts, ", ")
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Body 返回写入响应的数据体：有字段错误时返回字段映射，否则返回消息。
func (e *Error) Body() any {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	return e.Message
}

// Unauthenticated 401。
func Unauthenticated(message string) *Error {
	return New(http.StatusUnauthorized, StatusError, message)
}

// Forbidden 403。
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, StatusFail, message)
}

// NotFound 404。
func NotFound(message string) *Error {
	return New(http.StatusNotFound, StatusFail, message)
}

// Conflict 409（如邮箱重复）。
func Conflict(message string) *Error {
	return New(http.StatusConflict, StatusFail, message)
}

// Internal 500。
func Internal(message string) *Error {
	return New(http.StatusInternalServerError, StatusError, message)
}

// From 将任意错误规范化为 *Error。
//
// 未分类的错误统一为 500 / error，消息保持原样。
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*Error); ok {
		if appErr.Code == 0 {
			appErr.Code = http.StatusInternalServerError
		}
		if appErr.Status == "" {
			appErr.Status = StatusError
		}
		return appErr
	}
	return Internal(err.Error()).Wrap(err)
}
