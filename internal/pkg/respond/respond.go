package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notehive/internal/pkg/apperr"
)

// Options 成功响应的可选项。
type Options struct {
	Code    int               // HTTP 状态码，0 表示 200
	Message string            // 提示消息，空表示 "Success"
	Data    any               // 数据体，nil 时从响应中省略
	Meta    any               // 分页等元信息，nil 时省略
	Token   string            // 登录令牌，空时省略
	Headers map[string]string // 写状态码之前设置的响应头
}

// envelope 统一的成功响应结构。
//
// 约定：键的存在即表示适用，值为空的键不输出 null。
type envelope struct {
	Status  apperr.Status `json:"status"`
	Message string        `json:"message"`
	Data    any           `json:"data,omitempty"`
	Meta    any           `json:"meta,omitempty"`
	Token   string        `json:"token,omitempty"`
}

// Success 写出统一的成功响应。
func Success(c *gin.Context, opts Options) {
	if opts.Code == 0 {
		opts.Code = http.StatusOK
	}
	if opts.Message == "" {
		opts.Message = "Success"
	}
	for key, value := range opts.Headers {
		c.Header(key, value)
	}
	c.JSON(opts.Code, envelope{
		Status:  apperr.StatusSuccess,
		Message: opts.Message,
		Data:    opts.Data,
		Meta:    opts.Meta,
		Token:   opts.Token,
	})
}
