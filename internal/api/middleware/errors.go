package middleware

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"notehive/internal/pkg/apperr"
	"notehive/internal/pkg/token"
)

// errorBody 失败响应结构。
type errorBody struct {
	Status apperr.Status `json:"status"`
	Data   any           `json:"data"`
	Stack  string        `json:"stack,omitempty"`
}

// ErrorHandler 所有失败的唯一汇合点。
//
// 上游任何处理器都不在失败路径上写响应，只通过 c.Error 上报；
// 这里做一次规范化（未分类错误统一 500/error），把两类令牌错误
// 改写为固定的 401 提示，并在开发模式下附带诊断信息。
func ErrorHandler(logger *slog.Logger, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperr.Error
		switch {
		case errors.Is(err, token.ErrExpired):
			appErr = apperr.Unauthenticated("Expired token, please login again..")
		case errors.Is(err, token.ErrInvalid):
			appErr = apperr.Unauthenticated("Invalid token, please login again..")
		default:
			appErr = apperr.From(err)
		}

		if logger != nil {
			logger.Warn("request failed",
				slog.String("path", c.Request.URL.Path),
				slog.Int("status", appErr.Code),
				slog.String("error", err.Error()),
			)
		}

		if c.Writer.Written() {
			return
		}

		body := errorBody{
			Status: appErr.Status,
			Data:   appErr.Body(),
		}
		if development {
			body.Stack = fmt.Sprintf("%+v", err)
		}
		c.JSON(appErr.Code, body)
	}
}
