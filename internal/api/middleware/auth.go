package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"notehive/internal/model"
	"notehive/internal/pkg/apperr"
	"notehive/internal/pkg/token"
)

const userKey = "currentUser"

// UserResolver 把令牌主体解析为在线用户记录。
type UserResolver interface {
	ByID(ctx context.Context, id uint) (*model.User, error)
}

// BearerToken 从 Authorization 头中提取令牌。
//
// 缺失或没有 "Bearer " 前缀时返回空串。
func BearerToken(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth 校验 Bearer 令牌并把解析出的用户写入请求上下文。
//
// 这是守卫对请求做的唯一修改。注销集合在这里不做检查：
// 撤销只在协作方显式调用 IsRevoked 时才有外部可见效果。
func RequireAuth(tokens *token.Manager, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := BearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			abortWith(c, apperr.Unauthenticated("You are not logged in. Please log in to access this route."))
			return
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			// 过期/无效的分类保留给统一错误中间件映射
			abortWith(c, err)
			return
		}

		id, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			abortWith(c, apperr.Unauthenticated("Invalid token, please login again.."))
			return
		}

		user, err := users.ByID(c.Request.Context(), uint(id))
		if err != nil {
			abortWith(c, apperr.New(http.StatusNotFound, apperr.StatusError, "The user that belongs to this token no longer exists."))
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser 读取守卫写入的用户。
func CurrentUser(c *gin.Context) (*model.User, bool) {
	value, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok
}

// SetCurrentUser 供测试直接注入认证身份。
func SetCurrentUser(c *gin.Context, user *model.User) {
	c.Set(userKey, user)
}

func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
