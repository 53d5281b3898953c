package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"notehive/internal/api/middleware"
	"notehive/internal/model"
	"notehive/internal/pkg/apperr"
	"notehive/internal/pkg/notify"
	"notehive/internal/pkg/respond"
	"notehive/internal/pkg/token"
	"notehive/internal/pkg/validate"
	"notehive/internal/store"
)

const (
	bcryptCost      = 12
	resetCodeExpiry = 10 * time.Minute
)

// UserStore 认证流程需要的用户存储操作。
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByID(ctx context.Context, id uint) (*model.User, error)
	SetResetCode(ctx context.Context, id uint, codeHash string, expiresAt time.Time) error
	MarkResetVerified(ctx context.Context, id uint) error
	ResetPassword(ctx context.Context, id uint, passwordHash string) error
	SetProfilePic(ctx context.Context, id uint, fileName string) (*model.User, error)
}

// TokenRevoker 注销时写入的撤销集合。
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenString string, expiresAt time.Time) error
}

// PicSaver 头像处理与落盘。
type PicSaver interface {
	SaveProfilePic(data []byte) (string, error)
}

// Handler 提供注册、登录、注销与密码重置接口。
type Handler struct {
	users   UserStore
	tokens  *token.Manager
	revoker TokenRevoker
	mailer  notify.Notifier
	pics    PicSaver
	logger  *slog.Logger
}

// NewHandler 创建 Auth Handler。
func NewHandler(users UserStore, tokens *token.Manager, revoker TokenRevoker, mailer notify.Notifier, pics PicSaver, logger *slog.Logger) *Handler {
	return &Handler{
		users:   users,
		tokens:  tokens,
		revoker: revoker,
		mailer:  mailer,
		pics:    pics,
		logger:  logger,
	}
}

type signupRequest struct {
	Fullname        string `json:"fullname"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resetPasswordRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Signup 创建新用户。
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.New(http.StatusBadRequest, apperr.StatusFail, "Invalid request body.").Wrap(err))
		return
	}

	ctx := c.Request.Context()
	if err := validate.Run(ctx, h.signupRules(&req)); err != nil {
		h.fail(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	user := &model.User{
		Fullname: strings.TrimSpace(req.Fullname),
		Email:    normalizeEmail(req.Email),
		Password: string(hash),
	}
	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.fail(c, apperr.Conflict("This email is already registered."))
			return
		}
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	h.logger.Info("user created", slog.String("email", user.Email))
	respond.Success(c, respond.Options{
		Code:    http.StatusCreated,
		Message: "User created successfully",
		Data:    user,
	})
}

// Login 校验凭据并签发令牌。
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.New(http.StatusBadRequest, apperr.StatusFail, "Invalid request body.").Wrap(err))
		return
	}

	ctx := c.Request.Context()
	if err := validate.Run(ctx, h.loginRules(&req)); err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.users.ByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		// 校验阶段已确认凭据，走到这里属于系统故障
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	signed, err := h.tokens.Create(strconv.FormatUint(uint64(user.ID), 10), 0)
	if err != nil {
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	h.logger.Info("user logged in", slog.String("email", user.Email))
	respond.Success(c, respond.Options{
		Message: "User logged in successfully",
		Data:    user,
		Token:   signed,
	})
}

// Logout 将当前令牌加入撤销集合。
//
// 撤销条目的生存期取自令牌自身的 exp 声明（只解码，不做信任判断）。
func (h *Handler) Logout(c *gin.Context) {
	tokenString := middleware.BearerToken(c.GetHeader("Authorization"))

	expiresAt := time.Now().Add(token.DefaultExpiry)
	if claims := h.tokens.Decode(tokenString); claims != nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := h.revoker.Revoke(c.Request.Context(), tokenString, expiresAt); err != nil {
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	respond.Success(c, respond.Options{
		Message: "User logged out successfully",
	})
}

// ForgotPassword 生成重置验证码并通过邮件发送。
//
// 无论此前处于重置流程的哪个阶段，重新发起都会作废旧验证码，
// 只有最近一次的验证码有效。
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.New(http.StatusBadRequest, apperr.StatusFail, "Invalid request body.").Wrap(err))
		return
	}

	ctx := c.Request.Context()
	if err := validate.Run(ctx, h.forgotPasswordRules(&req)); err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.users.ByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	code, err := generateResetCode()
	if err != nil {
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	if err := h.users.SetResetCode(ctx, user.ID, hashCode(code), time.Now().Add(resetCodeExpiry)); err != nil {
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	// 邮件发送完成后才返回响应
	if err := h.mailer.SendResetCode(user.Email, code); err != nil {
		h.logger.Warn("send reset code failed", slog.String("email", user.Email), slog.String("error", err.Error()))
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	h.logger.Info("reset code sent", slog.String("email", user.Email))
	respond.Success(c, respond.Options{
		Message: "Reset password code sent to email",
	})
}

// VerifyCode 核验重置验证码。
//
// 错误码和过期统一返回同一条消息，不向调用方区分两种情况。
func (h *Handler) VerifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.New(http.StatusBadRequest, apperr.StatusFail, "Invalid request body.").Wrap(err))
		return
	}

	invalidCode := apperr.New(http.StatusBadRequest, apperr.StatusFail, "Invalid or expired reset code")

	ctx := c.Request.Context()
	user, err := h.users.ByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		h.fail(c, invalidCode)
		return
	}

	if user.ResetCodeHash == "" || user.ResetCodeHash != hashCode(strings.TrimSpace(req.Code)) {
		h.fail(c, invalidCode)
		return
	}
	if user.ResetCodeExpiresAt == nil || time.Now().After(*user.ResetCodeExpiresAt) {
		h.fail(c, invalidCode)
		return
	}

	if err := h.users.MarkResetVerified(ctx, user.ID); err != nil {
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	h.logger.Info("reset code verified", slog.String("email", user.Email))
	respond.Success(c, respond.Options{
		Message: "Reset code verified successfully",
	})
}

// ResetPassword 在验证码核验通过后更新密码。
//
// 新密码与重置字段的清空必须落在同一条 UPDATE 中，
// 成功后流程回到初始状态，再次重置需要重新走 forgot-password。
func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.New(http.StatusBadRequest, apperr.StatusFail, "Invalid request body.").Wrap(err))
		return
	}

	ctx := c.Request.Context()
	if err := validate.Run(ctx, h.resetPasswordRules(&req)); err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.users.ByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		h.fail(c, apperr.New(http.StatusBadRequest, apperr.StatusFail, "Reset code not verified"))
		return
	}
	if !user.ResetCodeVerified {
		h.fail(c, apperr.New(http.StatusBadRequest, apperr.StatusFail, "Reset code not verified"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	if err := h.users.ResetPassword(ctx, user.ID, string(hash)); err != nil {
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	h.logger.Info("password reset", slog.String("email", user.Email))
	respond.Success(c, respond.Options{
		Message: "Password reset successfully",
	})
}

// UpdateProfilePic 上传并更新头像。
func (h *Handler) UpdateProfilePic(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.fail(c, apperr.Unauthenticated("You are not logged in. Please log in to access this route."))
		return
	}

	file, header, err := c.Request.FormFile("profilePic")
	if err != nil {
		h.fail(c, apperr.New(http.StatusBadRequest, apperr.StatusFail, "Profile picture file is required.").Wrap(err))
		return
	}
	defer file.Close()

	if contentType := header.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "image") {
		h.fail(c, apperr.New(http.StatusBadRequest, apperr.StatusFail, "This is not an image"))
		return
	}

	data := make([]byte, header.Size)
	if _, err := io.ReadFull(file, data); err != nil {
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	fileName, err := h.pics.SaveProfilePic(data)
	if err != nil {
		h.fail(c, apperr.New(http.StatusBadRequest, apperr.StatusFail, "This is not an image").Wrap(err))
		return
	}

	updated, err := h.users.SetProfilePic(c.Request.Context(), user.ID, fileName)
	if err != nil {
		h.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	h.logger.Info("profile pic updated", slog.String("email", user.Email), slog.String("file", fileName))
	respond.Success(c, respond.Options{
		Message: "Profile picture updated successfully",
		Data:    updated,
	})
}

// fail 记录失败并交给统一错误中间件。
func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateResetCode 生成 100000-999999 上均匀分布的 6 位数字码。
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// hashCode 验证码只保存单向哈希。
func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
