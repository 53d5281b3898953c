package auth

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"notehive/internal/pkg/validate"
)

// 密码允许的字符集；大小写字母与数字的组合要求单独检查
// （Go 的正则不支持前瞻断言）。
var passwordCharset = regexp.MustCompile(`^[A-Za-z\d_]{8,}$`)

func passwordStrength(password string, message string) validate.Check {
	return func(context.Context) (string, bool) {
		trimmed := strings.TrimSpace(password)
		if trimmed == "" {
			return message, true
		}
		if !passwordCharset.MatchString(trimmed) {
			return message, false
		}
		var hasLower, hasUpper, hasDigit bool
		for _, r := range trimmed {
			switch {
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		return message, hasLower && hasUpper && hasDigit
	}
}

func (h *Handler) signupRules(req *signupRequest) []validate.Rule {
	return []validate.Rule{
		{Field: "fullname", Checks: []validate.Check{
			validate.Required(req.Fullname, "User full name is required."),
			validate.Length(req.Fullname, 3, 30, "Full name must be between 3 and 30 characters."),
		}},
		{Field: "email", Checks: []validate.Check{
			validate.Required(req.Email, "User email is required."),
			validate.Email(req.Email, "Please provide a valid email address."),
			h.emailNotRegistered(req.Email, "This email is already registered."),
		}},
		{Field: "password", Checks: []validate.Check{
			validate.Required(req.Password, "Password is required."),
			validate.Length(req.Password, 8, 0, "Password must be at least 8 characters."),
			passwordStrength(req.Password, "Password must contain at least one uppercase letter, one lowercase letter, and one number."),
			validate.Equals(req.Password, req.PasswordConfirm, "Password and confirm password do not match."),
		}},
		{Field: "passwordConfirm", Checks: []validate.Check{
			validate.Required(req.PasswordConfirm, "Password confirmation is required."),
		}},
	}
}

func (h *Handler) loginRules(req *loginRequest) []validate.Rule {
	return []validate.Rule{
		{Field: "email", Checks: []validate.Check{
			validate.Required(req.Email, "User email is required."),
			validate.Email(req.Email, "Please provide a valid email address."),
		}},
		{Field: "password", Checks: []validate.Check{
			validate.Required(req.Password, "Password is required."),
			h.credentialsCorrect(req.Email, req.Password, "Email or password is incorrect."),
		}},
	}
}

func (h *Handler) forgotPasswordRules(req *emailRequest) []validate.Rule {
	return []validate.Rule{
		{Field: "email", Checks: []validate.Check{
			validate.Required(req.Email, "User email is required."),
			validate.Email(req.Email, "Please insert a valid email, such as 'someone@example.com'."),
			h.emailRegistered(req.Email, "Invalid email or password."),
		}},
	}
}

func (h *Handler) resetPasswordRules(req *resetPasswordRequest) []validate.Rule {
	return []validate.Rule{
		{Field: "password", Checks: []validate.Check{
			validate.Required(req.Password, "Password is required."),
			validate.Length(req.Password, 8, 0, "Password must be more than 8 characters."),
			passwordStrength(req.Password, "Password must contain at least 8 characters with letters, numbers, or underscores."),
			validate.Equals(req.Password, req.PasswordConfirm, "Password and confirm password do not match."),
		}},
		{Field: "passwordConfirm", Checks: []validate.Check{
			validate.Required(req.PasswordConfirm, "Password confirmation is required."),
		}},
	}
}

// emailNotRegistered 异步唯一性检查：邮箱不能已被注册。
func (h *Handler) emailNotRegistered(email string, message string) validate.Check {
	return func(ctx context.Context) (string, bool) {
		trimmed := normalizeEmail(email)
		if trimmed == "" {
			return message, true
		}
		if _, err := h.users.ByEmail(ctx, trimmed); err == nil {
			return message, false
		}
		return message, true
	}
}

// emailRegistered 异步存在性检查：邮箱必须已注册。
func (h *Handler) emailRegistered(email string, message string) validate.Check {
	return func(ctx context.Context) (string, bool) {
		trimmed := normalizeEmail(email)
		if trimmed == "" {
			return message, true
		}
		_, err := h.users.ByEmail(ctx, trimmed)
		return message, err == nil
	}
}

// credentialsCorrect 异步凭据检查。
//
// 未知邮箱与错误密码返回同一条消息，避免泄露账户是否存在。
func (h *Handler) credentialsCorrect(email, password string, message string) validate.Check {
	return func(ctx context.Context) (string, bool) {
		if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
			return message, true
		}
		user, err := h.users.ByEmail(ctx, normalizeEmail(email))
		if err != nil {
			return message, false
		}
		return message, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
	}
}
