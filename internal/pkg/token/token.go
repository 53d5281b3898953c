package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 默认令牌有效期。
const DefaultExpiry = 8 * time.Hour

var (
	// ErrNoSecret 未配置签名密钥，属于启动期致命错误。
	ErrNoSecret = errors.New("jwt secret is not configured")
	// ErrExpired 令牌已过期。
	ErrExpired = errors.New("token expired")
	// ErrInvalid 令牌签名无效或格式错误。
	ErrInvalid = errors.New("token invalid")
)

// Config 令牌管理器配置。
type Config struct {
	Secret        string        // HS256 签名密钥
	DefaultExpiry time.Duration // 未指定时使用的有效期，0 表示 8 小时
}

// Claims 自定义声明，Subject 为用户 ID。
type Claims struct {
	jwt.RegisteredClaims
}

// Manager 负责签发、验证与解码 Bearer 令牌。
type Manager struct {
	secret        []byte
	defaultExpiry time.Duration
}

// NewManager 创建令牌管理器。
//
// 密钥缺失是构造期契约错误，调用方应当直接终止进程而不是按请求处理。
func NewManager(cfg Config) (*Manager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, ErrNoSecret
	}
	expiry := cfg.DefaultExpiry
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Manager{secret: []byte(cfg.Secret), defaultExpiry: expiry}, nil
}

// Create 签发一个以 subject 为主体的 HS256 令牌。
//
// expiry 为 0 时使用默认有效期。
func (m *Manager) Create(subject string, expiry time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("create token: empty subject")
	}
	if expiry <= 0 {
		expiry = m.defaultExpiry
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify 校验签名与有效期并返回声明。
//
// 过期与签名无效是两类不同的失败：统一错误中间件会把它们映射为
// 不同的提示消息，因此这里保留分类（ErrExpired / ErrInvalid）。
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrInvalid
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %s", ErrExpired, err.Error())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}
	if !tok.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}

// Decode 不校验签名与有效期，仅读取声明。
//
// 只用于计算撤销窗口这类非信任场景，格式错误时返回 nil，不报错。
func (m *Manager) Decode(tokenString string) *Claims {
	if strings.TrimSpace(tokenString) == "" {
		return nil
	}
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	return claims
}
