package validate

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"notehive/internal/pkg/apperr"
)

var v = validator.New()

// Check 单个字段检查。
//
// 返回 ok=false 时 message 会被追加到该字段的错误列表。
// 需要访问存储的异步检查以闭包形式出现，由 Runner 按声明顺序等待。
type Check func(ctx context.Context) (message string, ok bool)

// Rule 一个字段及其按序执行的检查链。
type Rule struct {
	Field  string
	Checks []Check
}

// Run 执行全部规则并收集所有失败。
//
// 与短路校验不同：所有检查都会跑完，任何失败都会进入
// 按字段分组的错误映射；存在失败时返回一个 400 错误，否则返回 nil。
// 同一字段内的检查按声明顺序执行，字段之间没有附加顺序约束。
func Run(ctx context.Context, rules []Rule) error {
	fields := map[string][]string{}
	for _, rule := range rules {
		for _, check := range rule.Checks {
			message, ok := check(ctx)
			if !ok {
				fields[rule.Field] = append(fields[rule.Field], message)
			}
		}
	}
	if len(fields) > 0 {
		return apperr.WithFields(fields)
	}
	return nil
}

// Required 非空检查（先去除首尾空白）。
func Required(value string, message string) Check {
	return func(context.Context) (string, bool) {
		return message, strings.TrimSpace(value) != ""
	}
}

// Length 长度区间检查，max 为 0 表示不限上限。
//
// 空值直接放行，配合 Required 组合使用。
func Length(value string, min, max int, message string) Check {
	return func(context.Context) (string, bool) {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return message, true
		}
		n := len([]rune(trimmed))
		if n < min {
			return message, false
		}
		if max > 0 && n > max {
			return message, false
		}
		return message, true
	}
}

// Email 邮箱格式检查（validator/v10 的 email 规则）。
func Email(value string, message string) Check {
	return func(context.Context) (string, bool) {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return message, true
		}
		return message, v.Var(trimmed, "email") == nil
	}
}

// Match 正则检查。
func Match(value string, pattern *regexp.Regexp, message string) Check {
	return func(context.Context) (string, bool) {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return message, true
		}
		return message, pattern.MatchString(trimmed)
	}
}

// Equals 跨字段一致性检查（如 password / passwordConfirm）。
func Equals(value, other string, message string) Check {
	return func(context.Context) (string, bool) {
		return message, value == other
	}
}

// Var 直接套用 validator/v10 的 tag 规则。
func Var(value string, tag string, message string) Check {
	return func(context.Context) (string, bool) {
		if err := v.Var(value, tag); err != nil {
			return message, false
		}
		return message, true
	}
}
