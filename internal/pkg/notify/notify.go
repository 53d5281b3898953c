package notify

// Notifier 定义通知接口。
type Notifier interface {
	// SendResetCode 发送密码重置验证码。
	//
	// 参数:
	//   toEmail: 接收邮箱
	//   code: 6 位数字验证码
	SendResetCode(toEmail string, code string) error
}
