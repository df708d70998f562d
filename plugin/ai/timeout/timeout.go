// Package timeout defines centralized timeout constants for honeypot operations.
// Package timeout 定义蜜罐操作的集中式超时常量。
package timeout

import "time"

// Honeypot operation timeout constants.
// 蜜罐操作超时常量。
const (
	// ReplyDeadline is the wall-clock bound on producing one persona reply.
	// ReplyDeadline 是生成一条角色回复的墙钟时间上限。
	ReplyDeadline = 8 * time.Second

	// BackendRequestTimeout is the HTTP timeout of a single generative backend call.
	// It is longer than ReplyDeadline; the deadline abandons the call first.
	// BackendRequestTimeout 是单次生成后端调用的 HTTP 超时时间。
	BackendRequestTimeout = 30 * time.Second

	// ReportTimeout is the timeout for delivering a final report upstream.
	// ReportTimeout 是向上游投递最终报告的超时时间。
	ReportTimeout = 10 * time.Second

	// ShutdownTimeout is the grace period for in-flight requests on shutdown.
	// ShutdownTimeout 是关闭时等待进行中请求的宽限期。
	ShutdownTimeout = 15 * time.Second

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	// MaxTruncateLength 是日志中字符串截断的最大长度。
	MaxTruncateLength = 200
)
